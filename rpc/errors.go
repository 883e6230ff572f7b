package rpc

import "errors"

var (
	errPageNotFound              = errors.New("page not found")
	errEmbeddingsUnavailable     = errors.New("semantic search unavailable: embeddings disabled")
	errProjectLookupArgsRequired = errors.New("github_remote or folder_path is required")
	errProposalNotFound          = errors.New("proposal not found")
)
