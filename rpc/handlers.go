// Package rpc implements the wire-compatible operations named in §6's RPC
// surface table as plain Go methods, dispatched by the tool server (the gRPC
// server in grpc.go carries only health and reflection services). Dispatch
// here is mechanical: each method validates its
// request, delegates to graphstore/hybrid/mdparser, and folds the result
// into a success/error envelope.
package rpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ladybug-space/ladybug/embedclient"
	"github.com/ladybug-space/ladybug/hybrid"
	"github.com/ladybug-space/ladybug/mdparser"
	"github.com/ladybug-space/ladybug/model"
)

// GraphStore is the subset of graphstore.Store the RPC layer calls
// directly (outside of hybrid.Searcher's own fused path).
type GraphStore interface {
	KeywordSearch(ctx context.Context, query, scope string, limit int) ([]model.KeywordHit, error)
	VectorSearch(ctx context.Context, queryEmbedding []float32, limit int, filterTags, filterPages []string, scope string) ([]model.SemanticHit, error)
	Cypher(ctx context.Context, query string, params []interface{}) ([]map[string]interface{}, error)
}

// Parser is the subset of mdparser.Parser the RPC layer calls directly.
type Parser interface {
	GetFrontmatter(path string) (model.Metadata, error)
	GetFolderIndexPages(root string) (map[string]string, error)
}

// Handlers backs every tool-server operation with one shared
// implementation, the way the teacher's server struct backs its RPC methods
// with the same chunker/embedder/storage fields regardless of transport.
type Handlers struct {
	Root         string
	ProposalsDir string

	Store    GraphStore
	Search   *hybrid.Searcher
	Embedder embedclient.Provider
	Parser   Parser
	Logger   *slog.Logger
}

func New(root, proposalsDir string, store GraphStore, search *hybrid.Searcher, embedder embedclient.Provider, parser Parser, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		Root: root, ProposalsDir: proposalsDir,
		Store: store, Search: search, Embedder: embedder, Parser: parser, Logger: logger,
	}
}

// envelope carries the success/error fields every RPC response shares.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func ok() envelope              { return envelope{Success: true} }
func failed(err error) envelope { return envelope{Success: false, Error: err.Error()} }

// IsError reports whether the call failed, so callers composing a generic
// result envelope (e.g. toolserver's MCP responses) don't need to duplicate
// each operation's response struct.
func (e envelope) IsError() bool { return !e.Success }

// QueryResponse is Query's response shape.
type QueryResponse struct {
	ResultsJSON string `json:"results_json"`
	envelope
}

// Query runs an opaque parameterized SQL statement over the relational
// graph store, per §6's cypher_query passthrough.
func (h *Handlers) Query(ctx context.Context, cypherQuery string) QueryResponse {
	rows, err := h.Store.Cypher(ctx, cypherQuery, nil)
	if err != nil {
		return QueryResponse{envelope: failed(err)}
	}
	body, err := json.Marshal(rows)
	if err != nil {
		return QueryResponse{envelope: failed(err)}
	}
	return QueryResponse{ResultsJSON: string(body), envelope: ok()}
}

// SearchResponse is Search's response shape.
type SearchResponse struct {
	ResultsJSON string `json:"results_json"`
	envelope
}

// Search runs keyword-only (BM25) retrieval, per §6's keyword_search tool.
func (h *Handlers) Search(ctx context.Context, keyword string, limit int) SearchResponse {
	if limit <= 0 {
		limit = 10
	}
	hits, err := h.Store.KeywordSearch(ctx, keyword, "", limit)
	if err != nil {
		return SearchResponse{envelope: failed(err)}
	}
	body, err := json.Marshal(stripHitEmbeddings(hits))
	if err != nil {
		return SearchResponse{envelope: failed(err)}
	}
	return SearchResponse{ResultsJSON: string(body), envelope: ok()}
}

func stripHitEmbeddings(hits []model.KeywordHit) []model.KeywordHit {
	out := make([]model.KeywordHit, len(hits))
	for i, h := range hits {
		h.Chunk = h.Chunk.WithoutEmbedding()
		out[i] = h
	}
	return out
}

// SemanticSearch runs vector-only retrieval, per §6's semantic_search tool.
func (h *Handlers) SemanticSearch(ctx context.Context, query string, limit int, filterTags, filterPages []string) SearchResponse {
	if limit <= 0 {
		limit = 10
	}
	if h.Embedder == nil {
		return SearchResponse{envelope: failed(errEmbeddingsUnavailable)}
	}
	vec, err := h.Embedder.Embed(ctx, query)
	if err != nil {
		return SearchResponse{envelope: failed(err)}
	}
	hits, err := h.Store.VectorSearch(ctx, vec, limit, filterTags, filterPages, "")
	if err != nil {
		return SearchResponse{envelope: failed(err)}
	}
	for i := range hits {
		hits[i].Chunk = hits[i].Chunk.WithoutEmbedding()
	}
	body, err := json.Marshal(hits)
	if err != nil {
		return SearchResponse{envelope: failed(err)}
	}
	return SearchResponse{ResultsJSON: string(body), envelope: ok()}
}

// HybridSearchParams carries hybrid_search_tool's optional parameters. A nil
// WeightKeyword/WeightSemantic means "use this RPC layer's own default",
// which is 0.5/0.5 per §6 — distinct from hybrid.Searcher's own internal
// DefaultSearchConfig weights of 0.6/0.4 (§4.4), which only apply when a
// caller reaches hybrid.Searcher directly rather than through this surface.
type HybridSearchParams struct {
	Limit          int
	FilterTags     []string
	FilterPages    []string
	Fusion         model.FusionMode
	WeightKeyword  *float64
	WeightSemantic *float64
}

// HybridSearch runs the fused keyword+semantic pipeline, per §6's
// hybrid_search_tool.
func (h *Handlers) HybridSearch(ctx context.Context, query string, params HybridSearchParams) SearchResponse {
	cfg := model.SearchConfig{
		Limit:          params.Limit,
		FilterTags:     params.FilterTags,
		FilterPages:    params.FilterPages,
		Fusion:         params.Fusion,
		WeightKeyword:  0.5,
		WeightSemantic: 0.5,
		RRFK:           60,
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	if cfg.Fusion == "" {
		cfg.Fusion = model.FusionRRF
	}
	if params.WeightKeyword != nil {
		cfg.WeightKeyword = *params.WeightKeyword
	}
	if params.WeightSemantic != nil {
		cfg.WeightSemantic = *params.WeightSemantic
	}

	results, err := h.Search.Search(ctx, query, cfg)
	if err != nil {
		return SearchResponse{envelope: failed(err)}
	}
	body, err := json.Marshal(results)
	if err != nil {
		return SearchResponse{envelope: failed(err)}
	}
	return SearchResponse{ResultsJSON: string(body), envelope: ok()}
}

// ReadPageResponse is ReadPage's response shape.
type ReadPageResponse struct {
	Content string `json:"content"`
	envelope
}

// ReadPage returns the raw content of one markdown page by name.
func (h *Handlers) ReadPage(ctx context.Context, pageName string) ReadPageResponse {
	path, err := resolveSafe(h.Root, pageName+".md")
	if err != nil {
		return ReadPageResponse{envelope: failed(err)}
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return ReadPageResponse{envelope: failed(errPageNotFound)}
	}
	return ReadPageResponse{Content: string(body), envelope: ok()}
}

// GetFolderContextResponse is GetFolderContext's response shape.
type GetFolderContextResponse struct {
	Found       bool   `json:"found"`
	PageName    string `json:"page_name"`
	PageContent string `json:"page_content"`
	FolderScope string `json:"folder_scope"`
	envelope
}

// GetFolderContext looks up a folder's sibling index page ("<folder>.md"),
// the Silverbullet convention mdparser.GetFolderIndexPages also implements.
func (h *Handlers) GetFolderContext(ctx context.Context, folderPath string) GetFolderContextResponse {
	folderDir, err := resolveSafe(h.Root, folderPath)
	if err != nil {
		return GetFolderContextResponse{envelope: failed(err)}
	}
	if stat, statErr := os.Stat(folderDir); statErr != nil || !stat.IsDir() {
		return GetFolderContextResponse{FolderScope: folderPath, envelope: ok()}
	}

	indexPages, err := h.Parser.GetFolderIndexPages(h.Root)
	if err != nil {
		return GetFolderContextResponse{envelope: failed(err)}
	}
	relFolder := filepath.ToSlash(folderPath)
	indexPage, has := indexPages[relFolder]
	if !has {
		return GetFolderContextResponse{FolderScope: relFolder, envelope: ok()}
	}

	content, err := os.ReadFile(filepath.Join(h.Root, filepath.FromSlash(indexPage)))
	if err != nil {
		return GetFolderContextResponse{FolderScope: relFolder, envelope: ok()}
	}

	return GetFolderContextResponse{
		Found:       true,
		PageName:    mdparser.PageName(indexPage),
		PageContent: string(content),
		FolderScope: relFolder,
		envelope:    ok(),
	}
}

// ProjectInfo is GetProjectContext's nested "project" field.
type ProjectInfo struct {
	File     string   `json:"file"`
	GitHub   string   `json:"github"`
	Tags     []string `json:"tags"`
	Concerns []string `json:"concerns"`
	Content  string   `json:"content"`
}

// RelatedPage is one entry of GetProjectContext's related_pages list.
type RelatedPage struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// GetProjectContextResponse is GetProjectContext's response shape.
type GetProjectContextResponse struct {
	Project      *ProjectInfo  `json:"project,omitempty"`
	RelatedPages []RelatedPage `json:"related_pages,omitempty"`
	envelope
}

// GetProjectContext locates a project page by github remote or folder path
// and returns its frontmatter-derived project summary alongside its
// folder-mates, per §6.
func (h *Handlers) GetProjectContext(ctx context.Context, githubRemote, folderPath string) GetProjectContextResponse {
	var (
		filePath string
		err      error
	)
	switch {
	case githubRemote != "":
		filePath, err = h.findPageByGithubRemote(ctx, githubRemote)
	case folderPath != "":
		filePath, err = h.findFolderIndexPage(folderPath)
	default:
		return GetProjectContextResponse{envelope: failed(errProjectLookupArgsRequired)}
	}
	if err != nil {
		return GetProjectContextResponse{envelope: failed(err)}
	}
	if filePath == "" {
		return GetProjectContextResponse{envelope: failed(errPageNotFound)}
	}

	content, err := os.ReadFile(filepath.Join(h.Root, filepath.FromSlash(filePath)))
	if err != nil {
		return GetProjectContextResponse{envelope: failed(errPageNotFound)}
	}
	fm, err := h.Parser.GetFrontmatter(filepath.Join(h.Root, filepath.FromSlash(filePath)))
	if err != nil {
		fm = model.Metadata{}
	}

	project := &ProjectInfo{
		File:     filePath,
		GitHub:   stringField(fm, "github"),
		Tags:     stringListField(fm, "tags"),
		Concerns: stringListField(fm, "concerns"),
		Content:  string(content),
	}

	related, err := h.relatedPages(ctx, filePath)
	if err != nil {
		related = nil
	}

	return GetProjectContextResponse{Project: project, RelatedPages: related, envelope: ok()}
}

func (h *Handlers) findPageByGithubRemote(ctx context.Context, remote string) (string, error) {
	rows, err := h.Store.Cypher(ctx,
		"SELECT DISTINCT file_path FROM chunks WHERE frontmatter->>'github' = $1 LIMIT 1",
		[]interface{}{remote})
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	path, _ := rows[0]["file_path"].(string)
	return path, nil
}

func (h *Handlers) findFolderIndexPage(folderPath string) (string, error) {
	indexPages, err := h.Parser.GetFolderIndexPages(h.Root)
	if err != nil {
		return "", err
	}
	return indexPages[filepath.ToSlash(folderPath)], nil
}

func (h *Handlers) relatedPages(ctx context.Context, filePath string) ([]RelatedPage, error) {
	folder := filepath.ToSlash(filepath.Dir(filePath))
	if folder == "." {
		folder = ""
	}
	rows, err := h.Store.Cypher(ctx,
		"SELECT DISTINCT file_path FROM chunks WHERE folder_path = $1 AND file_path != $2 ORDER BY file_path",
		[]interface{}{folder, filePath})
	if err != nil {
		return nil, err
	}
	related := make([]RelatedPage, 0, len(rows))
	for _, row := range rows {
		path, _ := row["file_path"].(string)
		if path == "" {
			continue
		}
		related = append(related, RelatedPage{Name: mdparser.PageName(path), Path: path})
	}
	return related, nil
}

func stringField(fm model.Metadata, key string) string {
	if fm == nil {
		return ""
	}
	s, _ := fm[key].(string)
	return s
}

func stringListField(fm model.Metadata, key string) []string {
	if fm == nil {
		return nil
	}
	switch v := fm[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Split(v, ",")
	default:
		return nil
	}
}
