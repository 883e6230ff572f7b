package embedclient

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ladybug-space/ladybug/helper"
)

var errEmptyAPIKey = errors.New("api key is required for the remote embedding provider")

// remoteProvider calls a hosted embeddings API. The teacher carries
// openai-go/v3 as an unused indirect dependency; this is its one caller.
type remoteProvider struct {
	client openai.Client
	model  string
	dim    int
}

// NewRemote builds a Provider against an OpenAI-compatible embeddings
// endpoint. BaseURL is optional; an empty value uses the SDK default.
func NewRemote(cfg Config) (*remoteProvider, error) {
	if cfg.APIKey == "" {
		return nil, helper.WrapKind("new remote provider", helper.ErrInvalidArgument, errEmptyAPIKey)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	dim := cfg.Dimension
	if dim == 0 {
		dim = 1536
	}

	return &remoteProvider{
		client: openai.NewClient(opts...),
		model:  model,
		dim:    dim,
	}, nil
}

func (p *remoteProvider) Dimension() int { return p.dim }

func (p *remoteProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (p *remoteProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out, toRun, runIndex := prepareBatch(texts, p.dim)
	if len(toRun) == 0 {
		return out, nil
	}

	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: toRun},
		Model: p.model,
	})
	if err != nil {
		return nil, helper.WrapKind("call embeddings api", helper.ErrProviderUnavailable, err)
	}

	for i, idx := range runIndex {
		if i >= len(resp.Data) {
			break
		}
		vec := make([]float32, len(resp.Data[i].Embedding))
		for j, v := range resp.Data[i].Embedding {
			vec[j] = float32(v)
		}
		out[idx] = vec
	}

	return out, nil
}
