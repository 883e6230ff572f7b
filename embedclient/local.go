package embedclient

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"

	"github.com/ladybug-space/ladybug/helper"
)

// localProvider runs embeddings in-process via a hugot feature-extraction
// pipeline, grounded on the teacher's DefaultEmbedder session/pipeline
// lifecycle.
type localProvider struct {
	session  *hugot.Session
	pipeline *hugot.FeatureExtractionPipeline
	dim      int
}

// NewLocal prepares (downloading if needed) the named sentence-transformer
// model and returns a Provider backed by it.
func NewLocal(cfg Config) (*localProvider, error) {
	modelName := cfg.ModelName
	if modelName == "" {
		modelName = "sentence-transformers/all-MiniLM-L6-v2"
	}

	modelPath, err := helper.PrepareModel(modelName, cfg.ONNXFilePath)
	if err != nil {
		return nil, helper.WrapKind("prepare model", helper.ErrProviderUnavailable, err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, helper.WrapKind("create hugot session", helper.ErrProviderUnavailable, err)
	}

	pipelineConfig := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "ladybug-embedder",
	}
	pipeline, err := hugot.NewPipeline(session, pipelineConfig)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, helper.NewError("create feature extraction pipeline", fmt.Errorf("%w (cleanup error: %v)", err, destroyErr))
		}
		return nil, helper.WrapKind("create feature extraction pipeline", helper.ErrProviderUnavailable, err)
	}

	dim := cfg.Dimension
	if dim == 0 {
		dim = 384 // all-MiniLM-L6-v2's native width
	}

	return &localProvider{session: session, pipeline: pipeline, dim: dim}, nil
}

func (p *localProvider) Dimension() int { return p.dim }

func (p *localProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (p *localProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out, toRun, runIndex := prepareBatch(texts, p.dim)
	if len(toRun) == 0 {
		return out, nil
	}

	result, err := p.pipeline.RunPipeline(toRun)
	if err != nil {
		return nil, helper.WrapKind("run embedding pipeline", helper.ErrProviderUnavailable, err)
	}
	if len(result.Embeddings) != len(toRun) {
		return nil, helper.NewError("run embedding pipeline", fmt.Errorf("expected %d embeddings, got %d", len(toRun), len(result.Embeddings)))
	}

	for i, idx := range runIndex {
		out[idx] = result.Embeddings[i]
	}

	return out, nil
}

// Close releases the hugot session.
func (p *localProvider) Close() error {
	if p.session == nil {
		return nil
	}
	return p.session.Destroy()
}
