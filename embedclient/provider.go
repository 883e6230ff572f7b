package embedclient

import "context"

// Provider is the uniform embedding contract every backend implements: a
// single-text and a batch call, plus the fixed vector width it produces.
// The active provider fixes that width for the process lifetime (§4.2, I5).
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Config selects and parameterizes one provider.
type Config struct {
	Kind string // "local" or "remote"

	// local
	ModelName    string
	ONNXFilePath string

	// remote
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
}

const (
	KindLocal  = "local"
	KindRemote = "remote"
)
