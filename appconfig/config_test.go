package appconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultMatchesDocumentedValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "/data/ladybug", cfg.DBPath)
	assert.Equal(t, "/space", cfg.SpacePath)
	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.Equal(t, 8000, cfg.MCPPort)
	assert.True(t, cfg.EnableEmbeddings)
}

func TestFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/db")
	t.Setenv("SPACE_PATH", "/tmp/space")
	t.Setenv("GRPC_PORT", "9999")
	t.Setenv("MCP_PORT", "8888")
	t.Setenv("EMBEDDING_PROVIDER", "local")
	t.Setenv("ENABLE_EMBEDDINGS", "false")
	t.Setenv("ALLOW_LIBRARY_MANAGEMENT", "true")

	cfg := FromEnv()
	assert.Equal(t, "/tmp/db", cfg.DBPath)
	assert.Equal(t, "/tmp/space", cfg.SpacePath)
	assert.Equal(t, 9999, cfg.GRPCPort)
	assert.Equal(t, 8888, cfg.MCPPort)
	assert.Equal(t, "local", cfg.EmbeddingProvider)
	assert.False(t, cfg.EnableEmbeddings)
	assert.True(t, cfg.AllowLibraryManagement)
}

func TestFromEnvIgnoresInvalidIntAndBool(t *testing.T) {
	t.Setenv("GRPC_PORT", "not-a-number")
	t.Setenv("ENABLE_EMBEDDINGS", "not-a-bool")

	cfg := FromEnv()
	assert.Equal(t, Default().GRPCPort, cfg.GRPCPort)
	assert.Equal(t, Default().EnableEmbeddings, cfg.EnableEmbeddings)
}
