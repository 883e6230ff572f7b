package graphstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ladybug-space/ladybug/model"
)

func TestTokenize(t *testing.T) {
	t.Run("lowercases and deduplicates", func(t *testing.T) {
		assert.Equal(t, []string{"graph", "database"}, tokenize("Graph Database graph"))
	})
}

func TestTermFrequency(t *testing.T) {
	t.Run("weights file_path and header above content", func(t *testing.T) {
		c := model.Chunk{Content: "database database", FilePath: "database/notes.md", Header: "database design"}
		tf := termFrequency("database", c)
		assert.InDelta(t, 2+1.5*1+2.0*1, tf, 0.0001)
	})
}

func TestRound4(t *testing.T) {
	assert.Equal(t, 1.2346, round4(1.23456789))
}
