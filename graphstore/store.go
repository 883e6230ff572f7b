package graphstore

import (
	"context"
	"errors"
	"time"

	"github.com/ladybug-space/ladybug/helper"
)

var errNilDatabase = errors.New("database handle is nil")

// Store is the graph-store handle: a live Postgres pool plus the fixed
// embedding dimension negotiated with the active embedding provider at
// init time (§3 I5).
type Store struct {
	db           *helper.Database
	embeddingDim int
	embeddingsOn bool
}

// New loads the graph schema (creating it if absent) and, when
// embeddingsEnabled, the HNSW vector index sized to embeddingDim. Safe to
// call repeatedly.
func New(db *helper.Database, embeddingDim int, embeddingsEnabled bool, force bool) (*Store, error) {
	if db == nil || db.Instance == nil {
		return nil, helper.WrapKind("new graph store", helper.ErrInvalidArgument, errNilDatabase)
	}

	if err := loadSchema(db.Instance, force); err != nil {
		return nil, helper.WrapKind("load graph schema", helper.ErrStoreError, err)
	}

	s := &Store{db: db, embeddingDim: embeddingDim, embeddingsOn: embeddingsEnabled}

	if embeddingsEnabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := db.Instance.ExecContext(ctx, `SELECT init_embedding_index($1)`, embeddingDim); err != nil {
			return nil, helper.WrapKind("init embedding index", helper.ErrStoreError, err)
		}
	}

	db.Logger.Info("graph store initialized", "embeddings_enabled", embeddingsEnabled, "embedding_dim", embeddingDim)

	return s, nil
}
