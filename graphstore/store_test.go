package graphstore

import (
	"context"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ladybug-space/ladybug/helper"
	"github.com/ladybug-space/ladybug/model"
)

var dbPort string

func TestMain(m *testing.M) {
	teardown, port, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}
	dbPort = port

	code := m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("error tearing down postgres container: %v", err)
		}
	}

	if code != 0 {
		log.Fatalf("tests failed with code %d", code)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	db := helper.NewTestDatabase(t)
	store, err := New(db, 4, true, false)
	require.NoError(t, err)
	return store
}

func TestUpsertAndDeleteByFile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := []model.Chunk{
		{
			ID: "Source.md#Source", FilePath: "Source.md", Header: "Source", Content: "links to [[Target]]",
			Links: []string{"Target"}, Tags: []string{"alpha"}, ChunkOrder: 0,
			Embedding: []float32{0.1, 0.2, 0.3, 0.4},
		},
	}

	require.NoError(t, store.UpsertChunks(ctx, chunks))

	hits, err := store.KeywordSearch(ctx, "links", "", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Source.md#Source", hits[0].Chunk.ID)

	require.NoError(t, store.DeleteByFile(ctx, "Source.md"))

	hits, err = store.KeywordSearch(ctx, "links", "", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestClearAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertFolders(ctx, []string{"Projects/Sub"}, map[string]string{}))
	require.NoError(t, store.ClearAll(ctx))

	rows, err := store.Cypher(ctx, "SELECT count(*) AS n FROM folders", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 0, rows[0]["n"])
}
