package graphstore

import (
	"context"
	"errors"

	"github.com/pgvector/pgvector-go"

	"github.com/ladybug-space/ladybug/helper"
	"github.com/ladybug-space/ladybug/model"
)

var errEmbeddingsDisabled = errors.New("embeddings are not enabled for this store")

// VectorSearch runs an index-backed cosine-similarity top-K over
// chunks.embedding, then applies any non-empty filters as an additional
// equality pass before re-truncating to limit, per §4.3.
func (s *Store) VectorSearch(ctx context.Context, queryEmbedding []float32, limit int, filterTags, filterPages []string, scope string) ([]model.SemanticHit, error) {
	if limit <= 0 {
		limit = 10
	}
	if !s.embeddingsOn {
		return nil, helper.WrapKind("vector search", helper.ErrProviderUnavailable, errEmbeddingsDisabled)
	}

	vec := pgvector.NewVector(queryEmbedding)

	clause, scopeArgs := scopeClause(scope, 3)
	q := `SELECT c.id, c.file_path, c.header, c.content, c.folder_path, 1 - (c.embedding <=> $1) AS similarity
	      FROM chunks c WHERE c.embedding IS NOT NULL` + clause + `
	      ORDER BY c.embedding <=> $1 LIMIT $2`

	args := append([]interface{}{vec, limit * overfetchFactor(filterTags, filterPages)}, scopeArgs...)

	rows, err := s.db.Instance.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, helper.WrapKind("vector search query", helper.ErrStoreError, err)
	}
	defer rows.Close()

	var hits []model.SemanticHit
	for rows.Next() {
		var c model.Chunk
		var similarity float64
		if err := rows.Scan(&c.ID, &c.FilePath, &c.Header, &c.Content, &c.FolderPath, &similarity); err != nil {
			return nil, helper.WrapKind("scan vector search row", helper.ErrStoreError, err)
		}
		hits = append(hits, model.SemanticHit{Chunk: c, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, helper.WrapKind("iterate vector search rows", helper.ErrStoreError, err)
	}

	if len(filterTags) > 0 || len(filterPages) > 0 {
		chunks := hitChunks(hits)
		if err := s.attachTags(ctx, chunks); err != nil {
			return nil, helper.WrapKind("attach tags for filtering", helper.ErrStoreError, err)
		}
		for i := range hits {
			hits[i].Chunk.Tags = chunks[i].Tags
		}
		hits = filterHits(hits, filterTags, filterPages)
	}

	if len(hits) > limit {
		hits = hits[:limit]
	}
	for i := range hits {
		hits[i].Rank = i + 1
	}

	return hits, nil
}

func overfetchFactor(filterTags, filterPages []string) int {
	if len(filterTags) > 0 || len(filterPages) > 0 {
		return 4
	}
	return 1
}

func hitChunks(hits []model.SemanticHit) []model.Chunk {
	chunks := make([]model.Chunk, len(hits))
	for i, h := range hits {
		chunks[i] = h.Chunk
	}
	return chunks
}

func filterHits(hits []model.SemanticHit, filterTags, filterPages []string) []model.SemanticHit {
	tagSet := make(map[string]bool, len(filterTags))
	for _, t := range filterTags {
		tagSet[t] = true
	}
	pageSet := make(map[string]bool, len(filterPages))
	for _, p := range filterPages {
		pageSet[p] = true
	}

	out := make([]model.SemanticHit, 0, len(hits))
	for _, h := range hits {
		if len(filterTags) > 0 && !hasAnyTag(h.Chunk.Tags, tagSet) {
			continue
		}
		if len(filterPages) > 0 && !pageSet[h.Chunk.FilePath] {
			continue
		}
		out = append(out, h)
	}
	return out
}

func hasAnyTag(tags []string, want map[string]bool) bool {
	for _, t := range tags {
		if want[t] {
			return true
		}
	}
	return false
}

