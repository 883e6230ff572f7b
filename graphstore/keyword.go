package graphstore

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"strings"

	"github.com/ladybug-space/ladybug/helper"
	"github.com/ladybug-space/ladybug/model"
)

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// technicalTermBoost is the closed list of terms whose term frequency is
// boosted 1.5x, per §4.3 step 5.
var technicalTermBoost = map[string]bool{
	"sql": true, "nosql": true, "api": true, "rest": true, "graphql": true,
	"json": true, "xml": true, "index": true, "indexes": true, "indices": true,
	"query": true, "queries": true, "schema": true, "migration": true,
	"optimization": true, "performance": true, "cache": true, "caching": true,
	"async": true, "database": true, "db": true, "repository": true,
	"orm": true, "transaction": true,
}

// KeywordSearch ranks chunks against query by BM25 over content, file_path
// and header, per §4.3. scope, if non-empty, restricts candidates to
// chunks whose folder_path equals scope or begins with "scope/".
func (s *Store) KeywordSearch(ctx context.Context, query string, scope string, limit int) ([]model.KeywordHit, error) {
	if limit <= 0 {
		limit = 50
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	totalDocs, err := s.countScopedChunks(ctx, scope)
	if err != nil {
		return nil, helper.WrapKind("count scoped chunks", helper.ErrStoreError, err)
	}
	if totalDocs == 0 {
		return nil, nil
	}

	dfByTerm := map[string]int{}
	for _, t := range terms {
		df, err := s.termDocFrequency(ctx, t, scope)
		if err != nil {
			return nil, helper.WrapKind("term document frequency", helper.ErrStoreError, err)
		}
		dfByTerm[t] = df
	}

	candidates, avgdl, err := s.candidateChunks(ctx, terms, scope)
	if err != nil {
		return nil, helper.WrapKind("fetch candidate chunks", helper.ErrStoreError, err)
	}

	type scored struct {
		chunk model.Chunk
		score float64
	}
	results := make([]scored, 0, len(candidates))

	for _, c := range candidates {
		tagSet := make(map[string]bool, len(c.Tags))
		for _, t := range c.Tags {
			tagSet[strings.ToLower(t)] = true
		}

		docLen := float64(len(c.Content))
		var total float64
		for _, term := range terms {
			tf := termFrequency(term, c)
			if tf == 0 {
				continue
			}
			if tagSet[term] {
				tf *= 2.0
			}
			if technicalTermBoost[term] {
				tf *= 1.5
			}

			df := dfByTerm[term]
			idf := math.Log((float64(totalDocs)-float64(df)+0.5)/(float64(df)+0.5) + 1)
			denom := tf + bm25K1*(1-bm25B+bm25B*docLen/avgdl)
			total += idf * tf * (bm25K1 + 1) / denom
		}
		if total > 0 {
			results = append(results, scored{chunk: c, score: round4(total)})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].chunk.ID < results[j].chunk.ID
	})

	if len(results) > limit {
		results = results[:limit]
	}

	hits := make([]model.KeywordHit, len(results))
	for i, r := range results {
		hits[i] = model.KeywordHit{Chunk: r.chunk, Score: r.score, Rank: i + 1}
	}
	return hits, nil
}

func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

func termFrequency(term string, c model.Chunk) float64 {
	countIn := func(haystack string) float64 {
		return float64(strings.Count(strings.ToLower(haystack), term))
	}
	return countIn(c.Content) + 1.5*countIn(c.FilePath) + 2.0*countIn(c.Header)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func scopeClause(scope string, argOffset int) (string, []interface{}) {
	if scope == "" {
		return "", nil
	}
	return " AND (c.folder_path = $" + itoaSQL(argOffset) + " OR c.folder_path LIKE $" + itoaSQL(argOffset+1) + ")",
		[]interface{}{scope, scope + "/%"}
}

func itoaSQL(i int) string {
	digits := []byte{}
	if i == 0 {
		return "0"
	}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

func (s *Store) countScopedChunks(ctx context.Context, scope string) (int, error) {
	clause, args := scopeClause(scope, 1)
	var count int
	err := s.db.Instance.QueryRowContext(ctx, "SELECT count(*) FROM chunks c WHERE true"+clause, args...).Scan(&count)
	return count, err
}

func (s *Store) termDocFrequency(ctx context.Context, term string, scope string) (int, error) {
	clause, scopeArgs := scopeClause(scope, 2)
	args := append([]interface{}{"%" + term + "%"}, scopeArgs...)
	var count int
	q := `SELECT count(*) FROM chunks c WHERE (
		lower(c.content) LIKE $1 OR lower(c.file_path) LIKE $1 OR lower(c.header) LIKE $1
	)` + clause
	err := s.db.Instance.QueryRowContext(ctx, q, args...).Scan(&count)
	return count, err
}

// candidateChunks returns every chunk matching any term (OR across terms,
// over content/file_path/header), plus the average document length over
// the scoped chunk set (used as BM25's avgdl).
func (s *Store) candidateChunks(ctx context.Context, terms []string, scope string) ([]model.Chunk, float64, error) {
	avgdl, err := s.averageDocLength(ctx, scope)
	if err != nil {
		return nil, 0, err
	}
	if avgdl == 0 {
		avgdl = 1
	}

	conds := make([]string, 0, len(terms))
	args := []interface{}{}
	for _, t := range terms {
		args = append(args, "%"+t+"%")
		idx := len(args)
		conds = append(conds, "(lower(c.content) LIKE $"+itoaSQL(idx)+" OR lower(c.file_path) LIKE $"+itoaSQL(idx)+" OR lower(c.header) LIKE $"+itoaSQL(idx)+")")
	}

	clause, scopeArgs := scopeClause(scope, len(args)+1)
	args = append(args, scopeArgs...)

	q := "SELECT c.id, c.file_path, c.header, c.content, c.folder_path FROM chunks c WHERE (" + strings.Join(conds, " OR ") + ")" + clause

	rows, err := s.db.Instance.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var chunks []model.Chunk
	for rows.Next() {
		var c model.Chunk
		if err := rows.Scan(&c.ID, &c.FilePath, &c.Header, &c.Content, &c.FolderPath); err != nil {
			return nil, 0, err
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := s.attachTags(ctx, chunks); err != nil {
		return nil, 0, err
	}

	return chunks, avgdl, nil
}

func (s *Store) averageDocLength(ctx context.Context, scope string) (float64, error) {
	clause, args := scopeClause(scope, 1)
	var avg sql.NullFloat64
	q := "SELECT avg(char_length(c.content)) FROM chunks c WHERE true" + clause
	if err := s.db.Instance.QueryRowContext(ctx, q, args...).Scan(&avg); err != nil {
		return 0, err
	}
	return avg.Float64, nil
}

// attachTags fills in chunks[i].Tags from the TAGGED edges of each chunk,
// needed for the BM25 tag-match multiplier.
func (s *Store) attachTags(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	ids := make([]interface{}, len(chunks))
	placeholders := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
		placeholders[i] = "$" + itoaSQL(i+1)
	}

	q := "SELECT from_id, to_id FROM edges WHERE from_type='Chunk' AND to_type='Tag' AND type='TAGGED' AND from_id IN (" + strings.Join(placeholders, ",") + ")"
	rows, err := s.db.Instance.QueryContext(ctx, q, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()

	tagsByChunk := map[string][]string{}
	for rows.Next() {
		var fromID, toID string
		if err := rows.Scan(&fromID, &toID); err != nil {
			return err
		}
		tagsByChunk[fromID] = append(tagsByChunk[fromID], toID)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range chunks {
		chunks[i].Tags = tagsByChunk[chunks[i].ID]
	}
	return nil
}
