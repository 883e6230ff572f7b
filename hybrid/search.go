// Package hybrid combines graphstore's keyword and vector search into one
// ranked result list, following §4.4 of the search pipeline.
package hybrid

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/ladybug-space/ladybug/embedclient"
	"github.com/ladybug-space/ladybug/graphstore"
	"github.com/ladybug-space/ladybug/helper"
	"github.com/ladybug-space/ladybug/model"
)

var errEmptyQuery = errors.New("query must not be empty")

// Store is the subset of graphstore.Store that Searcher depends on, narrowed
// so tests can fake it without a live Postgres instance.
type Store interface {
	KeywordSearch(ctx context.Context, query, scope string, limit int) ([]model.KeywordHit, error)
	VectorSearch(ctx context.Context, queryEmbedding []float32, limit int, filterTags, filterPages []string, scope string) ([]model.SemanticHit, error)
}

var _ Store = (*graphstore.Store)(nil)

// Searcher fuses keyword and semantic retrieval. Embedder may be nil, in
// which case Search falls back to keyword-only ranking.
type Searcher struct {
	store    Store
	embedder embedclient.Provider
	logger   *slog.Logger
}

func New(store Store, embedder embedclient.Provider, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{store: store, embedder: embedder, logger: logger}
}

// Search runs the hybrid ranking pipeline for one query, per §4.4.
func (s *Searcher) Search(ctx context.Context, query string, cfg model.SearchConfig) ([]model.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, helper.WrapKind("hybrid search", helper.ErrInvalidArgument, errEmptyQuery)
	}
	cfg = normalizeConfig(cfg)

	overfetch := cfg.Limit * 2
	if overfetch <= 0 {
		overfetch = 20
	}

	keywordHits, err := s.store.KeywordSearch(ctx, query, cfg.Scope, overfetch)
	if err != nil {
		return nil, helper.WrapKind("hybrid search keyword pass", helper.ErrStoreError, err)
	}

	var semanticHits []model.SemanticHit
	if s.embedder != nil {
		embedding, err := s.embedder.Embed(ctx, query)
		if err != nil {
			s.logger.Warn("embed query failed, falling back to keyword-only", slog.String("error", err.Error()))
		} else {
			hits, err := s.store.VectorSearch(ctx, embedding, overfetch, cfg.FilterTags, cfg.FilterPages, cfg.Scope)
			if err != nil {
				s.logger.Warn("vector search failed, falling back to keyword-only", slog.String("error", err.Error()))
			} else {
				semanticHits = hits
			}
		}
	}

	var results []model.SearchResult
	switch {
	case len(keywordHits) == 0 && len(semanticHits) == 0:
		return nil, nil
	case len(semanticHits) == 0:
		results = keywordOnly(keywordHits)
	case len(keywordHits) == 0:
		results = semanticOnly(semanticHits)
	case cfg.Fusion == model.FusionWeighted:
		results = fuseWeighted(keywordHits, semanticHits, cfg.WeightKeyword, cfg.WeightSemantic)
	default:
		results = fuseRRF(keywordHits, semanticHits, cfg.RRFK)
	}

	results = applyFilters(results, cfg.FilterTags, cfg.FilterPages)
	sortResults(results)

	if len(results) > cfg.Limit {
		results = results[:cfg.Limit]
	}
	for i := range results {
		results[i].Chunk = results[i].Chunk.WithoutEmbedding()
	}

	return results, nil
}

func normalizeConfig(cfg model.SearchConfig) model.SearchConfig {
	defaults := model.DefaultSearchConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = defaults.Limit
	}
	if cfg.Fusion == "" {
		cfg.Fusion = defaults.Fusion
	}
	if cfg.RRFK <= 0 {
		cfg.RRFK = defaults.RRFK
	}
	if cfg.Fusion == model.FusionWeighted {
		sum := cfg.WeightKeyword + cfg.WeightSemantic
		if sum <= 0 {
			cfg.WeightKeyword, cfg.WeightSemantic = defaults.WeightKeyword, defaults.WeightSemantic
		} else if sum < 0.99 || sum > 1.01 {
			cfg.WeightKeyword /= sum
			cfg.WeightSemantic /= sum
		}
	}
	return cfg
}

// sortResults breaks ties by chunk id so results are deterministic across
// runs, matching the dedup-then-sort shape used for graph traversal results.
func sortResults(results []model.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].HybridScore != results[j].HybridScore {
			return results[i].HybridScore > results[j].HybridScore
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
}

func applyFilters(results []model.SearchResult, filterTags, filterPages []string) []model.SearchResult {
	if len(filterTags) == 0 && len(filterPages) == 0 {
		return results
	}
	tagSet := make(map[string]bool, len(filterTags))
	for _, t := range filterTags {
		tagSet[t] = true
	}
	pageSet := make(map[string]bool, len(filterPages))
	for _, p := range filterPages {
		pageSet[p] = true
	}

	out := make([]model.SearchResult, 0, len(results))
	for _, r := range results {
		if len(filterTags) > 0 && !anyTagMatches(r.Chunk.Tags, tagSet) {
			continue
		}
		if len(filterPages) > 0 && !pageSet[r.Chunk.FilePath] {
			continue
		}
		out = append(out, r)
	}
	return out
}

func anyTagMatches(tags []string, want map[string]bool) bool {
	for _, t := range tags {
		if want[t] {
			return true
		}
	}
	return false
}
