package hybrid

import (
	"math"

	"github.com/ladybug-space/ladybug/model"
)

// rankDecay gives a semantic-only result set a score comparable to a fused
// one: exp(-0.1*rank), rank being 1-based, per §4.4 step 4.
func rankDecay(rank int) float64 {
	return math.Exp(-0.1 * float64(rank))
}

func keywordOnly(hits []model.KeywordHit) []model.SearchResult {
	out := make([]model.SearchResult, len(hits))
	for i, h := range hits {
		score := h.Score
		rank := h.Rank
		out[i] = model.SearchResult{
			Chunk:        h.Chunk,
			HybridScore:  score,
			KeywordScore: &score,
			KeywordRank:  &rank,
		}
	}
	return out
}

func semanticOnly(hits []model.SemanticHit) []model.SearchResult {
	out := make([]model.SearchResult, len(hits))
	for i, h := range hits {
		decayed := rankDecay(h.Rank)
		rank := h.Rank
		out[i] = model.SearchResult{
			Chunk:         h.Chunk,
			HybridScore:   decayed,
			SemanticScore: &decayed,
			SemanticRank:  &rank,
		}
	}
	return out
}

// fuseRRF combines both result sets via reciprocal rank fusion, k fixed by
// cfg.RRFK, then min-max normalizes the fused score into [0, 1] per §4.4
// step 5.
func fuseRRF(keywordHits []model.KeywordHit, semanticHits []model.SemanticHit, k int) []model.SearchResult {
	merged := make(map[string]*model.SearchResult)

	order := func(id string) *model.SearchResult {
		if r, ok := merged[id]; ok {
			return r
		}
		r := &model.SearchResult{}
		merged[id] = r
		return r
	}

	for _, h := range keywordHits {
		r := order(h.Chunk.ID)
		r.Chunk = h.Chunk
		score := h.Score
		rank := h.Rank
		r.KeywordScore = &score
		r.KeywordRank = &rank
		r.HybridScore += 1.0 / float64(k+h.Rank)
	}
	for _, h := range semanticHits {
		r := order(h.Chunk.ID)
		if r.Chunk.ID == "" {
			r.Chunk = h.Chunk
		}
		sim := h.Similarity
		rank := h.Rank
		r.SemanticScore = &sim
		r.SemanticRank = &rank
		r.HybridScore += 1.0 / float64(k+h.Rank)
	}

	return normalizeAndCollect(merged)
}

// fuseWeighted combines both result sets as w_k*bm25_norm + w_s*semantic,
// where bm25 is min-max normalized to [0,1] and semantic uses rank decay,
// per §4.4 step 5.
func fuseWeighted(keywordHits []model.KeywordHit, semanticHits []model.SemanticHit, weightKeyword, weightSemantic float64) []model.SearchResult {
	normKeyword := normalizeKeywordScores(keywordHits)

	merged := make(map[string]*model.SearchResult)
	order := func(id string) *model.SearchResult {
		if r, ok := merged[id]; ok {
			return r
		}
		r := &model.SearchResult{}
		merged[id] = r
		return r
	}

	for i, h := range keywordHits {
		r := order(h.Chunk.ID)
		r.Chunk = h.Chunk
		score := h.Score
		rank := h.Rank
		r.KeywordScore = &score
		r.KeywordRank = &rank
		r.HybridScore += weightKeyword * normKeyword[i]
	}
	for _, h := range semanticHits {
		r := order(h.Chunk.ID)
		if r.Chunk.ID == "" {
			r.Chunk = h.Chunk
		}
		sim := h.Similarity
		rank := h.Rank
		decayed := rankDecay(h.Rank)
		r.SemanticScore = &sim
		r.SemanticRank = &rank
		r.HybridScore += weightSemantic * decayed
	}

	out := make([]model.SearchResult, 0, len(merged))
	for _, r := range merged {
		out = append(out, *r)
	}
	return out
}

func normalizeKeywordScores(hits []model.KeywordHit) []float64 {
	out := make([]float64, len(hits))
	if len(hits) == 0 {
		return out
	}
	min, max := hits[0].Score, hits[0].Score
	for _, h := range hits {
		if h.Score < min {
			min = h.Score
		}
		if h.Score > max {
			max = h.Score
		}
	}
	spread := max - min
	for i, h := range hits {
		if spread == 0 {
			out[i] = 1
			continue
		}
		out[i] = (h.Score - min) / spread
	}
	return out
}

func normalizeAndCollect(merged map[string]*model.SearchResult) []model.SearchResult {
	if len(merged) == 0 {
		return nil
	}
	var min, max float64
	first := true
	for _, r := range merged {
		if first {
			min, max = r.HybridScore, r.HybridScore
			first = false
			continue
		}
		if r.HybridScore < min {
			min = r.HybridScore
		}
		if r.HybridScore > max {
			max = r.HybridScore
		}
	}
	spread := max - min

	out := make([]model.SearchResult, 0, len(merged))
	for _, r := range merged {
		if spread == 0 {
			r.HybridScore = 1
		} else {
			r.HybridScore = (r.HybridScore - min) / spread
		}
		out = append(out, *r)
	}
	return out
}
