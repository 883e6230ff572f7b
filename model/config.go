package model

// FusionMode selects how keyword and semantic result sets are combined.
type FusionMode string

const (
	FusionRRF      FusionMode = "rrf"
	FusionWeighted FusionMode = "weighted"
)

// SearchConfig carries the tunable parameters of one hybrid search call.
// hybrid.Searcher fills a zero Limit, Fusion or RRFK from
// DefaultSearchConfig; under weighted fusion it also takes the default
// weights when both are zero and rescales weights that do not sum to 1.
type SearchConfig struct {
	Limit        int
	FilterTags   []string
	FilterPages  []string
	Scope        string
	Fusion       FusionMode
	WeightSemantic float64
	WeightKeyword  float64

	// RRFK is the rank-fusion constant (§4.4), fixed at 60 per the spec but
	// kept as a field so tests can exercise other values.
	RRFK int
}

// DefaultSearchConfig returns the configuration used when a caller omits
// fusion/weight parameters, matching §4.4's defaults.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Limit:          10,
		Fusion:         FusionRRF,
		WeightSemantic: 0.6,
		WeightKeyword:  0.4,
		RRFK:           60,
	}
}
