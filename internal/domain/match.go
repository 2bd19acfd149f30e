package domain

// Reason explains how a selection was made
type Reason string

const (
	ReasonTopSingle                 Reason = "top_single"
	ReasonTieBrokenByPricePerLiter  Reason = "tie_broken_by_price_per_liter"
	ReasonTieBrokenByAbsPrice       Reason = "tie_broken_by_abs_price"
	ReasonTieKeptTop                Reason = "tie_kept_top"
	ReasonNoCandidates              Reason = "no_candidates"
	ReasonGeneralQueryCheapest      Reason = "general_query_cheapest"
	ReasonNoRelevantForGeneralQuery Reason = "no_relevant_products_for_general_query"
	ReasonCheapestFallback          Reason = "cheapest_fallback"
)

const (
	reasonPriorityPrefix      = "llm_priority_selection_"
	reasonLowConfidencePrefix = "low_confidence_"
)

// PriorityReason builds the reason code for a priority cascade hit.
func PriorityReason(priorityCase string) Reason {
	return Reason(reasonPriorityPrefix + priorityCase)
}

// LowConfidenceReason wraps an inner reason from a low confidence pass.
func LowConfidenceReason(inner Reason) Reason {
	return Reason(reasonLowConfidencePrefix + string(inner))
}

// ExtractedComponents are the structured fields a query was broken into.
// Each field is independently optional.
type ExtractedComponents struct {
	Brand    *string `json:"brand"`
	Item     *string `json:"item"`
	Quantity *string `json:"quantity"`
}

// IsEmpty reports whether no component was extracted.
func (e *ExtractedComponents) IsEmpty() bool {
	return e == nil || (e.Brand == nil && e.Item == nil && e.Quantity == nil)
}

// QueryComponents are extracted components with the quantity resolved to liters.
type QueryComponents struct {
	Brand          *string  `json:"brand"`
	Item           *string  `json:"item"`
	Quantity       *string  `json:"quantity"`
	QuantityLiters *float64 `json:"quantityLiters"`
}

// FeatureVector holds the per-candidate comparison signals against a query.
type FeatureVector struct {
	NormalizedTitle string   `json:"normalizedTitle"`
	LexicalScore    float64  `json:"lexicalScore"`
	PartialScore    float64  `json:"partialScore"`
	SemanticScore   float64  `json:"semanticScore"`
	BrandMatch      float64  `json:"brandMatch"`
	Liters          *float64 `json:"liters"`
	PricePerLiter   *float64 `json:"pricePerLiter"`
}

// ScoredCandidate pairs a candidate with its derived signals and final score.
// Relevance is only set on the general-query path.
type ScoredCandidate struct {
	Candidate Candidate `json:"candidate"`
	FeatureVector
	FinalScore float64  `json:"finalScore"`
	Relevance  *float64 `json:"relevance,omitempty"`
}

// MatchResult is the outcome of one matching call.
type MatchResult struct {
	Selected      *Candidate
	Score         float64
	ConfidenceOK  bool
	Reason        Reason
	AllCandidates []ScoredCandidate
}
