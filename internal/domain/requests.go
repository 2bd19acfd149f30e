package domain

import "encoding/json"

// MatchRequest represents a single-query match request
type MatchRequest struct {
	Query         string             `json:"query" binding:"required"`
	Candidates    []Candidate        `json:"candidates"`
	Weights       map[string]float64 `json:"weights,omitempty"`
	ConfThreshold *float64           `json:"confThreshold,omitempty"`
	TieDelta      *float64           `json:"tieDelta,omitempty"`
	Profile       string             `json:"profile,omitempty"`
}

// MatchResponse is returned for a single-query match
type MatchResponse struct {
	SelectedProduct  *Candidate        `json:"selectedProduct"`
	Score            float64           `json:"score"`
	ConfidenceOK     bool              `json:"confidenceOk"`
	Reason           Reason            `json:"reason"`
	AllCandidates    []ScoredCandidate `json:"allCandidates"`
	ProcessingTimeMs float64           `json:"processingTimeMs"`
}

// StoreMatchRequest asks for one match per nearby store
type StoreMatchRequest struct {
	Query        string      `json:"query" binding:"required"`
	Candidates   []Candidate `json:"candidates"`
	NearbyStores []string    `json:"nearbyStores"`
}

// StoreMatch is the selection made for one nearby store
type StoreMatch struct {
	Product      *Candidate `json:"product"`
	Score        float64    `json:"score"`
	ConfidenceOK bool       `json:"confidenceOk"`
	Reason       Reason     `json:"reason"`
	ExactMatch   bool       `json:"exactMatch"`
}

// StoreMatchResponse is returned for a per-store batch request
type StoreMatchResponse struct {
	StoreMatches                    map[string]StoreMatch `json:"storeMatches"`
	StoresNeedingExternalResolution []string              `json:"storesNeedingExternalResolution"`
	TotalStores                     int                   `json:"totalStores"`
	MatchedStores                   int                   `json:"matchedStores"`
	Components                      *QueryComponents      `json:"components,omitempty"`
	ProcessingTimeMs                float64               `json:"processingTimeMs"`
}

// BatchResult is one entry of a multi-request batch. Exactly one of Result
// and Error is set.
type BatchResult struct {
	Query  string
	Result *MatchResponse
	Error  string
}

// MarshalJSON writes a success as the bare match response and a failure as
// {error, query}.
func (b BatchResult) MarshalJSON() ([]byte, error) {
	if b.Result != nil {
		return json.Marshal(b.Result)
	}
	return json.Marshal(struct {
		Error string `json:"error"`
		Query string `json:"query"`
	}{Error: b.Error, Query: b.Query})
}

// BatchResponse is the body of a multi-request batch
type BatchResponse struct {
	Results []BatchResult `json:"results"`
}
