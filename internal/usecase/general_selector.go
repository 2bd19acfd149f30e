package usecase

import (
	"math"
	"sort"
	"strings"

	"github.com/macrolens/productmatch/internal/domain"
	"github.com/macrolens/productmatch/internal/rules"
)

// GeneralSelector picks the cheapest relevant candidate for a category-level query
type GeneralSelector struct {
	rules *rules.Compiled
}

// NewGeneralSelector creates a selector over the given rule tables
func NewGeneralSelector(r *rules.Compiled) *GeneralSelector {
	return &GeneralSelector{rules: r}
}

// relevant pairs a candidate index with its relevance; candidates are never mutated
type relevant struct {
	index     int
	relevance float64
}

// Select drops candidates with relevance <= 0 and returns the lowest priced
// survivor, higher relevance first among equal prices.
func (g *GeneralSelector) Select(query string, candidates []domain.Candidate) domain.MatchResult {
	var survivors []relevant
	for i, c := range candidates {
		if r := g.Relevance(query, c.Title); r > 0 {
			survivors = append(survivors, relevant{index: i, relevance: r})
		}
	}

	if len(survivors) == 0 {
		return domain.MatchResult{
			Reason:        domain.ReasonNoRelevantForGeneralQuery,
			AllCandidates: []domain.ScoredCandidate{},
		}
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		pi, pj := sortPrice(&candidates[survivors[i].index]), sortPrice(&candidates[survivors[j].index])
		if pi != pj {
			return pi < pj
		}
		return survivors[i].relevance > survivors[j].relevance
	})

	score := g.rules.Raw.Relevance.GeneralScore
	all := make([]domain.ScoredCandidate, len(survivors))
	for i, s := range survivors {
		relevance := s.relevance
		all[i] = domain.ScoredCandidate{
			Candidate: candidates[s.index],
			FeatureVector: domain.FeatureVector{
				NormalizedTitle: NormalizeText(candidates[s.index].Title),
			},
			Relevance: &relevance,
		}
	}
	all[0].FinalScore = score

	selected := candidates[survivors[0].index]
	return domain.MatchResult{
		Selected:      &selected,
		Score:         score,
		ConfidenceOK:  true,
		Reason:        domain.ReasonGeneralQueryCheapest,
		AllCandidates: all,
	}
}

// Relevance scores how well a title fits a category-level query. It is
// unbounded and only meaningful for ranking within one request.
func (g *GeneralSelector) Relevance(query, title string) float64 {
	cfg := g.rules.Raw.Relevance
	queryLower := strings.ToLower(strings.TrimSpace(query))
	titleLower := strings.ToLower(title)
	queryWords := uniqueTokens(queryLower)
	titleTokens := strings.Fields(titleLower)
	titleWords := uniqueTokens(titleLower)

	score := 0.0

	for w := range queryWords {
		if titleWords[w] {
			score += cfg.ExactWordPoints
		}
	}

	for qw := range queryWords {
		if len(qw) < cfg.PartialWordMinLength {
			continue
		}
		for _, tw := range titleTokens {
			if strings.Contains(tw, qw) || strings.Contains(qw, tw) {
				score += cfg.PartialWordPoints
			}
		}
	}

	for qw := range queryWords {
		for _, syn := range g.rules.Synonyms[qw] {
			if strings.Contains(titleLower, syn) {
				score += cfg.SynonymPoints
			}
		}
	}

	if g.mentionsBrand(titleLower) && !g.mentionsBrand(queryLower) {
		score -= cfg.BrandPenalty
	}

	if !containsAny(queryLower, cfg.SizeTerms) && !containsAny(titleLower, cfg.SizeTerms) {
		score += cfg.NoSizeBonus
	}

	return score
}

func (g *GeneralSelector) mentionsBrand(text string) bool {
	for _, re := range g.rules.BrandTokens {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// sortPrice orders unpriced candidates after every priced one
func sortPrice(c *domain.Candidate) float64 {
	if c.Price == nil {
		return math.Inf(1)
	}
	return *c.Price
}
