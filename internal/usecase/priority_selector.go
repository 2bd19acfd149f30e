package usecase

import (
	"strings"

	"github.com/macrolens/productmatch/internal/domain"
)

// PriorityCase names which component combination drove a priority selection
type PriorityCase string

const (
	CaseNone            PriorityCase = ""
	CaseHighestPriority PriorityCase = "highest_priority" // item, brand and quantity
	CaseSecond          PriorityCase = "second_case"      // item and brand
	CaseThird           PriorityCase = "third_case"       // item and quantity
	CaseFourth          PriorityCase = "fourth_case"      // any other combination
)

// DefaultQuantityTolerance is the relative window a title's volume must fall in
const DefaultQuantityTolerance = 0.15

// componentMatch records which components a single candidate satisfies
type componentMatch struct {
	item, brand, qty bool
}

type tierPredicate func(m componentMatch) bool

// PrioritySelector picks the cheapest candidate from the first non-empty tier
// of a cascade chosen by which query components are present.
type PrioritySelector struct {
	tolerance float64
}

// NewPrioritySelector creates a selector; tolerance <= 0 uses the default
func NewPrioritySelector(tolerance float64) *PrioritySelector {
	if tolerance <= 0 {
		tolerance = DefaultQuantityTolerance
	}
	return &PrioritySelector{tolerance: tolerance}
}

// Select returns the chosen candidate and the case that applied. It returns
// (nil, CaseNone) when no component is present and (nil, case) when no tier,
// including the cheapest overall fallback, has a priced candidate.
func (p *PrioritySelector) Select(candidates []domain.Candidate, comps *domain.QueryComponents) (*domain.Candidate, PriorityCase) {
	if comps == nil {
		return nil, CaseNone
	}

	item := normalizedComponent(comps.Item)
	brand := normalizedComponent(comps.Brand)
	var liters float64
	if comps.QuantityLiters != nil && *comps.QuantityLiters > 0 {
		liters = *comps.QuantityLiters
	}
	hasItem, hasBrand, hasQty := item != "", brand != "", liters > 0

	var (
		priorityCase PriorityCase
		tiers        []tierPredicate
	)
	switch {
	case hasItem && hasBrand && hasQty:
		priorityCase = CaseHighestPriority
		tiers = []tierPredicate{
			func(m componentMatch) bool { return m.item && m.brand && m.qty },
			func(m componentMatch) bool { return (m.item || m.brand) && m.qty },
			func(m componentMatch) bool { return m.item && (m.brand || m.qty) },
			func(m componentMatch) bool { return m.item || m.brand || m.qty },
		}
	case hasItem && hasBrand:
		priorityCase = CaseSecond
		tiers = []tierPredicate{
			func(m componentMatch) bool { return m.item && m.brand },
			func(m componentMatch) bool { return m.item || m.brand },
		}
	case hasItem && hasQty:
		priorityCase = CaseThird
		tiers = []tierPredicate{
			func(m componentMatch) bool { return m.item && m.qty },
			func(m componentMatch) bool { return m.item || m.qty },
		}
	case hasItem || hasBrand || hasQty:
		// a single component, or brand with quantity but no item
		priorityCase = CaseFourth
		tiers = []tierPredicate{
			func(m componentMatch) bool {
				return (hasItem && m.item) || (hasBrand && m.brand) || (hasQty && m.qty)
			},
		}
	default:
		return nil, CaseNone
	}

	matches := make([]componentMatch, len(candidates))
	for i, c := range candidates {
		title := NormalizeText(c.Title)
		matches[i] = componentMatch{
			item:  hasItem && strings.Contains(title, item),
			brand: hasBrand && strings.Contains(title, brand),
			qty:   hasQty && p.quantityMatches(c.Title, liters),
		}
	}

	for _, tier := range tiers {
		if pick := cheapestWhere(candidates, func(i int) bool { return tier(matches[i]) }); pick != nil {
			return pick, priorityCase
		}
	}
	return cheapestWhere(candidates, func(int) bool { return true }), priorityCase
}

func (p *PrioritySelector) quantityMatches(title string, desired float64) bool {
	liters := ParseVolumeLiters(title)
	if liters == nil {
		return false
	}
	diff := *liters - desired
	if diff < 0 {
		diff = -diff
	}
	return diff <= p.tolerance*desired
}

// cheapestWhere returns the lowest priced candidate accepted by keep.
// Unpriced candidates never win; the first of equal prices does.
func cheapestWhere(candidates []domain.Candidate, keep func(i int) bool) *domain.Candidate {
	best := -1
	for i := range candidates {
		if !keep(i) || !candidates[i].HasPrice() {
			continue
		}
		if best < 0 || *candidates[i].Price < *candidates[best].Price {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	pick := candidates[best]
	return &pick
}

func normalizedComponent(s *string) string {
	if s == nil {
		return ""
	}
	return NormalizeText(*s)
}
