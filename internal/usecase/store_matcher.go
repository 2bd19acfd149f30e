package usecase

import (
	"log"
	"strings"

	"github.com/macrolens/productmatch/internal/rules"
)

// StoreMatcher reconciles caller-supplied store names with retailer names
// found on candidates.
type StoreMatcher struct {
	rules              *rules.Compiled
	enableDebugLogging bool
}

// NewStoreMatcher creates a store matcher over the given rule tables
func NewStoreMatcher(r *rules.Compiled, enableDebugLogging bool) *StoreMatcher {
	return &StoreMatcher{rules: r, enableDebugLogging: enableDebugLogging}
}

// Match reports whether two store names refer to the same retailer. Names
// match exactly (ignoring case), or share a word when either one is a
// major retailer.
func (m *StoreMatcher) Match(a, b string) bool {
	aLower := strings.ToLower(strings.TrimSpace(a))
	bLower := strings.ToLower(strings.TrimSpace(b))
	if aLower == bLower {
		return true
	}

	if !m.isMajorRetailer(aLower) && !m.isMajorRetailer(bLower) {
		return false
	}

	aWords := m.significantWords(aLower)
	for w := range m.significantWords(bLower) {
		if aWords[w] {
			return true
		}
	}
	return false
}

// MapStores maps each nearby store to the first group name it matches. Nearby
// stores without a match are returned in input order.
func (m *StoreMatcher) MapStores(nearby, groups []string) (map[string]string, []string) {
	mapping := make(map[string]string, len(nearby))
	var unmapped []string

	for _, store := range nearby {
		matched := false
		for _, group := range groups {
			if m.Match(group, store) {
				mapping[store] = group
				matched = true
				if m.enableDebugLogging {
					log.Printf("[STORES] Mapped %q -> %q", store, group)
				}
				break
			}
		}
		if !matched {
			unmapped = append(unmapped, store)
		}
	}

	return mapping, unmapped
}

func (m *StoreMatcher) isMajorRetailer(name string) bool {
	for _, major := range m.rules.MajorRetailers {
		if strings.Contains(name, major) {
			return true
		}
	}
	return false
}

func (m *StoreMatcher) significantWords(name string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(name) {
		if len(w) >= m.rules.Raw.Stores.MinSharedWordLength {
			words[w] = true
		}
	}
	return words
}
