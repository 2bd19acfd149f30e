package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/macrolens/productmatch/internal/domain"
)

// Cheapest fallback score for a store where every scored pass came up empty
const cheapestFallbackScore = 0.05

// unknownSource groups candidates that carry no source
const unknownSource = "Unknown"

// MatchForStores picks one candidate per nearby store. Candidates are grouped
// by source, groups are reconciled with the nearby store names, and each
// mapped store runs the cascade: priority selection, the store_fallback
// profile, the store_low_confidence profile, then the cheapest relevant
// candidate. A store whose matching fails is logged and left unmatched.
func (s *MatchingService) MatchForStores(ctx context.Context, req *domain.StoreMatchRequest) (*domain.StoreMatchResponse, error) {
	start := time.Now()

	if req == nil {
		return nil, domain.ErrInvalidRequest
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if len(req.Candidates) == 0 {
		return nil, domain.ErrNoCandidates
	}

	groups, groupOrder := groupBySource(req.Candidates)
	comps := s.ExtractComponents(ctx, query)
	mapping, unmapped := s.stores.MapStores(req.NearbyStores, groupOrder)

	if s.enableDebugLogging {
		log.Printf("[STORES] %d candidate groups, %d nearby stores, %d unmapped",
			len(groupOrder), len(req.NearbyStores), len(unmapped))
	}

	var (
		mu      sync.Mutex
		matches = make(map[string]domain.StoreMatch, len(mapping))
	)

	var g errgroup.Group
	g.SetLimit(s.storeConcurrency)
	for nearby, group := range mapping {
		products := groups[group]
		g.Go(func() error {
			match, err := s.matchStore(ctx, query, products, comps)
			if err != nil {
				log.Printf("[STORES] Error matching for %q: %v", nearby, err)
				return nil
			}
			if match == nil {
				if s.enableDebugLogging {
					log.Printf("[STORES] No match found for %q", nearby)
				}
				return nil
			}
			mu.Lock()
			matches[nearby] = *match
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	needing := make([]string, 0)
	seen := make(map[string]bool, len(req.NearbyStores))
	for _, store := range req.NearbyStores {
		if _, ok := matches[store]; ok || seen[store] {
			continue
		}
		seen[store] = true
		needing = append(needing, store)
	}

	return &domain.StoreMatchResponse{
		StoreMatches:                    matches,
		StoresNeedingExternalResolution: needing,
		TotalStores:                     len(req.NearbyStores),
		MatchedStores:                   len(matches),
		Components:                      comps,
		ProcessingTimeMs:                elapsedMs(start),
	}, nil
}

// matchStore runs the per-store cascade. A nil match means nothing qualified.
func (s *MatchingService) matchStore(
	ctx context.Context,
	query string,
	products []domain.Candidate,
	comps *domain.QueryComponents,
) (match *domain.StoreMatch, err error) {
	defer func() {
		if r := recover(); r != nil {
			match, err = nil, fmt.Errorf("panic while matching store: %v", r)
		}
	}()

	if pick, priorityCase := s.priority.Select(products, comps); pick != nil {
		return &domain.StoreMatch{
			Product:      pick,
			Score:        priorityScore(comps),
			ConfidenceOK: true,
			Reason:       domain.PriorityReason(string(priorityCase)),
			ExactMatch:   allComponentsPresent(comps),
		}, nil
	}

	result, err := s.SelectBestProduct(ctx, query, products, s.profiles[ProfileStoreFallback])
	if err != nil {
		return nil, err
	}
	if result.Selected != nil {
		return &domain.StoreMatch{
			Product:      result.Selected,
			Score:        result.Score,
			ConfidenceOK: result.ConfidenceOK,
			Reason:       result.Reason,
		}, nil
	}

	result, err = s.SelectBestProduct(ctx, query, products, s.profiles[ProfileStoreLowConfidence])
	if err != nil {
		return nil, err
	}
	if result.Selected != nil {
		return &domain.StoreMatch{
			Product: result.Selected,
			Score:   result.Score,
			Reason:  domain.LowConfidenceReason(result.Reason),
		}, nil
	}

	if cheapest := s.general.Select(query, products); cheapest.Selected != nil {
		return &domain.StoreMatch{
			Product: cheapest.Selected,
			Score:   cheapestFallbackScore,
			Reason:  domain.ReasonCheapestFallback,
		}, nil
	}

	return nil, nil
}

// groupBySource buckets candidates by source, keeping first-seen group order
func groupBySource(candidates []domain.Candidate) (map[string][]domain.Candidate, []string) {
	groups := make(map[string][]domain.Candidate)
	var order []string
	for _, c := range candidates {
		source := strings.TrimSpace(c.Source)
		if source == "" {
			source = unknownSource
		}
		if _, ok := groups[source]; !ok {
			order = append(order, source)
		}
		groups[source] = append(groups[source], c)
	}
	return groups, order
}
