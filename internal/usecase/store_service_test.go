package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/macrolens/productmatch/internal/domain"
)

func storeCandidates() []domain.Candidate {
	return []domain.Candidate{
		priced("Great Value Whole Milk 1 Gallon", 3.12, "Walmart"),
		priced("Great Value 2% Reduced Fat Milk, Half Gallon", 3.05, "Walmart"),
		priced("Good & Gather Whole Milk 1 gal", 3.59, "Target"),
		priced("Lucerne Whole Milk 1 Gallon", 3.99, "Safeway"),
	}
}

func TestMatchForStores_Validation(t *testing.T) {
	svc := NewMatchingService(nil, nil, nil, MatchConfig{})
	ctx := context.Background()

	if _, err := svc.MatchForStores(ctx, nil); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("nil request error = %v", err)
	}
	if _, err := svc.MatchForStores(ctx, &domain.StoreMatchRequest{Query: " ", Candidates: storeCandidates()}); !errors.Is(err, domain.ErrEmptyQuery) {
		t.Errorf("blank query error = %v", err)
	}
	if _, err := svc.MatchForStores(ctx, &domain.StoreMatchRequest{Query: "milk"}); !errors.Is(err, domain.ErrNoCandidates) {
		t.Errorf("no candidates error = %v", err)
	}
}

func TestMatchForStores_ScoredPath(t *testing.T) {
	svc := NewMatchingService(nil, nil, nil, MatchConfig{})

	resp, err := svc.MatchForStores(context.Background(), &domain.StoreMatchRequest{
		Query:        "whole milk 1 gallon",
		Candidates:   storeCandidates(),
		NearbyStores: []string{"Walmart Supercenter", "Target", "Kroger"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.TotalStores != 3 || resp.MatchedStores != 2 {
		t.Errorf("total = %d matched = %d, want 3 and 2", resp.TotalStores, resp.MatchedStores)
	}
	if !reflect.DeepEqual(resp.StoresNeedingExternalResolution, []string{"Kroger"}) {
		t.Errorf("needing resolution = %v, want [Kroger]", resp.StoresNeedingExternalResolution)
	}

	walmart, ok := resp.StoreMatches["Walmart Supercenter"]
	if !ok {
		t.Fatalf("no match for Walmart Supercenter: %+v", resp.StoreMatches)
	}
	if walmart.Product.Title != "Great Value Whole Milk 1 Gallon" {
		t.Errorf("walmart selected %q", walmart.Product.Title)
	}
	if walmart.ExactMatch {
		t.Errorf("scored match should not be exact")
	}

	target := resp.StoreMatches["Target"]
	if target.Product == nil || target.Product.Source != "Target" {
		t.Errorf("target match = %+v", target)
	}
	if resp.Components != nil {
		t.Errorf("components = %+v, want nil without an extractor", resp.Components)
	}
}

// panickingEncoder embeds everything as the same vector except titles
// containing trigger, which panic
type panickingEncoder struct {
	trigger string
}

func (p *panickingEncoder) Name() string { return "panicking" }

func (p *panickingEncoder) Close() error { return nil }

func (p *panickingEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.Contains(text, p.trigger) {
		panic("encoder blew up on " + text)
	}
	return []float32{1, 0}, nil
}

func TestMatchForStores_FailingStoreIsIsolated(t *testing.T) {
	svc := NewMatchingService(nil, &panickingEncoder{trigger: "gather"}, nil, MatchConfig{})

	resp, err := svc.MatchForStores(context.Background(), &domain.StoreMatchRequest{
		Query:        "whole milk 1 gallon",
		Candidates:   storeCandidates(),
		NearbyStores: []string{"Walmart Supercenter", "Target", "Kroger"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := resp.StoreMatches["Walmart Supercenter"]; !ok {
		t.Errorf("Walmart Supercenter should still match: %+v", resp.StoreMatches)
	}
	if _, ok := resp.StoreMatches["Target"]; ok {
		t.Errorf("Target should be omitted after its matching failed")
	}
	if resp.MatchedStores != 1 {
		t.Errorf("matched = %d, want 1", resp.MatchedStores)
	}
	if !reflect.DeepEqual(resp.StoresNeedingExternalResolution, []string{"Target", "Kroger"}) {
		t.Errorf("needing resolution = %v, want [Target Kroger]", resp.StoresNeedingExternalResolution)
	}
}

func TestMatchForStores_PriorityPath(t *testing.T) {
	extractor := &fakeExtractor{components: extracted("whole milk", "great value", "1 gallon")}
	svc := NewMatchingService(nil, nil, extractor, MatchConfig{})

	resp, err := svc.MatchForStores(context.Background(), &domain.StoreMatchRequest{
		Query:        "great value whole milk 1 gallon",
		Candidates:   storeCandidates(),
		NearbyStores: []string{"Walmart", "Target", "Safeway"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if extractor.calls.Load() != 1 {
		t.Errorf("extractor called %d times, want once per request", extractor.calls.Load())
	}
	if resp.MatchedStores != 3 {
		t.Errorf("matched = %d, want 3", resp.MatchedStores)
	}

	walmart := resp.StoreMatches["Walmart"]
	if walmart.Product.Title != "Great Value Whole Milk 1 Gallon" {
		t.Errorf("walmart selected %q", walmart.Product.Title)
	}
	if walmart.Reason != "llm_priority_selection_highest_priority" || walmart.Score != 0.99 || !walmart.ExactMatch {
		t.Errorf("walmart match = %+v", walmart)
	}

	if resp.Components == nil || resp.Components.QuantityLiters == nil {
		t.Fatalf("components = %+v, want parsed quantity", resp.Components)
	}
	if !almostEqual(*resp.Components.QuantityLiters, 3.78541) {
		t.Errorf("quantityLiters = %v", *resp.Components.QuantityLiters)
	}
}

func TestMatchForStores_GeneralQuery(t *testing.T) {
	svc := NewMatchingService(nil, nil, nil, MatchConfig{})

	resp, err := svc.MatchForStores(context.Background(), &domain.StoreMatchRequest{
		Query:        "milk",
		Candidates:   storeCandidates(),
		NearbyStores: []string{"Walmart"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	walmart := resp.StoreMatches["Walmart"]
	if walmart.Product.Title != "Great Value 2% Reduced Fat Milk, Half Gallon" {
		t.Errorf("selected %q, want the cheapest milk", walmart.Product.Title)
	}
	if walmart.Reason != domain.ReasonGeneralQueryCheapest {
		t.Errorf("reason = %s", walmart.Reason)
	}
}

func TestMatchForStores_NoRelevantProducts(t *testing.T) {
	svc := NewMatchingService(nil, nil, nil, MatchConfig{})

	resp, err := svc.MatchForStores(context.Background(), &domain.StoreMatchRequest{
		Query:        "detergent",
		Candidates:   storeCandidates(),
		NearbyStores: []string{"Walmart", "Target"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.MatchedStores != 0 {
		t.Errorf("matched = %d, want 0", resp.MatchedStores)
	}
	if !reflect.DeepEqual(resp.StoresNeedingExternalResolution, []string{"Walmart", "Target"}) {
		t.Errorf("needing resolution = %v", resp.StoresNeedingExternalResolution)
	}
}

func TestGroupBySource(t *testing.T) {
	groups, order := groupBySource([]domain.Candidate{
		{Title: "a", Source: "Target"},
		{Title: "b"},
		{Title: "c", Source: "Walmart"},
		{Title: "d", Source: "Target"},
	})

	if !reflect.DeepEqual(order, []string{"Target", "Unknown", "Walmart"}) {
		t.Errorf("order = %v", order)
	}
	if len(groups["Target"]) != 2 || groups["Unknown"][0].Title != "b" {
		t.Errorf("groups = %+v", groups)
	}
}
