package usecase

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/macrolens/productmatch/internal/domain"
)

// fakeExtractor returns fixed components and counts calls
type fakeExtractor struct {
	components *domain.ExtractedComponents
	err        error
	delay      time.Duration
	calls      atomic.Int32
}

func (f *fakeExtractor) ExtractComponents(ctx context.Context, query string) (*domain.ExtractedComponents, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.components, nil
}

func extracted(item, brand, quantity string) *domain.ExtractedComponents {
	e := &domain.ExtractedComponents{}
	if item != "" {
		e.Item = domain.StringPtr(item)
	}
	if brand != "" {
		e.Brand = domain.StringPtr(brand)
	}
	if quantity != "" {
		e.Quantity = domain.StringPtr(quantity)
	}
	return e
}

func milkCandidates() []domain.Candidate {
	return []domain.Candidate{
		priced("Organic Valley 2% Reduced Fat Milk, Half Gallon", 4.29, "Target"),
		priced("Lucerne Whole Milk 1 Gallon", 3.99, "Safeway"),
		priced("Simple Truth Oat Milk 64 fl oz", 3.49, "Kroger"),
		priced("Great Value Whole Milk, 1 gal", 3.12, "Walmart"),
	}
}

func TestNewMatchingService(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		svc := NewMatchingService(nil, nil, nil, MatchConfig{})
		if svc.defaultProfile != ProfileDefault {
			t.Errorf("defaultProfile = %q, want default", svc.defaultProfile)
		}
		if svc.storeConcurrency != 4 || svc.extractorTimeout != 12*time.Second {
			t.Errorf("concurrency = %d timeout = %v", svc.storeConcurrency, svc.extractorTimeout)
		}
		for _, name := range []string{ProfileDefault, ProfileLenient, ProfileStoreFallback, ProfileStoreLowConfidence} {
			if _, ok := svc.Profile(name); !ok {
				t.Errorf("missing built-in profile %q", name)
			}
		}
		if svc.EmbeddingsAvailable() || svc.ExtractorAvailable() {
			t.Errorf("collaborators reported available without being configured")
		}
	})

	t.Run("configured profiles override built-ins", func(t *testing.T) {
		svc := NewMatchingService(nil, nil, nil, MatchConfig{
			Profiles: map[string]Profile{
				ProfileDefault: {Weights: DefaultWeights(), ConfThreshold: 0.7, TieDelta: 0.01},
				"strict":       {Weights: DefaultWeights(), ConfThreshold: 0.9},
			},
		})
		p, _ := svc.Profile(ProfileDefault)
		if p.ConfThreshold != 0.7 {
			t.Errorf("default confThreshold = %v, want 0.7", p.ConfThreshold)
		}
		if _, ok := svc.Profile("strict"); !ok {
			t.Errorf("custom profile missing")
		}
		if _, ok := svc.Profile(ProfileLenient); !ok {
			t.Errorf("built-in profile dropped")
		}
	})
}

func TestMatch_Validation(t *testing.T) {
	svc := NewMatchingService(nil, nil, nil, MatchConfig{})
	ctx := context.Background()

	tests := []struct {
		name string
		req  *domain.MatchRequest
		want error
	}{
		{"nil request", nil, domain.ErrInvalidRequest},
		{"blank query", &domain.MatchRequest{Query: "  ", Candidates: milkCandidates()}, domain.ErrEmptyQuery},
		{"no candidates", &domain.MatchRequest{Query: "milk"}, domain.ErrNoCandidates},
		{"unknown profile", &domain.MatchRequest{Query: "milk", Candidates: milkCandidates(), Profile: "nope"}, domain.ErrUnknownProfile},
		{"bad weight", &domain.MatchRequest{Query: "milk", Candidates: milkCandidates(), Weights: map[string]float64{"color": 1}}, domain.ErrInvalidWeights},
		{"negative tie delta", &domain.MatchRequest{Query: "milk", Candidates: milkCandidates(), TieDelta: domain.FloatPtr(-1)}, domain.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Match(ctx, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if !domain.IsValidationError(err) {
				t.Errorf("error %v should be a validation error", err)
			}
		})
	}
}

func TestMatch_SpecificQuery(t *testing.T) {
	svc := NewMatchingService(nil, nil, nil, MatchConfig{})

	resp, err := svc.Match(context.Background(), &domain.MatchRequest{
		Query:      "whole milk 1 gallon",
		Candidates: milkCandidates(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.SelectedProduct == nil || !strings.Contains(resp.SelectedProduct.Title, "Whole Milk") {
		t.Fatalf("selected %+v, want a Whole Milk title", resp.SelectedProduct)
	}
	if resp.SelectedProduct.Title != "Lucerne Whole Milk 1 Gallon" {
		t.Errorf("selected %q, want Lucerne Whole Milk 1 Gallon", resp.SelectedProduct.Title)
	}
	if !resp.ConfidenceOK {
		t.Errorf("confidenceOk = false, score %v", resp.Score)
	}
	if resp.Reason != domain.ReasonTopSingle {
		t.Errorf("reason = %s, want top_single", resp.Reason)
	}
	if len(resp.AllCandidates) != 4 {
		t.Errorf("allCandidates = %d, want 4", len(resp.AllCandidates))
	}
	for i := 1; i < len(resp.AllCandidates); i++ {
		if resp.AllCandidates[i-1].FinalScore < resp.AllCandidates[i].FinalScore {
			t.Errorf("allCandidates not sorted by score at %d", i)
		}
	}
}

func TestMatch_CandidateOrderDoesNotMatter(t *testing.T) {
	svc := NewMatchingService(nil, nil, nil, MatchConfig{})
	ctx := context.Background()

	forward := milkCandidates()
	reversed := milkCandidates()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}

	a, err := svc.Match(ctx, &domain.MatchRequest{Query: "whole milk 1 gallon", Candidates: forward})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := svc.Match(ctx, &domain.MatchRequest{Query: "whole milk 1 gallon", Candidates: reversed})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.SelectedProduct.Title != b.SelectedProduct.Title || !almostEqual(a.Score, b.Score) {
		t.Errorf("selection depends on order: %q vs %q", a.SelectedProduct.Title, b.SelectedProduct.Title)
	}
}

func TestMatch_GeneralQuery(t *testing.T) {
	extractor := &fakeExtractor{components: extracted("milk", "", "")}
	svc := NewMatchingService(nil, nil, extractor, MatchConfig{})

	resp, err := svc.Match(context.Background(), &domain.MatchRequest{
		Query:      "milk",
		Candidates: milkCandidates(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Reason != domain.ReasonGeneralQueryCheapest {
		t.Errorf("reason = %s, want general_query_cheapest", resp.Reason)
	}
	if resp.SelectedProduct.Title != "Great Value Whole Milk, 1 gal" {
		t.Errorf("selected %q, want the cheapest milk", resp.SelectedProduct.Title)
	}
	if resp.Score != 0.95 {
		t.Errorf("score = %v, want 0.95", resp.Score)
	}
	if extractor.calls.Load() != 0 {
		t.Errorf("extractor called %d times for a general query", extractor.calls.Load())
	}
}

func TestMatch_PrioritySelection(t *testing.T) {
	ctx := context.Background()
	candidates := []domain.Candidate{
		priced("Organic Valley Whole Milk Half Gallon", 3.99, "Target"),
		priced("Lucerne Whole Milk 1 Gallon", 3.49, "Safeway"),
		priced("Organic Valley Whole Milk 1 Gallon", 6.49, "Target"),
	}

	t.Run("all components", func(t *testing.T) {
		extractor := &fakeExtractor{components: extracted("milk", "organic valley", "1 gallon")}
		svc := NewMatchingService(nil, nil, extractor, MatchConfig{})

		resp, err := svc.Match(ctx, &domain.MatchRequest{Query: "organic valley whole milk 1 gallon", Candidates: candidates})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.SelectedProduct.Title != "Organic Valley Whole Milk 1 Gallon" {
			t.Errorf("selected %q", resp.SelectedProduct.Title)
		}
		if resp.Reason != "llm_priority_selection_highest_priority" {
			t.Errorf("reason = %s", resp.Reason)
		}
		if resp.Score != 0.99 || !resp.ConfidenceOK {
			t.Errorf("score = %v confidenceOk = %v", resp.Score, resp.ConfidenceOK)
		}
	})

	t.Run("partial components", func(t *testing.T) {
		extractor := &fakeExtractor{components: extracted("milk", "organic valley", "")}
		svc := NewMatchingService(nil, nil, extractor, MatchConfig{})

		resp, err := svc.Match(ctx, &domain.MatchRequest{Query: "organic valley whole milk 1 gallon", Candidates: candidates})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.SelectedProduct.Title != "Organic Valley Whole Milk Half Gallon" {
			t.Errorf("selected %q", resp.SelectedProduct.Title)
		}
		if resp.Reason != "llm_priority_selection_second_case" || resp.Score != 0.9 {
			t.Errorf("reason = %s score = %v", resp.Reason, resp.Score)
		}
	})

	t.Run("extractor failure falls back to scoring", func(t *testing.T) {
		extractor := &fakeExtractor{err: errors.New("rate limited")}
		svc := NewMatchingService(nil, nil, extractor, MatchConfig{})

		resp, err := svc.Match(ctx, &domain.MatchRequest{Query: "organic valley whole milk 1 gallon", Candidates: candidates})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.HasPrefix(string(resp.Reason), "llm_priority_selection_") {
			t.Errorf("reason = %s, want a scored reason", resp.Reason)
		}
		if len(resp.AllCandidates) != 3 {
			t.Errorf("allCandidates = %d, want 3", len(resp.AllCandidates))
		}
	})

	t.Run("extractor timeout fails closed", func(t *testing.T) {
		extractor := &fakeExtractor{components: extracted("milk", "", ""), delay: time.Second}
		svc := NewMatchingService(nil, nil, extractor, MatchConfig{ExtractorTimeout: 10 * time.Millisecond})

		resp, err := svc.Match(ctx, &domain.MatchRequest{Query: "organic valley whole milk 1 gallon", Candidates: candidates})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.HasPrefix(string(resp.Reason), "llm_priority_selection_") {
			t.Errorf("reason = %s, want a scored reason", resp.Reason)
		}
	})
}

func TestMatch_ProfileOverrides(t *testing.T) {
	svc := NewMatchingService(nil, nil, nil, MatchConfig{})
	ctx := context.Background()

	resp, err := svc.Match(ctx, &domain.MatchRequest{
		Query:         "whole milk 1 gallon",
		Candidates:    milkCandidates(),
		ConfThreshold: domain.FloatPtr(0.99),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ConfidenceOK {
		t.Errorf("confidenceOk should be false with threshold 0.99 (score %v)", resp.Score)
	}

	resp, err = svc.Match(ctx, &domain.MatchRequest{
		Query:      "whole milk 1 gallon",
		Candidates: milkCandidates(),
		Weights:    map[string]float64{"token_set": 0, "embed": 0, "partial": 0, "brand": 0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Score != 0 || resp.Reason != domain.ReasonTieBrokenByPricePerLiter {
		t.Errorf("zero weights: score = %v reason = %s", resp.Score, resp.Reason)
	}
}

func TestMatchBatch(t *testing.T) {
	svc := NewMatchingService(nil, nil, nil, MatchConfig{})

	results := svc.MatchBatch(context.Background(), []domain.MatchRequest{
		{Query: "whole milk 1 gallon", Candidates: milkCandidates()},
		{Query: "", Candidates: milkCandidates()},
		{Query: "milk", Candidates: milkCandidates()},
	})

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results[0].Result == nil || results[0].Error != "" {
		t.Errorf("first result = %+v", results[0])
	}
	if results[1].Result != nil || results[1].Error != domain.ErrEmptyQuery.Error() {
		t.Errorf("second result = %+v", results[1])
	}
	if results[2].Query != "milk" || results[2].Result.Reason != domain.ReasonGeneralQueryCheapest {
		t.Errorf("third result = %+v", results[2])
	}
}
