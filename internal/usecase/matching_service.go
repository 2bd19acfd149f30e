package usecase

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/macrolens/productmatch/internal/domain"
	"github.com/macrolens/productmatch/internal/rules"
)

// Priority selection scores
const (
	priorityScoreExact   = 0.99 // item, brand and quantity all present
	priorityScorePartial = 0.90
)

// Default limits
const (
	defaultStoreConcurrency = 4
	defaultExtractorTimeout = 12 * time.Second
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	Profiles           map[string]Profile
	DefaultProfile     string
	QuantityTolerance  float64
	StoreConcurrency   int
	ExtractorTimeout   time.Duration
	EnableDebugLogging bool
}

// MatchingService selects the best candidate for a free-text query
type MatchingService struct {
	classifier *QueryClassifier
	features   *FeatureExtractor
	general    *GeneralSelector
	priority   *PrioritySelector
	stores     *StoreMatcher

	extractor domain.ComponentExtractor
	encoder   domain.TextEncoder

	profiles           map[string]Profile
	defaultProfile     string
	storeConcurrency   int
	extractorTimeout   time.Duration
	enableDebugLogging bool
}

// NewMatchingService creates a matching service. encoder and extractor may be
// nil: the semantic signal then uses TF-IDF and the priority cascade is skipped.
// Configured profiles are layered over DefaultProfiles.
func NewMatchingService(
	r *rules.Compiled,
	encoder domain.TextEncoder,
	extractor domain.ComponentExtractor,
	config MatchConfig,
) *MatchingService {
	if r == nil {
		r = rules.MustDefault()
	}

	profiles := DefaultProfiles()
	for name, p := range config.Profiles {
		profiles[name] = p
	}

	defaultProfile := config.DefaultProfile
	if defaultProfile == "" {
		defaultProfile = ProfileDefault
	}

	concurrency := config.StoreConcurrency
	if concurrency <= 0 {
		concurrency = defaultStoreConcurrency
	}

	timeout := config.ExtractorTimeout
	if timeout <= 0 {
		timeout = defaultExtractorTimeout
	}

	return &MatchingService{
		classifier:         NewQueryClassifier(r, config.EnableDebugLogging),
		features:           NewFeatureExtractor(encoder, config.EnableDebugLogging),
		general:            NewGeneralSelector(r),
		priority:           NewPrioritySelector(config.QuantityTolerance),
		stores:             NewStoreMatcher(r, config.EnableDebugLogging),
		extractor:          extractor,
		encoder:            encoder,
		profiles:           profiles,
		defaultProfile:     defaultProfile,
		storeConcurrency:   concurrency,
		extractorTimeout:   timeout,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// EmbeddingsAvailable reports whether a text encoder is configured
func (s *MatchingService) EmbeddingsAvailable() bool {
	return s.encoder != nil
}

// ExtractorAvailable reports whether a component extractor is configured
func (s *MatchingService) ExtractorAvailable() bool {
	return s.extractor != nil
}

// Classify exposes the query classifier
func (s *MatchingService) Classify(query string) Classification {
	return s.classifier.Classify(query)
}

// Profile returns a configured profile by name
func (s *MatchingService) Profile(name string) (Profile, bool) {
	p, ok := s.profiles[name]
	return p, ok
}

// Match selects one candidate for a query. General queries take the cheapest
// relevant candidate; specific queries try the priority cascade over
// extracted components, then fall back to the scored path.
func (s *MatchingService) Match(ctx context.Context, req *domain.MatchRequest) (*domain.MatchResponse, error) {
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

	profile, err := s.resolveProfile(req)
	if err != nil {
		return nil, err
	}

	if s.enableDebugLogging {
		log.Printf("[MATCH] Matching %q against %d candidates", query, len(req.Candidates))
	}

	var result domain.MatchResult
	if s.classifier.IsGeneral(query) {
		result = s.general.Select(query, req.Candidates)
	} else {
		result, err = s.matchSpecific(ctx, query, req.Candidates, profile)
		if err != nil {
			return nil, err
		}
	}

	if s.enableDebugLogging && result.Selected != nil {
		log.Printf("[MATCH] Selected %q (score: %.3f, reason: %s)", result.Selected.Title, result.Score, result.Reason)
	}

	return toResponse(result, start), nil
}

// MatchBatch runs independent match requests concurrently. A failed request
// is reported in its own entry and does not affect the others.
func (s *MatchingService) MatchBatch(ctx context.Context, reqs []domain.MatchRequest) []domain.BatchResult {
	results := make([]domain.BatchResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(s.storeConcurrency)
	for i := range reqs {
		g.Go(func() error {
			results[i].Query = reqs[i].Query
			resp, err := s.Match(ctx, &reqs[i])
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Result = resp
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// SelectBestProduct runs the classic algorithm: general queries use the
// relevance selector, all others the scored path with the given profile.
func (s *MatchingService) SelectBestProduct(
	ctx context.Context,
	query string,
	candidates []domain.Candidate,
	profile Profile,
) (domain.MatchResult, error) {
	if len(candidates) == 0 {
		return domain.MatchResult{Reason: domain.ReasonNoCandidates, AllCandidates: []domain.ScoredCandidate{}}, nil
	}
	if s.classifier.IsGeneral(query) {
		return s.general.Select(query, candidates), nil
	}
	return s.scored(ctx, query, candidates, profile)
}

// ExtractComponents asks the extractor for brand, item and quantity. It fails
// closed: errors, timeouts and empty answers all yield nil.
func (s *MatchingService) ExtractComponents(ctx context.Context, query string) *domain.QueryComponents {
	if s.extractor == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.extractorTimeout)
	defer cancel()

	extracted, err := s.extractor.ExtractComponents(ctx, query)
	if err != nil {
		log.Printf("[LLM] Component extraction failed for %q: %v", query, err)
		return nil
	}
	if extracted.IsEmpty() {
		return nil
	}

	comps := &domain.QueryComponents{
		Brand:          extracted.Brand,
		Item:           extracted.Item,
		Quantity:       extracted.Quantity,
		QuantityLiters: ParseQuantityLiters(extracted.Quantity),
	}
	if s.enableDebugLogging {
		log.Printf("[LLM] Components for %q: brand=%s item=%s quantity=%s",
			query, deref(comps.Brand), deref(comps.Item), deref(comps.Quantity))
	}
	return comps
}

func (s *MatchingService) matchSpecific(
	ctx context.Context,
	query string,
	candidates []domain.Candidate,
	profile Profile,
) (domain.MatchResult, error) {
	comps := s.ExtractComponents(ctx, query)
	if pick, priorityCase := s.priority.Select(candidates, comps); pick != nil {
		return domain.MatchResult{
			Selected:      pick,
			Score:         priorityScore(comps),
			ConfidenceOK:  true,
			Reason:        domain.PriorityReason(string(priorityCase)),
			AllCandidates: []domain.ScoredCandidate{},
		}, nil
	}
	return s.scored(ctx, query, candidates, profile)
}

func (s *MatchingService) scored(
	ctx context.Context,
	query string,
	candidates []domain.Candidate,
	profile Profile,
) (domain.MatchResult, error) {
	scored, err := s.features.Extract(ctx, query, candidates)
	if err != nil {
		return domain.MatchResult{}, err
	}
	ScoreAll(scored, profile.Weights)

	if s.enableDebugLogging {
		for _, c := range scored {
			log.Printf("[MATCH] %q | lex: %.3f | partial: %.3f | sem: %.3f | brand: %.0f | final: %.3f",
				c.NormalizedTitle, c.LexicalScore, c.PartialScore, c.SemanticScore, c.BrandMatch, c.FinalScore)
		}
	}

	return SelectBest(scored, profile.TieDelta, profile.ConfThreshold), nil
}

// resolveProfile starts from the named (or default) profile and applies any
// explicit overrides carried by the request.
func (s *MatchingService) resolveProfile(req *domain.MatchRequest) (Profile, error) {
	name := req.Profile
	if name == "" {
		name = s.defaultProfile
	}
	profile, ok := s.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", domain.ErrUnknownProfile, name)
	}

	if len(req.Weights) > 0 {
		weights, err := profile.Weights.WithOverrides(req.Weights)
		if err != nil {
			return Profile{}, err
		}
		profile.Weights = weights
	}

	if req.ConfThreshold != nil {
		if math.IsNaN(*req.ConfThreshold) {
			return Profile{}, fmt.Errorf("%w: confThreshold must be a number", domain.ErrInvalidRequest)
		}
		profile.ConfThreshold = *req.ConfThreshold
	}

	if req.TieDelta != nil {
		if math.IsNaN(*req.TieDelta) || *req.TieDelta < 0 {
			return Profile{}, fmt.Errorf("%w: tieDelta must be non-negative", domain.ErrInvalidRequest)
		}
		profile.TieDelta = *req.TieDelta
	}

	return profile, nil
}

func priorityScore(comps *domain.QueryComponents) float64 {
	if allComponentsPresent(comps) {
		return priorityScoreExact
	}
	return priorityScorePartial
}

func allComponentsPresent(comps *domain.QueryComponents) bool {
	return comps != nil &&
		normalizedComponent(comps.Item) != "" &&
		normalizedComponent(comps.Brand) != "" &&
		comps.QuantityLiters != nil && *comps.QuantityLiters > 0
}

func toResponse(result domain.MatchResult, start time.Time) *domain.MatchResponse {
	all := result.AllCandidates
	if all == nil {
		all = []domain.ScoredCandidate{}
	}
	return &domain.MatchResponse{
		SelectedProduct:  result.Selected,
		Score:            result.Score,
		ConfidenceOK:     result.ConfidenceOK,
		Reason:           result.Reason,
		AllCandidates:    all,
		ProcessingTimeMs: elapsedMs(start),
	}
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
