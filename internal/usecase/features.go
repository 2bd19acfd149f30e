package usecase

import (
	"context"
	"log"
	"strings"

	"github.com/macrolens/productmatch/internal/domain"
	"github.com/macrolens/productmatch/internal/infrastructure/embedding"
)

// FeatureExtractor computes per-candidate similarity signals against a query
type FeatureExtractor struct {
	encoder            domain.TextEncoder
	enableDebugLogging bool
}

// NewFeatureExtractor creates a feature extractor. A nil encoder makes every
// request use the TF-IDF substitute for the semantic signal.
func NewFeatureExtractor(encoder domain.TextEncoder, enableDebugLogging bool) *FeatureExtractor {
	return &FeatureExtractor{
		encoder:            encoder,
		enableDebugLogging: enableDebugLogging,
	}
}

// Extract returns one scored candidate per input, in input order, with the
// feature vector filled in and FinalScore left at zero.
func (f *FeatureExtractor) Extract(ctx context.Context, query string, candidates []domain.Candidate) ([]domain.ScoredCandidate, error) {
	normQuery := NormalizeText(query)
	titles := make([]string, len(candidates))
	scored := make([]domain.ScoredCandidate, len(candidates))

	for i, c := range candidates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		title := NormalizeText(c.Title)
		titles[i] = title
		liters := ParseVolumeLiters(c.Title)

		scored[i] = domain.ScoredCandidate{
			Candidate: c,
			FeatureVector: domain.FeatureVector{
				NormalizedTitle: title,
				LexicalScore:    TokenSetScore(normQuery, title),
				PartialScore:    PartialScore(normQuery, title),
				BrandMatch:      brandMatch(c.Source, title),
				Liters:          liters,
				PricePerLiter:   PricePerLiter(c.Price, liters),
			},
		}
	}

	semantic := f.semanticScores(ctx, normQuery, titles)
	for i := range scored {
		scored[i].SemanticScore = semantic[i]
	}

	return scored, nil
}

// EncoderName reports which encoder backs the semantic signal
func (f *FeatureExtractor) EncoderName() string {
	if f.encoder == nil {
		return "tfidf"
	}
	return f.encoder.Name()
}

func brandMatch(source, normalizedTitle string) float64 {
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		return 0
	}
	if strings.Contains(normalizedTitle, source) {
		return 1
	}
	return 0
}

// semanticScores never fails: an encoder error degrades to the TF-IDF substitute
func (f *FeatureExtractor) semanticScores(ctx context.Context, query string, titles []string) []float64 {
	if f.encoder != nil {
		scores, err := f.encoderScores(ctx, query, titles)
		if err == nil {
			return scores
		}
		log.Printf("[EMBED] Encoder %s failed, using TF-IDF: %v", f.encoder.Name(), err)
	}
	return tfidfScores(ctx, query, titles)
}

// encoderScores embeds the query and titles and rescales cosine to [0,1].
// A failed query embedding fails the whole call; a failed title scores 0.
func (f *FeatureExtractor) encoderScores(ctx context.Context, query string, titles []string) ([]float64, error) {
	scores := make([]float64, len(titles))

	if batch, ok := f.encoder.(domain.BatchTextEncoder); ok {
		vecs, err := batch.EmbedBatch(ctx, append([]string{query}, titles...))
		if err != nil {
			return nil, err
		}
		for i := range titles {
			if i+1 < len(vecs) {
				scores[i] = rescaleCosine(CosineSimilarity(vecs[0], vecs[i+1]))
			}
		}
		return scores, nil
	}

	queryVec, err := f.encoder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	for i, title := range titles {
		vec, err := f.encoder.Embed(ctx, title)
		if err != nil {
			if f.enableDebugLogging {
				log.Printf("[EMBED] Title %q failed to embed: %v", title, err)
			}
			continue
		}
		scores[i] = rescaleCosine(CosineSimilarity(queryVec, vec))
	}
	return scores, nil
}

func rescaleCosine(cos float64) float64 {
	return (cos + 1) / 2
}

// tfidfScores fits one vocabulary over the titles plus the query and returns
// the raw cosine of each title against the query.
func tfidfScores(ctx context.Context, query string, titles []string) []float64 {
	scores := make([]float64, len(titles))

	enc := embedding.NewTFIDFEncoder()
	if err := enc.Prepare(append(append([]string{}, titles...), query)); err != nil {
		return scores
	}
	queryVec, err := enc.Embed(ctx, query)
	if err != nil {
		return scores
	}
	for i, title := range titles {
		vec, err := enc.Embed(ctx, title)
		if err != nil {
			continue
		}
		scores[i] = CosineSimilarity(queryVec, vec)
	}
	return scores
}
