package embedding

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

// ErrNotPrepared is returned by Embed before Prepare has built a vocabulary
var ErrNotPrepared = errors.New("tfidf encoder not prepared")

// TFIDFEncoder is a request-scoped TF-IDF vectorizer. Prepare fits the
// vocabulary on a small corpus (the query plus the candidate titles) and Embed
// returns L2-normalized vectors over that vocabulary. Not safe for concurrent
// Prepare calls; build one per request.
type TFIDFEncoder struct {
	vocabulary   map[string]int
	idf          []float64
	dimension    int
	prepared     bool
	tokenPattern *regexp.Regexp
}

func NewTFIDFEncoder() *TFIDFEncoder {
	return &TFIDFEncoder{
		vocabulary: make(map[string]int),
		// runs of two or more word characters; single digits and letters are dropped
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}_]{2,}`),
	}
}

func (e *TFIDFEncoder) Name() string { return "tfidf" }

func (e *TFIDFEncoder) Close() error { return nil }

func (e *TFIDFEncoder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}
	// Build vocabulary and document frequencies
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return errors.New("no tokens found in corpus")
	}
	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		// Smoothed IDF
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	e.dimension = len(terms)
	e.prepared = true
	return nil
}

func (e *TFIDFEncoder) Dimension() int { return e.dimension }

func (e *TFIDFEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !e.prepared {
		return nil, ErrNotPrepared
	}
	vec := make([]float64, e.dimension)
	tf := make(map[int]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	out := make([]float32, e.dimension)
	if total == 0 {
		return out, nil
	}
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * e.idf[idx]
	}
	// L2 normalize
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		if norm > 0 {
			v /= norm
		}
		out[i] = float32(v)
	}
	return out, nil
}

// EmbedBatch embeds every text against the prepared vocabulary
func (e *TFIDFEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *TFIDFEncoder) tokenize(text string) []string {
	return e.tokenPattern.FindAllString(strings.ToLower(text), -1)
}
