package usecase

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/macrolens/productmatch/internal/domain"
	"github.com/macrolens/productmatch/internal/rules"
)

// QueryPreprocessor breaks a query into brand, item and quantity with regular
// expressions and the rule tables. It is the ComponentExtractor used when no
// language model is configured.
type QueryPreprocessor struct {
	rules              *rules.Compiled
	enableDebugLogging bool
}

// Compiled regex patterns for query preprocessing
var (
	// Matches size/quantity patterns like "128 fl oz", "1 gal", "1.5 liter", "2 lb"
	sizeQuantityPattern = regexp.MustCompile(`(?i)\b\d+\.?\d*\s*(fl\.?\s*)?oz\b|\b\d+\.?\d*\s*(fl\s*|fluid\s*)?ounces?\b|\b\d+\.?\d*\s*lbs?\b|\b\d+\.?\d*\s*pounds?\b|\b\d+\.?\d*\s*ml\b|\b\d+\.?\d*\s*(liters?|litres?|l)\b|\b\d+\.?\d*\s*(gallons?|gal)\b|\b\d+\.?\d*\s*(quarts?|qt)\b|\b\d+\.?\d*\s*(pints?|pt)\b|\b\d+\.?\d*\s*kg\b|\b\d+\.?\d*\s*grams?\b|\b\d+\.?\d*\s*g\b`)

	// Matches pack/count patterns like "12 pack", "pack of 6", "6-pack", "24 count", "6 ct"
	packCountPattern = regexp.MustCompile(`(?i)\b\d+[-\s]*(pack|pk|count|ct)\b|\bpack\s*of\s*\d+\b|\b\d+\s*cans?\b|\b\d+\s*bottles?\b|\b\d+\s*pouches?\b`)

	// Matches standalone numbers with no unit (e.g., ", 128", "- 12")
	standaloneNumberPattern = regexp.MustCompile(`[,\-]\s*\d+\.?\d*\s*$|^\d+\.?\d*\s*[,\-]`)

	lonePunctuationPattern     = regexp.MustCompile(`\s+[,\-;:]+\s+`)
	trailingPunctuationPattern = regexp.MustCompile(`[,\-;:]+\s*$`)
	leadingPunctuationPattern  = regexp.MustCompile(`^\s*[,\-;:]+`)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// NewQueryPreprocessor creates a preprocessor over the given rule tables
func NewQueryPreprocessor(compiled *rules.Compiled, enableDebugLogging bool) *QueryPreprocessor {
	return &QueryPreprocessor{
		rules:              compiled,
		enableDebugLogging: enableDebugLogging,
	}
}

// ExtractComponents implements domain.ComponentExtractor
func (p *QueryPreprocessor) ExtractComponents(ctx context.Context, query string) (*domain.ExtractedComponents, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.Preprocess(query), nil
}

// Preprocess splits a query into components. The quantity is the first size
// found, the brand the first known brand found, and the item whatever is left
// once sizes, pack counts, the brand and noise words are removed.
func (p *QueryPreprocessor) Preprocess(query string) *domain.ExtractedComponents {
	comps := &domain.ExtractedComponents{}
	text := strings.TrimSpace(query)
	if text == "" {
		return comps
	}

	// Step 1: Take the first size as the quantity, then drop all sizes
	if loc := sizeQuantityPattern.FindStringIndex(text); loc != nil {
		comps.Quantity = domain.StringPtr(strings.TrimSpace(text[loc[0]:loc[1]]))
	}
	cleaned := sizeQuantityPattern.ReplaceAllString(text, " ")

	// Step 2: Remove pack/count patterns (e.g., "12 pack", "pack of 6")
	cleaned = packCountPattern.ReplaceAllString(cleaned, " ")

	// Step 3: Cut out the first known brand, keeping the query's spelling
	for _, brand := range p.rules.KnownBrands {
		if loc := brand.Pattern.FindStringIndex(cleaned); loc != nil {
			comps.Brand = domain.StringPtr(cleaned[loc[0]:loc[1]])
			cleaned = cleaned[:loc[0]] + " " + cleaned[loc[1]:]
			break
		}
	}

	// Step 4: Remove standalone numbers, noise words and orphaned punctuation
	cleaned = standaloneNumberPattern.ReplaceAllString(cleaned, " ")
	cleaned = p.removeNoiseWords(cleaned)
	cleaned = cleanOrphanedPunctuation(cleaned)

	cleaned = strings.TrimSpace(multiSpacePattern.ReplaceAllString(cleaned, " "))
	if cleaned != "" {
		comps.Item = &cleaned
	}

	if p.enableDebugLogging {
		log.Printf("[PREPROCESS] Input: %q -> brand=%s item=%s quantity=%s",
			query, deref(comps.Brand), deref(comps.Item), deref(comps.Quantity))
	}

	return comps
}

// removeNoiseWords removes marketing and packaging terms and lowercases the rest
func (p *QueryPreprocessor) removeNoiseWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	kept := make([]string, 0, len(words))

	for _, word := range words {
		cleanWord := strings.Trim(word, ",.!?;:-'\"")
		if !p.rules.NoiseWords[cleanWord] {
			kept = append(kept, word)
		}
	}

	return strings.Join(kept, " ")
}

// cleanOrphanedPunctuation removes punctuation left alone by earlier steps
func cleanOrphanedPunctuation(s string) string {
	result := lonePunctuationPattern.ReplaceAllString(s, " ")
	result = trailingPunctuationPattern.ReplaceAllString(result, "")
	return leadingPunctuationPattern.ReplaceAllString(result, "")
}
