package usecase

import (
	"log"
	"regexp"
	"strings"

	"github.com/macrolens/productmatch/internal/rules"
)

var digitRegex = regexp.MustCompile(`\d`)

// Classification is the outcome of classifying a query, with the rule that decided it
type Classification struct {
	General bool   `json:"general"`
	Rule    string `json:"rule"`
}

// Classifier decision rules, in evaluation order
const (
	ruleEmpty           = "empty"
	ruleSpecificPattern = "specific_pattern"
	ruleSingleWord      = "single_word"
	ruleLowDensity      = "low_semantic_density"
	ruleBasicCategory   = "basic_category"
	ruleNumeric         = "numeric_content"
	ruleDescriptive     = "descriptive_words"
	ruleShortQuery      = "short_query"
	ruleComplexQuery    = "complex_query"
)

// QueryClassifier decides whether a query names a category ("milk") or a
// particular product ("lucerne whole milk 1 gallon").
type QueryClassifier struct {
	rules              *rules.Compiled
	enableDebugLogging bool
}

// NewQueryClassifier creates a classifier over the given rule tables
func NewQueryClassifier(r *rules.Compiled, enableDebugLogging bool) *QueryClassifier {
	return &QueryClassifier{rules: r, enableDebugLogging: enableDebugLogging}
}

// IsGeneral reports whether the query is category-level
func (c *QueryClassifier) IsGeneral(query string) bool {
	return c.Classify(query).General
}

// Classify evaluates the rules in order; the first rule that applies decides.
func (c *QueryClassifier) Classify(query string) Classification {
	result := c.classify(query)
	if c.enableDebugLogging {
		log.Printf("[RULES] Query %q classified general=%v by %s", query, result.General, result.Rule)
	}
	return result
}

func (c *QueryClassifier) classify(query string) Classification {
	cfg := c.rules.Raw.Classifier
	queryLower := strings.ToLower(strings.TrimSpace(query))
	words := strings.Fields(queryLower)

	if len(words) == 0 {
		return Classification{General: true, Rule: ruleEmpty}
	}

	for _, group := range c.rules.SpecificGroups {
		for _, pattern := range group.Patterns {
			if pattern.MatchString(queryLower) {
				return Classification{General: false, Rule: ruleSpecificPattern + ":" + group.Name}
			}
		}
	}

	if len(words) == 1 {
		return Classification{General: true, Rule: ruleSingleWord}
	}

	meaningful := 0
	for _, w := range words {
		if len(w) >= cfg.MeaningfulWordMinLength && !c.rules.Stopwords[w] {
			meaningful++
		}
	}
	if meaningful <= cfg.MaxMeaningfulWords {
		return Classification{General: true, Rule: ruleLowDensity}
	}

	if category := c.basicCategory(queryLower); category != "" && len(words) <= cfg.MaxCategoryWords {
		return Classification{General: true, Rule: ruleBasicCategory + ":" + category}
	}

	if digitRegex.MatchString(queryLower) {
		return Classification{General: false, Rule: ruleNumeric}
	}

	for _, w := range words {
		if c.rules.DescriptiveWords[w] {
			return Classification{General: false, Rule: ruleDescriptive}
		}
	}

	if len(words) <= cfg.MaxGeneralWords {
		return Classification{General: true, Rule: ruleShortQuery}
	}
	return Classification{General: false, Rule: ruleComplexQuery}
}

// basicCategory returns the first category with a term contained in the query
func (c *QueryClassifier) basicCategory(queryLower string) string {
	for _, category := range c.rules.Raw.Classifier.BasicCategories {
		for _, term := range category.Terms {
			if strings.Contains(queryLower, strings.ToLower(term)) {
				return category.Name
			}
		}
	}
	return ""
}
