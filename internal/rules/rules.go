// Package rules holds the hand-tuned tables that drive query classification,
// general-query relevance and store name reconciliation. The defaults are
// embedded; deployments may replace them with a YAML or TOML file.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// Rules is the raw, serializable rule set
type Rules struct {
	Classifier ClassifierRules `yaml:"classifier" toml:"classifier"`
	Relevance  RelevanceRules  `yaml:"relevance" toml:"relevance"`
	Stores     StoreRules      `yaml:"stores" toml:"stores"`
	Extraction ExtractionRules `yaml:"extraction" toml:"extraction"`
}

// PatternGroup is a named, ordered list of regular expressions
type PatternGroup struct {
	Name     string   `yaml:"name" toml:"name"`
	Patterns []string `yaml:"patterns" toml:"patterns"`
}

// CategoryTerms is a basic product category and the words that signal it
type CategoryTerms struct {
	Name  string   `yaml:"name" toml:"name"`
	Terms []string `yaml:"terms" toml:"terms"`
}

// ClassifierRules configure the general-vs-specific query classifier
type ClassifierRules struct {
	SpecificPatterns        []PatternGroup  `yaml:"specific_patterns" toml:"specific_patterns"`
	Stopwords               []string        `yaml:"stopwords" toml:"stopwords"`
	MeaningfulWordMinLength int             `yaml:"meaningful_word_min_length" toml:"meaningful_word_min_length"`
	MaxMeaningfulWords      int             `yaml:"max_meaningful_words" toml:"max_meaningful_words"`
	BasicCategories         []CategoryTerms `yaml:"basic_categories" toml:"basic_categories"`
	MaxCategoryWords        int             `yaml:"max_category_words" toml:"max_category_words"`
	DescriptiveWords        []string        `yaml:"descriptive_words" toml:"descriptive_words"`
	MaxGeneralWords         int             `yaml:"max_general_words" toml:"max_general_words"`
}

// Synonym maps a query term to title words that indicate the same category
type Synonym struct {
	Term     string   `yaml:"term" toml:"term"`
	Synonyms []string `yaml:"synonyms" toml:"synonyms"`
}

// RelevanceRules configure relevance scoring on the general-query path
type RelevanceRules struct {
	ExactWordPoints      float64   `yaml:"exact_word_points" toml:"exact_word_points"`
	PartialWordPoints    float64   `yaml:"partial_word_points" toml:"partial_word_points"`
	PartialWordMinLength int       `yaml:"partial_word_min_length" toml:"partial_word_min_length"`
	SynonymPoints        float64   `yaml:"synonym_points" toml:"synonym_points"`
	BrandPenalty         float64   `yaml:"brand_penalty" toml:"brand_penalty"`
	NoSizeBonus          float64   `yaml:"no_size_bonus" toml:"no_size_bonus"`
	GeneralScore         float64   `yaml:"general_score" toml:"general_score"`
	CategorySynonyms     []Synonym `yaml:"category_synonyms" toml:"category_synonyms"`
	BrandTokens          []string  `yaml:"brand_tokens" toml:"brand_tokens"`
	SizeTerms            []string  `yaml:"size_terms" toml:"size_terms"`
}

// StoreRules configure retailer name reconciliation
type StoreRules struct {
	MajorRetailers      []string `yaml:"major_retailers" toml:"major_retailers"`
	MinSharedWordLength int      `yaml:"min_shared_word_length" toml:"min_shared_word_length"`
}

// ExtractionRules configure the rule-based component extractor
type ExtractionRules struct {
	KnownBrands []string `yaml:"known_brands" toml:"known_brands"`
	NoiseWords  []string `yaml:"noise_words" toml:"noise_words"`
}

// CompiledGroup is a PatternGroup with its expressions compiled
type CompiledGroup struct {
	Name     string
	Patterns []*regexp.Regexp
}

// Compiled is a validated rule set ready for matching. It is immutable after
// construction and safe for concurrent use.
type Compiled struct {
	Raw Rules

	SpecificGroups   []CompiledGroup
	Stopwords        map[string]bool
	DescriptiveWords map[string]bool
	Synonyms         map[string][]string
	BrandTokens      []*regexp.Regexp
	MajorRetailers   []string
	KnownBrands      []KnownBrand
	NoiseWords       map[string]bool
}

// KnownBrand is a brand name and the whole-word expression that finds it
type KnownBrand struct {
	Name    string
	Pattern *regexp.Regexp
}

// Default returns the embedded rule set
func Default() (*Compiled, error) {
	var r Rules
	if err := yaml.Unmarshal(defaultRulesYAML, &r); err != nil {
		return nil, fmt.Errorf("decode embedded rules: %w", err)
	}
	return r.Compile()
}

// MustDefault is Default for package initialization and tests
func MustDefault() *Compiled {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a rule file. An empty path yields the embedded defaults.
// The format is chosen by extension: .toml, or .yaml/.yml.
func Load(path string) (*Compiled, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file '%s': %w", path, err)
	}

	var r Rules
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("failed to parse TOML rules: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("failed to parse YAML rules: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported rules file extension: %s", filepath.Ext(path))
	}

	return r.Compile()
}

// Compile validates the rule set and prepares lookup structures
func (r Rules) Compile() (*Compiled, error) {
	applyDefaults(&r)

	c := &Compiled{
		Raw:              r,
		Stopwords:        toSet(r.Classifier.Stopwords),
		DescriptiveWords: toSet(r.Classifier.DescriptiveWords),
		Synonyms:         make(map[string][]string, len(r.Relevance.CategorySynonyms)),
		MajorRetailers:   make([]string, 0, len(r.Stores.MajorRetailers)),
		NoiseWords:       toSet(r.Extraction.NoiseWords),
	}

	for _, group := range r.Classifier.SpecificPatterns {
		compiled := CompiledGroup{Name: group.Name}
		for _, pattern := range group.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern in group %q: %w", group.Name, err)
			}
			compiled.Patterns = append(compiled.Patterns, re)
		}
		c.SpecificGroups = append(c.SpecificGroups, compiled)
	}

	for _, syn := range r.Relevance.CategorySynonyms {
		term := strings.ToLower(strings.TrimSpace(syn.Term))
		for _, s := range syn.Synonyms {
			c.Synonyms[term] = append(c.Synonyms[term], strings.ToLower(s))
		}
	}

	for _, token := range r.Relevance.BrandTokens {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(strings.ToLower(token)) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("invalid brand token %q: %w", token, err)
		}
		c.BrandTokens = append(c.BrandTokens, re)
	}

	for _, store := range r.Stores.MajorRetailers {
		c.MajorRetailers = append(c.MajorRetailers, strings.ToLower(strings.TrimSpace(store)))
	}

	for _, brand := range r.Extraction.KnownBrands {
		name := strings.TrimSpace(brand)
		if name == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("invalid known brand %q: %w", brand, err)
		}
		c.KnownBrands = append(c.KnownBrands, KnownBrand{Name: name, Pattern: re})
	}

	return c, nil
}

// applyDefaults fills numeric thresholds left unset by a partial rule file
func applyDefaults(r *Rules) {
	if r.Classifier.MeaningfulWordMinLength <= 0 {
		r.Classifier.MeaningfulWordMinLength = 3
	}
	if r.Classifier.MaxMeaningfulWords <= 0 {
		r.Classifier.MaxMeaningfulWords = 2
	}
	if r.Classifier.MaxCategoryWords <= 0 {
		r.Classifier.MaxCategoryWords = 3
	}
	if r.Classifier.MaxGeneralWords <= 0 {
		r.Classifier.MaxGeneralWords = 3
	}
	if r.Relevance.PartialWordMinLength <= 0 {
		r.Relevance.PartialWordMinLength = 3
	}
	if r.Relevance.GeneralScore <= 0 {
		r.Relevance.GeneralScore = 0.95
	}
	if r.Stores.MinSharedWordLength <= 0 {
		r.Stores.MinSharedWordLength = 2
	}
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}
	return set
}
