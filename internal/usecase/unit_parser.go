package usecase

import (
	"regexp"
	"strconv"
	"strings"
)

// Conversion factors to liters
const (
	litersPerGallon     = 3.78541
	litersPerFluidOunce = 0.0295735
	litersPerQuart      = 0.946353
	litersPerPint       = 0.473176
	millilitersPerLiter = 1000.0
)

// volumeRule is one entry of the unit table. Rules are tried in order and the
// first one that matches anywhere in the text wins.
type volumeRule struct {
	unit    string
	pattern *regexp.Regexp
	convert func(float64) float64
}

func multiplyBy(factor float64) func(float64) float64 {
	return func(v float64) float64 { return v * factor }
}

var volumeRules = []volumeRule{
	{"gallon", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:gal|gallon|gallons)\b`), multiplyBy(litersPerGallon)},
	{"fluid_ounce", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:fl\s*oz|fluid\s*oz|oz)\b`), multiplyBy(litersPerFluidOunce)},
	{"liter", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:l|litre|liter|liters)\b`), multiplyBy(1.0)},
	{"milliliter", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:ml|milliliters?|millilitres?)\b`), func(v float64) float64 { return v / millilitersPerLiter }},
	{"quart", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:qt|quarts?)\b`), multiplyBy(litersPerQuart)},
	{"pint", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:pt|pints?)\b`), multiplyBy(litersPerPint)},
	// written without a space, e.g. "1gal"
	{"gallon_compact", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)(?:gal|gallon|gallons)\b`), multiplyBy(litersPerGallon)},
}

// ParseVolumeLiters extracts the first recognized volume from text and
// converts it to liters. Returns nil when no unit is recognized.
func ParseVolumeLiters(text string) *float64 {
	if text == "" {
		return nil
	}
	for _, rule := range volumeRules {
		m := rule.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil
		}
		liters := rule.convert(value)
		return &liters
	}
	return nil
}

// ParseQuantityLiters parses a standalone quantity string, such as one
// returned by the component extractor, through the same unit table.
func ParseQuantityLiters(quantity *string) *float64 {
	if quantity == nil {
		return nil
	}
	q := strings.TrimSpace(*quantity)
	if q == "" {
		return nil
	}
	return ParseVolumeLiters(q)
}

// PricePerLiter returns price/liters when both are known and liters > 0
func PricePerLiter(price, liters *float64) *float64 {
	if price == nil || liters == nil || *liters <= 0 {
		return nil
	}
	ppl := *price / *liters
	return &ppl
}
