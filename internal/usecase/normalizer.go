package usecase

import (
	"regexp"
	"strings"
)

// Package-level compiled regex patterns for performance
var (
	disallowedCharsRegex = regexp.MustCompile(`[^\p{L}0-9 &%.,\-]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

// unicodePunctuation maps common typographic punctuation to ASCII
var unicodePunctuation = strings.NewReplacer(
	"–", "-", // en dash
	"—", "-", // em dash
	"’", "'", // right single quote
)

// NormalizeText canonicalizes free text for comparison: lowercase, ASCII
// punctuation, only letters, digits, space and & % . , - kept, whitespace collapsed.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s = unicodePunctuation.Replace(s)
	s = disallowedCharsRegex.ReplaceAllString(s, " ")
	s = multipleSpacesRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
