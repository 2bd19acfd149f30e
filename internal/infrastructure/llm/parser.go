package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/macrolens/productmatch/internal/domain"
)

// ErrUnparseableResponse is returned when a reply holds neither JSON nor bullet fields
var ErrUnparseableResponse = errors.New("unparseable extractor response")

var (
	fencePattern   = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	brandBullet    = regexp.MustCompile(`(?im)^\s*\*\s*Brand:\s*(.+)$`)
	itemBullet     = regexp.MustCompile(`(?im)^\s*\*\s*Item:\s*(.+)$`)
	quantityBullet = regexp.MustCompile(`(?im)^\s*\*\s*Quantity:\s*(.+)$`)
)

// ParseComponents reads brand, item and quantity out of a model reply.
// JSON objects are preferred; "* Brand: ..." bullet lines are the fallback.
func ParseComponents(reply string) (*domain.ExtractedComponents, error) {
	text := stripFences(strings.TrimSpace(reply))

	if comps, err := parseJSONComponents(text); err == nil {
		return comps, nil
	}

	comps := &domain.ExtractedComponents{
		Brand:    bulletValue(brandBullet, text),
		Item:     bulletValue(itemBullet, text),
		Quantity: bulletValue(quantityBullet, text),
	}
	if comps.IsEmpty() {
		return nil, fmt.Errorf("%w: %q", ErrUnparseableResponse, truncate(reply, 120))
	}
	return comps, nil
}

func stripFences(text string) string {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}

func parseJSONComponents(text string) (*domain.ExtractedComponents, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, errors.New("no json object found")
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(text[start : end+1])))
	decoder.UseNumber()

	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil {
		return nil, err
	}

	return &domain.ExtractedComponents{
		Brand:    fieldValue(fields, "brand"),
		Item:     fieldValue(fields, "item"),
		Quantity: fieldValue(fields, "quantity"),
	}, nil
}

// fieldValue returns the first non-blank value among the lowercase key, the
// capitalized key, then any other spelling of it in sorted order.
func fieldValue(fields map[string]any, key string) *string {
	lower := strings.ToLower(key)
	capitalized := strings.ToUpper(lower[:1]) + lower[1:]

	candidates := []string{lower, capitalized}
	var others []string
	for k := range fields {
		if k != lower && k != capitalized && strings.EqualFold(k, key) {
			others = append(others, k)
		}
	}
	sort.Strings(others)
	candidates = append(candidates, others...)

	for _, k := range candidates {
		if v, ok := fields[k]; ok {
			if s := stringify(v); s != nil {
				return s
			}
		}
	}
	return nil
}

func stringify(v any) *string {
	var s string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s = val
	case json.Number:
		s = val.String()
	case bool:
		s = fmt.Sprint(val)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		s = string(raw)
	}
	return blankToNil(s)
}

func bulletValue(pattern *regexp.Regexp, text string) *string {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return blankToNil(m[1])
}

func blankToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
