package usecase

import (
	"reflect"
	"testing"

	"github.com/macrolens/productmatch/internal/rules"
)

func TestStoreMatcher_Match(t *testing.T) {
	m := NewStoreMatcher(rules.MustDefault(), false)

	tests := []struct {
		a, b string
		want bool
	}{
		{"Walmart", "walmart", true},
		{"Walmart", "Walmart Supercenter", true},
		{"Walmart Neighborhood Market", "Walmart", true},
		{"Whole Foods Market", "Whole Foods", true},
		{"Target", "Walmart", false},
		{"Joe's Corner Market", "Joe's Corner Market Downtown", false},
		{"Joe's Corner Market", "joe's corner market", true},
		{"Kroger", "Kroger Marketplace", true},
	}

	for _, tt := range tests {
		if got := m.Match(tt.a, tt.b); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestStoreMatcher_MapStores(t *testing.T) {
	m := NewStoreMatcher(rules.MustDefault(), false)

	mapping, unmapped := m.MapStores(
		[]string{"Walmart Supercenter", "Kroger", "Local Farm Stand", "Target"},
		[]string{"Walmart", "Target"},
	)

	wantMapping := map[string]string{"Walmart Supercenter": "Walmart", "Target": "Target"}
	if !reflect.DeepEqual(mapping, wantMapping) {
		t.Errorf("mapping = %v, want %v", mapping, wantMapping)
	}
	wantUnmapped := []string{"Kroger", "Local Farm Stand"}
	if !reflect.DeepEqual(unmapped, wantUnmapped) {
		t.Errorf("unmapped = %v, want %v", unmapped, wantUnmapped)
	}
}
