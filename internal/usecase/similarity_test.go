package usecase

import (
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"abc", "abc", 1},
		{"abc", "", 0},
		{"abcd", "abce", 0.75},
		{"abc", "xyz", 0},
		{"juice orange", "milk whole", 4.0 / 22.0},
		// long strings keep their frequent characters
		{strings.Repeat("whole milk ", 20), strings.Repeat("milk whole ", 20), 215.0 / 220.0},
	}

	for _, tt := range tests {
		if got := Ratio(tt.a, tt.b); !almostEqual(got, tt.want) {
			t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTokenSetScore(t *testing.T) {
	t.Run("subset scores 1", func(t *testing.T) {
		if got := TokenSetScore("whole milk", "lucerne whole milk 1 gallon"); got != 1 {
			t.Errorf("got %v, want 1", got)
		}
	})

	t.Run("word order does not matter", func(t *testing.T) {
		a := TokenSetScore("milk whole organic", "organic whole milk")
		if a != 1 {
			t.Errorf("got %v, want 1", a)
		}
	})

	t.Run("empty side scores 0", func(t *testing.T) {
		if got := TokenSetScore("", "milk"); got != 0 {
			t.Errorf("got %v, want 0", got)
		}
		if got := TokenSetScore("milk", "   "); got != 0 {
			t.Errorf("got %v, want 0", got)
		}
	})

	t.Run("disjoint tokens score low", func(t *testing.T) {
		got := TokenSetScore("orange juice", "whole milk")
		if !almostEqual(got, 4.0/22.0) {
			t.Errorf("got %v, want %v", got, 4.0/22.0)
		}
	})

	t.Run("partial overlap is between 0 and 1", func(t *testing.T) {
		got := TokenSetScore("whole milk 1 gallon", "great value whole milk, 1 gal")
		if got <= 0.5 || got >= 1 {
			t.Errorf("got %v, want in (0.5, 1)", got)
		}
	})
}

func TestPartialScore(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"substring", "milk", "lucerne whole milk", 1},
		{"argument order", "lucerne whole milk", "milk", 1},
		{"empty", "", "milk", 0},
		{"best window", "abcd", "xxabcexx", 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PartialScore(tt.a, tt.b); !almostEqual(got, tt.want) {
				t.Errorf("PartialScore(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{2, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); !almostEqual(got, tt.want) {
				t.Errorf("CosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}
