package usecase

import (
	"math"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// TokenSetScore is a token-set fuzzy similarity in [0,1]. It is insensitive to
// word order and duplicated words.
func TokenSetScore(query, title string) float64 {
	qTokens := uniqueTokens(query)
	tTokens := uniqueTokens(title)
	if len(qTokens) == 0 || len(tTokens) == 0 {
		return 0
	}

	var shared, queryOnly, titleOnly []string
	for tok := range qTokens {
		if tTokens[tok] {
			shared = append(shared, tok)
		} else {
			queryOnly = append(queryOnly, tok)
		}
	}
	for tok := range tTokens {
		if !qTokens[tok] {
			titleOnly = append(titleOnly, tok)
		}
	}
	sort.Strings(shared)
	sort.Strings(queryOnly)
	sort.Strings(titleOnly)

	if len(shared) > 0 && (len(queryOnly) == 0 || len(titleOnly) == 0) {
		return 1
	}

	sect := strings.Join(shared, " ")
	withQuery := strings.TrimSpace(sect + " " + strings.Join(queryOnly, " "))
	withTitle := strings.TrimSpace(sect + " " + strings.Join(titleOnly, " "))

	return max(
		Ratio(sect, withQuery),
		Ratio(sect, withTitle),
		Ratio(withQuery, withTitle),
	)
}

// PartialScore finds the window of the longer string that best aligns with
// the shorter one and returns their similarity in [0,1].
func PartialScore(a, b string) float64 {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0
	}
	if strings.Contains(string(longer), string(shorter)) {
		return 1
	}

	best := 0.0
	for start := 0; start+len(shorter) <= len(longer); start++ {
		r := runeRatio(shorter, longer[start:start+len(shorter)])
		if r > best {
			best = r
		}
	}
	return best
}

// Ratio is the Ratcliff-Obershelp similarity of two strings in [0,1]:
// twice the number of matching characters over the total length.
func Ratio(a, b string) float64 {
	return runeRatio([]rune(a), []rune(b))
}

// runeRatio compares character by character. Automatic junk detection is off
// so long titles keep their frequent characters.
func runeRatio(a, b []rune) float64 {
	return difflib.NewMatcherWithJunk(runeStrings(a), runeStrings(b), false, nil).Ratio()
}

func runeStrings(rs []rune) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

func uniqueTokens(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

// CosineSimilarity of two vectors in [-1,1]. Mismatched or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, cos))
}
