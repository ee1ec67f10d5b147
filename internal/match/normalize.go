// Package match scores tokenized author names against the roster and
// compares publication titles.
//
// Normalization: NFD decomposition with combining marks removed, then NFC;
// lowercase; apostrophes removed; any other rune that is not a letter or
// digit becomes a space; whitespace collapsed.
//
// Similarity is a token-sort ratio: tokens are sorted and re-joined, then
// ratio = 100*(|a|+|b|-d)/(|a|+|b|) where d is the Levenshtein distance
// with substitution cost 2, rounded to the nearest integer.
package match

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agext/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ratioParams = levenshtein.NewParams().SubCost(2)

// Normalize folds s for comparison.
func Normalize(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case r == '\'' || r == '’':
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens returns the normalized words of s.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// Ratio is the edit-distance similarity of two strings on a 0-100 scale.
// Two empty strings score 0.
func Ratio(a, b string) int {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 0
	}
	d := levenshtein.Distance(a, b, ratioParams)
	return int(math.Round(100 * float64(total-d) / float64(total)))
}

// TokenSortRatio normalizes both strings, sorts their tokens and returns
// the Ratio of the results, so word order does not matter.
func TokenSortRatio(a, b string) int {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

func sortedTokens(s string) string {
	toks := Tokens(s)
	sort.Strings(toks)
	return strings.Join(toks, " ")
}

// TitlesMatch reports whether two titles name the same publication: a
// token-sort ratio of at least threshold, or, for titles of three or more
// words, at most one word inserted, deleted or replaced.
func TitlesMatch(a, b string, threshold int) bool {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	if TokenSortRatio(a, b) >= threshold {
		return true
	}
	return len(ta) >= 3 && len(tb) >= 3 && wordDistance(ta, tb) <= 1
}

// wordDistance is the Levenshtein distance over words. Each distinct word
// is mapped to one private-use rune so the string metric can be reused.
func wordDistance(a, b []string) int {
	codes := make(map[string]rune)
	encode := func(words []string) string {
		var sb strings.Builder
		for _, w := range words {
			r, ok := codes[w]
			if !ok {
				r = rune(0xE000 + len(codes))
				codes[w] = r
			}
			sb.WriteRune(r)
		}
		return sb.String()
	}
	return levenshtein.Distance(encode(a), encode(b), nil)
}
