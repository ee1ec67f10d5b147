package match

import (
	"math"
	"strings"
	"unicode"

	"github.com/matsen/pubtrack/internal/publication"
)

// Name is a person name in normalized form. Given holds the first name
// followed by middle names; a bare initial is a one-letter entry.
type Name struct {
	Last  string
	Given []string
}

var suffixes = map[string]bool{"jr": true, "sr": true, "ii": true, "iii": true, "iv": true}

var particles = map[string]bool{
	"van": true, "von": true, "de": true, "der": true, "den": true, "da": true,
	"del": true, "della": true, "di": true, "la": true, "le": true, "du": true,
}

// ParseName parses a free-form name into a Name.
//
// Supported formats:
//   - "Yu"             → last="yu"
//   - "Timothy C Yu"   → last="yu", given=["timothy","c"]
//   - "Yu, Timothy C." → last="yu", given=["timothy","c"]
//   - "Yu TC"          → last="yu", given=["t","c"]
//   - "T. C. Yu"       → last="yu", given=["t","c"]
func ParseName(input string) Name {
	input = strings.TrimSpace(input)
	if input == "" {
		return Name{}
	}

	// "Last, Given"
	if last, given, ok := strings.Cut(input, ","); ok {
		return Name{Last: Normalize(last), Given: givenTokens(given)}
	}

	words := strings.Fields(input)
	if n := len(words); n > 1 && suffixes[Normalize(words[n-1])] {
		words = words[:n-1]
	}
	if len(words) == 1 {
		return Name{Last: Normalize(words[0])}
	}

	// "Last FM"
	if lastWord := words[len(words)-1]; isInitialsRun(lastWord) {
		return Name{
			Last:  Normalize(strings.Join(words[:len(words)-1], " ")),
			Given: givenTokens(lastWord),
		}
	}

	// "First Middle Last", with particles kept on the surname
	start := len(words) - 1
	for start > 1 && particles[strings.ToLower(words[start-1])] {
		start--
	}
	return Name{
		Last:  Normalize(strings.Join(words[start:], " ")),
		Given: givenTokens(strings.Join(words[:start], " ")),
	}
}

// NameFromAuthor converts a tokenized author.
func NameFromAuthor(a publication.Author) Name {
	n := Name{Last: Normalize(a.Last)}
	if a.First != "" {
		n.Given = append(Tokens(a.First), Tokens(a.Middle)...)
		return n
	}
	n.Given = givenTokens(a.Initials)
	return n
}

// givenTokens splits given names, expanding runs like "JA" or "J.A." into
// single letters and dropping suffixes.
func givenTokens(s string) []string {
	var out []string
	for _, w := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' }) {
		if suffixes[Normalize(w)] {
			continue
		}
		if isInitialsRun(w) || strings.Count(w, ".") > 1 {
			for _, r := range w {
				if unicode.IsLetter(r) {
					out = append(out, string(unicode.ToLower(r)))
				}
			}
			continue
		}
		out = append(out, Tokens(w)...)
	}
	return out
}

// isInitialsRun reports whether w is 2-3 capitals like "JA", or a single
// capital.
func isInitialsRun(w string) bool {
	w = strings.TrimRight(w, ".")
	if w == "" || len([]rune(w)) > 3 {
		return false
	}
	for _, r := range w {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// NameScore compares two names on a 0-100 scale: 60% surname similarity,
// 40% first-name agreement. Middle names are ignored.
func NameScore(a, b Name) int {
	if a.Last == "" || b.Last == "" {
		return 0
	}
	last := TokenSortRatio(a.Last, b.Last)
	given := givenScore(a.Given, b.Given)
	return int(math.Round(0.6*float64(last) + 0.4*float64(given)))
}

// givenScore compares first names: full names match on prefix ("Tim" and
// "Timothy") or by ratio; an initial on either side compares first
// letters; a missing first name on either side is neutral.
func givenScore(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 50
	}
	fa, fb := []rune(a[0]), []rune(b[0])
	if len(fa) > 1 && len(fb) > 1 {
		sa, sb := string(fa), string(fb)
		if strings.HasPrefix(sa, sb) || strings.HasPrefix(sb, sa) {
			return 100
		}
		return Ratio(sa, sb)
	}
	if fa[0] == fb[0] {
		return 100
	}
	return 0
}
