package citation

import (
	"strings"

	"github.com/matsen/pubtrack/internal/publication"
)

var reconstructors = map[Style]func(Tokenized) string{
	StyleVancouver:  reconstructVancouver,
	StyleAPAHarvard: reconstructAPA,
	StyleMLAChicago: reconstructMLA,
	StyleSiteExport: reconstructSiteExport,
	StyleMEDLINE:    reconstructMEDLINE,
}

// Reconstruct renders t as citation text in t.Style. Tokenizing the result
// with the same style yields a citation Equivalent to t.
func Reconstruct(t Tokenized) string {
	fn, ok := reconstructors[t.Style]
	if !ok {
		return t.ReferenceLine
	}
	return fn(t)
}

// Equivalent reports whether two tokenized citations agree on author
// surnames and initials, title, year and identifiers, ignoring case and
// whitespace.
func Equivalent(a, b Tokenized) bool {
	if len(a.Authors) != len(b.Authors) {
		return false
	}
	for i := range a.Authors {
		if !sameAuthorToken(a.Authors[i], b.Authors[i]) {
			return false
		}
	}
	return a.Year == b.Year &&
		foldSpace(a.Title) == foldSpace(b.Title) &&
		a.Identifiers.Normalized() == b.Identifiers.Normalized()
}

func sameAuthorToken(a, b publication.Author) bool {
	return foldSpace(a.Last) == foldSpace(b.Last) &&
		strings.EqualFold(a.GivenInitials(), b.GivenInitials())
}

func foldSpace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
