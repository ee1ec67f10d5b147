package publication

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// BaseID derives a citekey-like id: first author last name plus year,
// e.g. "Smith2019". Falls back to the first title word, then "pub".
func BaseID(p *Publication) string {
	var b strings.Builder
	name := p.FirstAuthorLast()
	if name == "" {
		if fields := strings.Fields(p.Title); len(fields) > 0 {
			name = fields[0]
		}
	}
	for _, r := range name {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		b.WriteString("pub")
	}
	if p.Published.Year > 0 {
		b.WriteString(strconv.Itoa(p.Published.Year))
	}
	return b.String()
}

// UniqueID returns BaseID(p), appending -2, -3, etc. while taken reports
// the candidate as already in use.
func UniqueID(p *Publication, taken func(string) bool) string {
	base := BaseID(p)
	if !taken(base) {
		return base
	}
	// Start at 2: base is taken, so the first duplicate becomes base-2
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !taken(candidate) {
			return candidate
		}
	}
}
