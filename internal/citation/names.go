package citation

import (
	"strings"
	"unicode"

	"github.com/matsen/pubtrack/internal/publication"
)

// maxNameWords bounds the words in one name. Longer runs are prose, not
// an author list.
const maxNameWords = 4

var nameSuffixes = map[string]string{
	"jr": "Jr", "sr": "Sr", "ii": "II", "iii": "III", "iv": "IV",
}

// surnameParticles stay attached to the following surname.
var surnameParticles = map[string]bool{
	"van": true, "von": true, "de": true, "der": true, "den": true, "da": true,
	"del": true, "della": true, "di": true, "la": true, "le": true, "du": true,
	"dos": true, "bin": true, "ibn": true, "al": true,
}

// suffixOf returns the canonical suffix for s, or "".
func suffixOf(s string) string {
	return nameSuffixes[strings.ToLower(strings.Trim(s, ". ,"))]
}

// isVancouverInitials reports whether s is 1-3 capital letters with no
// separators, as in "Smith JA".
func isVancouverInitials(s string) bool {
	if len(s) == 0 || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// looksLikeInitials reports whether s is a run of initials such as "J.",
// "J. A.", "J.-P." or "JA".
func looksLikeInitials(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	letters := initialsOf(s)
	if letters == "" || len([]rune(letters)) > 4 {
		return false
	}
	if strings.Contains(s, ".") {
		// every word must be a single letter, optionally hyphen-joined
		for _, w := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '.' || r == '-' }) {
			if len([]rune(w)) != 1 || !unicode.IsUpper([]rune(w)[0]) {
				return false
			}
		}
		return true
	}
	return isVancouverInitials(s)
}

// initialsOf returns the upper-case letters of an initials run.
func initialsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// splitGiven parses given names into first, middle and initials. Initial
// runs populate only Initials.
func splitGiven(given string) (first, middle, initials string) {
	given = strings.TrimSpace(given)
	if given == "" {
		return "", "", ""
	}
	if looksLikeInitials(given) {
		return "", "", initialsOf(given)
	}
	words := strings.Fields(given)
	for i := range words {
		words[i] = strings.TrimRight(words[i], ".")
	}
	return words[0], strings.Join(words[1:], " "), ""
}

// invertedName parses "Last" and "Given" parts of a "Last, Given" name.
func invertedName(last, given string) (publication.Author, bool) {
	last = strings.TrimSpace(last)
	if last == "" || len(strings.Fields(last)) > maxNameWords || len(strings.Fields(given)) > maxNameWords {
		return publication.Author{}, false
	}
	a := publication.Author{Last: strings.TrimRight(last, ".")}
	a.First, a.Middle, a.Initials = splitGiven(given)
	return a, true
}

// directName parses "First Middle Last [Suffix]".
func directName(s string) (publication.Author, bool) {
	words := strings.Fields(strings.TrimSpace(s))
	var a publication.Author
	if len(words) > 1 {
		if suffix := suffixOf(words[len(words)-1]); suffix != "" {
			a.Suffix = suffix
			words = words[:len(words)-1]
		}
	}
	if len(words) == 0 || len(words) > maxNameWords {
		return publication.Author{}, false
	}
	// surname starts at the last word, extended left over particles
	start := len(words) - 1
	for start > 1 && surnameParticles[strings.ToLower(words[start-1])] {
		start--
	}
	a.Last = strings.TrimRight(strings.Join(words[start:], " "), ".")
	if start > 0 {
		a.First, a.Middle, a.Initials = splitGiven(strings.Join(words[:start], " "))
	}
	return a, true
}

// vancouverName parses "Last FM [Suffix]".
func vancouverName(s string) (publication.Author, bool) {
	words := strings.Fields(strings.TrimSpace(s))
	var a publication.Author
	if len(words) > 2 {
		if suffix := suffixOf(words[len(words)-1]); suffix != "" {
			a.Suffix = suffix
			words = words[:len(words)-1]
		}
	}
	if len(words) < 2 || len(words) > maxNameWords {
		return publication.Author{}, false
	}
	initials := words[len(words)-1]
	if !isVancouverInitials(initials) {
		return publication.Author{}, false
	}
	a.Last = strings.Join(words[:len(words)-1], " ")
	a.Initials = initials
	return a, true
}

// looseName parses one name of unknown shape: "Last, Given", "Last FM" or
// "First Middle Last".
func looseName(s string) (publication.Author, bool) {
	s = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ".,"))
	if s == "" {
		return publication.Author{}, false
	}
	if last, given, ok := strings.Cut(s, ","); ok {
		if suffix := suffixOf(given); suffix != "" {
			a, ok := directName(last)
			a.Suffix = suffix
			return a, ok
		}
		return invertedName(last, given)
	}
	if a, ok := vancouverName(s); ok {
		return a, true
	}
	return directName(s)
}

// formatInitials renders "JA" as "J. A.".
func formatInitials(initials string) string {
	var parts []string
	for _, r := range initials {
		parts = append(parts, string(r)+".")
	}
	return strings.Join(parts, " ")
}
