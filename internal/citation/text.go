package citation

import (
	"regexp"
	"strings"
	"unicode"
)

var lineReplacer = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`, "«", `"`, "»", `"`,
	"‘", "'", "’", "'",
	"–", "-", "—", "-",
	"\u00a0", " ", "\t", " ",
)

var (
	repeatedPeriods = regexp.MustCompile(`\.(\s*\.)+`)
	danglingPunct   = regexp.MustCompile(`[,;:]\s*\.`)
	spaceBeforePunc = regexp.MustCompile(`\s+([.,;:])`)
	etAlPattern     = regexp.MustCompile(`(?i),?\s*\bet\.?\s+al\b\.?`)
)

// abbreviations whose trailing period does not end a segment.
var abbreviations = map[string]bool{
	"al": true, "vol": true, "no": true, "pp": true, "ed": true, "eds": true,
	"vs": true, "eg": true, "ie": true, "st": true, "fig": true,
}

// normalizeLine folds typographic quotes and dashes and collapses whitespace.
func normalizeLine(s string) string {
	return strings.Join(strings.Fields(lineReplacer.Replace(s)), " ")
}

// tidy repairs punctuation left behind after removing identifiers.
func tidy(s string) string {
	s = spaceBeforePunc.ReplaceAllString(s, "$1")
	s = danglingPunct.ReplaceAllString(s, ".")
	s = repeatedPeriods.ReplaceAllString(s, ".")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimLeft(s, " .,;:")
}

// splitSegments splits s into sentence-like segments at ". ", "? " and "! ".
// Question and exclamation marks stay with their segment; periods do not.
// A period closing a known abbreviation or a dotted acronym such as "U.S."
// never ends a segment. With initialsInLead, a period after a single
// capital letter does not end the first segment, so an author block like
// "Smith, John A." stays whole while titles after it still split.
func splitSegments(s string, initialsInLead bool) []string {
	var segs []string
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '.' && c != '?' && c != '!' {
			continue
		}
		if i+1 < len(s) && s[i+1] != ' ' {
			continue
		}
		if c == '.' && isProtectedPeriod(s, i, initialsInLead && len(segs) == 0) {
			continue
		}
		end := i
		if c != '.' {
			end = i + 1
		}
		if seg := strings.TrimSpace(s[start:end]); seg != "" {
			segs = append(segs, seg)
		}
		start = i + 1
	}
	if seg := strings.TrimSpace(s[start:]); seg != "" {
		segs = append(segs, seg)
	}
	return segs
}

// isProtectedPeriod reports whether the period at i closes an abbreviation,
// a dotted acronym, or, with initials, a single capital letter.
func isProtectedPeriod(s string, i int, initials bool) bool {
	j := i
	for j > 0 && isASCIILetter(s[j-1]) {
		j--
	}
	word := s[j:i]
	if len(word) == 1 {
		if j >= 2 && s[j-1] == '.' && isASCIILetter(s[j-2]) && (j < 3 || !isASCIILetter(s[j-3])) {
			return true
		}
		if initials && word[0] >= 'A' && word[0] <= 'Z' {
			return true
		}
	}
	word = strings.ToLower(word)
	var next byte
	if i+2 < len(s) {
		next = s[i+2]
	}
	switch word {
	case "no":
		// "No. 3" but not "Yes or no. Journal"
		return next >= '0' && next <= '9'
	case "al", "ed", "eds":
		// these usually close an author block
		return next >= 'a' && next <= 'z'
	}
	return abbreviations[word]
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// cleanTitle strips surrounding quotes and trailing separators.
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	for {
		before := s
		s = strings.Trim(s, `"'`)
		s = strings.TrimRight(s, ".,;: ")
		s = strings.TrimSpace(s)
		if s == before {
			break
		}
	}
	return s
}

// hasLetter reports whether s contains at least one letter.
func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

// dropEtAl removes "et al." markers.
func dropEtAl(s string) string {
	return strings.TrimSpace(etAlPattern.ReplaceAllString(s, ""))
}
