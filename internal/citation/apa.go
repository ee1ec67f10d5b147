package citation

import (
	"regexp"
	"strings"

	"github.com/matsen/pubtrack/internal/publication"
)

var (
	// Smith, J. A., & Doe, A. (2019). Title.
	apaPattern = regexp.MustCompile(`^([^\d()]+?)[\s,]*\((\d{4})[a-z]?\)[.,]?\s*(.*)$`)
	apaNoDate  = regexp.MustCompile(`^([^\d()]+?)[\s,]*\(n\.\s?d\.\)[.,]?\s*(.*)$`)
	// Smith, J.A. and Doe, A. 2019. Title.
	harvardPattern = regexp.MustCompile(`^([^\d()"]+?)[\s,]+(\d{4})[a-z]?[.,]\s+(.*)$`)

	andPattern = regexp.MustCompile(`(?i)\s+(?:and|&)\s+|&`)
)

// tokenizeAPA handles APA and Harvard: an author block, a year marker, then
// the title as the next segment (or a quoted Harvard title).
func tokenizeAPA(body string) fields {
	block, yearText, rest, ok := splitAtYearMarker(body)
	if !ok {
		return fields{}
	}
	authors := splitAPAAuthors(block)
	if authors == nil {
		return fields{}
	}
	return fields{
		authors: authors,
		title:   leadingTitle(rest),
		year:    extractYear(yearText),
	}
}

// splitAtYearMarker finds the "(2019)." or "2019." marker that closes the
// author block. yearText is empty for "(n.d.)".
func splitAtYearMarker(body string) (block, yearText, rest string, ok bool) {
	if m := apaPattern.FindStringSubmatch(body); m != nil {
		return m[1], m[2], m[3], true
	}
	if m := apaNoDate.FindStringSubmatch(body); m != nil {
		return m[1], "", m[2], true
	}
	if m := harvardPattern.FindStringSubmatch(body); m != nil {
		return m[1], m[2], m[3], true
	}
	return "", "", "", false
}

// leadingTitle takes a quoted title if rest opens with a quote, otherwise
// the first segment.
func leadingTitle(rest string) string {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return ""
	}
	if q := rest[0]; q == '"' || q == '\'' {
		if end := strings.IndexByte(rest[1:], q); end > 0 {
			return cleanTitle(rest[1 : end+1])
		}
	}
	segs := splitSegments(rest, false)
	if len(segs) == 0 {
		return ""
	}
	return segs[0]
}

// splitAPAAuthors splits "Smith, J. A., Lee, K., & Doe, A." Parts
// alternate between surname and given names; suffixes attach to the
// preceding author.
func splitAPAAuthors(block string) []publication.Author {
	block = dropEtAl(block)
	block = strings.ReplaceAll(block, "...", ",")
	block = andPattern.ReplaceAllString(block, ",")

	var authors []publication.Author
	var last string
	pending := false
	flush := func(given string) bool {
		a, ok := invertedName(last, given)
		if !ok {
			return false
		}
		authors = append(authors, a)
		pending = false
		return true
	}
	for _, part := range strings.Split(block, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if suffix := suffixOf(part); suffix != "" {
			if pending {
				if !flush("") {
					return nil
				}
			}
			if len(authors) > 0 {
				authors[len(authors)-1].Suffix = suffix
			}
			continue
		}
		if !pending {
			last, pending = part, true
			continue
		}
		if !flush(part) {
			return nil
		}
	}
	if pending && !flush("") {
		return nil
	}
	return authors
}

func reconstructAPA(t Tokenized) string {
	names := make([]string, 0, len(t.Authors))
	for _, a := range t.Authors {
		name := a.Last
		if initials := a.GivenInitials(); initials != "" {
			name += ", " + formatInitials(initials)
		}
		if a.Suffix != "" {
			name += ", " + a.Suffix + "."
		}
		names = append(names, name)
	}
	var b strings.Builder
	switch len(names) {
	case 0:
	case 1:
		b.WriteString(names[0])
	default:
		b.WriteString(strings.Join(names[:len(names)-1], ", "))
		b.WriteString(", & ")
		b.WriteString(names[len(names)-1])
	}
	if t.Year != 0 {
		b.WriteString(" (" + itoa(t.Year) + "). ")
	} else {
		b.WriteString(" (n.d.). ")
	}
	writeSentence(&b, t.Title)
	b.WriteString(formatIdentifiers(t.Identifiers))
	return strings.TrimSpace(b.String())
}
