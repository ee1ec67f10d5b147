package citation

import (
	"regexp"
	"strings"

	"github.com/matsen/pubtrack/internal/publication"
)

// affiliationMarks matches affiliation numbers and footnote symbols glued
// to names, as in "Smith J1,2*; Doe A3".
var affiliationMarks = regexp.MustCompile(`[0-9¹²³⁴⁵⁶⁷⁸⁹⁰*†‡§]+(?:\s*,\s*[0-9¹²³⁴⁵⁶⁷⁸⁹⁰*†‡§]+)*`)

// tokenizeSiteExport handles aggregated bibliography blocks where authors
// are separated by semicolons and carry affiliation numbers.
func tokenizeSiteExport(body string) fields {
	segs := splitSegments(body, false)
	if len(segs) == 0 {
		return fields{}
	}
	authors := splitSiteExportAuthors(segs[0])
	if authors == nil {
		return fields{}
	}
	f := fields{authors: authors}
	rest := segs[1:]
	for i, seg := range rest {
		if hasLetter(seg) {
			f.title = seg
			rest = rest[i+1:]
			break
		}
	}
	f.year = firstYear(strings.Join(rest, " "), body)
	return f
}

func splitSiteExportAuthors(block string) []publication.Author {
	block = affiliationMarks.ReplaceAllString(block, "")
	block = dropEtAl(block)
	var authors []publication.Author
	for _, part := range strings.Split(block, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		a, ok := looseName(part)
		if !ok {
			return nil
		}
		authors = append(authors, a)
	}
	return authors
}

func reconstructSiteExport(t Tokenized) string {
	names := make([]string, 0, len(t.Authors))
	for _, a := range t.Authors {
		names = append(names, strings.Join(strings.Fields(a.Last+" "+a.GivenInitials()+" "+a.Suffix), " "))
	}
	var b strings.Builder
	b.WriteString(strings.Join(names, "; "))
	b.WriteString(". ")
	writeSentence(&b, t.Title)
	if t.Year != 0 {
		writeSentence(&b, itoa(t.Year))
	}
	b.WriteString(formatIdentifiers(t.Identifiers))
	return strings.TrimSpace(b.String())
}
