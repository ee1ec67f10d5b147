package citation

import (
	"strings"

	"github.com/matsen/pubtrack/internal/publication"
)

// tokenizeVancouver handles "Smith J, Doe A. Title. Journal. 2019;1:1-2."
// Initials carry no periods, so segments split on every ". ".
func tokenizeVancouver(body string) fields {
	segs := splitSegments(body, false)
	if len(segs) == 0 {
		return fields{}
	}
	authors := splitVancouverAuthors(segs[0])
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

// splitVancouverAuthors splits "Smith J, van der Berg JA, Doe A Jr, et al".
func splitVancouverAuthors(block string) []publication.Author {
	block = dropEtAl(block)
	var authors []publication.Author
	for _, part := range strings.Split(block, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "..." {
			continue
		}
		a, ok := vancouverName(part)
		if !ok {
			return nil
		}
		authors = append(authors, a)
	}
	return authors
}

func reconstructVancouver(t Tokenized) string {
	names := make([]string, 0, len(t.Authors))
	for _, a := range t.Authors {
		names = append(names, strings.Join(strings.Fields(a.Last+" "+a.GivenInitials()+" "+a.Suffix), " "))
	}
	var b strings.Builder
	b.WriteString(strings.Join(names, ", "))
	b.WriteString(". ")
	writeSentence(&b, t.Title)
	if t.Year != 0 {
		writeSentence(&b, itoa(t.Year))
	}
	b.WriteString(formatIdentifiers(t.Identifiers))
	return strings.TrimSpace(b.String())
}
