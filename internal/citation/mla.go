package citation

import (
	"regexp"
	"strings"

	"github.com/matsen/pubtrack/internal/publication"
)

var (
	// Smith, John A., and Jane Doe. "Title." Journal, vol. 1, 2019.
	quotedTitlePattern = regexp.MustCompile(`^([^"]+?)[\s.,]*"([^"]+)"\s*(.*)$`)
	mlaAndPattern      = regexp.MustCompile(`(?i),?\s+(?:and|&)\s+|\s*&\s*`)
)

// tokenizeMLA handles MLA and Chicago: first author inverted, the rest in
// natural order, title quoted or as the following segment.
func tokenizeMLA(body string) fields {
	var block, title, rest string
	if m := quotedTitlePattern.FindStringSubmatch(body); m != nil {
		block, title, rest = m[1], m[2], m[3]
	} else {
		segs := splitSegments(body, true)
		if len(segs) == 0 {
			return fields{}
		}
		block = segs[0]
		if len(segs) > 1 {
			title = segs[1]
			rest = strings.Join(segs[2:], ". ")
		}
	}
	authors := splitMLAAuthors(block)
	if authors == nil {
		return fields{}
	}
	return fields{authors: authors, title: title, year: firstYear(rest)}
}

// splitMLAAuthors splits "Smith, John A., Jane Doe, and Bob Lee".
func splitMLAAuthors(block string) []publication.Author {
	block = dropEtAl(block)
	block = strings.TrimRight(strings.TrimSpace(block), ".,")
	block = mlaAndPattern.ReplaceAllString(block, ",")

	var parts []string
	for _, p := range strings.Split(block, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil
	}

	var authors []publication.Author
	i := 0
	if !invertedLead(parts) {
		// no inversion: "John Smith" or "John Smith, Jane Doe"
		a, ok := directName(parts[0])
		if !ok {
			return nil
		}
		authors = append(authors, a)
		i = 1
	} else {
		a, ok := invertedName(parts[0], parts[1])
		if !ok {
			return nil
		}
		authors = append(authors, a)
		i = 2
	}
	for ; i < len(parts); i++ {
		if suffix := suffixOf(parts[i]); suffix != "" {
			authors[len(authors)-1].Suffix = suffix
			continue
		}
		a, ok := directName(parts[i])
		if !ok {
			return nil
		}
		authors = append(authors, a)
	}
	return authors
}

func reconstructMLA(t Tokenized) string {
	names := make([]string, 0, len(t.Authors))
	for i, a := range t.Authors {
		given := strings.TrimSpace(a.First + " " + a.Middle)
		if given == "" {
			given = formatInitials(a.GivenInitials())
		}
		var name string
		if i == 0 {
			name = a.Last
			if given != "" {
				name += ", " + given
			}
			if a.Suffix != "" {
				name += ", " + a.Suffix + "."
			}
		} else {
			name = strings.Join(strings.Fields(given+" "+a.Last+" "+a.Suffix), " ")
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
		b.WriteString(", and ")
		b.WriteString(names[len(names)-1])
	}
	b.WriteString(". ")
	if t.Title != "" {
		title := t.Title
		if !strings.HasSuffix(title, "?") && !strings.HasSuffix(title, "!") {
			title += "."
		}
		b.WriteString(`"` + title + `" `)
	}
	if t.Year != 0 {
		writeSentence(&b, itoa(t.Year))
	}
	b.WriteString(formatIdentifiers(t.Identifiers))
	return strings.TrimSpace(b.String())
}

// invertedLead reports whether parts open with "Last, Given". A multi-word
// first part is a natural-order name unless it starts with a particle.
func invertedLead(parts []string) bool {
	if len(parts) < 2 {
		return false
	}
	words := strings.Fields(parts[0])
	return len(words) == 1 || surnameParticles[strings.ToLower(words[0])]
}
