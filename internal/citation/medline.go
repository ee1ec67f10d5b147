package citation

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/matsen/pubtrack/internal/publication"
)

// medlineRecord collects tag values of one MEDLINE record in order.
type medlineRecord struct {
	tags   []string
	values []string
	line   int
}

func (r *medlineRecord) add(tag, value string) {
	r.tags = append(r.tags, tag)
	r.values = append(r.values, value)
}

func (r *medlineRecord) appendToLast(value string) {
	if n := len(r.values); n > 0 {
		r.values[n-1] += " " + value
	}
}

func (r *medlineRecord) all(tag string) []string {
	var out []string
	for i, t := range r.tags {
		if t == tag {
			out = append(out, r.values[i])
		}
	}
	return out
}

func (r *medlineRecord) first(tag string) string {
	for i, t := range r.tags {
		if t == tag {
			return r.values[i]
		}
	}
	return ""
}

// ParseMEDLINE reads a MEDLINE/PubMed text export. Records are separated by
// blank lines; continuation lines are indented by six spaces.
func ParseMEDLINE(text, source string) ([]Tokenized, []error) {
	var (
		records []*medlineRecord
		cur     *medlineRecord
	)
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r ")
		if strings.TrimSpace(line) == "" {
			cur = nil
			continue
		}
		if strings.HasPrefix(line, "      ") {
			if cur != nil {
				cur.appendToLast(strings.TrimSpace(line))
			}
			continue
		}
		tag, value, ok := strings.Cut(line, "-")
		if !ok || len(tag) > 4 {
			continue
		}
		tag = strings.TrimSpace(tag)
		if cur == nil || (tag == "PMID" && cur.first("PMID") != "") {
			cur = &medlineRecord{line: lineNum}
			records = append(records, cur)
		}
		cur.add(tag, strings.TrimSpace(value))
	}

	var (
		parsed []Tokenized
		errs   []error
	)
	if err := scanner.Err(); err != nil {
		errs = append(errs, fmt.Errorf("reading %s: %w", source, err))
	}
	for _, rec := range records {
		t := rec.tokenize()
		t.Source = source
		t.Origin = fmt.Sprintf("line %d", rec.line)
		if t.IsEmpty() {
			errs = append(errs, &ParseError{Origin: t.Origin, Style: StyleMEDLINE, Reason: "record has no authors, title or identifiers"})
			continue
		}
		parsed = append(parsed, t)
	}
	return parsed, errs
}

func (r *medlineRecord) tokenize() Tokenized {
	t := Tokenized{
		Title: cleanTitle(r.first("TI")),
		Year:  extractYear(r.first("DP")),
		Venue: r.first("JT"),
		Style: StyleMEDLINE,
	}
	if t.Venue == "" {
		t.Venue = r.first("TA")
	}
	t.PMID = publication.NormalizePMID(r.first("PMID"))
	t.PMCID = publication.NormalizePMCID(r.first("PMC"))
	for _, v := range append(r.all("LID"), r.all("AID")...) {
		id, kind, _ := strings.Cut(v, " ")
		switch strings.Trim(kind, "[] ") {
		case "doi":
			if t.DOI == "" {
				t.DOI = publication.NormalizeDOI(id)
			}
		case "pmc":
			if t.PMCID == "" {
				t.PMCID = publication.NormalizePMCID(id)
			}
		}
	}

	if full := r.all("FAU"); len(full) > 0 {
		for _, name := range full {
			if a, ok := medlineFullName(name); ok {
				t.Authors = append(t.Authors, a)
			}
		}
	} else {
		for _, name := range r.all("AU") {
			if a, ok := looseName(name); ok {
				t.Authors = append(t.Authors, a)
			}
		}
	}
	for _, name := range r.all("CN") {
		t.Authors = append(t.Authors, publication.Author{Last: name})
	}
	return t
}

// medlineFullName parses "Smith, John A" or "Smith, John A, Jr".
func medlineFullName(s string) (publication.Author, bool) {
	parts := strings.Split(s, ",")
	last := parts[0]
	var given, suffix string
	if len(parts) > 1 {
		given = parts[1]
	}
	if len(parts) > 2 {
		suffix = suffixOf(parts[2])
	}
	a, ok := invertedName(last, given)
	a.Suffix = suffix
	return a, ok
}

func tokenizeMEDLINE(raw string) (Tokenized, error) {
	parsed, errs := ParseMEDLINE(raw, "")
	if len(parsed) == 0 {
		if len(errs) > 0 {
			return Tokenized{}, errs[0]
		}
		return Tokenized{}, &ParseError{Style: StyleMEDLINE, Reason: "no MEDLINE record found", Text: raw}
	}
	return parsed[0], nil
}

func reconstructMEDLINE(t Tokenized) string {
	var lines []string
	add := func(tag, value string) {
		if value != "" {
			lines = append(lines, fmt.Sprintf("%-4s- %s", tag, value))
		}
	}
	add("PMID", t.PMID)
	add("TI", t.Title)
	for _, a := range t.Authors {
		given := strings.TrimSpace(a.First + " " + a.Middle)
		if given == "" {
			given = a.GivenInitials()
		}
		name := a.Last
		if given != "" || a.Suffix != "" {
			name += ", " + given
		}
		if a.Suffix != "" {
			name += ", " + a.Suffix
		}
		add("FAU", name)
	}
	if t.Year != 0 {
		add("DP", itoa(t.Year))
	}
	add("JT", t.Venue)
	if t.DOI != "" {
		add("LID", t.DOI+" [doi]")
	}
	add("PMC", t.PMCID)
	return strings.Join(lines, "\n")
}
