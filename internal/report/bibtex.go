package report

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/matsen/pubtrack/internal/publication"
)

type bibField struct {
	name, value string
}

// ToBibTeX renders p as one BibTeX entry keyed by its id. Venues that look
// like conference proceedings produce @inproceedings, everything else
// @article.
func ToBibTeX(p *publication.Publication) string {
	entryType, venueField := "article", "journal"
	if isProceedings(p.Venue) {
		entryType, venueField = "inproceedings", "booktitle"
	}

	fields := []bibField{
		{"author", formatAuthors(p.Authors)},
		{"title", escapeLatex(p.Title)},
		{venueField, escapeLatex(p.Venue)},
	}
	if p.Published.Year > 0 {
		fields = append(fields, bibField{"year", strconv.Itoa(p.Published.Year)})
	}
	if p.Published.Month > 0 {
		fields = append(fields, bibField{"month", strconv.Itoa(p.Published.Month)})
	}
	fields = append(fields,
		bibField{"doi", p.DOI},
		bibField{"pmid", p.PMID},
		bibField{"pmcid", p.PMCID},
	)

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", entryType, p.ID)
	for _, f := range fields {
		if f.value == "" && f.name != "title" {
			continue
		}
		fmt.Fprintf(&b, "  %s = {%s},\n", f.name, f.value)
	}
	b.WriteString("}\n")
	return b.String()
}

// ToBibTeXList renders pubs separated by blank lines.
func ToBibTeXList(pubs []*publication.Publication) string {
	entries := make([]string, len(pubs))
	for i, p := range pubs {
		entries[i] = ToBibTeX(p)
	}
	return strings.Join(entries, "\n")
}

var proceedingsWords = []string{"proceedings", "conference", "workshop", "symposium"}

func isProceedings(venue string) bool {
	venue = strings.ToLower(venue)
	for _, w := range proceedingsWords {
		if strings.Contains(venue, w) {
			return true
		}
	}
	return false
}

// formatAuthors joins authors as "Last, Given and Last, F. M.".
func formatAuthors(authors []publication.Author) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		given := strings.TrimSpace(a.First + " " + a.Middle)
		if given == "" && a.Initials != "" {
			dotted := make([]string, 0, len(a.Initials))
			for _, r := range a.Initials {
				dotted = append(dotted, string(r)+".")
			}
			given = strings.Join(dotted, " ")
		}
		name := escapeLatex(a.Last)
		if given != "" {
			name += ", " + escapeLatex(given)
		}
		names = append(names, name)
	}
	return strings.Join(names, " and ")
}

var latexEscaper = strings.NewReplacer(
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

func escapeLatex(s string) string {
	return latexEscaper.Replace(s)
}

// BibTeXIndex records the keys and DOIs already present in a .bib file.
type BibTeXIndex struct {
	Keys map[string]bool
	DOIs map[string]string // Normalized DOI to entry key
}

// HasEntry reports whether p is already in the index, by DOI first and
// then by key.
func (idx *BibTeXIndex) HasEntry(p *publication.Publication) bool {
	if doi := publication.NormalizeDOI(p.DOI); doi != "" {
		if _, ok := idx.DOIs[doi]; ok {
			return true
		}
	}
	return idx.Keys[p.ID]
}

var (
	bibEntryRe = regexp.MustCompile(`(?m)^\s*@\w+\s*\{\s*([^,\s]+)\s*,`)
	bibDOIRe   = regexp.MustCompile(`(?im)^\s*doi\s*=\s*[{"]([^}"]+)[}"]`)
)

// ParseBibTeX indexes the entries in data.
func ParseBibTeX(data string) *BibTeXIndex {
	idx := &BibTeXIndex{Keys: map[string]bool{}, DOIs: map[string]string{}}
	starts := bibEntryRe.FindAllStringSubmatchIndex(data, -1)
	for i, m := range starts {
		key := data[m[2]:m[3]]
		idx.Keys[key] = true

		end := len(data)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		if d := bibDOIRe.FindStringSubmatch(data[m[1]:end]); d != nil {
			if doi := publication.NormalizeDOI(d[1]); doi != "" {
				idx.DOIs[doi] = key
			}
		}
	}
	return idx
}

// ParseBibTeXFile indexes an existing .bib file. A missing file gives an
// empty index.
func ParseBibTeXFile(path string) (*BibTeXIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ParseBibTeX(""), nil
		}
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return ParseBibTeX(string(data)), nil
}

// AppendBibTeX appends entries for pubs not already in the file at path
// and returns how many were written.
func AppendBibTeX(path string, pubs []*publication.Publication) (int, error) {
	idx, err := ParseBibTeXFile(path)
	if err != nil {
		return 0, err
	}
	var fresh []*publication.Publication
	for _, p := range pubs {
		if !idx.HasEntry(p) {
			fresh = append(fresh, p)
			idx.Keys[p.ID] = true
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return 0, eris.Wrapf(err, "open %s", path)
	}
	if _, err := f.WriteString("\n" + ToBibTeXList(fresh)); err != nil {
		f.Close()
		return 0, eris.Wrapf(err, "write %s", path)
	}
	return len(fresh), eris.Wrapf(f.Close(), "close %s", path)
}
