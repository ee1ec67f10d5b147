// Package publication defines the canonical publication and author types
// shared by the tokenizer, the reconciler and the persisted state.
package publication

import (
	"slices"
	"strconv"
	"strings"
)

// Publication is the canonical record for one publication.
type Publication struct {
	// Identity
	ID string `json:"id"` // Stable key derived from first author, year and title
	Identifiers

	// Metadata
	Title     string          `json:"title"`
	Authors   []Author        `json:"authors"` // Authors as printed in the citation or record
	Venue     string          `json:"venue,omitempty"`
	Published PublicationDate `json:"published"`

	// Roster associations. MatchedAuthors holds roster author IDs, never copies.
	MatchedAuthors []string `json:"matched_authors"`
	Projects       []string `json:"projects"`

	// Provenance
	Sources       []Source `json:"sources,omitempty"`
	ReferenceLine string   `json:"reference_line,omitempty"`
}

// Identifiers holds the external identifiers used as dedup keys.
type Identifiers struct {
	DOI   string `json:"doi,omitempty"`
	PMID  string `json:"pmid,omitempty"`
	PMCID string `json:"pmcid,omitempty"`
}

// PublicationDate represents a publication date with optional month and day.
type PublicationDate struct {
	Year  int `json:"year,omitempty"`  // 0 if unknown
	Month int `json:"month,omitempty"` // 1-12, 0 if unknown
	Day   int `json:"day,omitempty"`   // 1-31, 0 if unknown
}

// Source tracks where a publication was seen.
type Source struct {
	Type   string `json:"type"`             // citation, crossref, records, medline, anchor
	ID     string `json:"id,omitempty"`     // File path or API id
	Origin string `json:"origin,omitempty"` // Line number or record index
}

// IsZero reports whether no identifier is set.
func (ids Identifiers) IsZero() bool {
	return ids.DOI == "" && ids.PMID == "" && ids.PMCID == ""
}

// Normalized returns a copy with every identifier in canonical form.
func (ids Identifiers) Normalized() Identifiers {
	return Identifiers{
		DOI:   NormalizeDOI(ids.DOI),
		PMID:  NormalizePMID(ids.PMID),
		PMCID: NormalizePMCID(ids.PMCID),
	}
}

// Fill copies identifiers from other into empty slots only and returns the
// names of identifiers that were present on both sides with different values.
func (ids *Identifiers) Fill(other Identifiers) (conflicts []string) {
	fill := func(name string, dst *string, src string) {
		switch {
		case src == "":
		case *dst == "":
			*dst = src
		case *dst != src:
			conflicts = append(conflicts, name)
		}
	}
	fill("doi", &ids.DOI, other.DOI)
	fill("pmid", &ids.PMID, other.PMID)
	fill("pmcid", &ids.PMCID, other.PMCID)
	return conflicts
}

// Year returns the publication year, 0 when unknown.
func (p *Publication) Year() int {
	return p.Published.Year
}

// HasMatchedAuthor reports whether the roster author id is associated.
func (p *Publication) HasMatchedAuthor(id string) bool {
	return slices.Contains(p.MatchedAuthors, id)
}

// AddMatchedAuthors unions ids into MatchedAuthors, keeping first-seen order.
func (p *Publication) AddMatchedAuthors(ids ...string) {
	p.MatchedAuthors = UnionStrings(p.MatchedAuthors, ids)
}

// AddProjects unions ids into Projects, keeping first-seen order.
func (p *Publication) AddProjects(ids ...string) {
	p.Projects = UnionStrings(p.Projects, ids)
}

// Clone returns a deep copy.
func (p *Publication) Clone() *Publication {
	c := *p
	c.Authors = slices.Clone(p.Authors)
	c.MatchedAuthors = slices.Clone(p.MatchedAuthors)
	c.Projects = slices.Clone(p.Projects)
	c.Sources = slices.Clone(p.Sources)
	return &c
}

// UnionStrings returns the union of two string slices, preserving order.
// Elements from a come first, followed by new elements from b.
func UnionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var result []string
	for _, s := range a {
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	return result
}

// FirstAuthorLast returns the last name of the first printed author.
func (p *Publication) FirstAuthorLast() string {
	for _, a := range p.Authors {
		if a.Last != "" {
			return a.Last
		}
	}
	return ""
}

// Summary is a short human-readable label for logs and review output.
func (p *Publication) Summary() string {
	var b strings.Builder
	if last := p.FirstAuthorLast(); last != "" {
		b.WriteString(last)
		if len(p.Authors) > 1 {
			b.WriteString(" et al.")
		}
		b.WriteString(" ")
	}
	if p.Published.Year > 0 {
		b.WriteString("(")
		b.WriteString(strconv.Itoa(p.Published.Year))
		b.WriteString(") ")
	}
	b.WriteString(p.Title)
	return strings.TrimSpace(b.String())
}
