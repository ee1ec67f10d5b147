package source

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matsen/pubtrack/internal/publication"
)

// recordEntry is one element of a generic records file. Authors may be
// plain name strings or objects.
type recordEntry struct {
	ID      FlexibleString `json:"id"`
	Title   string         `json:"title"`
	Authors []recordAuthor `json:"authors"`
	Year    FlexibleString `json:"year"`
	Month   FlexibleString `json:"month"`
	Day     FlexibleString `json:"day"`
	DOI     string         `json:"doi"`
	PMID    FlexibleString `json:"pmid"`
	PMCID   FlexibleString `json:"pmcid"`
	Journal string         `json:"journal"`
}

type recordAuthor struct {
	publication.Author
}

func (a *recordAuthor) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Author = splitName(s)
		return nil
	}
	var obj struct {
		First       string `json:"first"`
		Given       string `json:"given"`
		Middle      string `json:"middle"`
		Last        string `json:"last"`
		Family      string `json:"family"`
		Initials    string `json:"initials"`
		Suffix      string `json:"suffix"`
		ORCID       string `json:"orcid"`
		Affiliation string `json:"affiliation"`
		Name        string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("cannot unmarshal %s into author", string(data))
	}
	if obj.Last == "" && obj.Family == "" && obj.Name != "" {
		a.Author = splitName(obj.Name)
	} else {
		a.Author = publication.Author{
			First:    firstNonEmpty(obj.First, obj.Given),
			Middle:   obj.Middle,
			Last:     firstNonEmpty(obj.Last, obj.Family),
			Initials: obj.Initials,
			Suffix:   obj.Suffix,
		}
	}
	a.ORCID = publication.NormalizeORCID(obj.ORCID)
	a.Affiliation = obj.Affiliation
	return nil
}

// ParseRecords parses a JSON array of generic records. Entries without a
// title or identifier are reported and skipped.
func ParseRecords(data []byte) ([]Record, []error) {
	var entries []recordEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, []error{fmt.Errorf("parsing records JSON: %w", err)}
	}

	var recs []Record
	var errs []error
	for i, e := range entries {
		rec := Record{
			Source:  TypeRecords,
			ID:      e.ID.String(),
			Title:   strings.TrimSpace(e.Title),
			Journal: strings.TrimSpace(e.Journal),
			Identifiers: publication.Identifiers{
				DOI:   e.DOI,
				PMID:  e.PMID.String(),
				PMCID: e.PMCID.String(),
			}.Normalized(),
			Published: dateFrom(e.Year.Int(), e.Month.Int(), e.Day.Int()),
		}
		if rec.ID == "" {
			rec.ID = fmt.Sprintf("record %d", i+1)
		}
		for _, a := range e.Authors {
			if a.Last != "" {
				rec.Authors = append(rec.Authors, a.Author)
			}
		}
		if rec.IsEmpty() {
			errs = append(errs, fmt.Errorf("%s: missing title and identifiers", rec.ID))
			continue
		}
		recs = append(recs, rec)
	}
	return recs, errs
}

// splitName splits "Last, First Middle" or "First Middle Last".
func splitName(s string) publication.Author {
	s = strings.TrimSpace(s)
	if last, given, ok := strings.Cut(s, ","); ok {
		return withGiven(strings.TrimSpace(last), strings.TrimSpace(given))
	}
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return publication.Author{}
	}
	return withGiven(parts[len(parts)-1], strings.Join(parts[:len(parts)-1], " "))
}

func withGiven(last, given string) publication.Author {
	a := publication.Author{Last: last}
	parts := strings.Fields(given)
	if len(parts) == 0 {
		return a
	}
	first := strings.TrimSuffix(parts[0], ".")
	if len(first) == 1 {
		var b strings.Builder
		for _, p := range strings.FieldsFunc(given, func(r rune) bool { return r == '.' || r == ' ' || r == '-' }) {
			b.WriteString(strings.ToUpper(p[:1]))
		}
		a.Initials = b.String()
		return a
	}
	a.First = parts[0]
	a.Middle = strings.Join(parts[1:], " ")
	return a
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
