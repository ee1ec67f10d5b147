package source

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matsen/pubtrack/internal/publication"
)

// CrossrefWork is the subset of a Crossref work message that is read.
type CrossrefWork struct {
	DOI            string           `json:"DOI"`
	Title          []string         `json:"title"`
	Author         []CrossrefAuthor `json:"author"`
	ContainerTitle []string         `json:"container-title"`
	Issued         CrossrefDate     `json:"issued"`
	PublishedPrint CrossrefDate     `json:"published-print"`
	Type           string           `json:"type"`
	Score          float64          `json:"score,omitempty"`
}

// CrossrefAuthor is one contributor on a Crossref work.
type CrossrefAuthor struct {
	Given       string `json:"given"`
	Family      string `json:"family"`
	Name        string `json:"name"` // Consortium authors
	Suffix      string `json:"suffix"`
	ORCID       string `json:"ORCID"`
	Affiliation []struct {
		Name string `json:"name"`
	} `json:"affiliation"`
}

// CrossrefDate holds Crossref "date-parts": [[year, month, day]].
type CrossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// Date returns the first date-parts entry, zero when absent.
func (d CrossrefDate) Date() publication.PublicationDate {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return publication.PublicationDate{}
	}
	p := d.DateParts[0]
	var month, day int
	if len(p) > 1 {
		month = p[1]
	}
	if len(p) > 2 {
		day = p[2]
	}
	return dateFrom(p[0], month, day)
}

// crossrefEnvelope wraps both single-work and list responses.
type crossrefEnvelope struct {
	Status      string          `json:"status"`
	MessageType string          `json:"message-type"`
	Message     json.RawMessage `json:"message"`
}

// ParseCrossref parses a Crossref API response or a bare work or list of
// works and returns one Record per work with a title or DOI.
func ParseCrossref(data []byte) ([]Record, error) {
	var env crossrefEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing Crossref JSON: %w", err)
	}

	var works []CrossrefWork
	switch {
	case env.Message == nil:
		// Not enveloped: a work object or an array of works.
		if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
			if err := json.Unmarshal(data, &works); err != nil {
				return nil, fmt.Errorf("parsing Crossref works: %w", err)
			}
		} else {
			var w CrossrefWork
			if err := json.Unmarshal(data, &w); err != nil {
				return nil, fmt.Errorf("parsing Crossref work: %w", err)
			}
			works = []CrossrefWork{w}
		}
	case env.MessageType == "work-list":
		var list struct {
			Items []CrossrefWork `json:"items"`
		}
		if err := json.Unmarshal(env.Message, &list); err != nil {
			return nil, fmt.Errorf("parsing Crossref work list: %w", err)
		}
		works = list.Items
	default:
		var w CrossrefWork
		if err := json.Unmarshal(env.Message, &w); err != nil {
			return nil, fmt.Errorf("parsing Crossref work: %w", err)
		}
		works = []CrossrefWork{w}
	}

	var recs []Record
	for _, w := range works {
		rec := w.Record()
		if !rec.IsEmpty() {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

// Record converts the work to a Record.
func (w CrossrefWork) Record() Record {
	rec := Record{
		Source:      TypeCrossref,
		ID:          w.DOI,
		Identifiers: publication.Identifiers{DOI: publication.NormalizeDOI(w.DOI)},
		Published:   w.Issued.Date(),
	}
	if len(w.Title) > 0 {
		rec.Title = strings.Join(strings.Fields(w.Title[0]), " ")
	}
	if len(w.ContainerTitle) > 0 {
		rec.Journal = w.ContainerTitle[0]
	}
	if rec.Published.Year == 0 {
		rec.Published = w.PublishedPrint.Date()
	}
	for _, a := range w.Author {
		var au publication.Author
		switch {
		case a.Family != "":
			au = withGiven(a.Family, a.Given)
		case a.Name != "":
			au = publication.Author{Last: a.Name}
		default:
			continue
		}
		au.Suffix = a.Suffix
		au.ORCID = publication.NormalizeORCID(a.ORCID)
		if len(a.Affiliation) > 0 {
			au.Affiliation = a.Affiliation[0].Name
		}
		rec.Authors = append(rec.Authors, au)
	}
	return rec
}
