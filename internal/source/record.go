// Package source parses structured bibliographic records fetched from
// external services into a common Record type.
package source

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/pubtrack/internal/citation"
	"github.com/matsen/pubtrack/internal/publication"
)

// Source types recorded in publication provenance.
const (
	TypeRecords  = "records"
	TypeCrossref = "crossref"
)

// Record is one already-materialized external record.
type Record struct {
	Source string `json:"source"` // records, crossref
	ID     string `json:"id,omitempty"`

	Title   string               `json:"title"`
	Authors []publication.Author `json:"authors"`
	publication.Identifiers
	Journal   string                      `json:"journal,omitempty"`
	Published publication.PublicationDate `json:"published"`
}

// Tokenized converts r into the shape produced by the citation tokenizer,
// so structured records flow through the same matching path as citation
// lines.
func (r *Record) Tokenized() citation.Tokenized {
	return citation.Tokenized{
		Authors:     r.Authors,
		Title:       r.Title,
		Year:        r.Published.Year,
		Identifiers: r.Identifiers.Normalized(),
		Venue:       r.Journal,
		Style:       citation.StyleUnknown,
		Source:      r.Source,
		Origin:      r.ID,
	}
}

// IsEmpty reports whether the record carries nothing to reconcile on.
func (r *Record) IsEmpty() bool {
	return r.Title == "" && r.Identifiers.IsZero()
}

// FlexibleString can unmarshal from either string or number JSON values.
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleString(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleString(n.String())
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexibleString", string(data))
}

func (f FlexibleString) String() string {
	return string(f)
}

// Int returns the value as an integer, 0 when empty or not numeric.
func (f FlexibleString) Int() int {
	n, err := strconv.Atoi(strings.TrimSpace(string(f)))
	if err != nil {
		return 0
	}
	return n
}

// dateFrom builds a PublicationDate, dropping out-of-range month and day.
func dateFrom(year, month, day int) publication.PublicationDate {
	d := publication.PublicationDate{Year: year}
	if month >= 1 && month <= 12 {
		d.Month = month
		if day >= 1 && day <= 31 {
			d.Day = day
		}
	}
	return d
}
