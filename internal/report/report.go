// Package report renders the outcome of a tracking run: the new and known
// publications, the per-author and per-project views, and the list of
// citations needing human review.
package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/matsen/pubtrack/internal/citation"
	"github.com/matsen/pubtrack/internal/dictionary"
	"github.com/matsen/pubtrack/internal/publication"
)

// Review reason codes.
const (
	ReasonNoRosterAuthor    = "no_roster_author"
	ReasonFuzzyAuthor       = "fuzzy_author"
	ReasonAmbiguousAuthor   = "ambiguous_author"
	ReasonDuplicateConflict = "duplicate_conflict"
	ReasonDuplicateCitation = "duplicate_citation"
	ReasonStyleUnknown      = citation.ReasonStyleUnknown
	ReasonParse             = citation.ReasonParse
	ReasonLookupFailed      = "lookup_failed"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ReviewItem is one citation or record a human should look at.
type ReviewItem struct {
	Reason        string `json:"reason" csv:"reason"`
	Source        string `json:"source,omitempty" csv:"source"`
	Origin        string `json:"origin,omitempty" csv:"origin"`
	PublicationID string `json:"publication_id,omitempty" csv:"publication_id"`
	Citation      string `json:"citation,omitempty" csv:"citation"`
	Detail        string `json:"detail,omitempty" csv:"detail"`
	Candidates    string `json:"candidates,omitempty" csv:"candidates"` // Comma separated roster ids
}

// Summary counts what a run did.
type Summary struct {
	Inputs     int `json:"inputs"`
	Tokenized  int `json:"tokenized"`
	Failed     int `json:"failed"`
	Created    int `json:"created"`
	Known      int `json:"known"`
	Merged     int `json:"merged"`
	Conflicts  int `json:"conflicts"`
	NeedReview int `json:"need_review"`
}

// Report is the full output of one run.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Summary     Summary   `json:"summary"`

	NewPublications   []*publication.Publication `json:"new_publications"`
	KnownPublications []*publication.Publication `json:"known_publications"`

	// Views reference publications by id.
	ByAuthor  map[string][]string `json:"by_author"`
	ByProject map[string][]string `json:"by_project"`

	Review []ReviewItem `json:"review"`
}

// SetViews fills ByAuthor and ByProject from v.
func (r *Report) SetViews(v dictionary.Views) {
	r.ByAuthor = make(map[string][]string, len(v.ByAuthor))
	for aid, pubs := range v.ByAuthor {
		ids := make([]string, len(pubs))
		for i, p := range pubs {
			ids[i] = p.ID
		}
		r.ByAuthor[aid] = ids
	}
	r.ByProject = make(map[string][]string, len(v.ByProject))
	for pid, authors := range v.ByProject {
		r.ByProject[pid] = append([]string{}, authors...)
	}
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(r), "encoding report")
}

// Write renders r into dir in the given format and returns the paths
// written. New publications are also written as new.bib.
func Write(dir, format string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, eris.Wrapf(err, "create %s", dir)
	}

	var paths []string
	create := func(name string, render func(io.Writer) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create %s", path)
		}
		if err := render(f); err != nil {
			f.Close()
			return err
		}
		paths = append(paths, path)
		return eris.Wrapf(f.Close(), "close %s", path)
	}

	var err error
	switch strings.ToLower(format) {
	case FormatJSON, "":
		err = create("report.json", func(w io.Writer) error { return WriteJSON(w, r) })
	case FormatCSV:
		err = create("publications.csv", func(w io.Writer) error { return WritePublicationsCSV(w, r) })
		if err == nil {
			err = create("review.csv", func(w io.Writer) error { return WriteReviewCSV(w, r.Review) })
		}
	case FormatXLSX:
		err = create("report.xlsx", func(w io.Writer) error { return WriteXLSX(w, r) })
	default:
		return nil, eris.Errorf("unknown report format %q (want json, csv or xlsx)", format)
	}
	if err != nil {
		return paths, err
	}

	if len(r.NewPublications) > 0 {
		err = create("new.bib", func(w io.Writer) error {
			_, err := io.WriteString(w, ToBibTeXList(r.NewPublications))
			return err
		})
	}
	return paths, err
}
