package report

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/matsen/pubtrack/internal/publication"
)

// Publication statuses in tabular output.
const (
	StatusNew   = "new"
	StatusKnown = "known"
)

// PublicationRow is the flat form of a publication for CSV and XLSX.
type PublicationRow struct {
	Status         string `csv:"status"`
	ID             string `csv:"id"`
	Year           int    `csv:"year,omitempty"`
	Title          string `csv:"title"`
	Authors        string `csv:"authors"`
	Venue          string `csv:"venue"`
	DOI            string `csv:"doi"`
	PMID           string `csv:"pmid"`
	PMCID          string `csv:"pmcid"`
	MatchedAuthors string `csv:"matched_authors"`
	Projects       string `csv:"projects"`
}

// Rows flattens the new then known publications of r.
func Rows(r *Report) []PublicationRow {
	var rows []PublicationRow
	add := func(status string, pubs []*publication.Publication) {
		for _, p := range pubs {
			rows = append(rows, PublicationRow{
				Status:         status,
				ID:             p.ID,
				Year:           p.Year(),
				Title:          p.Title,
				Authors:        authorList(p.Authors),
				Venue:          p.Venue,
				DOI:            p.DOI,
				PMID:           p.PMID,
				PMCID:          p.PMCID,
				MatchedAuthors: strings.Join(p.MatchedAuthors, "; "),
				Projects:       strings.Join(p.Projects, "; "),
			})
		}
	}
	add(StatusNew, r.NewPublications)
	add(StatusKnown, r.KnownPublications)
	return rows
}

func authorList(authors []publication.Author) string {
	names := make([]string, len(authors))
	for i, a := range authors {
		names[i] = a.FullName()
	}
	return strings.Join(names, ", ")
}

// WritePublicationsCSV writes one row per new or known publication.
func WritePublicationsCSV(w io.Writer, r *Report) error {
	return writeCSV(w, Rows(r))
}

// WriteReviewCSV writes the review list.
func WriteReviewCSV(w io.Writer, items []ReviewItem) error {
	return writeCSV(w, items)
}

func writeCSV[T any](w io.Writer, rows []T) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(rows) == 0 {
		var zero T
		if err := enc.EncodeHeader(zero); err != nil {
			return eris.Wrap(err, "encoding csv header")
		}
	}
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return eris.Wrap(err, "encoding csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "writing csv")
}

// WriteXLSX writes a workbook with Publications, By Author, By Project and
// Review sheets.
func WriteXLSX(w io.Writer, r *Report) error {
	f := xlsx.NewFile()

	pubs, err := f.AddSheet("Publications")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}
	addRow(pubs, "Status", "ID", "Year", "Title", "Authors", "Venue", "DOI", "PMID", "PMCID", "Matched Authors", "Projects")
	for _, row := range Rows(r) {
		year := ""
		if row.Year > 0 {
			year = strconv.Itoa(row.Year)
		}
		addRow(pubs, row.Status, row.ID, year, row.Title, row.Authors, row.Venue,
			row.DOI, row.PMID, row.PMCID, row.MatchedAuthors, row.Projects)
	}

	byAuthor, err := f.AddSheet("By Author")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}
	addRow(byAuthor, "Author", "Publications")
	for _, aid := range sortedKeys(r.ByAuthor) {
		addRow(byAuthor, aid, strings.Join(r.ByAuthor[aid], "; "))
	}

	byProject, err := f.AddSheet("By Project")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}
	addRow(byProject, "Project", "Authors")
	for _, pid := range sortedKeys(r.ByProject) {
		addRow(byProject, pid, strings.Join(r.ByProject[pid], "; "))
	}

	review, err := f.AddSheet("Review")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}
	addRow(review, "Reason", "Source", "Origin", "Publication", "Citation", "Detail", "Candidates")
	for _, it := range r.Review {
		addRow(review, it.Reason, it.Source, it.Origin, it.PublicationID, it.Citation, it.Detail, it.Candidates)
	}

	return eris.Wrap(f.Write(w), "xlsx: write")
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
