package tracker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/pubtrack/internal/citation"
	"github.com/matsen/pubtrack/internal/crossref"
	"github.com/matsen/pubtrack/internal/publication"
	"github.com/matsen/pubtrack/internal/report"
	"github.com/matsen/pubtrack/internal/roster"
	"github.com/matsen/pubtrack/internal/source"
)

const citationsFile = `1. Smith J, Doe A. Effects of X on Y. 2019. PMID: 12345678.
2. Zzyzx Q. Desert acoustics. 2020.
3. no citation here at all friends
4. Smith J, Doe A. Effects of X on Y. 2019.
`

func testRoster(t *testing.T) *roster.Roster {
	t.Helper()
	r, err := roster.New([]*roster.Author{
		{ID: "jsmith", FirstName: "John", LastName: "Smith"},
		{ID: "adoe", FirstName: "Alice", LastName: "Doe"},
	}, []*roster.Project{{ID: "lab", Name: "Lab"}})
	require.NoError(t, err)
	return r
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func reasons(items []report.ReviewItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Reason
	}
	return out
}

func TestSession_TrackFile(t *testing.T) {
	r := testRoster(t)
	s, err := New(r, nil)
	require.NoError(t, err)

	path := writeFile(t, "cites.txt", citationsFile)
	require.NoError(t, s.TrackFile(context.Background(), path))

	pubs := s.New()
	require.Len(t, pubs, 2)
	assert.Equal(t, "Smith2019", pubs[0].ID)
	assert.Equal(t, "12345678", pubs[0].PMID)
	assert.Equal(t, []string{"jsmith", "adoe"}, pubs[0].MatchedAuthors)
	assert.Equal(t, []string{"lab"}, pubs[0].Projects)

	assert.Equal(t, "Zzyzx2020", pubs[1].ID)
	assert.Empty(t, pubs[1].MatchedAuthors)

	review := s.Review()
	assert.Equal(t, []string{
		report.ReasonStyleUnknown,
		report.ReasonDuplicateCitation,
		report.ReasonNoRosterAuthor,
	}, reasons(review))
	assert.Equal(t, "ref 3", review[0].Origin)
	assert.Equal(t, "ref 4", review[1].Origin)
	assert.Equal(t, "duplicate of ref 1", review[1].Detail)
	assert.Equal(t, "Zzyzx2020", review[2].PublicationID)

	assert.Contains(t, r.Author("jsmith").MatchedVariants, "J Smith")
}

func TestSession_Report(t *testing.T) {
	anchor := publication.Publication{
		ID:             "Smith2019",
		Identifiers:    publication.Identifiers{PMID: "12345678"},
		Title:          "Effects of X on Y",
		Authors:        []publication.Author{{Last: "Smith", Initials: "J"}},
		Published:      publication.PublicationDate{Year: 2019},
		MatchedAuthors: []string{"jsmith"},
	}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := New(testRoster(t), []publication.Publication{anchor}, WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	require.NoError(t, s.TrackFile(context.Background(), writeFile(t, "cites.txt", citationsFile)))
	rep := s.Report()

	assert.Equal(t, s.RunID, rep.RunID)
	assert.Equal(t, fixed, rep.GeneratedAt)
	assert.Equal(t, report.Summary{
		Inputs:     4,
		Tokenized:  3,
		Failed:     1,
		Created:    1,
		Known:      1,
		Merged:     2,
		NeedReview: 3,
	}, rep.Summary)

	require.Len(t, rep.KnownPublications, 1)
	assert.Equal(t, "Smith2019", rep.KnownPublications[0].ID)
	assert.Equal(t, []string{"jsmith", "adoe"}, rep.KnownPublications[0].MatchedAuthors)
	assert.Equal(t, []string{"Smith2019"}, rep.ByAuthor["adoe"])
	assert.Len(t, s.Publications(), 2)
}

func TestSession_TrackRecordsFile(t *testing.T) {
	s, err := New(testRoster(t), nil)
	require.NoError(t, err)

	path := writeFile(t, "records.json", `[
		{"id": "r1", "title": "Foo Bar Study", "doi": "10.1/abc", "year": 2019,
		 "authors": [{"family": "Smith", "given": "John", "orcid": "0000-0002-1825-0097"}]},
		{"id": "r2", "title": "Foo Bar Study", "year": 2019, "authors": ["Smith, John"]},
		{"id": "r3"}
	]`)
	require.NoError(t, s.TrackRecordsFile(context.Background(), path))

	pubs := s.New()
	require.Len(t, pubs, 1)
	assert.Equal(t, "10.1/abc", pubs[0].DOI)
	assert.Equal(t, []string{"jsmith"}, pubs[0].MatchedAuthors)

	assert.Equal(t, []string{report.ReasonParse}, reasons(s.Review()))
}

type fakeLookup struct {
	records map[string]*source.Record
	errs    map[string]error
}

func (f *fakeLookup) Lookup(_ context.Context, tok citation.Tokenized) (*source.Record, error) {
	if err := f.errs[tok.Origin]; err != nil {
		return nil, err
	}
	if rec := f.records[tok.Origin]; rec != nil {
		return rec, nil
	}
	return nil, eris.Wrap(crossref.ErrNotFound, "lookup")
}

func TestSession_TrackCitationsWithLookup(t *testing.T) {
	toks := []citation.Tokenized{
		{Authors: []publication.Author{{Last: "Smith", Initials: "J"}}, Title: "Effects of X on Y", Year: 2019, Origin: "ref 1"},
		{Authors: []publication.Author{{Last: "Doe", Initials: "A"}}, Title: "Another study", Year: 2021, Origin: "ref 2"},
		{Authors: []publication.Author{{Last: "Doe", Initials: "A"}}, Title: "A third one", Year: 2022, Origin: "ref 3"},
	}
	lookup := &fakeLookup{
		records: map[string]*source.Record{
			"ref 1": {
				Source:      source.TypeCrossref,
				ID:          "10.1/xy",
				Title:       "Effects of X on Y",
				Identifiers: publication.Identifiers{DOI: "10.1/xy"},
				Journal:     "J Things",
				Published:   publication.PublicationDate{Year: 2019, Month: 5},
				Authors:     []publication.Author{{First: "John", Last: "Smith"}, {First: "Alice", Last: "Doe"}},
			},
		},
		errs: map[string]error{"ref 3": errors.New("server exploded")},
	}

	s, err := New(testRoster(t), nil, WithLookup(lookup, 2))
	require.NoError(t, err)
	require.NoError(t, s.TrackCitations(context.Background(), toks))

	pubs := s.New()
	require.Len(t, pubs, 3)
	assert.Equal(t, "10.1/xy", pubs[0].DOI)
	assert.Equal(t, "J Things", pubs[0].Venue)
	assert.Equal(t, 5, pubs[0].Published.Month)
	assert.Equal(t, []string{"jsmith", "adoe"}, pubs[0].MatchedAuthors)
	assert.Empty(t, pubs[1].DOI)

	review := s.Review()
	require.Equal(t, []string{report.ReasonLookupFailed}, reasons(review))
	assert.Equal(t, "ref 3", review[0].Origin)
	assert.True(t, strings.Contains(review[0].Detail, "server exploded"))
}

func TestSession_TrackFileIdentifierOnlyLine(t *testing.T) {
	lookup := &fakeLookup{records: map[string]*source.Record{
		"ref 1": {
			Source:      source.TypeCrossref,
			ID:          "10.1/xy",
			Title:       "Effects of X on Y",
			Identifiers: publication.Identifiers{DOI: "10.1/xy"},
			Published:   publication.PublicationDate{Year: 2019},
			Authors:     []publication.Author{{First: "John", Last: "Smith"}},
		},
	}}
	s, err := New(testRoster(t), nil, WithLookup(lookup, 1))
	require.NoError(t, err)
	require.NoError(t, s.TrackFile(context.Background(), writeFile(t, "ids.txt", "1. doi:10.1/xy\n")))

	pubs := s.New()
	require.Len(t, pubs, 1)
	assert.Equal(t, "Effects of X on Y", pubs[0].Title)
	assert.Equal(t, []string{"jsmith"}, pubs[0].MatchedAuthors)
	assert.Empty(t, s.Review())
}

func TestPrefetch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	toks := []citation.Tokenized{{Title: "A", Origin: "ref 1"}}
	_, _, err := Prefetch(ctx, &fakeLookup{}, toks, 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSession_FuzzyAndAmbiguous(t *testing.T) {
	r, err := roster.New([]*roster.Author{
		{ID: "jsmith", FirstName: "John", LastName: "Smith"},
		{ID: "klee", FirstName: "Kim", LastName: "Lee"},
		{ID: "kwlee", FirstName: "Karen", LastName: "Lee"},
	}, nil)
	require.NoError(t, err)
	s, err := New(r, nil)
	require.NoError(t, err)

	toks := []citation.Tokenized{{
		Authors: []publication.Author{{Last: "Smith"}, {Last: "Lee", Initials: "K"}},
		Title:   "Shared work",
		Year:    2020,
		Origin:  "ref 1",
	}}
	require.NoError(t, s.TrackCitations(context.Background(), toks))

	review := s.Review()
	require.Equal(t, []string{report.ReasonAmbiguousAuthor, report.ReasonFuzzyAuthor}, reasons(review))
	assert.Equal(t, "klee,kwlee", review[0].Candidates)
	assert.Equal(t, "jsmith", review[1].Candidates)
	assert.Empty(t, s.New()[0].MatchedAuthors)
}

func TestNew_RequiresRoster(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, roster.ErrNoRoster)
}
