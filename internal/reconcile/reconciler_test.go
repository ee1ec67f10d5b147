package reconcile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/pubtrack/internal/citation"
	"github.com/matsen/pubtrack/internal/match"
	"github.com/matsen/pubtrack/internal/publication"
	"github.com/matsen/pubtrack/internal/roster"
	"github.com/matsen/pubtrack/internal/source"
)

func testRoster(t *testing.T) *roster.Roster {
	t.Helper()
	r, err := roster.New([]*roster.Author{
		{ID: "jsmith", FirstName: "John", LastName: "Smith"},
		{ID: "adoe", FirstName: "Alice", LastName: "Doe"},
	}, []*roster.Project{
		{ID: "sleep", Name: "Sleep", Authors: []string{"jsmith"}, CutoffYear: 2015},
		{ID: "lab", Name: "Lab"},
	})
	require.NoError(t, err)
	return r
}

var (
	smith = publication.Author{Last: "Smith", Initials: "J"}
	doe   = publication.Author{Last: "Doe", Initials: "A"}
)

func cite(title string, year int, doi string, authors ...publication.Author) citation.Tokenized {
	return citation.Tokenized{
		Authors:     authors,
		Title:       title,
		Year:        year,
		Identifiers: publication.Identifiers{DOI: doi},
		Style:       citation.StyleVancouver,
		Source:      "refs.txt",
		Origin:      "line 1",
	}
}

// run reconciles toks in order with real matcher results.
func run(t *testing.T, rc *Reconciler, r *roster.Roster, toks ...citation.Tokenized) []Outcome {
	t.Helper()
	m := match.NewMatcher()
	var outs []Outcome
	for _, tok := range toks {
		out, err := rc.Reconcile(tok, nil, m.Match(tok.Authors, r))
		require.NoError(t, err)
		outs = append(outs, out)
	}
	return outs
}

func TestReconcile_TitleMergeKeepsDOI(t *testing.T) {
	withDOI := cite("Foo Bar Study", 2019, "10.1/abc", smith)
	noDOI := cite("Foo Bar Studies", 2019, "", smith)

	orders := map[string][]citation.Tokenized{
		"doi first":    {withDOI, noDOI},
		"doi second":   {noDOI, withDOI},
		"same title":   {withDOI, cite("Foo Bar Study", 2019, "", smith)},
		"exact repeat": {noDOI, noDOI},
	}
	for name, toks := range orders {
		t.Run(name, func(t *testing.T) {
			r := testRoster(t)
			rc, err := New(r, nil)
			require.NoError(t, err)

			outs := run(t, rc, r, toks...)
			require.Len(t, rc.Publications(), 1)
			assert.True(t, outs[0].Created)
			assert.False(t, outs[1].Created)
			assert.Equal(t, MatchedByTitle, outs[1].MatchedBy)

			p := rc.Publications()[0]
			if toks[0].DOI != "" || toks[1].DOI != "" {
				assert.Equal(t, "10.1/abc", p.DOI)
			}
			assert.Equal(t, []string{"jsmith"}, p.MatchedAuthors)
			assert.Equal(t, []string{"lab", "sleep"}, p.Projects)
			assert.Len(t, p.Sources, 2)
		})
	}
}

func TestReconcile_SharedDOIOrderIndependent(t *testing.T) {
	a := cite("Alpha", 2019, "https://doi.org/10.1/ABC", smith)
	b := cite("Alpha", 2019, "10.1/abc.", doe)

	for _, toks := range [][]citation.Tokenized{{a, b}, {b, a}} {
		r := testRoster(t)
		rc, err := New(r, nil)
		require.NoError(t, err)

		outs := run(t, rc, r, toks...)
		require.Len(t, rc.Publications(), 1)
		assert.Equal(t, MatchedByDOI, outs[1].MatchedBy)
		assert.Nil(t, outs[1].Conflict)

		p := rc.Publications()[0]
		assert.Equal(t, "10.1/abc", p.DOI)
		assert.ElementsMatch(t, []string{"jsmith", "adoe"}, p.MatchedAuthors)
		assert.ElementsMatch(t, []string{"lab", "sleep"}, p.Projects)
	}
}

func TestReconcile_PMIDThenPMCID(t *testing.T) {
	r := testRoster(t)
	rc, err := New(r, nil)
	require.NoError(t, err)

	first := cite("Gamma", 2020, "", smith)
	first.PMID = "12345678"
	second := cite("Gamma", 2020, "", doe)
	second.PMID = "PMID: 12345678"
	second.PMCID = "PMC99"
	third := cite("Gamma", 2020, "10.1/gamma", doe)
	third.PMCID = "pmc99"

	outs := run(t, rc, r, first, second, third)
	require.Len(t, rc.Publications(), 1)
	assert.Equal(t, MatchedByPMID, outs[1].MatchedBy)
	assert.Equal(t, MatchedByPMCID, outs[2].MatchedBy)

	p := rc.Publications()[0]
	assert.Equal(t, publication.Identifiers{DOI: "10.1/gamma", PMID: "12345678", PMCID: "PMC99"}, p.Identifiers)
}

func TestReconcile_TitleMatchNeedsYearAndAuthor(t *testing.T) {
	base := cite("Foo Bar Study", 2019, "", smith)
	tests := []struct {
		name  string
		other citation.Tokenized
	}{
		{"different year", cite("Foo Bar Study", 2018, "", smith)},
		{"no shared author", cite("Foo Bar Study", 2019, "", doe)},
		{"no matched author", cite("Foo Bar Study", 2019, "", publication.Author{Last: "Zzyzx", Initials: "Q"})},
		{"missing year", cite("Foo Bar Study", 0, "", smith)},
		{"different title", cite("Sleep and Memory", 2019, "", smith)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRoster(t)
			rc, err := New(r, nil)
			require.NoError(t, err)

			outs := run(t, rc, r, base, tt.other)
			assert.True(t, outs[1].Created)
			assert.Len(t, rc.Publications(), 2)
		})
	}
}

func TestReconcile_ConflictingIdentifierBlocksTitleMerge(t *testing.T) {
	r := testRoster(t)
	rc, err := New(r, nil)
	require.NoError(t, err)

	outs := run(t, rc, r,
		cite("Foo Bar Study", 2019, "10.1/one", smith),
		cite("Foo Bar Study", 2019, "10.1/two", smith),
	)
	assert.True(t, outs[1].Created)
	assert.Len(t, rc.Publications(), 2)
}

func TestReconcile_DuplicateConflict(t *testing.T) {
	r := testRoster(t)
	rc, err := New(r, nil)
	require.NoError(t, err)

	outs := run(t, rc, r,
		cite("Foo Bar Study", 2019, "10.1/abc", smith),
		cite("Completely Different Paper", 2015, "10.1/abc", doe),
	)
	require.Len(t, rc.Publications(), 1)

	dc := outs[1].Conflict
	require.NotNil(t, dc)
	assert.Equal(t, "doi:10.1/abc", dc.Key)
	assert.Equal(t, "Smith2019", dc.ExistingID)
	require.Len(t, dc.Fields, 2)
	assert.Equal(t, "title", dc.Fields[0].FieldName)
	assert.Equal(t, "year", dc.Fields[1].FieldName)
	assert.Contains(t, dc.Error(), "doi:10.1/abc")
	assert.Equal(t, []*DuplicateConflict{dc}, rc.Conflicts())

	var target *DuplicateConflict
	assert.True(t, errors.As(error(dc), &target))

	p := rc.Publications()[0]
	assert.Equal(t, "Foo Bar Study", p.Title)
	assert.Equal(t, 2019, p.Year())
	assert.Equal(t, []string{"jsmith", "adoe"}, p.MatchedAuthors)
}

func TestReconcile_YearWithinTolerance(t *testing.T) {
	r := testRoster(t)
	rc, err := New(r, nil)
	require.NoError(t, err)

	outs := run(t, rc, r,
		cite("Foo Bar Study", 2019, "10.1/abc", smith),
		cite("Foo Bar Study", 2020, "10.1/abc", smith),
	)
	assert.Nil(t, outs[1].Conflict)
	assert.Empty(t, rc.Conflicts())
	assert.Equal(t, 2019, rc.Publications()[0].Year())
}

func TestReconcile_Anchor(t *testing.T) {
	r := testRoster(t)
	anchors := []publication.Publication{{
		ID:             "Smith2018",
		Identifiers:    publication.Identifiers{DOI: "10.1/old"},
		Title:          "Old Work",
		Authors:        []publication.Author{smith},
		Published:      publication.PublicationDate{Year: 2018},
		MatchedAuthors: []string{"jsmith"},
	}}
	rc, err := New(r, anchors)
	require.NoError(t, err)

	tok := cite("Old Work", 2018, "10.1/OLD", smith, doe)
	tok.PMID = "555"
	outs := run(t, rc, r, tok)

	out := outs[0]
	assert.True(t, out.Known)
	assert.False(t, out.Created)
	assert.Nil(t, out.Conflict)
	assert.Empty(t, rc.New())
	require.Len(t, rc.Known(), 1)
	assert.True(t, rc.IsAnchor("Smith2018"))

	p := out.Record
	assert.Equal(t, "Old Work", p.Title)
	assert.Len(t, p.Authors, 1)
	assert.Empty(t, p.PMID)
	assert.Equal(t, []string{"jsmith", "adoe"}, p.MatchedAuthors)
	assert.Equal(t, []string{"lab", "sleep"}, p.Projects)

	// The caller's slice is untouched.
	assert.Equal(t, []string{"jsmith"}, anchors[0].MatchedAuthors)
}

func TestNew_InvalidAnchors(t *testing.T) {
	tests := []struct {
		name    string
		anchors []publication.Publication
	}{
		{"missing id", []publication.Publication{{Title: "A"}}},
		{"duplicate id", []publication.Publication{{ID: "a", Title: "A"}, {ID: "a", Title: "B"}}},
		{"shared doi", []publication.Publication{
			{ID: "a", Identifiers: publication.Identifiers{DOI: "10.1/x"}},
			{ID: "b", Identifiers: publication.Identifiers{DOI: "doi:10.1/X"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil, tt.anchors)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidAnchor))
		})
	}
}

func TestReconcile_IdentifierOwnedElsewhere(t *testing.T) {
	r := testRoster(t)
	rc, err := New(r, nil)
	require.NoError(t, err)

	alpha := cite("Alpha Sleep Cohort", 2019, "", smith)
	alpha.PMID = "111"
	beta := cite("Beta Memory Trial", 2020, "10.1000/beta", doe)
	both := beta
	both.PMID = "111"
	outs := run(t, rc, r, alpha, beta, both)

	require.Len(t, rc.Publications(), 2)
	assert.Equal(t, "111", rc.Publications()[0].PMID)
	assert.Empty(t, rc.Publications()[1].PMID)

	dc := outs[2].Conflict
	require.NotNil(t, dc)
	assert.Equal(t, "pmid:111", dc.Key)
	assert.Equal(t, "Smith2019", dc.ExistingID)
	assert.Equal(t, []*DuplicateConflict{dc}, rc.Conflicts())

	// The merged set must reload as a saved set.
	var saved []publication.Publication
	for _, p := range rc.Publications() {
		saved = append(saved, *p)
	}
	_, err = New(r, saved)
	require.NoError(t, err)
}

func TestReconcile_NoKey(t *testing.T) {
	rc, err := New(nil, nil)
	require.NoError(t, err)

	_, err = rc.Reconcile(cite("", 2019, "", smith), nil, nil)
	assert.ErrorIs(t, err, ErrNoKey)
	assert.Empty(t, rc.Publications())
}

func TestReconcile_UnmatchedAuthor(t *testing.T) {
	r := testRoster(t)
	rc, err := New(r, nil)
	require.NoError(t, err)

	outs := run(t, rc, r, cite("Mystery Findings", 2020, "", publication.Author{Last: "Zzyzx", Initials: "Q"}))
	p := outs[0].Record
	assert.True(t, outs[0].Created)
	assert.Empty(t, p.MatchedAuthors)
	assert.Empty(t, p.Projects)
	assert.Equal(t, "Zzyzx2020", p.ID)
}

func TestReconcile_CutoffYear(t *testing.T) {
	r := testRoster(t)
	rc, err := New(r, nil)
	require.NoError(t, err)

	outs := run(t, rc, r, cite("Early Work", 2010, "", smith))
	assert.Equal(t, []string{"lab"}, outs[0].Record.Projects)
}

func TestReconcile_ExternalRecordIsCanonical(t *testing.T) {
	r := testRoster(t)
	rc, err := New(r, nil)
	require.NoError(t, err)

	tok := cite("Effects of caffeine on sleep", 2020, "", smith)
	ext := &source.Record{
		Source:      source.TypeCrossref,
		ID:          "10.1234/xyz.5",
		Title:       "Effects of Caffeine on Sleep Quality",
		Authors:     []publication.Author{{First: "John", Last: "Smith"}, {First: "Alice", Last: "Doe"}},
		Identifiers: publication.Identifiers{DOI: "10.1234/XYZ.5"},
		Journal:     "Sleep Journal",
		Published:   publication.PublicationDate{Year: 2020, Month: 5},
	}
	out, err := rc.Reconcile(tok, ext, match.NewMatcher().Match(tok.Authors, r))
	require.NoError(t, err)

	p := out.Record
	assert.Equal(t, "Effects of Caffeine on Sleep Quality", p.Title)
	assert.Equal(t, "10.1234/xyz.5", p.DOI)
	assert.Equal(t, "Sleep Journal", p.Venue)
	assert.Equal(t, publication.PublicationDate{Year: 2020, Month: 5}, p.Published)
	assert.Len(t, p.Authors, 2)
	assert.Equal(t, []string{"jsmith"}, p.MatchedAuthors)
	require.Len(t, p.Sources, 2)
	assert.Equal(t, SourceCitation, p.Sources[0].Type)
	assert.Equal(t, "line 1", p.Sources[0].Origin)
	assert.Equal(t, source.TypeCrossref, p.Sources[1].Type)
}

func TestReconcile_UniqueIDs(t *testing.T) {
	r := testRoster(t)
	rc, err := New(r, []publication.Publication{{ID: "Smith2019", Title: "Saved"}})
	require.NoError(t, err)

	outs := run(t, rc, r,
		cite("First Paper", 2019, "10.1/one", smith),
		cite("Second Paper", 2019, "10.1/two", smith),
	)
	assert.Equal(t, "Smith2019-2", outs[0].Record.ID)
	assert.Equal(t, "Smith2019-3", outs[1].Record.ID)
	assert.Len(t, rc.New(), 2)
}
