package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/pubtrack/internal/publication"
	"github.com/matsen/pubtrack/internal/roster"
)

func testRoster(t *testing.T) *roster.Roster {
	t.Helper()
	r, err := roster.New([]*roster.Author{
		{ID: "jsmith", FirstName: "John", LastName: "Smith"},
		{ID: "adoe", FirstName: "Alice", LastName: "Doe"},
		{ID: "klee", FirstName: "Kim", LastName: "Lee"},
	}, []*roster.Project{
		{ID: "sleep", Name: "Sleep", Authors: []string{"jsmith"}},
		{ID: "lab", Name: "Lab"},
	})
	require.NoError(t, err)
	return r
}

func pub(id string, year int, authors []string, projects []string) *publication.Publication {
	return &publication.Publication{
		ID:             id,
		Title:          id,
		Published:      publication.PublicationDate{Year: year},
		MatchedAuthors: authors,
		Projects:       projects,
	}
}

func testPubs() []*publication.Publication {
	return []*publication.Publication{
		pub("Smith2021", 2021, []string{"jsmith"}, []string{"lab", "sleep"}),
		pub("Smith2019", 2019, []string{"jsmith", "adoe"}, []string{"lab", "sleep"}),
		pub("Smithnd", 0, []string{"jsmith"}, []string{"lab", "sleep"}),
		pub("Doe2019", 2019, []string{"adoe", "ghost"}, []string{"lab"}),
		pub("Zzyzx2020", 2020, nil, nil),
	}
}

func ids(pubs []*publication.Publication) []string {
	out := make([]string, len(pubs))
	for i, p := range pubs {
		out[i] = p.ID
	}
	return out
}

func TestBuild_ByAuthor(t *testing.T) {
	v := Build(testPubs(), testRoster(t))

	assert.Equal(t, []string{"Smith2019", "Smith2021", "Smithnd"}, ids(v.PublicationsOf("jsmith")))
	assert.Equal(t, []string{"Doe2019", "Smith2019"}, ids(v.PublicationsOf("adoe")))
	assert.Empty(t, v.PublicationsOf("klee"))
	assert.Contains(t, v.ByAuthor, "klee")
	assert.NotContains(t, v.ByAuthor, "ghost")
	assert.Equal(t, []string{"Zzyzx2020"}, ids(v.Unassigned))
}

func TestBuild_ByProject(t *testing.T) {
	v := Build(testPubs(), testRoster(t))

	// adoe is on a sleep-associated paper but is not a sleep member.
	assert.Equal(t, []string{"jsmith"}, v.AuthorsIn("sleep"))
	assert.Equal(t, []string{"adoe", "jsmith"}, v.AuthorsIn("lab"))
	assert.Equal(t, []string{"Doe2019", "Smith2019", "Smith2021", "Smithnd"}, ids(v.ProjectPublications("lab")))
	assert.Equal(t, []string{"Smith2019", "Smith2021", "Smithnd"}, ids(v.ProjectPublications("sleep")))
}

func TestBuild_Deterministic(t *testing.T) {
	r := testRoster(t)
	pubs := testPubs()
	reversed := make([]*publication.Publication, len(pubs))
	for i, p := range pubs {
		reversed[len(pubs)-1-i] = p
	}

	assert.Equal(t, Build(pubs, r), Build(reversed, r))
	assert.Equal(t, Build(pubs, r), Build(pubs, r))
}

func TestBuild_NilRoster(t *testing.T) {
	v := Build(testPubs(), nil)
	assert.Empty(t, v.ByAuthor)
	assert.Empty(t, v.ByProject)
}
