package citation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/pubtrack/internal/publication"
)

const medlineExport = `PMID- 12345678
TI  - Effects of caffeine
      on sleep.
FAU - Smith, John A
AU  - Smith JA
FAU - Doe, Alice
AU  - Doe A
DP  - 2019 Mar
JT  - Journal of Sleep
LID - 10.1234/JS.2019 [doi]
PMC - PMC6543210

PMID- 87654321
TI  - Second paper.
AU  - Lee K
DP  - 2020
`

func TestParseMEDLINE(t *testing.T) {
	parsed, errs := ParseMEDLINE(medlineExport, "export.nbib")
	require.Empty(t, errs)
	require.Len(t, parsed, 2)

	first := parsed[0]
	assert.Equal(t, "Effects of caffeine on sleep", first.Title)
	assert.Equal(t, 2019, first.Year)
	assert.Equal(t, publication.Identifiers{DOI: "10.1234/js.2019", PMID: "12345678", PMCID: "PMC6543210"}, first.Identifiers)
	assert.Equal(t, "Journal of Sleep", first.Venue)
	assert.Equal(t, []publication.Author{
		{First: "John", Middle: "A", Last: "Smith"},
		{First: "Alice", Last: "Doe"},
	}, first.Authors)
	assert.Equal(t, StyleMEDLINE, first.Style)
	assert.Equal(t, "line 1", first.Origin)

	second := parsed[1]
	assert.Equal(t, []publication.Author{{Last: "Lee", Initials: "K"}}, second.Authors)
	assert.Equal(t, "line 13", second.Origin)
}

func TestParseMEDLINE_EmptyRecord(t *testing.T) {
	parsed, errs := ParseMEDLINE("OWN - NLM\n", "x")
	assert.Empty(t, parsed)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "line 1")
}

func TestMEDLINE_Roundtrip(t *testing.T) {
	parsed, _ := ParseMEDLINE(medlineExport, "")
	require.NotEmpty(t, parsed)

	rebuilt := Reconstruct(parsed[0])
	again, err := Tokenize(rebuilt, StyleMEDLINE)
	require.NoError(t, err)
	assert.True(t, Equivalent(parsed[0], again), rebuilt)
}

func TestFindDuplicates(t *testing.T) {
	cits := []Tokenized{
		{Title: "Foo study", Identifiers: publication.Identifiers{PMID: "1"}},
		{Title: "Bar", Identifiers: publication.Identifiers{DOI: "10.1/x", PMID: "1"}},
		{Title: "Baz", Identifiers: publication.Identifiers{DOI: "10.1/x"}},
		{Title: "Unrelated"},
		{Title: "foo STUDY"},
		{Title: "Alone", Identifiers: publication.Identifiers{PMID: "9"}},
	}
	groups := FindDuplicates(cits, func(a, b string) bool { return foldSpace(a) == foldSpace(b) })
	assert.Equal(t, [][]int{{0, 1, 2, 4}}, groups)

	assert.Nil(t, FindDuplicates(cits[3:4], nil))
}
