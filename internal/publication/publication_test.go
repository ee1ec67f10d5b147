package publication

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"10.1234/ABC", "10.1234/abc"},
		{"https://doi.org/10.1234/abc", "10.1234/abc"},
		{"https://dx.doi.org/10.1234/abc.", "10.1234/abc"},
		{"doi:10.1234/abc", "10.1234/abc"},
		{"  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDOI(tt.in))
		})
	}
}

func TestNormalizePMIDAndPMCID(t *testing.T) {
	assert.Equal(t, "12345678", NormalizePMID("PMID: 12345678"))
	assert.Equal(t, "", NormalizePMID("abc"))
	assert.Equal(t, "PMC123", NormalizePMCID("pmc123"))
	assert.Equal(t, "PMC42", NormalizePMCID("42"))
	assert.Equal(t, "", NormalizePMCID("PMCX"))
}

func TestORCID(t *testing.T) {
	assert.Equal(t, "0000-0002-1825-009X", NormalizeORCID("https://orcid.org/0000-0002-1825-009x"))
	assert.True(t, ValidORCID("0000-0002-1825-009X"))
	assert.False(t, ValidORCID("1234"))
}

func TestIdentifiersFill(t *testing.T) {
	ids := Identifiers{DOI: "10.1/abc"}
	conflicts := ids.Fill(Identifiers{DOI: "10.1/other", PMID: "99"})

	assert.Equal(t, "10.1/abc", ids.DOI, "existing DOI must not be overwritten")
	assert.Equal(t, "99", ids.PMID)
	assert.Equal(t, []string{"doi"}, conflicts)
}

func TestAuthorGivenInitials(t *testing.T) {
	assert.Equal(t, "JA", Author{First: "John", Middle: "A.", Last: "Smith"}.GivenInitials())
	assert.Equal(t, "JA", Author{Initials: "ja", Last: "Smith"}.GivenInitials())
	assert.Equal(t, "", Author{Last: "Smith"}.GivenInitials())
}

func TestAuthorSameName(t *testing.T) {
	a := Author{First: "John", Last: "Smith"}
	assert.True(t, a.SameName(Author{Initials: "JA", Last: "smith"}))
	assert.False(t, a.SameName(Author{Initials: "K", Last: "Smith"}))
	assert.False(t, a.SameName(Author{First: "John", Last: "Smyth"}))
}

func TestUnionStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, UnionStrings([]string{"a", "b"}, []string{"b", "c", ""}))
	assert.Nil(t, UnionStrings(nil, nil))
}

func TestUniqueID(t *testing.T) {
	p := &Publication{Title: "Effects", Authors: []Author{{Last: "O'Neil"}}, Published: PublicationDate{Year: 2019}}
	assert.Equal(t, "ONeil2019", BaseID(p))

	taken := map[string]bool{"ONeil2019": true, "ONeil2019-2": true}
	assert.Equal(t, "ONeil2019-3", UniqueID(p, func(id string) bool { return taken[id] }))

	untitled := &Publication{}
	assert.Equal(t, "pub", BaseID(untitled))
}

func TestSummary(t *testing.T) {
	p := &Publication{
		Title:     "Effects of X on Y",
		Authors:   []Author{{Last: "Smith"}, {Last: "Doe"}},
		Published: PublicationDate{Year: 2019},
	}
	assert.Equal(t, "Smith et al. (2019) Effects of X on Y", p.Summary())
}
