package match

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
		{
			ID: "jsmith", FirstName: "John", LastName: "Smith",
			Variants:     []string{"J. A. Smith", "Smith JA", "Smith, John A."},
			Affiliations: []string{"University of Somewhere"},
			ORCID:        "0000-0002-1825-0097",
		},
		{ID: "adoe", FirstName: "Alice", LastName: "Doe"},
		{ID: "klee", FirstName: "Kim", LastName: "Lee"},
		{ID: "kwlee", FirstName: "Karen", LastName: "Lee"},
	}, nil)
	require.NoError(t, err)
	return r
}

func TestMatch_Accepted(t *testing.T) {
	r := testRoster(t)
	results := NewMatcher().Match([]publication.Author{{Last: "Smith", Initials: "J"}}, r)

	require.Len(t, results, 1)
	got := results[0]
	assert.Equal(t, "jsmith", got.CandidateID)
	assert.Same(t, r.Author("jsmith"), got.Candidate)
	assert.Equal(t, 100, got.Score)
	assert.Equal(t, StatusAccepted, got.Status)
	assert.Equal(t, []string{FieldLastName, FieldFirstInitial}, got.MatchedFields)
	assert.Equal(t, "John Smith", got.Variant)
}

func TestMatch_VariantPairsScoreAboveThreshold(t *testing.T) {
	r := testRoster(t)
	for _, a := range r.Authors {
		names := a.Names()
		for _, u := range names {
			for _, v := range names {
				score := NameScore(ParseName(u), ParseName(v))
				assert.GreaterOrEqual(t, score, DefaultAcceptThreshold, "%s: %q vs %q", a.ID, u, v)
			}
		}
	}
}

func TestMatch_MiddleInitialMismatch(t *testing.T) {
	r := testRoster(t)
	results := NewMatcher().Match([]publication.Author{{Last: "Smith", Initials: "JB"}}, r)
	assert.Equal(t, []string{"jsmith"}, AcceptedIDs(results))
}

func TestMatch_AmbiguousTie(t *testing.T) {
	r := testRoster(t)
	results := NewMatcher().Match([]publication.Author{{Last: "Lee", Initials: "K"}}, r)

	require.Len(t, results, 2)
	for _, res := range results {
		assert.Equal(t, StatusAmbiguous, res.Status)
	}
	assert.Empty(t, AcceptedIDs(results))

	ambs := Ambiguities(results)
	require.Len(t, ambs, 1)
	assert.Equal(t, []string{"klee", "kwlee"}, ambs[0].Candidates)
	assert.Contains(t, ambs[0].Error(), "klee, kwlee")
}

func TestMatch_HighestWins(t *testing.T) {
	r := testRoster(t)
	results := NewMatcher().Match([]publication.Author{{First: "Kim", Last: "Lee"}}, r)

	accepted := WithStatus(results, StatusAccepted)
	require.Len(t, accepted, 1)
	assert.Equal(t, "klee", accepted[0].CandidateID)
	assert.Empty(t, WithStatus(results, StatusAmbiguous))
}

func TestMatch_NoRosterAuthor(t *testing.T) {
	r := testRoster(t)
	results := NewMatcher().Match([]publication.Author{{Last: "Zzyzx", Initials: "Q"}}, r)
	assert.Empty(t, results)
}

func TestMatch_Fuzzy(t *testing.T) {
	r := testRoster(t)
	results := NewMatcher().Match([]publication.Author{{Last: "Smith"}}, r)

	require.Len(t, results, 1)
	assert.Equal(t, StatusFuzzy, results[0].Status)
	assert.Equal(t, 80, results[0].Score)
	assert.Empty(t, AcceptedIDs(results))
}

func TestMatch_OrderIndependent(t *testing.T) {
	r := testRoster(t)
	m := NewMatcher()
	a := publication.Author{Last: "Smith", Initials: "J"}
	b := publication.Author{Last: "Doe", Initials: "A"}

	forward := AcceptedIDs(m.Match([]publication.Author{a, b}, r))
	backward := AcceptedIDs(m.Match([]publication.Author{b, a}, r))
	assert.ElementsMatch(t, forward, backward)
	assert.ElementsMatch(t, []string{"jsmith", "adoe"}, forward)
}

func TestMatch_OnlyReferencesGivenTokens(t *testing.T) {
	r := testRoster(t)
	tokens := []publication.Author{{Last: "Doe", Initials: "A"}}
	for _, res := range NewMatcher().Match(tokens, r) {
		assert.Equal(t, 0, res.TokenIndex)
		assert.Equal(t, tokens[0], res.Token)
	}
	assert.Empty(t, NewMatcher().Match(nil, r))
}

func TestMatch_ORCID(t *testing.T) {
	r := testRoster(t)
	results := NewMatcher().Match([]publication.Author{{Last: "Smyth", ORCID: "https://orcid.org/0000-0002-1825-0097"}}, r)

	require.Len(t, results, 1)
	assert.Equal(t, 100, results[0].Score)
	assert.Equal(t, []string{FieldORCID}, results[0].MatchedFields)
}

func TestMatch_Affiliation(t *testing.T) {
	r := testRoster(t)
	tok := publication.Author{First: "John", Last: "Smith", Affiliation: "Dept of Biology, University of Somewhere"}

	results := NewMatcher().Match([]publication.Author{tok}, r)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].MatchedFields, FieldAffiliation)

	tok.Affiliation = "Other Institute"
	results = NewMatcher(WithRequireAffiliation(true)).Match([]publication.Author{tok}, r)
	require.Len(t, results, 1)
	assert.Equal(t, StatusFuzzy, results[0].Status)

	results = NewMatcher().Match([]publication.Author{tok}, r)
	assert.Equal(t, StatusAccepted, results[0].Status)
}

func TestMatch_AffiliationPicksLowerCandidate(t *testing.T) {
	r, err := roster.New([]*roster.Author{
		{ID: "john-smith", FirstName: "John", LastName: "Smith", Affiliations: []string{"University of Kentucky"}},
		{ID: "jon-smith", FirstName: "Jon", LastName: "Smith", Affiliations: []string{"MIT"}},
	}, nil)
	require.NoError(t, err)
	tok := publication.Author{First: "John", Last: "Smith", Affiliation: "MIT"}

	results := NewMatcher(WithRequireAffiliation(true)).Match([]publication.Author{tok}, r)
	require.Len(t, results, 1)
	assert.Equal(t, "jon-smith", results[0].CandidateID)
	assert.Equal(t, StatusAccepted, results[0].Status)
	assert.Contains(t, results[0].MatchedFields, FieldAffiliation)
	assert.Equal(t, []string{"jon-smith"}, AcceptedIDs(results))
}

func TestNewMatcher_Thresholds(t *testing.T) {
	m := NewMatcher(WithThresholds(95, 99))
	assert.Equal(t, 95, m.AcceptThreshold)
	assert.Equal(t, 95, m.FuzzyThreshold, "fuzzy threshold is capped at the accept threshold")
}
