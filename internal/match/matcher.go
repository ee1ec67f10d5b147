package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matsen/pubtrack/internal/publication"
	"github.com/matsen/pubtrack/internal/roster"
)

// Default thresholds on the 0-100 scale.
const (
	DefaultAcceptThreshold = 90
	DefaultFuzzyThreshold  = 75
)

// Status classifies a Result.
type Status string

const (
	StatusAccepted  Status = "accepted"
	StatusFuzzy     Status = "fuzzy"
	StatusAmbiguous Status = "ambiguous"
)

// Matched field names reported in Result.MatchedFields.
const (
	FieldLastName     = "last_name"
	FieldFirstName    = "first_name"
	FieldFirstInitial = "first_initial"
	FieldORCID        = "orcid"
	FieldAffiliation  = "affiliation"
)

// Result is one candidate roster author for one tokenized author.
type Result struct {
	TokenIndex    int                `json:"token_index"`
	Token         publication.Author `json:"token"`
	Candidate     *roster.Author     `json:"-"`
	CandidateID   string             `json:"candidate_id"`
	Score         int                `json:"score"`
	MatchedFields []string           `json:"matched_fields"`
	Variant       string             `json:"variant,omitempty"` // Roster name that scored best
	Status        Status             `json:"status"`
}

// AmbiguousMatch reports a token whose best score is shared by several
// roster authors.
type AmbiguousMatch struct {
	Token      publication.Author
	Candidates []string
	Score      int
}

func (e *AmbiguousMatch) Error() string {
	return fmt.Sprintf("ambiguous author %q: %s tied at %d", e.Token.FullName(), strings.Join(e.Candidates, ", "), e.Score)
}

// Matcher scores tokenized authors against a roster.
type Matcher struct {
	AcceptThreshold    int
	FuzzyThreshold     int
	RequireAffiliation bool
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithThresholds overrides the accept and fuzzy thresholds.
func WithThresholds(accept, fuzzy int) Option {
	return func(m *Matcher) {
		m.AcceptThreshold = accept
		m.FuzzyThreshold = fuzzy
	}
}

// WithRequireAffiliation demotes accepted matches to fuzzy when the token
// carries an affiliation that overlaps none of the candidate's.
func WithRequireAffiliation(require bool) Option {
	return func(m *Matcher) {
		m.RequireAffiliation = require
	}
}

// NewMatcher creates a Matcher with default thresholds.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{
		AcceptThreshold: DefaultAcceptThreshold,
		FuzzyThreshold:  DefaultFuzzyThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.FuzzyThreshold > m.AcceptThreshold {
		m.FuzzyThreshold = m.AcceptThreshold
	}
	return m
}

// Match scores every token against every roster author. Each token is
// scored independently, so the result does not depend on author order.
// Results are grouped by token index; within a token, by descending score
// then candidate id.
func (m *Matcher) Match(tokens []publication.Author, r *roster.Roster) []Result {
	var results []Result
	for i, tok := range tokens {
		results = append(results, m.matchToken(i, tok, r)...)
	}
	return results
}

func (m *Matcher) matchToken(idx int, tok publication.Author, r *roster.Roster) []Result {
	tn := NameFromAuthor(tok)
	var scored []Result
	for _, cand := range r.Authors {
		res := m.score(tok, tn, cand)
		if res.Score < m.FuzzyThreshold {
			continue
		}
		res.TokenIndex = idx
		res.Token = tok
		scored = append(scored, res)
	}
	if len(scored) == 0 {
		return nil
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].CandidateID < scored[j].CandidateID
	})

	// Candidates demoted by the affiliation check never win, but they do
	// not block a lower candidate that clears the threshold on its own.
	var eligible []Result
	for _, res := range scored {
		if res.Score >= m.AcceptThreshold && res.Status != StatusFuzzy {
			eligible = append(eligible, res)
		}
	}
	if len(eligible) == 0 {
		for i := range scored {
			scored[i].Status = StatusFuzzy
		}
		return scored
	}

	top := eligible[0]
	var tied []Result
	for _, res := range eligible {
		if res.Score == top.Score {
			tied = append(tied, res)
		}
	}
	if len(tied) == 1 {
		tied[0].Status = StatusAccepted
		return tied
	}
	for i := range tied {
		tied[i].Status = StatusAmbiguous
	}
	return tied
}

// score compares one token with one roster author across the canonical
// name and every variant, keeping the best.
func (m *Matcher) score(tok publication.Author, tn Name, cand *roster.Author) Result {
	res := Result{Candidate: cand, CandidateID: cand.ID}

	if tok.ORCID != "" && cand.ORCID != "" && publication.NormalizeORCID(tok.ORCID) == cand.ORCID {
		res.Score = 100
		res.MatchedFields = []string{FieldORCID}
		res.Variant = cand.CanonicalName()
	} else {
		for _, variant := range cand.Names() {
			vn := ParseName(variant)
			if s := NameScore(tn, vn); s > res.Score {
				res.Score = s
				res.Variant = variant
				res.MatchedFields = nameFields(tn, vn, m.AcceptThreshold)
			}
		}
	}

	if tok.Affiliation != "" && len(cand.Affiliations) > 0 {
		if affiliationOverlaps(tok.Affiliation, cand.Affiliations) {
			res.MatchedFields = append(res.MatchedFields, FieldAffiliation)
		} else if m.RequireAffiliation && res.Score >= m.AcceptThreshold {
			res.Status = StatusFuzzy
		}
	}
	return res
}

// nameFields lists which name parts agreed.
func nameFields(a, b Name, threshold int) []string {
	var fields []string
	if TokenSortRatio(a.Last, b.Last) >= threshold {
		fields = append(fields, FieldLastName)
	}
	if len(a.Given) > 0 && len(b.Given) > 0 && givenScore(a.Given, b.Given) == 100 {
		if len([]rune(a.Given[0])) > 1 && len([]rune(b.Given[0])) > 1 {
			fields = append(fields, FieldFirstName)
		} else {
			fields = append(fields, FieldFirstInitial)
		}
	}
	return fields
}

// affiliationOverlaps reports whether either normalized affiliation
// contains the other.
func affiliationOverlaps(aff string, known []string) bool {
	na := Normalize(aff)
	for _, k := range known {
		nk := Normalize(k)
		if nk != "" && (strings.Contains(na, nk) || strings.Contains(nk, na)) {
			return true
		}
	}
	return false
}

// AcceptedIDs returns the roster ids of accepted results in token order,
// without duplicates.
func AcceptedIDs(results []Result) []string {
	var ids []string
	for _, res := range results {
		if res.Status == StatusAccepted {
			ids = publication.UnionStrings(ids, []string{res.CandidateID})
		}
	}
	return ids
}

// Ambiguities collects one AmbiguousMatch per ambiguous token.
func Ambiguities(results []Result) []*AmbiguousMatch {
	var out []*AmbiguousMatch
	byToken := make(map[int]*AmbiguousMatch)
	for _, res := range results {
		if res.Status != StatusAmbiguous {
			continue
		}
		am, ok := byToken[res.TokenIndex]
		if !ok {
			am = &AmbiguousMatch{Token: res.Token, Score: res.Score}
			byToken[res.TokenIndex] = am
			out = append(out, am)
		}
		am.Candidates = append(am.Candidates, res.CandidateID)
	}
	return out
}

// WithStatus filters results by status.
func WithStatus(results []Result, status Status) []Result {
	var out []Result
	for _, res := range results {
		if res.Status == status {
			out = append(out, res)
		}
	}
	return out
}
