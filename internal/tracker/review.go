package tracker

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/matsen/pubtrack/internal/citation"
	"github.com/matsen/pubtrack/internal/match"
	"github.com/matsen/pubtrack/internal/report"
)

func (s *Session) reviewTokenizeError(path string, err error) {
	s.summary.Failed++
	it := report.ReviewItem{
		Reason: citation.ReasonCode(err),
		Source: path,
		Detail: err.Error(),
	}
	var pe *citation.ParseError
	var sde *citation.StyleDetectionError
	switch {
	case errors.As(err, &pe):
		it.Origin, it.Citation = pe.Origin, pe.Text
	case errors.As(err, &sde):
		it.Origin, it.Citation = sde.Origin, sde.Text
	}
	s.log.Debug("skipped citation",
		zap.String("reason", it.Reason),
		zap.String("origin", it.Origin),
		zap.Error(err))
	s.addReview(it)
}

// reviewDuplicates flags every citation that repeats an earlier one in the
// same batch. The repeats are still reconciled and fold into one record.
func (s *Session) reviewDuplicates(toks []citation.Tokenized) {
	same := func(a, b string) bool { return match.TitlesMatch(a, b, s.titleThreshold) }
	for _, group := range citation.FindDuplicates(toks, same) {
		first := toks[group[0]]
		for _, i := range group[1:] {
			s.addReview(report.ReviewItem{
				Reason:   report.ReasonDuplicateCitation,
				Source:   toks[i].Source,
				Origin:   toks[i].Origin,
				Citation: toks[i].ReferenceLine,
				Detail:   fmt.Sprintf("duplicate of %s", first.Origin),
			})
		}
	}
}

// reviewMatches flags ambiguous and fuzzy author matches, and citations in
// which no roster author was found at all.
func (s *Session) reviewMatches(tok citation.Tokenized, pubID string, matches []match.Result) {
	item := func(reason, detail string, candidates []string) report.ReviewItem {
		return report.ReviewItem{
			Reason:        reason,
			Source:        tok.Source,
			Origin:        tok.Origin,
			PublicationID: pubID,
			Citation:      tok.ReferenceLine,
			Detail:        detail,
			Candidates:    joinIDs(candidates),
		}
	}

	for _, am := range match.Ambiguities(matches) {
		s.addReview(item(report.ReasonAmbiguousAuthor, am.Error(), am.Candidates))
	}

	fuzzy := match.WithStatus(matches, match.StatusFuzzy)
	for start := 0; start < len(fuzzy); {
		end := start
		var ids []string
		for end < len(fuzzy) && fuzzy[end].TokenIndex == fuzzy[start].TokenIndex {
			ids = append(ids, fuzzy[end].CandidateID)
			end++
		}
		detail := fmt.Sprintf("author %q best score %d", fuzzy[start].Token.FullName(), fuzzy[start].Score)
		s.addReview(item(report.ReasonFuzzyAuthor, detail, ids))
		start = end
	}

	if len(matches) == 0 {
		s.addReview(item(report.ReasonNoRosterAuthor, "no author matched the roster", nil))
	}
}
