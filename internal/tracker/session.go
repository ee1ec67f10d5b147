// Package tracker runs one tracking pass: it reads citation sources and
// structured records, matches their authors against the roster, folds them
// into the saved publication set and collects everything a human should
// review.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/matsen/pubtrack/internal/citation"
	"github.com/matsen/pubtrack/internal/dictionary"
	"github.com/matsen/pubtrack/internal/document"
	"github.com/matsen/pubtrack/internal/match"
	"github.com/matsen/pubtrack/internal/publication"
	"github.com/matsen/pubtrack/internal/reconcile"
	"github.com/matsen/pubtrack/internal/report"
	"github.com/matsen/pubtrack/internal/roster"
	"github.com/matsen/pubtrack/internal/source"
)

// Session holds the state of one run. It is not safe for concurrent use.
type Session struct {
	RunID string

	roster  *roster.Roster
	matcher *match.Matcher
	rc      *reconcile.Reconciler

	lookup      Lookuper
	concurrency int

	titleThreshold int
	reconcileOpts  []reconcile.Option

	log *zap.Logger
	now func() time.Time

	summary report.Summary
	review  []report.ReviewItem
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. It is passed on to the reconciler.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMatcher replaces the default identity matcher.
func WithMatcher(m *match.Matcher) Option {
	return func(s *Session) {
		if m != nil {
			s.matcher = m
		}
	}
}

// WithReconcileOptions passes options through to the reconciler.
func WithReconcileOptions(opts ...reconcile.Option) Option {
	return func(s *Session) {
		s.reconcileOpts = append(s.reconcileOpts, opts...)
	}
}

// WithTitleThreshold sets the title similarity used to group duplicate
// citations within an input.
func WithTitleThreshold(t int) Option {
	return func(s *Session) {
		if t > 0 {
			s.titleThreshold = t
		}
	}
}

// WithLookup enables external lookups of citations before reconciling,
// running at most concurrency requests at once.
func WithLookup(l Lookuper, concurrency int) Option {
	return func(s *Session) {
		s.lookup = l
		s.concurrency = concurrency
	}
}

// WithClock overrides the time source for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New starts a session over roster r with anchors as the saved set.
func New(r *roster.Roster, anchors []publication.Publication, opts ...Option) (*Session, error) {
	if r == nil {
		return nil, roster.ErrNoRoster
	}
	s := &Session{
		RunID:          uuid.NewString(),
		roster:         r,
		matcher:        match.NewMatcher(),
		titleThreshold: reconcile.DefaultTitleThreshold,
		log:            zap.NewNop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("run_id", s.RunID))

	rc, err := reconcile.New(r, anchors, append([]reconcile.Option{reconcile.WithLogger(s.log)}, s.reconcileOpts...)...)
	if err != nil {
		return nil, err
	}
	s.rc = rc
	return s, nil
}

// Tokenize reads a citation source and tokenizes each citation. MEDLINE
// exports are parsed per record; text and PDF sources per reference line.
func Tokenize(path string) ([]citation.Tokenized, []error, error) {
	doc, err := document.Read(path)
	if err != nil {
		return nil, nil, err
	}
	if doc.Kind == document.KindMEDLINE {
		toks, errs := citation.ParseMEDLINE(doc.Text, doc.Path)
		return toks, errs, nil
	}

	var (
		toks []citation.Tokenized
		errs []error
	)
	for i, line := range doc.Lines() {
		tok, err := citation.Parse(citation.RawCitation{
			Source: doc.Path,
			Text:   line,
			Origin: fmt.Sprintf("ref %d", i+1),
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		toks = append(toks, tok)
	}
	return toks, errs, nil
}

// TrackFile tokenizes a citation source and tracks its citations.
// Unparseable lines go to the review list.
func (s *Session) TrackFile(ctx context.Context, path string) error {
	toks, errs, err := Tokenize(path)
	if err != nil {
		return err
	}
	s.log.Info("tokenized citation source",
		zap.String("path", path),
		zap.Int("citations", len(toks)),
		zap.Int("failed", len(errs)))

	s.summary.Inputs += len(errs)
	for _, err := range errs {
		s.reviewTokenizeError(path, err)
	}
	return s.TrackCitations(ctx, toks)
}

// TrackCitations folds tokenized citations into the publication set. With
// a lookup configured, external records are fetched first and take
// precedence for bibliographic fields.
func (s *Session) TrackCitations(ctx context.Context, toks []citation.Tokenized) error {
	s.summary.Inputs += len(toks)
	s.summary.Tokenized += len(toks)
	s.reviewDuplicates(toks)

	ext := make([]*source.Record, len(toks))
	if s.lookup != nil {
		var lookupErrs []error
		var err error
		ext, lookupErrs, err = Prefetch(ctx, s.lookup, toks, s.concurrency, s.log)
		if err != nil {
			return err
		}
		for i, lerr := range lookupErrs {
			if lerr != nil {
				s.addReview(report.ReviewItem{
					Reason:   report.ReasonLookupFailed,
					Source:   toks[i].Source,
					Origin:   toks[i].Origin,
					Citation: toks[i].ReferenceLine,
					Detail:   lerr.Error(),
				})
			}
		}
	}

	for i, tok := range toks {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "tracking citations")
		}
		s.track(tok, ext[i])
	}
	return nil
}

// TrackRecordsFile reads a generic or Crossref records file and tracks
// each record.
func (s *Session) TrackRecordsFile(ctx context.Context, path string) error {
	recs, errs := source.ReadFile(path)
	s.summary.Inputs += len(errs)
	s.summary.Failed += len(errs)
	for _, err := range errs {
		s.addReview(report.ReviewItem{Reason: report.ReasonParse, Source: path, Detail: err.Error()})
	}
	s.log.Info("read records",
		zap.String("path", path),
		zap.Int("records", len(recs)),
		zap.Int("failed", len(errs)))
	return s.TrackRecords(ctx, recs)
}

// TrackRecords folds structured records into the publication set. A
// record is its own external record, so no lookup is made.
func (s *Session) TrackRecords(ctx context.Context, recs []source.Record) error {
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "tracking records")
		}
		s.summary.Inputs++
		s.summary.Tokenized++
		s.track(rec.Tokenized(), &rec)
	}
	return nil
}

// track matches and reconciles one citation.
func (s *Session) track(tok citation.Tokenized, ext *source.Record) {
	authors := tok.Authors
	if ext != nil && len(ext.Authors) >= len(authors) {
		authors = ext.Authors
	}
	matches := s.matcher.Match(authors, s.roster)
	for _, res := range match.WithStatus(matches, match.StatusAccepted) {
		res.Candidate.RecordVariant(res.Token.FullName())
	}

	out, err := s.rc.Reconcile(tok, ext, matches)
	if err != nil {
		s.summary.Failed++
		if !errors.Is(err, reconcile.ErrNoKey) {
			s.log.Warn("reconcile failed", zap.String("origin", tok.Origin), zap.Error(err))
		}
		s.addReview(report.ReviewItem{
			Reason:   report.ReasonParse,
			Source:   tok.Source,
			Origin:   tok.Origin,
			Citation: tok.ReferenceLine,
			Detail:   err.Error(),
		})
		return
	}
	if !out.Created {
		s.summary.Merged++
	}
	if out.Conflict != nil {
		s.addReview(report.ReviewItem{
			Reason:        report.ReasonDuplicateConflict,
			Source:        tok.Source,
			Origin:        tok.Origin,
			PublicationID: out.Record.ID,
			Citation:      tok.ReferenceLine,
			Detail:        out.Conflict.Error(),
		})
	}
	s.reviewMatches(tok, out.Record.ID, matches)
}

// Publications returns the full publication set, saved records first.
func (s *Session) Publications() []*publication.Publication {
	return s.rc.Publications()
}

// New returns the publications created during the run.
func (s *Session) New() []*publication.Publication {
	return s.rc.New()
}

// Review returns the review items collected so far.
func (s *Session) Review() []report.ReviewItem {
	return s.review
}

// Report assembles the run report.
func (s *Session) Report() *report.Report {
	sum := s.summary
	sum.Created = len(s.rc.New())
	sum.Known = len(s.rc.Known())
	sum.Conflicts = len(s.rc.Conflicts())
	sum.NeedReview = len(s.review)

	r := &report.Report{
		RunID:             s.RunID,
		GeneratedAt:       s.now().UTC(),
		Summary:           sum,
		NewPublications:   s.rc.New(),
		KnownPublications: s.rc.Known(),
		Review:            s.review,
	}
	r.SetViews(dictionary.Build(s.rc.Publications(), s.roster))

	s.log.Info("run complete",
		zap.Int("inputs", sum.Inputs),
		zap.Int("created", sum.Created),
		zap.Int("known", sum.Known),
		zap.Int("conflicts", sum.Conflicts),
		zap.Int("need_review", sum.NeedReview))
	return r
}

func (s *Session) addReview(it report.ReviewItem) {
	s.review = append(s.review, it)
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ",")
}
