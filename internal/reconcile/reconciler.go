package reconcile

import (
	"slices"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/matsen/pubtrack/internal/citation"
	"github.com/matsen/pubtrack/internal/match"
	"github.com/matsen/pubtrack/internal/publication"
	"github.com/matsen/pubtrack/internal/roster"
	"github.com/matsen/pubtrack/internal/source"
)

// Defaults for the title threshold and the tolerated year difference
// between records sharing an identifier.
const (
	DefaultTitleThreshold = 90
	DefaultYearTolerance  = 1
)

// Source types for citation-derived provenance.
const (
	SourceCitation = "citation"
	SourceMEDLINE  = "medline"
	SourceAnchor   = "anchor"
)

// Reconciler owns the publication set for one run. It is not safe for
// concurrent use.
type Reconciler struct {
	roster         *roster.Roster
	titleThreshold int
	yearTolerance  int
	log            *zap.Logger

	records []*publication.Publication
	byID    map[string]*publication.Publication
	byDOI   map[string]*publication.Publication
	byPMID  map[string]*publication.Publication
	byPMCID map[string]*publication.Publication

	anchors   map[string]bool
	known     []*publication.Publication
	created   []*publication.Publication
	conflicts []*DuplicateConflict
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used for conflict warnings.
func WithLogger(l *zap.Logger) Option {
	return func(rc *Reconciler) {
		if l != nil {
			rc.log = l
		}
	}
}

// WithTitleThreshold sets the token-sort ratio two titles need to be
// considered the same.
func WithTitleThreshold(t int) Option {
	return func(rc *Reconciler) {
		if t > 0 {
			rc.titleThreshold = t
		}
	}
}

// WithYearTolerance sets how many years records sharing an identifier may
// differ by before they conflict.
func WithYearTolerance(years int) Option {
	return func(rc *Reconciler) {
		if years >= 0 {
			rc.yearTolerance = years
		}
	}
}

// New creates a Reconciler seeded with anchors, the publications saved by
// a previous run. Anchors are copied. A nil roster disables project
// association.
func New(r *roster.Roster, anchors []publication.Publication, opts ...Option) (*Reconciler, error) {
	rc := &Reconciler{
		roster:         r,
		titleThreshold: DefaultTitleThreshold,
		yearTolerance:  DefaultYearTolerance,
		log:            zap.NewNop(),
		byID:           make(map[string]*publication.Publication),
		byDOI:          make(map[string]*publication.Publication),
		byPMID:         make(map[string]*publication.Publication),
		byPMCID:        make(map[string]*publication.Publication),
		anchors:        make(map[string]bool),
	}
	for _, opt := range opts {
		opt(rc)
	}

	for i := range anchors {
		p := anchors[i].Clone()
		p.Identifiers = p.Identifiers.Normalized()
		if p.ID == "" {
			return nil, eris.Wrapf(ErrInvalidAnchor, "anchor %d has no id", i+1)
		}
		if _, ok := rc.byID[p.ID]; ok {
			return nil, eris.Wrapf(ErrInvalidAnchor, "id %s", p.ID)
		}
		if other := rc.lookupIdentifiers(p.Identifiers); other != nil {
			return nil, eris.Wrapf(ErrInvalidAnchor, "%s and %s share an identifier", other.ID, p.ID)
		}
		rc.add(p)
		rc.anchors[p.ID] = true
	}
	return rc, nil
}

// Reconcile folds one tokenized citation, optionally paired with the
// external record fetched for it, into the publication set. matches are the
// Identity Matcher results for tok.Authors; only accepted results are
// associated.
func (rc *Reconciler) Reconcile(tok citation.Tokenized, ext *source.Record, matches []match.Result) (Outcome, error) {
	cand := rc.candidate(tok, ext, matches)
	if cand.Title == "" && cand.Identifiers.IsZero() {
		return Outcome{}, ErrNoKey
	}

	existing, by := rc.lookup(cand)
	if existing == nil {
		cand.ID = publication.UniqueID(cand, func(id string) bool {
			_, ok := rc.byID[id]
			return ok
		})
		rc.add(cand)
		rc.created = append(rc.created, cand)
		rc.log.Debug("created publication",
			zap.String("id", cand.ID),
			zap.Strings("matched_authors", cand.MatchedAuthors))
		return Outcome{Record: cand, Created: true}, nil
	}

	out := Outcome{Record: existing, MatchedBy: by, Known: rc.anchors[existing.ID]}
	if by != MatchedByTitle {
		out.Conflict = rc.checkConflict(existing, cand, by, tok.Origin)
	}
	if !out.Known {
		if dc := rc.dropForeignIdentifiers(existing, cand, tok.Origin); out.Conflict == nil {
			out.Conflict = dc
		}
	}
	rc.merge(existing, cand, out.Known, out.Conflict != nil)
	if out.Known && !slices.Contains(rc.known, existing) {
		rc.known = append(rc.known, existing)
	}
	rc.log.Debug("merged publication",
		zap.String("id", existing.ID),
		zap.String("matched_by", by),
		zap.Bool("known", out.Known))
	return out, nil
}

// candidate builds the incoming record. The external record is canonical
// for bibliographic fields when present.
func (rc *Reconciler) candidate(tok citation.Tokenized, ext *source.Record, matches []match.Result) *publication.Publication {
	c := &publication.Publication{
		Identifiers:   tok.Identifiers.Normalized(),
		Title:         tok.Title,
		Authors:       slices.Clone(tok.Authors),
		Venue:         tok.Venue,
		Published:     publication.PublicationDate{Year: tok.Year},
		ReferenceLine: tok.ReferenceLine,
		Sources:       []publication.Source{sourceOf(tok)},
	}
	if ext != nil {
		if ext.Title != "" {
			c.Title = ext.Title
		}
		if ext.Published.Year != 0 {
			c.Published = ext.Published
		}
		c.Venue = nonEmpty(ext.Journal, c.Venue)
		c.Authors = mergeAuthors(c.Authors, ext.Authors)
		if conflicts := c.Identifiers.Fill(ext.Identifiers.Normalized()); len(conflicts) > 0 {
			rc.log.Debug("external record disagrees on identifiers",
				zap.String("origin", tok.Origin),
				zap.Strings("fields", conflicts))
		}
		if src := (publication.Source{Type: ext.Source, ID: ext.ID}); src != c.Sources[0] {
			c.Sources = append(c.Sources, src)
		}
	}
	c.MatchedAuthors = match.AcceptedIDs(matches)
	c.Projects = rc.projectsFor(c.MatchedAuthors, c.Year())
	return c
}

func sourceOf(tok citation.Tokenized) publication.Source {
	s := publication.Source{Type: SourceCitation, ID: tok.Source, Origin: tok.Origin}
	switch {
	case tok.Style == citation.StyleMEDLINE:
		s.Type = SourceMEDLINE
	case tok.Source == source.TypeRecords || tok.Source == source.TypeCrossref:
		s.Type, s.ID, s.Origin = tok.Source, tok.Origin, ""
	}
	return s
}

// lookup finds the record cand duplicates: identifiers first, then title,
// year and a shared matched author.
func (rc *Reconciler) lookup(cand *publication.Publication) (*publication.Publication, string) {
	if cand.DOI != "" {
		if p := rc.byDOI[cand.DOI]; p != nil {
			return p, MatchedByDOI
		}
	}
	if cand.PMID != "" {
		if p := rc.byPMID[cand.PMID]; p != nil {
			return p, MatchedByPMID
		}
	}
	if cand.PMCID != "" {
		if p := rc.byPMCID[cand.PMCID]; p != nil {
			return p, MatchedByPMCID
		}
	}
	if p := rc.findByTitle(cand); p != nil {
		return p, MatchedByTitle
	}
	return nil, ""
}

func (rc *Reconciler) lookupIdentifiers(ids publication.Identifiers) *publication.Publication {
	p, by := rc.lookup(&publication.Publication{Identifiers: ids})
	if by == MatchedByTitle {
		return nil
	}
	return p
}

func (rc *Reconciler) findByTitle(cand *publication.Publication) *publication.Publication {
	if cand.Title == "" || cand.Year() == 0 || len(cand.MatchedAuthors) == 0 {
		return nil
	}
	for _, p := range rc.records {
		if p.Year() != cand.Year() || conflictingIdentifiers(p.Identifiers, cand.Identifiers) {
			continue
		}
		if !slices.ContainsFunc(cand.MatchedAuthors, p.HasMatchedAuthor) {
			continue
		}
		if match.TitlesMatch(p.Title, cand.Title, rc.titleThreshold) {
			return p
		}
	}
	return nil
}

// conflictingIdentifiers reports whether a and b carry different values
// for the same kind of identifier.
func conflictingIdentifiers(a, b publication.Identifiers) bool {
	differ := func(x, y string) bool { return x != "" && y != "" && x != y }
	return differ(a.DOI, b.DOI) || differ(a.PMID, b.PMID) || differ(a.PMCID, b.PMCID)
}

// checkConflict compares records that share an identifier and records a
// DuplicateConflict when they disagree.
func (rc *Reconciler) checkConflict(existing, cand *publication.Publication, by, origin string) *DuplicateConflict {
	var fields []FieldConflict
	if existing.Title != "" && cand.Title != "" && !match.TitlesMatch(existing.Title, cand.Title, rc.titleThreshold) {
		fields = append(fields, FieldConflict{"title", existing.Title, cand.Title})
	}
	if ey, cy := existing.Year(), cand.Year(); ey != 0 && cy != 0 && abs(ey-cy) > rc.yearTolerance {
		fields = append(fields, FieldConflict{"year", strconv.Itoa(ey), strconv.Itoa(cy)})
	}
	add := func(name, x, y string) {
		if x != "" && y != "" && x != y {
			fields = append(fields, FieldConflict{name, x, y})
		}
	}
	add(MatchedByDOI, existing.DOI, cand.DOI)
	add(MatchedByPMID, existing.PMID, cand.PMID)
	add(MatchedByPMCID, existing.PMCID, cand.PMCID)
	if len(fields) == 0 {
		return nil
	}

	key := by + ":"
	switch by {
	case MatchedByDOI:
		key += cand.DOI
	case MatchedByPMID:
		key += cand.PMID
	case MatchedByPMCID:
		key += cand.PMCID
	}
	dc := &DuplicateConflict{Key: key, ExistingID: existing.ID, Origin: origin, Fields: fields}
	rc.conflicts = append(rc.conflicts, dc)
	rc.log.Warn("duplicate conflict, keeping existing record",
		zap.String("key", key),
		zap.String("existing", existing.ID),
		zap.String("origin", origin),
		zap.Error(dc))
	return dc
}

// dropForeignIdentifiers clears from cand every identifier already owned by
// a record other than existing, so that a merge never gives two records the
// same identifier. Each clash is recorded as a DuplicateConflict against the
// owner; the first one is returned.
func (rc *Reconciler) dropForeignIdentifiers(existing, cand *publication.Publication, origin string) *DuplicateConflict {
	slots := []struct {
		name  string
		owner map[string]*publication.Publication
		value *string
	}{
		{MatchedByDOI, rc.byDOI, &cand.DOI},
		{MatchedByPMID, rc.byPMID, &cand.PMID},
		{MatchedByPMCID, rc.byPMCID, &cand.PMCID},
	}
	var first *DuplicateConflict
	for _, s := range slots {
		if *s.value == "" {
			continue
		}
		owner := s.owner[*s.value]
		if owner == nil || owner == existing {
			continue
		}
		dc := &DuplicateConflict{
			Key:        s.name + ":" + *s.value,
			ExistingID: owner.ID,
			Origin:     origin,
			Fields:     []FieldConflict{{"id", owner.ID, existing.ID}},
		}
		rc.conflicts = append(rc.conflicts, dc)
		rc.log.Warn("identifier already owned by another record, not merging it",
			zap.String("key", dc.Key),
			zap.String("owner", owner.ID),
			zap.String("record", existing.ID),
			zap.String("origin", origin))
		*s.value = ""
		if first == nil {
			first = dc
		}
	}
	return first
}

// merge unions cand into existing. Anchors and conflicting pairs keep their
// bibliographic fields; both still gain matched authors and projects.
func (rc *Reconciler) merge(existing, cand *publication.Publication, anchor, conflicted bool) {
	if !anchor {
		existing.Identifiers.Fill(cand.Identifiers)
		if !conflicted {
			existing.Title = nonEmpty(existing.Title, cand.Title)
			existing.Published = mergePublicationDate(existing.Published, cand.Published)
			existing.Authors = mergeAuthors(existing.Authors, cand.Authors)
			existing.Venue = nonEmpty(existing.Venue, cand.Venue)
		}
		existing.ReferenceLine = nonEmpty(existing.ReferenceLine, cand.ReferenceLine)
		existing.Sources = append(existing.Sources, cand.Sources...)
		rc.index(existing)
	}
	existing.AddMatchedAuthors(cand.MatchedAuthors...)
	existing.AddProjects(rc.projectsFor(cand.MatchedAuthors, existing.Year())...)
}

func (rc *Reconciler) add(p *publication.Publication) {
	rc.records = append(rc.records, p)
	rc.byID[p.ID] = p
	rc.index(p)
}

// index registers p's identifiers. The first record to claim an identifier
// keeps it.
func (rc *Reconciler) index(p *publication.Publication) {
	claim := func(m map[string]*publication.Publication, key string) {
		if key == "" {
			return
		}
		if _, ok := m[key]; !ok {
			m[key] = p
		}
	}
	claim(rc.byDOI, p.DOI)
	claim(rc.byPMID, p.PMID)
	claim(rc.byPMCID, p.PMCID)
}

// projectsFor returns the projects of authorIDs that accept a publication
// from year.
func (rc *Reconciler) projectsFor(authorIDs []string, year int) []string {
	if rc.roster == nil {
		return nil
	}
	var ids []string
	for _, a := range authorIDs {
		for _, pid := range rc.roster.ProjectsFor(a) {
			if p := rc.roster.Project(pid); p != nil && !p.Accepts(year) {
				continue
			}
			ids = publication.UnionStrings(ids, []string{pid})
		}
	}
	return ids
}

// Publications returns every record, anchors first, in creation order.
func (rc *Reconciler) Publications() []*publication.Publication {
	return rc.records
}

// New returns the records created during this run.
func (rc *Reconciler) New() []*publication.Publication {
	return rc.created
}

// Known returns the saved-set records matched during this run.
func (rc *Reconciler) Known() []*publication.Publication {
	return rc.known
}

// Conflicts returns every DuplicateConflict recorded so far.
func (rc *Reconciler) Conflicts() []*DuplicateConflict {
	return rc.conflicts
}

// IsAnchor reports whether id came from the saved set.
func (rc *Reconciler) IsAnchor(id string) bool {
	return rc.anchors[id]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
