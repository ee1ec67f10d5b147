// Package roster holds the researchers and projects publications are
// tracked for. A roster is loaded once per run and is read-only apart from
// matched-variant accumulation.
package roster

import (
	"errors"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/matsen/pubtrack/internal/publication"
)

// ErrNoRoster is returned when the roster file does not exist.
var ErrNoRoster = errors.New("roster not found")

// Roster is the set of tracked authors and projects.
type Roster struct {
	Authors  []*Author  `yaml:"authors" json:"authors"`
	Projects []*Project `yaml:"projects,omitempty" json:"projects,omitempty"`

	authorByID  map[string]*Author
	projectByID map[string]*Project
}

// Author is one tracked researcher.
type Author struct {
	ID           string   `yaml:"id" json:"id"`
	FirstName    string   `yaml:"first_name" json:"first_name"`
	LastName     string   `yaml:"last_name" json:"last_name"`
	Variants     []string `yaml:"variants,omitempty" json:"variants,omitempty"`
	Affiliations []string `yaml:"affiliations,omitempty" json:"affiliations,omitempty"`
	ORCID        string   `yaml:"orcid,omitempty" json:"orcid,omitempty"`
	ScholarID    string   `yaml:"scholar_id,omitempty" json:"scholar_id,omitempty"`
	Projects     []string `yaml:"projects,omitempty" json:"projects,omitempty"`

	// MatchedVariants accumulates citation spellings matched during a run.
	MatchedVariants []string `yaml:"-" json:"matched_variants,omitempty"`
}

// CanonicalName returns "First Last".
func (a *Author) CanonicalName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Names returns the canonical name followed by every known variant.
func (a *Author) Names() []string {
	return publication.UnionStrings([]string{a.CanonicalName()}, a.Variants)
}

// RecordVariant remembers a spelling that matched this author.
func (a *Author) RecordVariant(v string) {
	v = strings.TrimSpace(v)
	if v == "" || slices.Contains(a.MatchedVariants, v) {
		return
	}
	a.MatchedVariants = append(a.MatchedVariants, v)
}

// Load reads and validates a YAML roster.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrNoRoster, "roster: %s", path)
		}
		return nil, eris.Wrapf(err, "roster: read %s", path)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: %s", path)
	}
	return r, nil
}

// Parse decodes and validates roster YAML.
func Parse(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrap(err, "parse yaml")
	}
	if err := r.init(); err != nil {
		return nil, err
	}
	return &r, nil
}

// New builds a validated roster from in-memory records.
func New(authors []*Author, projects []*Project) (*Roster, error) {
	r := &Roster{Authors: authors, Projects: projects}
	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Roster) init() error {
	if len(r.Authors) == 0 {
		return ErrEmptyRoster
	}
	r.authorByID = make(map[string]*Author, len(r.Authors))
	r.projectByID = make(map[string]*Project, len(r.Projects))

	for _, p := range r.Projects {
		if err := p.Validate(); err != nil {
			return eris.Wrapf(err, "project %q", p.ID)
		}
		if _, dup := r.projectByID[p.ID]; dup {
			return eris.Wrapf(ErrDuplicateID, "project %q", p.ID)
		}
		r.projectByID[p.ID] = p
	}
	for i, a := range r.Authors {
		if a.ID == "" {
			a.ID = DeriveID(a.FirstName, a.LastName)
		}
		a.ORCID = publication.NormalizeORCID(a.ORCID)
		if err := a.validate(); err != nil {
			return eris.Wrapf(err, "author %d (%s)", i+1, a.ID)
		}
		if _, dup := r.authorByID[a.ID]; dup {
			return eris.Wrapf(ErrDuplicateID, "author %q", a.ID)
		}
		r.authorByID[a.ID] = a
		for _, pid := range a.Projects {
			if _, ok := r.projectByID[pid]; !ok {
				return eris.Wrapf(ErrProjectNotFound, "author %q lists project %q", a.ID, pid)
			}
		}
	}
	for _, p := range r.Projects {
		for _, aid := range p.Authors {
			if _, ok := r.authorByID[aid]; !ok {
				return eris.Wrapf(ErrAuthorNotFound, "project %q lists author %q", p.ID, aid)
			}
		}
	}
	return nil
}

func (a *Author) validate() error {
	if err := ValidateID(a.ID); err != nil {
		return err
	}
	if strings.TrimSpace(a.LastName) == "" {
		return ErrEmptyName
	}
	if a.ORCID != "" && !publication.ValidORCID(a.ORCID) {
		return ErrInvalidORCID
	}
	return nil
}

// Author returns the author with id, or nil.
func (r *Roster) Author(id string) *Author {
	return r.authorByID[id]
}

// Project returns the project with id, or nil.
func (r *Roster) Project(id string) *Project {
	return r.projectByID[id]
}

// ProjectsFor returns the sorted ids of projects the author belongs to.
// A project that names no members and is named by no author includes
// every author.
func (r *Roster) ProjectsFor(authorID string) []string {
	a := r.authorByID[authorID]
	if a == nil {
		return nil
	}
	ids := slices.Clone(a.Projects)
	for _, p := range r.Projects {
		if slices.Contains(p.Authors, authorID) || r.isOpen(p) {
			ids = append(ids, p.ID)
		}
	}
	sort.Strings(ids)
	return slices.Compact(ids)
}

// Members returns the sorted ids of authors belonging to project id.
func (r *Roster) Members(projectID string) []string {
	var ids []string
	for _, a := range r.Authors {
		if slices.Contains(r.ProjectsFor(a.ID), projectID) {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// isOpen reports whether nobody is explicitly assigned to p.
func (r *Roster) isOpen(p *Project) bool {
	if len(p.Authors) > 0 {
		return false
	}
	for _, a := range r.Authors {
		if slices.Contains(a.Projects, p.ID) {
			return false
		}
	}
	return true
}

// AuthorIDs returns every author id in roster order.
func (r *Roster) AuthorIDs() []string {
	ids := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		ids = append(ids, a.ID)
	}
	return ids
}
