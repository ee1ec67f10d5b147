// Package dictionary derives the read-only author and project views that
// reporting consumes from a finalized publication set.
package dictionary

import (
	"slices"
	"sort"

	"github.com/matsen/pubtrack/internal/publication"
	"github.com/matsen/pubtrack/internal/roster"
)

// Views groups publications by author and authors by project. Views are
// derived; Build over the same inputs always returns equal views.
type Views struct {
	// ByAuthor maps every roster author id to their publications in
	// ascending year, then id. Unknown years sort last.
	ByAuthor map[string][]*publication.Publication `json:"by_author"`

	// ByProject maps every roster project id to the sorted ids of member
	// authors with at least one publication associated to that project.
	ByProject map[string][]string `json:"by_project"`

	// Unassigned holds publications with no matched roster author, by id.
	Unassigned []*publication.Publication `json:"unassigned,omitempty"`
}

// Build derives the views. Matched author ids that are not in the roster
// are ignored.
func Build(pubs []*publication.Publication, r *roster.Roster) Views {
	v := Views{
		ByAuthor:  make(map[string][]*publication.Publication),
		ByProject: make(map[string][]string),
	}
	if r == nil {
		return v
	}

	members := make(map[string]map[string]bool)
	for _, p := range r.Projects {
		v.ByProject[p.ID] = []string{}
		members[p.ID] = make(map[string]bool)
		for _, aid := range r.Members(p.ID) {
			members[p.ID][aid] = true
		}
	}
	for _, aid := range r.AuthorIDs() {
		v.ByAuthor[aid] = []*publication.Publication{}
	}

	for _, p := range pubs {
		assigned := false
		for _, aid := range p.MatchedAuthors {
			if _, ok := v.ByAuthor[aid]; !ok {
				continue
			}
			assigned = true
			v.ByAuthor[aid] = append(v.ByAuthor[aid], p)
			for _, pid := range p.Projects {
				if members[pid][aid] && !slices.Contains(v.ByProject[pid], aid) {
					v.ByProject[pid] = append(v.ByProject[pid], aid)
				}
			}
		}
		if !assigned {
			v.Unassigned = append(v.Unassigned, p)
		}
	}

	for aid := range v.ByAuthor {
		sortByYear(v.ByAuthor[aid])
	}
	for pid := range v.ByProject {
		sort.Strings(v.ByProject[pid])
	}
	sort.Slice(v.Unassigned, func(i, j int) bool { return v.Unassigned[i].ID < v.Unassigned[j].ID })
	return v
}

// sortByYear orders ascending by year with unknown years last, then by id.
func sortByYear(pubs []*publication.Publication) {
	sort.SliceStable(pubs, func(i, j int) bool {
		yi, yj := pubs[i].Year(), pubs[j].Year()
		if yi != yj {
			if yi == 0 || yj == 0 {
				return yj == 0
			}
			return yi < yj
		}
		return pubs[i].ID < pubs[j].ID
	})
}

// AuthorsIn returns the ids of authors listed under project id.
func (v Views) AuthorsIn(projectID string) []string {
	return v.ByProject[projectID]
}

// PublicationsOf returns the publications of author id.
func (v Views) PublicationsOf(authorID string) []*publication.Publication {
	return v.ByAuthor[authorID]
}

// ProjectPublications returns the publications associated to project id,
// ascending by year, without duplicates.
func (v Views) ProjectPublications(projectID string) []*publication.Publication {
	var out []*publication.Publication
	seen := make(map[string]bool)
	for _, aid := range v.ByProject[projectID] {
		for _, p := range v.ByAuthor[aid] {
			if !seen[p.ID] && slices.Contains(p.Projects, projectID) {
				seen[p.ID] = true
				out = append(out, p)
			}
		}
	}
	sortByYear(out)
	return out
}
