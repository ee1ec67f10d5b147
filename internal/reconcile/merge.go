package reconcile

import (
	"strings"

	"github.com/matsen/pubtrack/internal/publication"
)

// mergeAuthors returns the longer author list. Equal-length lists with the
// same names are merged so ORCIDs and affiliations from either side survive.
func mergeAuthors(ours, theirs []publication.Author) []publication.Author {
	if len(theirs) > len(ours) {
		return theirs
	}
	if len(ours) == len(theirs) && authorsEqual(ours, theirs) {
		merged := make([]publication.Author, len(ours))
		for i := range ours {
			merged[i] = ours[i]
			if merged[i].ORCID == "" {
				merged[i].ORCID = theirs[i].ORCID
			}
			if merged[i].Affiliation == "" {
				merged[i].Affiliation = theirs[i].Affiliation
			}
		}
		return merged
	}
	return ours
}

// authorsEqual checks if two author lists have the same surnames and initials.
func authorsEqual(a, b []publication.Author) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i].Last, b[i].Last) {
			return false
		}
		ai, bi := a[i].GivenInitials(), b[i].GivenInitials()
		if ai != "" && bi != "" && ai[0] != bi[0] {
			return false
		}
	}
	return true
}

// mergePublicationDate returns the more specific date. A theirs date from
// a different year never replaces ours.
func mergePublicationDate(ours, theirs publication.PublicationDate) publication.PublicationDate {
	if ours.Year != 0 && theirs.Year != ours.Year {
		return ours
	}
	if dateSpecificity(theirs) > dateSpecificity(ours) {
		return theirs
	}
	return ours
}

// dateSpecificity returns a score for how specific a date is.
func dateSpecificity(d publication.PublicationDate) int {
	score := 0
	if d.Year != 0 {
		score++
	}
	if d.Month != 0 {
		score++
	}
	if d.Day != 0 {
		score++
	}
	return score
}

func nonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
