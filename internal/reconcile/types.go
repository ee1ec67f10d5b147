// Package reconcile merges tokenized citations and external records into a
// deduplicated set of canonical publications.
package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/pubtrack/internal/publication"
)

// ErrNoKey is returned for a citation with neither identifier nor title.
var ErrNoKey = errors.New("citation has no identifier and no title")

// ErrInvalidAnchor is returned when the saved set holds a record without
// an id, or the same id or identifier twice.
var ErrInvalidAnchor = errors.New("invalid publication in saved set")

// Ways a candidate can be matched to an existing record.
const (
	MatchedByDOI   = "doi"
	MatchedByPMID  = "pmid"
	MatchedByPMCID = "pmcid"
	MatchedByTitle = "title"
)

// Outcome describes what Reconcile did with one candidate.
type Outcome struct {
	Record    *publication.Publication
	Created   bool   // A new record was added
	Known     bool   // Matched a publication from the saved set
	MatchedBy string // Empty when Created
	Conflict  *DuplicateConflict
}

// FieldConflict is one field on which two records sharing an identifier
// disagree.
type FieldConflict struct {
	FieldName     string
	ExistingValue string
	IncomingValue string
}

// DuplicateConflict reports an incoming citation that shares an identifier
// with an existing record but disagrees on title or year. The existing
// record wins.
type DuplicateConflict struct {
	Key        string // e.g. "doi:10.1/abc"
	ExistingID string
	Origin     string
	Fields     []FieldConflict
}

func (e *DuplicateConflict) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = fmt.Sprintf("%s %q vs %q", f.FieldName, truncate(f.ExistingValue, 50), truncate(f.IncomingValue, 50))
	}
	return fmt.Sprintf("duplicate conflict on %s with %s: %s", e.Key, e.ExistingID, strings.Join(names, "; "))
}

// truncate shortens s to maxLen characters with ellipsis.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
