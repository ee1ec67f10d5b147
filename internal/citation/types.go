package citation

import (
	"errors"
	"fmt"

	"github.com/matsen/pubtrack/internal/publication"
)

// Reason codes attached to citations that could not be used as-is.
const (
	ReasonStyleUnknown = "style_unknown"
	ReasonParse        = "parse_error"
)

// RawCitation is one citation line or record before tokenization.
type RawCitation struct {
	Source string `json:"source"` // File path or source tag
	Text   string `json:"text"`
	Origin string `json:"origin"` // "line 12", or an API id
}

// Tokenized is a citation split into structured fields. Title is empty and
// Year is zero when they could not be found.
type Tokenized struct {
	Authors []publication.Author `json:"authors"`
	Title   string               `json:"title,omitempty"`
	Year    int                  `json:"year,omitempty"`
	publication.Identifiers
	Venue string `json:"venue,omitempty"`

	Style         Style  `json:"style"`
	ReferenceLine string `json:"reference_line,omitempty"`
	Source        string `json:"source,omitempty"`
	Origin        string `json:"origin,omitempty"`
}

// IsEmpty reports whether no author, title or identifier was extracted.
func (t Tokenized) IsEmpty() bool {
	return len(t.Authors) == 0 && t.Title == "" && t.Identifiers.IsZero()
}

// ParseError reports a citation from which nothing usable was extracted.
type ParseError struct {
	Origin string
	Style  Style
	Reason string
	Text   string
}

func (e *ParseError) Error() string {
	if e.Origin != "" {
		return fmt.Sprintf("%s: parse %s citation: %s", e.Origin, e.Style, e.Reason)
	}
	return fmt.Sprintf("parse %s citation: %s", e.Style, e.Reason)
}

// StyleDetectionError reports a line that matched no style heuristic.
type StyleDetectionError struct {
	Origin string
	Text   string
}

func (e *StyleDetectionError) Error() string {
	if e.Origin != "" {
		return fmt.Sprintf("%s: no citation style matched", e.Origin)
	}
	return "no citation style matched"
}

// ReasonCode maps a tokenization error to its review reason code.
func ReasonCode(err error) string {
	var sde *StyleDetectionError
	if errors.As(err, &sde) {
		return ReasonStyleUnknown
	}
	return ReasonParse
}
