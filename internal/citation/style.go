// Package citation detects bibliographic citation styles and tokenizes
// citation text into authors, title, year and identifiers.
//
// Each style has its own pure tokenizer. Detect picks the style for a line;
// Tokenize applies one explicitly; Reconstruct renders a tokenized citation
// back in its style so that re-tokenizing yields an equivalent result.
package citation

import (
	"fmt"
	"strings"
)

// Style identifies a citation format.
type Style string

const (
	StyleAPAHarvard Style = "APA_HARVARD"
	StyleMLAChicago Style = "MLA_CHICAGO"
	StyleVancouver  Style = "VANCOUVER"
	StyleSiteExport Style = "SITE_EXPORT"
	StyleUnknown    Style = "UNKNOWN"

	// StyleMEDLINE marks citations read from MEDLINE exports. Detect never
	// returns it; ParseMEDLINE does.
	StyleMEDLINE Style = "MEDLINE"
)

// priority is the order parsers are tried in when several heuristics fire.
var priority = []Style{StyleVancouver, StyleAPAHarvard, StyleMLAChicago}

// ParseStyle converts a user-supplied name to a Style.
func ParseStyle(s string) (Style, error) {
	switch strings.ToUpper(strings.NewReplacer("-", "_", "/", "_", " ", "_").Replace(strings.TrimSpace(s))) {
	case "APA", "HARVARD", "APA_HARVARD":
		return StyleAPAHarvard, nil
	case "MLA", "CHICAGO", "MLA_CHICAGO":
		return StyleMLAChicago, nil
	case "VANCOUVER":
		return StyleVancouver, nil
	case "SITE", "SITE_EXPORT":
		return StyleSiteExport, nil
	case "MEDLINE":
		return StyleMEDLINE, nil
	case "", "AUTO", "UNKNOWN":
		return StyleUnknown, nil
	}
	return StyleUnknown, fmt.Errorf("unknown citation style %q", s)
}
