package citation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/matsen/pubtrack/internal/publication"
)

var (
	labelledDOIPattern = regexp.MustCompile(`(?i)\bdoi:\s*(\S+)`)
	bareDOIPattern     = regexp.MustCompile(`(?i)(?:https?://(?:dx\.)?doi\.org/)?(10\.\d{4,9}/[^\s"<>]+)`)
	pmidPattern        = regexp.MustCompile(`(?i)\bPMID:?\s*(\d{1,9})\b`)
	pmcidPattern       = regexp.MustCompile(`(?i)\b(?:PMCID:?\s*)?(PMC\d+)\b`)
	yearPattern        = regexp.MustCompile(`\b(\d{4})[a-z]?\b`)
)

// extractIdentifiers scans s for a DOI, a PMID and a PMCID. A labelled
// "doi:" wins over a bare 10.NNNN/ match.
func extractIdentifiers(s string) publication.Identifiers {
	var ids publication.Identifiers
	if m := labelledDOIPattern.FindStringSubmatch(s); m != nil {
		ids.DOI = publication.NormalizeDOI(m[1])
	}
	if ids.DOI == "" {
		if m := bareDOIPattern.FindStringSubmatch(s); m != nil {
			ids.DOI = publication.NormalizeDOI(m[1])
		}
	}
	if m := pmidPattern.FindStringSubmatch(s); m != nil {
		ids.PMID = publication.NormalizePMID(m[1])
	}
	if m := pmcidPattern.FindStringSubmatch(s); m != nil {
		ids.PMCID = publication.NormalizePMCID(m[1])
	}
	return ids
}

// stripIdentifiers removes identifier text so it cannot be mistaken for a
// title, year or author.
func stripIdentifiers(s string) string {
	for _, re := range []*regexp.Regexp{labelledDOIPattern, bareDOIPattern, pmidPattern, pmcidPattern} {
		s = re.ReplaceAllString(s, " ")
	}
	return tidy(s)
}

// maxYear is the latest plausible publication year.
func maxYear() int {
	return time.Now().Year() + 1
}

// extractYear returns the first 4-digit token in 1900..maxYear, or 0.
func extractYear(s string) int {
	upper := maxYear()
	for _, m := range yearPattern.FindAllStringSubmatch(s, -1) {
		y, err := strconv.Atoi(m[1])
		if err == nil && y >= 1900 && y <= upper {
			return y
		}
	}
	return 0
}

// firstYear tries each region in turn and returns the first year found.
func firstYear(regions ...string) int {
	for _, r := range regions {
		if y := extractYear(r); y != 0 {
			return y
		}
	}
	return 0
}

// formatIdentifiers renders identifiers in the labelled form the
// tokenizers read back.
func formatIdentifiers(ids publication.Identifiers) string {
	var parts []string
	if ids.DOI != "" {
		parts = append(parts, "doi: "+ids.DOI+".")
	}
	if ids.PMID != "" {
		parts = append(parts, "PMID: "+ids.PMID+".")
	}
	if ids.PMCID != "" {
		parts = append(parts, "PMCID: "+ids.PMCID+".")
	}
	return strings.Join(parts, " ")
}
