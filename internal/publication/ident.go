package publication

import (
	"regexp"
	"strings"
)

var (
	orcidPattern = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{3}[0-9X]$`)
	pmidPattern  = regexp.MustCompile(`^\d{1,9}$`)
	pmcidPattern = regexp.MustCompile(`^PMC\d+$`)
)

var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi.org/",
	"dx.doi.org/",
	"doi:",
}

// NormalizeDOI lowercases a DOI and strips resolver prefixes and trailing
// punctuation.
func NormalizeDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(doi, prefix) {
			doi = strings.TrimSpace(strings.TrimPrefix(doi, prefix))
			break
		}
	}
	return strings.TrimRight(doi, ".,;:)]")
}

// NormalizePMID trims whitespace and an optional "PMID:" label.
func NormalizePMID(pmid string) string {
	pmid = strings.TrimSpace(pmid)
	if len(pmid) >= 4 && strings.EqualFold(pmid[:4], "pmid") {
		pmid = strings.TrimLeft(pmid[4:], ": ")
	}
	if !pmidPattern.MatchString(pmid) {
		return ""
	}
	return pmid
}

// NormalizePMCID uppercases the PMC prefix, adding it to bare numbers.
func NormalizePMCID(pmcid string) string {
	pmcid = strings.ToUpper(strings.TrimSpace(pmcid))
	if pmcid == "" {
		return ""
	}
	if !strings.HasPrefix(pmcid, "PMC") {
		pmcid = "PMC" + pmcid
	}
	if !pmcidPattern.MatchString(pmcid) {
		return ""
	}
	return pmcid
}

// NormalizeORCID strips the orcid.org URL prefix.
func NormalizeORCID(orcid string) string {
	orcid = strings.TrimSpace(orcid)
	orcid = strings.TrimPrefix(orcid, "https://orcid.org/")
	orcid = strings.TrimPrefix(orcid, "http://orcid.org/")
	return strings.ToUpper(orcid)
}

// ValidORCID reports whether orcid has the 0000-0000-0000-000X form.
func ValidORCID(orcid string) bool {
	return orcidPattern.MatchString(orcid)
}
