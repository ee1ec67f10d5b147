package publication

import "strings"

// Author is a name as it appears on a publication. Initials hold the
// concatenated given-name initials when the source only printed initials.
type Author struct {
	First       string `json:"first,omitempty"`
	Middle      string `json:"middle,omitempty"`
	Last        string `json:"last"`
	Initials    string `json:"initials,omitempty"`
	Suffix      string `json:"suffix,omitempty"`
	ORCID       string `json:"orcid,omitempty"`       // ORCID identifier (without URL prefix)
	Affiliation string `json:"affiliation,omitempty"` // Only from structured records
}

// GivenInitials returns the given-name initials, derived from First and
// Middle when Initials is empty.
func (a Author) GivenInitials() string {
	if a.Initials != "" {
		return strings.ToUpper(a.Initials)
	}
	var b strings.Builder
	for _, part := range strings.Fields(a.First + " " + a.Middle) {
		for _, r := range part {
			b.WriteRune(r)
			break
		}
	}
	return strings.ToUpper(b.String())
}

// FullName renders "First Middle Last Suffix", falling back to initials.
func (a Author) FullName() string {
	given := strings.TrimSpace(a.First + " " + a.Middle)
	if given == "" {
		given = a.Initials
	}
	return strings.Join(strings.Fields(given+" "+a.Last+" "+a.Suffix), " ")
}

// SameName reports whether two authors share last name and first initial.
func (a Author) SameName(b Author) bool {
	if !strings.EqualFold(a.Last, b.Last) {
		return false
	}
	ai, bi := a.GivenInitials(), b.GivenInitials()
	if ai == "" || bi == "" {
		return true
	}
	return ai[0] == bi[0]
}
