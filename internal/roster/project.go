package roster

import (
	"errors"
	"regexp"
	"strings"
)

// IDPattern is the regex pattern for valid author and project IDs.
// Must start with alphanumeric, followed by alphanumeric, hyphens, or underscores.
var IDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Validation errors.
var (
	ErrEmptyRoster     = errors.New("roster has no authors")
	ErrEmptyID         = errors.New("id is required")
	ErrInvalidID       = errors.New("id must match pattern: lowercase alphanumeric, hyphens, underscores; must start with alphanumeric")
	ErrEmptyName       = errors.New("name is required")
	ErrInvalidORCID    = errors.New("orcid must look like 0000-0000-0000-000X")
	ErrDuplicateID     = errors.New("id already exists")
	ErrProjectNotFound = errors.New("project not found")
	ErrAuthorNotFound  = errors.New("author not found")
)

// Project groups authors for reporting.
type Project struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	Grants     []string `yaml:"grants,omitempty" json:"grants,omitempty"`
	Authors    []string `yaml:"authors,omitempty" json:"authors,omitempty"`
	CutoffYear int      `yaml:"cutoff_year,omitempty" json:"cutoff_year,omitempty"`
}

// Validate checks that the project has valid required fields.
func (p *Project) Validate() error {
	if err := ValidateID(p.ID); err != nil {
		return err
	}
	if p.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// Accepts reports whether a publication from year belongs to the project
// given its cutoff. Unknown years are accepted.
func (p *Project) Accepts(year int) bool {
	return p.CutoffYear == 0 || year == 0 || year >= p.CutoffYear
}

// ValidateID checks that an ID matches the required pattern.
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if !IDPattern.MatchString(id) {
		return ErrInvalidID
	}
	return nil
}

// DeriveID builds an id such as "jane-doe" from a name.
func DeriveID(first, last string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(first + " " + last)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
