package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Repository layout under the root directory.
const (
	RepoDir          = ".pubtrack"
	PublicationsFile = "publications.jsonl"
	RosterFile       = "roster.yaml"
	CacheDir         = "cache"
	DBFile           = "pubs.db"
	ExportFile       = "publications.bib"
)

// ErrNoRepository is returned when no .pubtrack directory is found.
var ErrNoRepository = errors.New("not in a pubtrack repository (no .pubtrack directory found)")

// RepoPath returns the .pubtrack directory under root.
func RepoPath(root string) string {
	return filepath.Join(root, RepoDir)
}

// PublicationsPath returns the saved publication set under root.
func PublicationsPath(root string) string {
	return filepath.Join(root, RepoDir, PublicationsFile)
}

// RosterPath returns the roster file under root.
func RosterPath(root string) string {
	return filepath.Join(root, RepoDir, RosterFile)
}

// CachePath returns the cache directory under root.
func CachePath(root string) string {
	return filepath.Join(root, RepoDir, CacheDir)
}

// DBPath returns the SQLite index under root.
func DBPath(root string) string {
	return filepath.Join(root, RepoDir, CacheDir, DBFile)
}

// IsRepository reports whether root contains a .pubtrack directory.
func IsRepository(root string) bool {
	info, err := os.Stat(RepoPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from start to the nearest directory holding a
// .pubtrack directory.
func FindRepository(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", eris.Wrap(err, "resolving path")
	}
	for {
		if IsRepository(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoRepository
		}
		dir = parent
	}
}

// UserConfigDir returns $XDG_CONFIG_HOME/pubtrack, falling back to
// ~/.config/pubtrack, or "" when neither can be determined.
func UserConfigDir() string {
	home := os.Getenv("XDG_CONFIG_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		home = filepath.Join(userHome, ".config")
	}
	return filepath.Join(home, ConfigName)
}

// SearchDirs lists where pubtrack.yaml is looked for, highest precedence
// first: the repository directory, root itself and the user config
// directory.
func SearchDirs(root string) []string {
	var dirs []string
	if root != "" {
		dirs = append(dirs, RepoPath(root), root)
	}
	if d := UserConfigDir(); d != "" {
		dirs = append(dirs, d)
	}
	return dirs
}

// InitRepository creates the .pubtrack layout under root with the given
// roster contents. It fails if a repository already exists there.
func InitRepository(root string, roster []byte) error {
	if IsRepository(root) {
		return eris.Errorf("repository already exists at %s", RepoPath(root))
	}
	if err := os.MkdirAll(CachePath(root), 0755); err != nil {
		return eris.Wrap(err, "creating repository")
	}
	if err := os.WriteFile(PublicationsPath(root), nil, 0644); err != nil {
		return eris.Wrap(err, "creating publications file")
	}
	if err := os.WriteFile(RosterPath(root), roster, 0644); err != nil {
		return eris.Wrap(err, "writing roster")
	}
	return nil
}
