// Package storage persists the saved publication set as JSONL and indexes
// it in SQLite for search.
package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/matsen/pubtrack/internal/publication"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ErrCorruptState is returned when the saved set cannot be parsed. Runs
// depend on it for deduplication, so callers treat it as fatal.
var ErrCorruptState = errors.New("corrupt publication state")

// ReadAll reads all publications from a JSONL file. A missing file is an
// empty set.
func ReadAll(path string) ([]publication.Publication, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "opening publications file")
	}
	defer f.Close()

	var pubs []publication.Publication
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var p publication.Publication
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, eris.Wrapf(ErrCorruptState, "%s line %d: %v", path, lineNum, err)
		}
		if p.ID == "" {
			return nil, eris.Wrapf(ErrCorruptState, "%s line %d: missing id", path, lineNum)
		}
		pubs = append(pubs, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(ErrCorruptState, "reading %s: %v", path, err)
	}

	return pubs, nil
}

// Append adds publications to the end of a JSONL file.
func Append(path string, pubs ...*publication.Publication) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return eris.Wrap(err, "creating state directory")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return eris.Wrap(err, "opening publications file for append")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeLines(w, pubs); err != nil {
		return err
	}
	return eris.Wrap(w.Flush(), "flushing publications file")
}

// WriteAll replaces the file with pubs. The write goes to a temporary file
// that is renamed into place.
func WriteAll(path string, pubs []*publication.Publication) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return eris.Wrap(err, "creating state directory")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".publications-*.jsonl")
	if err != nil {
		return eris.Wrap(err, "creating temporary publications file")
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := writeLines(w, pubs); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return eris.Wrap(err, "flushing publications file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "closing publications file")
	}
	return eris.Wrap(os.Rename(tmp.Name(), path), "replacing publications file")
}

func writeLines(w *bufio.Writer, pubs []*publication.Publication) error {
	for _, p := range pubs {
		data, err := json.Marshal(p)
		if err != nil {
			return eris.Wrapf(err, "encoding publication %s", p.ID)
		}
		if _, err := w.Write(data); err != nil {
			return eris.Wrapf(err, "writing publication %s", p.ID)
		}
		if err := w.WriteByte('\n'); err != nil {
			return eris.Wrap(err, "writing newline")
		}
	}
	return nil
}

// FindByID searches for a publication by ID.
func FindByID(pubs []publication.Publication, id string) (int, bool) {
	for i, p := range pubs {
		if p.ID == id {
			return i, true
		}
	}
	return -1, false
}
