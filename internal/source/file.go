package source

import (
	"bytes"
	"fmt"
	"os"
)

// crossrefMarkers are keys only Crossref output carries.
var crossrefMarkers = [][]byte{
	[]byte(`"message-type"`),
	[]byte(`"container-title"`),
	[]byte(`"published-print"`),
}

// IsCrossref reports whether data looks like Crossref works JSON rather
// than generic records.
func IsCrossref(data []byte) bool {
	for _, m := range crossrefMarkers {
		if bytes.Contains(data, m) {
			return true
		}
	}
	return false
}

// ReadFile reads a records file in either supported format.
func ReadFile(path string) ([]Record, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{fmt.Errorf("reading %s: %w", path, err)}
	}
	if IsCrossref(data) {
		recs, err := ParseCrossref(data)
		if err != nil {
			return nil, []error{fmt.Errorf("%s: %w", path, err)}
		}
		return recs, nil
	}
	recs, errs := ParseRecords(data)
	for i, err := range errs {
		errs[i] = fmt.Errorf("%s: %w", path, err)
	}
	return recs, errs
}
