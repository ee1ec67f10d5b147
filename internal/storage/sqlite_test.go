package storage

import (
	"path/filepath"
	"testing"
)

// setupTestDB creates a test database rebuilt from a JSONL file of test data.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	tmpDir := t.TempDir()
	jsonlPath := filepath.Join(tmpDir, "publications.jsonl")
	if err := WriteAll(jsonlPath, testPublications()); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	db, err := OpenDB(filepath.Join(tmpDir, "pubs.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	n, err := db.RebuildFromJSONL(jsonlPath)
	if err != nil {
		t.Fatalf("RebuildFromJSONL() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("RebuildFromJSONL() = %d, want 3", n)
	}
	return db
}

func ids(t *testing.T, db *DB, filters SearchFilters) []string {
	t.Helper()
	pubs, err := db.Search(filters, 0)
	if err != nil {
		t.Fatalf("Search(%+v) error = %v", filters, err)
	}
	out := make([]string, len(pubs))
	for i, p := range pubs {
		out[i] = p.ID
	}
	return out
}

func TestGetByID(t *testing.T) {
	db := setupTestDB(t)

	p, err := db.GetByID("Smith2019")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if p == nil {
		t.Fatal("GetByID() returned nil")
	}
	if p.DOI != "10.1/abc" || p.PMID != "12345678" {
		t.Errorf("identifiers = %+v", p.Identifiers)
	}
	if p.Published.Month != 3 {
		t.Errorf("Published.Month = %d, want 3", p.Published.Month)
	}
	if len(p.Authors) != 2 || p.Authors[0].ORCID != "0000-0002-1825-0097" {
		t.Errorf("Authors = %+v", p.Authors)
	}
	if len(p.MatchedAuthors) != 2 || len(p.Projects) != 2 {
		t.Errorf("associations = %v / %v", p.MatchedAuthors, p.Projects)
	}
	if len(p.Sources) != 1 || p.Sources[0].Origin != "line 4" {
		t.Errorf("Sources = %+v", p.Sources)
	}

	missing, err := db.GetByID("nope")
	if err != nil || missing != nil {
		t.Errorf("GetByID(nope) = %v, %v; want nil, nil", missing, err)
	}
}

func TestSearch(t *testing.T) {
	db := setupTestDB(t)

	tests := []struct {
		name    string
		filters SearchFilters
		want    []string
	}{
		{"all newest first", SearchFilters{}, []string{"Lee2021", "Zzyzx2020", "Smith2019"}},
		{"keyword title", SearchFilters{Keyword: "protein"}, []string{"Lee2021"}},
		{"keyword author", SearchFilters{Keyword: "Smith"}, []string{"Smith2019"}},
		{"keyword special chars", SearchFilters{Keyword: `foo "bar`}, []string{"Smith2019"}},
		{"keyword no hit", SearchFilters{Keyword: "genomics"}, nil},
		{"author", SearchFilters{Authors: []string{"jsmith"}}, []string{"Smith2019"}},
		{"two authors", SearchFilters{Authors: []string{"jsmith", "klee"}}, nil},
		{"project", SearchFilters{Project: "lab"}, []string{"Lee2021", "Smith2019"}},
		{"year range", SearchFilters{YearFrom: 2020, YearTo: 2020}, []string{"Zzyzx2020"}},
		{"doi", SearchFilters{DOI: "https://doi.org/10.1/ABC"}, []string{"Smith2019"}},
		{"combined", SearchFilters{Project: "lab", YearFrom: 2020}, []string{"Lee2021"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(t, db, tt.filters)
			if len(got) != len(tt.want) {
				t.Fatalf("Search() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Search()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSearch_Limit(t *testing.T) {
	db := setupTestDB(t)
	pubs, err := db.Search(SearchFilters{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(pubs) != 1 {
		t.Errorf("Search() returned %d, want 1", len(pubs))
	}
}

func TestCounts(t *testing.T) {
	db := setupTestDB(t)

	n, err := db.Count()
	if err != nil || n != 3 {
		t.Errorf("Count() = %d, %v; want 3", n, err)
	}

	byAuthor, err := db.CountByAuthor()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]int{"jsmith": 1, "adoe": 1, "klee": 1}
	for id, c := range want {
		if byAuthor[id] != c {
			t.Errorf("CountByAuthor()[%s] = %d, want %d", id, byAuthor[id], c)
		}
	}
	if len(byAuthor) != len(want) {
		t.Errorf("CountByAuthor() = %v", byAuthor)
	}
}

func TestRebuild_Replaces(t *testing.T) {
	db := setupTestDB(t)

	path := filepath.Join(t.TempDir(), "publications.jsonl")
	if err := WriteAll(path, testPublications()[:1]); err != nil {
		t.Fatal(err)
	}
	if _, err := db.RebuildFromJSONL(path); err != nil {
		t.Fatal(err)
	}
	n, _ := db.Count()
	if n != 1 {
		t.Errorf("Count() after rebuild = %d, want 1", n)
	}
	if got := ids(t, db, SearchFilters{Project: "lab"}); len(got) != 1 {
		t.Errorf("project links not cleared: %v", got)
	}
}
