package storage

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/matsen/pubtrack/internal/publication"
)

// DB wraps a SQLite database connection. The database is a disposable
// index over the JSONL file.
type DB struct {
	db *sql.DB
}

// selectPubFields contains the standard field list for SELECT queries.
const selectPubFields = `id, doi, pmid, pmcid, title, venue,
	pub_year, pub_month, pub_day,
	authors_json, matched_authors_json, projects_json, sources_json,
	reference_line`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "opening database")
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "creating schema")
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS pubs (
			id TEXT PRIMARY KEY,
			doi TEXT,
			pmid TEXT,
			pmcid TEXT,
			title TEXT NOT NULL,
			venue TEXT,
			pub_year INTEGER NOT NULL,
			pub_month INTEGER,
			pub_day INTEGER,
			authors_json TEXT NOT NULL,
			matched_authors_json TEXT NOT NULL,
			projects_json TEXT NOT NULL,
			sources_json TEXT,
			reference_line TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_pubs_doi ON pubs(doi) WHERE doi IS NOT NULL AND doi != '';
		CREATE INDEX IF NOT EXISTS idx_pubs_year ON pubs(pub_year);

		-- Roster associations, one row per pair
		CREATE TABLE IF NOT EXISTS pub_authors (
			pub_id TEXT NOT NULL,
			author_id TEXT NOT NULL,
			PRIMARY KEY (pub_id, author_id)
		);
		CREATE TABLE IF NOT EXISTS pub_projects (
			pub_id TEXT NOT NULL,
			project_id TEXT NOT NULL,
			PRIMARY KEY (pub_id, project_id)
		);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS pubs_fts USING fts5(
			id,
			title,
			authors_text,
			venue
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the database and rebuilds it from a JSONL file.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	pubs, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, err
	}
	ptrs := make([]*publication.Publication, len(pubs))
	for i := range pubs {
		ptrs[i] = &pubs[i]
	}
	if err := d.Replace(ptrs); err != nil {
		return 0, err
	}
	return len(pubs), nil
}

// Replace clears the index and inserts pubs in one transaction.
func (d *DB) Replace(pubs []*publication.Publication) error {
	tx, err := d.db.Begin()
	if err != nil {
		return eris.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	for _, table := range []string{"pubs", "pub_authors", "pub_projects", "pubs_fts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return eris.Wrapf(err, "clearing %s table", table)
		}
	}

	pubsStmt, err := tx.Prepare(`
		INSERT INTO pubs (` + selectPubFields + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return eris.Wrap(err, "preparing pubs insert")
	}
	defer pubsStmt.Close()

	authorStmt, err := tx.Prepare(`INSERT OR IGNORE INTO pub_authors (pub_id, author_id) VALUES (?, ?)`)
	if err != nil {
		return eris.Wrap(err, "preparing pub_authors insert")
	}
	defer authorStmt.Close()

	projectStmt, err := tx.Prepare(`INSERT OR IGNORE INTO pub_projects (pub_id, project_id) VALUES (?, ?)`)
	if err != nil {
		return eris.Wrap(err, "preparing pub_projects insert")
	}
	defer projectStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO pubs_fts (id, title, authors_text, venue) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "preparing fts insert")
	}
	defer ftsStmt.Close()

	for _, p := range pubs {
		authorsJSON, err := marshalJSON(p.Authors)
		if err != nil {
			return eris.Wrapf(err, "marshaling authors for %s", p.ID)
		}
		matchedJSON, err := marshalJSON(p.MatchedAuthors)
		if err != nil {
			return eris.Wrapf(err, "marshaling matched authors for %s", p.ID)
		}
		projectsJSON, err := marshalJSON(p.Projects)
		if err != nil {
			return eris.Wrapf(err, "marshaling projects for %s", p.ID)
		}
		var sourcesJSON []byte
		if len(p.Sources) > 0 {
			if sourcesJSON, err = json.Marshal(p.Sources); err != nil {
				return eris.Wrapf(err, "marshaling sources for %s", p.ID)
			}
		}

		_, err = pubsStmt.Exec(
			p.ID, nullableStringValue(p.DOI), nullableStringValue(p.PMID), nullableStringValue(p.PMCID),
			p.Title, nullableStringValue(p.Venue),
			p.Published.Year, p.Published.Month, p.Published.Day,
			authorsJSON, matchedJSON, projectsJSON, nullableString(sourcesJSON),
			nullableStringValue(p.ReferenceLine),
		)
		if err != nil {
			return eris.Wrapf(err, "inserting publication %s", p.ID)
		}
		for _, aid := range p.MatchedAuthors {
			if _, err := authorStmt.Exec(p.ID, aid); err != nil {
				return eris.Wrapf(err, "inserting author link for %s", p.ID)
			}
		}
		for _, pid := range p.Projects {
			if _, err := projectStmt.Exec(p.ID, pid); err != nil {
				return eris.Wrapf(err, "inserting project link for %s", p.ID)
			}
		}
		if _, err := ftsStmt.Exec(p.ID, p.Title, formatAuthorsText(p.Authors), p.Venue); err != nil {
			return eris.Wrapf(err, "inserting fts for %s", p.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "committing index")
}

// marshalJSON encodes v, writing nil slices as [].
func marshalJSON[T any](v []T) (string, error) {
	if v == nil {
		return "[]", nil
	}
	data, err := json.Marshal(v)
	return string(data), err
}

// formatAuthorsText creates a searchable text representation of authors.
func formatAuthorsText(authors []publication.Author) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.FullName())
	}
	return strings.Join(names, ", ")
}

// GetByID retrieves a publication by its ID, nil when absent.
func (d *DB) GetByID(id string) (*publication.Publication, error) {
	row := d.db.QueryRow(`SELECT `+selectPubFields+` FROM pubs WHERE id = ?`, id)
	return scanPublication(row)
}

// SearchFilters contains optional filters for Search. All set filters
// must hold.
type SearchFilters struct {
	Keyword  string   // FTS over title, authors and venue
	Authors  []string // Roster author ids (AND logic)
	Project  string   // Roster project id
	YearFrom int      // Minimum publication year (0 = no minimum)
	YearTo   int      // Maximum publication year (0 = no maximum)
	DOI      string   // Exact DOI match
}

// Search returns publications matching filters, newest first.
func (d *DB) Search(filters SearchFilters, limit int) ([]publication.Publication, error) {
	query := `SELECT ` + selectPubFields + ` FROM pubs WHERE 1=1`
	var args []any

	if kw := prepareFTSQuery(filters.Keyword); kw != "" {
		query += ` AND id IN (SELECT id FROM pubs_fts WHERE pubs_fts MATCH ?)`
		args = append(args, kw)
	}
	for _, a := range filters.Authors {
		if a != "" {
			query += ` AND id IN (SELECT pub_id FROM pub_authors WHERE author_id = ?)`
			args = append(args, a)
		}
	}
	if filters.Project != "" {
		query += ` AND id IN (SELECT pub_id FROM pub_projects WHERE project_id = ?)`
		args = append(args, filters.Project)
	}
	if filters.YearFrom > 0 {
		query += " AND pub_year >= ?"
		args = append(args, filters.YearFrom)
	}
	if filters.YearTo > 0 {
		query += " AND pub_year <= ?"
		args = append(args, filters.YearTo)
	}
	if filters.DOI != "" {
		query += " AND doi = ?"
		args = append(args, publication.NormalizeDOI(filters.DOI))
	}

	query += " ORDER BY pub_year DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "searching publications")
	}
	defer rows.Close()

	return scanPublications(rows)
}

// Count returns the total number of indexed publications.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM pubs").Scan(&count)
	return count, err
}

// CountByAuthor returns the number of publications per roster author id.
func (d *DB) CountByAuthor() (map[string]int, error) {
	rows, err := d.db.Query(`SELECT author_id, COUNT(*) FROM pub_authors GROUP BY author_id`)
	if err != nil {
		return nil, eris.Wrap(err, "counting by author")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanPublication(s scanner) (*publication.Publication, error) {
	var p publication.Publication
	var doi, pmid, pmcid, venue, sourcesJSON, refLine sql.NullString
	var authorsJSON, matchedJSON, projectsJSON string
	var pubMonth, pubDay sql.NullInt64

	err := s.Scan(
		&p.ID, &doi, &pmid, &pmcid, &p.Title, &venue,
		&p.Published.Year, &pubMonth, &pubDay,
		&authorsJSON, &matchedJSON, &projectsJSON, &sourcesJSON,
		&refLine,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	p.DOI = doi.String
	p.PMID = pmid.String
	p.PMCID = pmcid.String
	p.Venue = venue.String
	p.ReferenceLine = refLine.String
	p.Published.Month = int(pubMonth.Int64)
	p.Published.Day = int(pubDay.Int64)

	for _, f := range []struct {
		name string
		data string
		dst  any
	}{
		{"authors", authorsJSON, &p.Authors},
		{"matched authors", matchedJSON, &p.MatchedAuthors},
		{"projects", projectsJSON, &p.Projects},
		{"sources", sourcesJSON.String, &p.Sources},
	} {
		if f.data == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.data), f.dst); err != nil {
			return nil, eris.Wrapf(err, "parsing %s JSON for %s", f.name, p.ID)
		}
	}

	return &p, nil
}

func scanPublications(rows *sql.Rows) ([]publication.Publication, error) {
	var pubs []publication.Publication
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		if p != nil {
			pubs = append(pubs, *p)
		}
	}
	return pubs, rows.Err()
}

func nullableString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery quotes each term so user input cannot inject FTS5
// syntax. Terms are ANDed.
func prepareFTSQuery(query string) string {
	var terms []string
	for _, t := range strings.Fields(query) {
		terms = append(terms, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " ")
}
