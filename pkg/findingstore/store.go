// Package findingstore persists scan findings in a local SQLite database,
// keyed by file content hash, so a caller re-scanning an unchanged file
// skips re-tracing it entirely. Durable caching across process runs,
// complementing (not replacing) pkg/phpparse's in-memory LRU parse cache.
package findingstore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/taintwave/phpsentinel/pkg/taint"
)

const schema = `
CREATE TABLE IF NOT EXISTS findings (
	file_hash   TEXT NOT NULL,
	sink        TEXT NOT NULL,
	sink_line   INTEGER NOT NULL,
	sink_param  INTEGER NOT NULL,
	code        INTEGER NOT NULL,
	source      TEXT NOT NULL,
	source_line INTEGER NOT NULL,
	finding_id  TEXT NOT NULL,
	PRIMARY KEY (file_hash, sink, sink_line, sink_param)
);
`

// Store wraps one SQLite database handle. A Store is safe for concurrent
// use by multiple goroutines scanning different files, the same guarantee
// database/sql's pooled *sql.DB already provides.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) a SQLite database file at path and ensures the
// findings table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("findingstore: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("findingstore: migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup returns the cached findings for (fileHash, sink, sinkLine), or
// ok=false if nothing is cached yet for that key.
func (s *Store) Lookup(fileHash, sink string, sinkLine int) ([]taint.Finding, bool, error) {
	rows, err := s.db.Query(
		`SELECT sink_param, code, source, source_line, finding_id FROM findings
		 WHERE file_hash = ? AND sink = ? AND sink_line = ?`,
		fileHash, sink, sinkLine,
	)
	if err != nil {
		return nil, false, fmt.Errorf("findingstore: lookup: %w", err)
	}
	defer rows.Close()

	var found []taint.Finding
	cached := false
	for rows.Next() {
		var f taint.Finding
		var code int
		if err := rows.Scan(&f.SinkParam, &code, &f.Source, &f.SourceLine, &f.ID); err != nil {
			return nil, false, fmt.Errorf("findingstore: scan row: %w", err)
		}
		cached = true
		if f.SinkParam == -1 {
			// Sentinel row recorded by Store for a scan that found
			// nothing — proves the key was scanned without adding a
			// bogus Finding to the result.
			continue
		}
		f.Code = taint.Code(code)
		f.Sink = sink
		f.SinkLine = sinkLine
		found = append(found, f)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return found, cached, nil
}

// Store replaces the cached entries for (fileHash, sink, sinkLine) with
// findings. Calling it with an empty slice records a cached "no findings"
// result, distinct from no cache entry at all.
func (s *Store) Store(fileHash, sink string, sinkLine int, findings []taint.Finding) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("findingstore: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM findings WHERE file_hash = ? AND sink = ? AND sink_line = ?`,
		fileHash, sink, sinkLine,
	); err != nil {
		return fmt.Errorf("findingstore: clear stale entries: %w", err)
	}

	if len(findings) == 0 {
		// Record the key with a sentinel row (sink_param = -1) so Lookup
		// can still distinguish "scanned, nothing found" from "never
		// scanned" without a separate table.
		if _, err := tx.Exec(
			`INSERT INTO findings (file_hash, sink, sink_line, sink_param, code, source, source_line, finding_id)
			 VALUES (?, ?, ?, -1, 0, '', 0, '')`,
			fileHash, sink, sinkLine,
		); err != nil {
			return fmt.Errorf("findingstore: record empty result: %w", err)
		}
		return tx.Commit()
	}

	for _, f := range findings {
		if _, err := tx.Exec(
			`INSERT INTO findings (file_hash, sink, sink_line, sink_param, code, source, source_line, finding_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			fileHash, sink, sinkLine, f.SinkParam, int(f.Code), f.Source, f.SourceLine, f.ID,
		); err != nil {
			return fmt.Errorf("findingstore: insert finding: %w", err)
		}
	}
	return tx.Commit()
}
