// Package store keeps an optional local history of link utilization
// samples, one batch per render, in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"weathermap/internal/utilization"
)

// Store wraps the SQLite history database.
type Store struct {
	db *sql.DB
}

// New opens or creates the database at path and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Sample is one stored link utilization row.
type Sample struct {
	Timestamp int64
	Dev1      string
	Port1     string
	Dev2      string
	Port2     string
	Out1Mbps  float64
	Out2Mbps  float64
}

// InsertBatch records one render's resolved link loads under a single
// timestamp.
func (s *Store) InsertBatch(ts time.Time, loads []utilization.LinkLoad) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO link_samples
		(ts, dev1, port1, dev2, port2, out1_mbps, out2_mbps)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	unix := ts.Unix()
	for _, l := range loads {
		if _, err := stmt.Exec(unix, l.Link.Dev1, l.Link.Port1, l.Link.Dev2, l.Link.Port2, l.Out1Mbps, l.Out2Mbps); err != nil {
			return fmt.Errorf("inserting sample for %s: %w", l.Link, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// Recent returns the newest samples, most recent first.
func (s *Store) Recent(limit int) ([]Sample, error) {
	rows, err := s.db.Query(`
		SELECT ts, dev1, port1, dev2, port2, out1_mbps, out2_mbps
		FROM link_samples ORDER BY ts DESC, dev1, port1 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var sm Sample
		if err := rows.Scan(&sm.Timestamp, &sm.Dev1, &sm.Port1, &sm.Dev2, &sm.Port2, &sm.Out1Mbps, &sm.Out2Mbps); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		samples = append(samples, sm)
	}
	return samples, rows.Err()
}

// Prune drops samples older than the retention window. Called once per
// render, after the insert.
func (s *Store) Prune(retention time.Duration) error {
	cutoff := time.Now().Add(-retention).Unix()
	result, err := s.db.Exec("DELETE FROM link_samples WHERE ts < ?", cutoff)
	if err != nil {
		return fmt.Errorf("pruning samples: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		slog.Debug("pruned old samples", "rows", rows)
	}
	return nil
}
