package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mgorriz/ajp-results/internal/logger"
	"github.com/mgorriz/ajp-results/internal/match"
)

// Store wraps the single shared SQLite handle. Writes are serialized
// through one connection; each operation is its own transaction.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and ensures the
// schema exists. Open failing is the one fatal error of a harvesting
// run; everything after converts store failures into per-event outcomes.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ensureSchema creates tables and indexes if absent. Idempotent, safe on
// every startup.
func (s *Store) ensureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS processed_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id INTEGER UNIQUE NOT NULL,
		event_name TEXT,
		year INTEGER,
		status TEXT DEFAULT 'completed' CHECK (status IN ('completed', 'failed', 'partial')),
		matches_count INTEGER DEFAULT 0,
		processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		athlete1 TEXT,
		team1 TEXT,
		athlete2 TEXT,
		team2 TEXT,
		winner TEXT,
		winner_via TEXT,
		time TEXT,
		category TEXT,
		belt TEXT,
		type TEXT,
		weight TEXT,
		day TEXT,
		event_name TEXT,
		year INTEGER,
		event_id INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS scraping_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id INTEGER,
		status TEXT CHECK (status IN ('success', 'error', 'skipped')),
		message TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_event_id ON processed_events(event_id);
	CREATE INDEX IF NOT EXISTS idx_status ON processed_events(status);
	CREATE INDEX IF NOT EXISTS idx_year ON processed_events(year);
	CREATE INDEX IF NOT EXISTS idx_matches_event_id ON matches(event_id);
	CREATE INDEX IF NOT EXISTS idx_matches_event_name ON matches(event_name);
	CREATE INDEX IF NOT EXISTS idx_matches_year ON matches(year);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// IsCompleted reports whether the event has a row with status completed.
// Any other status, or no row at all, means the event must be processed.
func (s *Store) IsCompleted(ctx context.Context, eventID int) (bool, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM processed_events WHERE event_id = ?`, eventID).Scan(&status)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status == match.StatusCompleted, nil
}

// Backlog returns every event id in [0, maxEvents) not yet marked
// completed, in ascending order.
func (s *Store) Backlog(ctx context.Context, maxEvents int) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id FROM processed_events WHERE status = ?`, match.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("querying completed events: %w", err)
	}
	defer rows.Close()

	completed := make(map[int]struct{})
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		completed[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The completed set can exceed maxEvents when the range was larger
	// on a previous run.
	var backlog []int
	for id := 0; id < maxEvents; id++ {
		if _, done := completed[id]; !done {
			backlog = append(backlog, id)
		}
	}
	return backlog, nil
}

// MarkEvent upserts the processed_events row for one event, refreshing
// updated_at. Atomic with respect to concurrent readers.
func (s *Store) MarkEvent(ctx context.Context, eventID int, name string, year, matchCount int, status string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO processed_events
		(event_id, event_name, year, status, matches_count, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		eventID, name, year, status, matchCount)
	if err != nil {
		return fmt.Errorf("marking event %d: %w", eventID, err)
	}
	return nil
}

// ReplaceMatches atomically deletes all existing match rows for the event
// and inserts the new set, in a single transaction. Re-running an event
// can therefore never accumulate duplicates, and readers never observe a
// half-replaced set.
func (s *Store) ReplaceMatches(ctx context.Context, eventID int, records []match.Match) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE event_id = ?`, eventID)
	if err != nil {
		return fmt.Errorf("deleting matches for event %d: %w", eventID, err)
	}
	if deleted, _ := res.RowsAffected(); deleted > 0 {
		logger.Info("Replaced existing matches", logger.Fields{"event_id": eventID, "deleted": deleted})
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO matches (
			athlete1, team1, athlete2, team2, winner, winner_via, time,
			category, belt, type, weight, day, event_name, year, event_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range records {
		if _, err := stmt.ExecContext(ctx,
			m.Athlete1, m.Team1, m.Athlete2, m.Team2, m.Winner, m.WinnerVia, m.Time,
			m.Category, m.Belt, m.Type, m.Weight, m.Day, m.EventName, m.Year, eventID,
		); err != nil {
			return fmt.Errorf("inserting match for event %d: %w", eventID, err)
		}
	}

	return tx.Commit()
}

// AppendLog appends one audit row. Audit failures never propagate: they
// are logged and swallowed so diagnostics can't break the harvest.
func (s *Store) AppendLog(ctx context.Context, eventID int, status, message string) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scraping_logs (event_id, status, message) VALUES (?, ?, ?)`,
		eventID, status, message)
	if err != nil {
		logger.Error("Audit log write failed", logger.Fields{"event_id": eventID}, err)
	}
}

// Stats is the aggregate view over processed_events.
type Stats struct {
	Total          int
	Completed      int
	Failed         int
	Partial        int
	TotalMatches   int
	FirstProcessed string
	LastProcessed  string
}

// Fields renders the stats as structured log fields.
func (st Stats) Fields() logger.Fields {
	return logger.Fields{
		"total":           st.Total,
		"completed":       st.Completed,
		"failed":          st.Failed,
		"partial":         st.Partial,
		"total_matches":   st.TotalMatches,
		"first_processed": st.FirstProcessed,
		"last_processed":  st.LastProcessed,
	}
}

// Stats computes processing statistics in a single aggregate query, so
// concurrent readers observe a consistent snapshot.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var (
		st                                  Stats
		completed, failed, partial, matches sql.NullInt64
		firstTS, lastTS                     sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'partial' THEN 1 ELSE 0 END),
			SUM(matches_count),
			MIN(processed_at),
			MAX(processed_at)
		FROM processed_events`).Scan(
		&st.Total, &completed, &failed, &partial, &matches, &firstTS, &lastTS)
	if err != nil {
		return Stats{}, fmt.Errorf("querying stats: %w", err)
	}
	st.Completed = int(completed.Int64)
	st.Failed = int(failed.Int64)
	st.Partial = int(partial.Int64)
	st.TotalMatches = int(matches.Int64)
	st.FirstProcessed = firstTS.String
	st.LastProcessed = lastTS.String
	return st, nil
}

// EventRecord is one processed_events row, used by the stats report.
type EventRecord struct {
	EventID      int
	Name         string
	Year         int
	Status       string
	MatchesCount int
	ProcessedAt  string
}

// RecentEvents returns the n most recently processed events.
func (s *Store) RecentEvents(ctx context.Context, n int) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, COALESCE(event_name, ''), COALESCE(year, 0), status, matches_count, processed_at
		FROM processed_events
		ORDER BY processed_at DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying recent events: %w", err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var r EventRecord
		if err := rows.Scan(&r.EventID, &r.Name, &r.Year, &r.Status, &r.MatchesCount, &r.ProcessedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Reset deletes all rows from every table. Administrative use only; the
// harvester itself never destroys audit history.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"matches", "processed_events", "scraping_logs"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return tx.Commit()
}
