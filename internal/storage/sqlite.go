// Package storage keeps the session's round log in SQLite.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
// The database lives in memory only and is gone when the process exits.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite connection holding finished rounds.
type Store struct {
	db *sql.DB
}

// Round is one finished game.
type Round struct {
	ID      int64
	Role    string // "solo", "client" or "server"
	Length  int
	Apples  int
	Ticks   uint64
	EndedAt time.Time
}

// Stats aggregates every round of the session.
type Stats struct {
	Rounds      int
	BestLength  int
	AvgLength   float64
	TotalApples int64
	LastPlayed  time.Time
}

// OpenMemory creates an empty in-memory round log.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// Every pooled connection would get its own empty :memory: database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the schema.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			role TEXT NOT NULL,
			length INTEGER NOT NULL,
			apples INTEGER NOT NULL DEFAULT 0,
			ticks INTEGER NOT NULL DEFAULT 0,
			ended_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_rounds_top ON rounds(length DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection and discards the log.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRound records a finished round.
// Returns the ID of the inserted record.
func (s *Store) SaveRound(r Round) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO rounds (role, length, apples, ticks) VALUES (?, ?, ?, ?)",
		r.Role, r.Length, r.Apples, int64(r.Ticks),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save round: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopRounds retrieves the N longest rounds, ties broken by the earlier round.
func (s *Store) TopRounds(limit int) ([]Round, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, role, length, apples, ticks, ended_at
		 FROM rounds
		 ORDER BY length DESC, id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		var (
			r       Round
			ticks   int64
			endedAt any
		)
		if err := rows.Scan(&r.ID, &r.Role, &r.Length, &r.Apples, &ticks, &endedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.Ticks = uint64(ticks)
		r.EndedAt = parseTime(endedAt)
		rounds = append(rounds, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return rounds, nil
}

// BestLength returns the longest snake of the session.
// Returns 0 if no round has finished.
func (s *Store) BestLength() (int, error) {
	var best sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(length) FROM rounds").Scan(&best)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query best length: %w", err)
	}

	if !best.Valid {
		return 0, nil
	}

	return int(best.Int64), nil
}

// Stats retrieves aggregated statistics for the session.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}

	var lastPlayed any
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(length), 0), COALESCE(AVG(length), 0),
		        COALESCE(SUM(apples), 0), MAX(ended_at)
		 FROM rounds`,
	).Scan(&stats.Rounds, &stats.BestLength, &stats.AvgLength, &stats.TotalApples, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)

	return stats, nil
}

// parseTime handles both driver representations of DATETIME.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
