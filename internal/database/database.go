package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

const (
	KindHours  = "hours"
	KindSeason = "season"
)

// Kinds lists every transition kind in report order.
var Kinds = []string{KindHours, KindSeason}

// Transition is one journal row: the store opened or closed, or the active theme changed.
type Transition struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	State      string    `json:"state"`
	Detail     string    `json:"detail"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DB wraps sql.DB for the transition journal.
type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

// NewDB opens the journal at path and runs migrations.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("Journal database initialized")
	return &DB{DB: db, path: path, logger: logger}, nil
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS transitions (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			state TEXT NOT NULL,
			detail TEXT,
			occurred_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_occurred ON transitions(occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_kind ON transitions(kind, occurred_at)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

// RecordTransition inserts t, filling in the id and timestamp when missing.
func (db *DB) RecordTransition(ctx context.Context, t *Transition) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.OccurredAt.IsZero() {
		t.OccurredAt = time.Now()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO transitions (id, kind, state, detail, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Kind, t.State, t.Detail, t.OccurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

// ListTransitions returns the most recent transitions, newest first.
func (db *DB) ListTransitions(ctx context.Context, limit int) ([]Transition, error) {
	if limit <= 0 {
		limit = 50
	}
	return db.query(ctx,
		`SELECT id, kind, state, detail, occurred_at FROM transitions ORDER BY occurred_at DESC LIMIT ?`,
		limit,
	)
}

// TransitionsBetween returns transitions in [from, to), oldest first.
func (db *DB) TransitionsBetween(ctx context.Context, from, to time.Time) ([]Transition, error) {
	return db.query(ctx,
		`SELECT id, kind, state, detail, occurred_at FROM transitions
		WHERE occurred_at >= ? AND occurred_at < ? ORDER BY occurred_at ASC`,
		from.UTC(), to.UTC(),
	)
}

// DeleteOlderThan removes transitions older than age and reports how many were deleted.
func (db *DB) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age).UTC()
	res, err := db.ExecContext(ctx, `DELETE FROM transitions WHERE occurred_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete transitions: %w", err)
	}
	return res.RowsAffected()
}

func (db *DB) query(ctx context.Context, q string, args ...interface{}) ([]Transition, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var t Transition
		var detail sql.NullString
		if err := rows.Scan(&t.ID, &t.Kind, &t.State, &detail, &t.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t.Detail = detail.String
		out = append(out, t)
	}
	return out, rows.Err()
}
