package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/petasbytes/streamchat/internal/transcript"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	position   INTEGER PRIMARY KEY,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	model_id   TEXT NOT NULL DEFAULT ''
);`

// SQLite stores one row per turn, replaced wholesale on each save.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("memory: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("memory: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("memory: create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Load(ctx context.Context) ([]transcript.Turn, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT role, content, created_at, model_id FROM turns ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []transcript.Turn
	for rows.Next() {
		var (
			t       transcript.Turn
			role    string
			created string
		)
		if err := rows.Scan(&role, &t.Content, &created, &t.ModelID); err != nil {
			return nil, err
		}
		t.Role = transcript.Role(role)
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("memory: bad created_at %q: %w", created, err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *SQLite) Save(ctx context.Context, turns []transcript.Turn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM turns"); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO turns (position, role, content, created_at, model_id) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, t := range turns {
		if _, err := stmt.ExecContext(ctx, i, string(t.Role), t.Content, t.CreatedAt.UTC().Format(time.RFC3339Nano), t.ModelID); err != nil {
			return fmt.Errorf("memory: insert turn %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Close() error { return s.db.Close() }
