package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
	"github.com/CPSCourse-TUM-HN/connecTUM/solver"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS positions (
	key    TEXT PRIMARY KEY,
	scores TEXT NOT NULL
);`

// SQLiteStore keeps one row per position. Save upserts, so the table only
// grows.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (map[board.Key]solver.ScoreVector, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, scores FROM positions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := map[board.Key]solver.ScoreVector{}
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		var v solver.ScoreVector
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("position %s: %w", key, err)
		}
		entries[board.Key(key)] = v
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Save(ctx context.Context, entries map[board.Key]solver.ScoreVector) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO positions (key, scores) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET scores = excluded.scores`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for k, v := range entries {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, string(k), string(raw)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
