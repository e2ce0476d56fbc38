package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/model"

	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	history    TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteSessionRepository implements SessionRepository backed by a SQLite
// database, for single-node deployments that want sessions to survive restarts
// without a MongoDB instance.
type SQLiteSessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteSessionRepository opens (or creates) the database at dbPath.
// ":memory:" gives a throwaway database.
func NewSQLiteSessionRepository(dbPath string) (*SQLiteSessionRepository, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("repository: create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("repository: open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: enable WAL mode: %w", err)
	}

	if _, err := db.Exec(sessionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: create sessions table: %w", err)
	}

	return &SQLiteSessionRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteSessionRepository) Save(ctx context.Context, sessionID string, history []model.Content) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("repository: encode session %q: %w", sessionID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, history, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET history = excluded.history, updated_at = excluded.updated_at`,
		sessionID, string(data), r.now().UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("repository: upsert session %q: %w", sessionID, err)
	}

	return nil
}

func (r *SQLiteSessionRepository) Load(ctx context.Context, sessionID string) ([]model.Content, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT history FROM sessions WHERE id = ?`, sessionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: find session %q: %w", sessionID, err)
	}

	var history []model.Content
	if err := json.Unmarshal([]byte(data), &history); err != nil {
		return nil, fmt.Errorf("repository: decode session %q: %w", sessionID, err)
	}

	return history, nil
}

func (r *SQLiteSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("repository: delete session %q: %w", sessionID, err)
	}
	return nil
}

// Close closes the underlying database.
func (r *SQLiteSessionRepository) Close() error {
	return r.db.Close()
}
