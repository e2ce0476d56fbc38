// Package repository persists conversation state, saved chat histories and
// user preferences.
package repository

import (
	"context"
	"errors"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/model"
)

var (
	// ErrNotFound is returned when a record addressed by ID does not exist.
	ErrNotFound = errors.New("repository: not found")

	// ErrInvalidID is returned when a record ID is not a valid key.
	ErrInvalidID = errors.New("repository: invalid id")
)

// SessionRepository is the backing of the live session store.
type SessionRepository interface {
	// Save replaces the stored turn sequence of a session.
	Save(ctx context.Context, sessionID string, history []model.Content) error

	// Load returns the stored turn sequence of a session,
	// or nil, nil if the session is unknown or expired.
	Load(ctx context.Context, sessionID string) ([]model.Content, error)

	// Delete removes a session. Unknown sessions are a no-op.
	Delete(ctx context.Context, sessionID string) error
}

// HistoryRepository stores finished conversations saved by clients.
type HistoryRepository interface {
	// Create inserts a record and sets its ID.
	Create(ctx context.Context, record *model.ChatRecord) error

	// ListByUser returns a user's records, most recent first.
	ListByUser(ctx context.Context, userID string, limit int64) ([]model.ChatRecord, error)

	Get(ctx context.Context, id string) (*model.ChatRecord, error)

	// UpdateTitle renames a record and returns it as updated.
	UpdateTitle(ctx context.Context, id string, title string) (*model.ChatRecord, error)

	Delete(ctx context.Context, id string) error
}

// PreferencesRepository stores per-user settings.
type PreferencesRepository interface {
	// Get returns the user's preferences; unknown users get zero-valued preferences.
	Get(ctx context.Context, userID string) (*model.Preferences, error)

	// SetCustomInstruction stores the user's persona instruction. An empty
	// instruction clears it.
	SetCustomInstruction(ctx context.Context, userID string, instruction string) (*model.Preferences, error)
}
