// Package session manages live conversation state: creation with the persona
// preamble, lookup, commit, and at-most-one in-flight turn per session.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/model"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/repository"
	"github.com/google/uuid"
)

// ErrShrink is returned by Put when the session holds fewer turns than were
// last loaded or committed.
var ErrShrink = errors.New("session: turn sequence cannot shrink")

// Session is a conversation's turn sequence. It is owned by whoever acquired
// it and is not safe for concurrent use.
type Session struct {
	ID        string
	turns     []model.Content
	committed int
}

// Snapshot returns a structural copy of the turns; callers may modify it freely.
func (s *Session) Snapshot() []model.Content {
	return model.CloneContents(s.turns)
}

// Len returns the number of turns.
func (s *Session) Len() int { return len(s.turns) }

// Append adds turns to the end of the sequence.
func (s *Session) Append(turns ...model.Content) {
	s.turns = append(s.turns, model.CloneContents(turns)...)
}

// Manager creates, loads and commits sessions over a SessionRepository.
type Manager struct {
	repo     repository.SessionRepository
	preamble []model.Content
	locks    *keyedLocks
	newID    func() string
}

// NewManager returns a Manager that seeds new sessions with preamble.
func NewManager(repo repository.SessionRepository, preamble []model.Content) *Manager {
	return &Manager{
		repo:     repo,
		preamble: model.CloneContents(preamble),
		locks:    newKeyedLocks(),
		newID:    func() string { return uuid.New().String() },
	}
}

// Get loads a session, returning nil, nil when it does not exist.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, nil
	}

	turns, err := m.repo.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session: load %q: %w", id, err)
	}
	if turns == nil {
		return nil, nil
	}

	return &Session{ID: id, turns: turns, committed: len(turns)}, nil
}

// Create starts a new session seeded with the persona preamble and stores it.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	s := &Session{ID: m.newID(), turns: model.CloneContents(m.preamble)}
	if err := m.Put(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Put commits the session's turns.
func (m *Manager) Put(ctx context.Context, s *Session) error {
	if len(s.turns) < s.committed {
		return fmt.Errorf("%w: %q has %d turns, %d committed", ErrShrink, s.ID, len(s.turns), s.committed)
	}

	turns := s.turns
	if turns == nil {
		turns = []model.Content{}
	}
	if err := m.repo.Save(ctx, s.ID, turns); err != nil {
		return fmt.Errorf("session: save %q: %w", s.ID, err)
	}

	s.committed = len(s.turns)
	return nil
}

// Acquire returns the session for id, locked for the caller until release is
// called. An empty or unknown id yields a freshly created session with a new
// ID. Waiting for a busy session honours ctx.
func (m *Manager) Acquire(ctx context.Context, id string) (*Session, func(), error) {
	if id != "" {
		unlock, err := m.locks.lock(ctx, id)
		if err != nil {
			return nil, nil, fmt.Errorf("session: wait for %q: %w", id, err)
		}

		existing, err := m.Get(ctx, id)
		if err != nil {
			unlock()
			return nil, nil, err
		}
		if existing != nil {
			return existing, unlock, nil
		}
		unlock()
	}

	created, err := m.Create(ctx)
	if err != nil {
		return nil, nil, err
	}

	unlock, err := m.locks.lock(ctx, created.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("session: wait for %q: %w", created.ID, err)
	}

	return created, unlock, nil
}

// Delete clears a live session, waiting for any in-flight turn on it to
// finish first. Unknown ids are a no-op.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	unlock, err := m.locks.lock(ctx, id)
	if err != nil {
		return fmt.Errorf("session: wait for %q: %w", id, err)
	}
	defer unlock()

	if err := m.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("session: delete %q: %w", id, err)
	}
	return nil
}
