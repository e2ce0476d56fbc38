package repository

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/model"
)

type memoryEntry struct {
	id      string
	history []model.Content
	touched time.Time
}

// MemorySessionRepository keeps sessions in process memory. Sessions idle
// for longer than ttl are dropped, and once maxEntries is exceeded the least
// recently used session is evicted. A zero ttl or maxEntries disables that
// limit.
type MemorySessionRepository struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	recency    *list.List // front is most recently used
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemorySessionRepository creates an in-memory session backing.
func NewMemorySessionRepository(ttl time.Duration, maxEntries int) *MemorySessionRepository {
	return &MemorySessionRepository{
		entries:    make(map[string]*list.Element),
		recency:    list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (r *MemorySessionRepository) Save(ctx context.Context, sessionID string, history []model.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e := &memoryEntry{
		id:      sessionID,
		history: model.CloneContents(history),
		touched: now,
	}
	if el, ok := r.entries[sessionID]; ok {
		el.Value = e
		r.recency.MoveToFront(el)
	} else {
		r.entries[sessionID] = r.recency.PushFront(e)
	}

	r.sweepLocked(now)
	r.evictLocked()

	return nil
}

func (r *MemorySessionRepository) Load(ctx context.Context, sessionID string) ([]model.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.entries[sessionID]
	if !ok {
		return nil, nil
	}
	e := el.Value.(*memoryEntry)

	now := r.now()
	if r.expired(e, now) {
		r.removeLocked(el)
		return nil, nil
	}

	e.touched = now
	r.recency.MoveToFront(el)
	return model.CloneContents(e.history), nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.entries[sessionID]; ok {
		r.removeLocked(el)
	}
	return nil
}

// Len returns the number of live sessions, expired ones included until the
// next write sweeps them.
func (r *MemorySessionRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *MemorySessionRepository) expired(e *memoryEntry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(e.touched) > r.ttl
}

func (r *MemorySessionRepository) removeLocked(el *list.Element) {
	r.recency.Remove(el)
	delete(r.entries, el.Value.(*memoryEntry).id)
}

// sweepLocked drops expired sessions, oldest first. The entry just written
// sits at the front and is never expired.
func (r *MemorySessionRepository) sweepLocked(now time.Time) {
	if r.ttl <= 0 {
		return
	}
	for el := r.recency.Back(); el != nil && el != r.recency.Front(); {
		prev := el.Prev()
		if r.expired(el.Value.(*memoryEntry), now) {
			r.removeLocked(el)
		}
		el = prev
	}
}

// evictLocked trims from the least recently used end; the front entry
// always survives.
func (r *MemorySessionRepository) evictLocked() {
	if r.maxEntries <= 0 {
		return
	}
	for len(r.entries) > r.maxEntries && r.recency.Len() > 1 {
		r.removeLocked(r.recency.Back())
	}
}
