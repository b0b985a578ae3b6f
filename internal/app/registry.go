package app

import (
	"sync"

	"github.com/dkeye/watchparty/internal/domain"
	"github.com/rs/zerolog/log"
)

// sessionEntry serializes access to one session. removed is set under mu when
// the entry leaves the map so a mutator that raced with Delete sees NotFound.
type sessionEntry struct {
	mu      sync.Mutex
	sess    *domain.Session
	removed bool
}

// Registry is the single owner of live sessions. The map lock only guards
// membership; each session has its own lock so different sessions never
// contend on a read-modify-write.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.SessionID]*sessionEntry),
	}
}

// Create stores a copy of s. It fails with ErrAlreadyExists if the id is taken.
func (r *Registry) Create(s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.sessions[s.ID] = &sessionEntry{sess: s.Clone()}
	log.Info().Str("module", "app.registry").Str("sid", string(s.ID)).Msg("session created")
	return nil
}

func (r *Registry) entry(id domain.SessionID) (*sessionEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	return e, ok
}

// Get returns a detached copy of the session.
func (r *Registry) Get(id domain.SessionID) (*domain.Session, error) {
	e, ok := r.entry(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, domain.ErrNotFound
	}
	return e.sess.Clone(), nil
}

// Mutate runs fn against the live record while holding the session lock and
// returns a copy of the result. fn must not block. If fn fails its error is
// returned as is and no copy is made.
func (r *Registry) Mutate(id domain.SessionID, fn func(*domain.Session) error) (*domain.Session, error) {
	e, ok := r.entry(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, domain.ErrNotFound
	}
	if err := fn(e.sess); err != nil {
		return nil, err
	}
	return e.sess.Clone(), nil
}

// Delete removes the session and returns its last state. Deleting an absent
// id is a no-op.
func (r *Registry) Delete(id domain.SessionID) (*domain.Session, bool) {
	return r.DeleteIf(id, nil)
}

// DeleteIf removes the session only when cond is nil or returns true for the
// current record. The check and the removal are atomic.
func (r *Registry) DeleteIf(id domain.SessionID, cond func(*domain.Session) bool) (*domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if cond != nil && !cond(e.sess) {
		return nil, false
	}
	delete(r.sessions, id)
	e.removed = true
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Msg("session deleted")
	return e.sess.Clone(), true
}

// IDs returns a snapshot of the current session ids. Callers iterate the
// snapshot and go back through Mutate for each id.
func (r *Registry) IDs() []domain.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SessionID, 0, len(r.sessions))
	for id := range r.sessions {
		out = append(out, id)
	}
	return out
}

// List returns copies of every session.
func (r *Registry) List() []*domain.Session {
	ids := r.IDs()
	out := make([]*domain.Session, 0, len(ids))
	for _, id := range ids {
		if s, err := r.Get(id); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
