package app

import (
	"sync"
	"time"

	"github.com/dkeye/watchparty/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultCleanupTTL = 120 * time.Second

type pendingCleanup struct {
	timer *time.Timer
}

// CleanupScheduler holds at most one delayed removal per session. A timer only
// acts if it is still the one registered for its id when it fires, so a
// Cancel that wins the lock always prevents the expiry.
type CleanupScheduler struct {
	mu       sync.Mutex
	ttl      time.Duration
	pending  map[domain.SessionID]*pendingCleanup
	onExpire func(domain.SessionID)
}

func NewCleanupScheduler(ttl time.Duration, onExpire func(domain.SessionID)) *CleanupScheduler {
	if ttl <= 0 {
		ttl = DefaultCleanupTTL
	}
	return &CleanupScheduler{
		ttl:      ttl,
		pending:  make(map[domain.SessionID]*pendingCleanup),
		onExpire: onExpire,
	}
}

func (c *CleanupScheduler) TTL() time.Duration { return c.ttl }

// Schedule arms a timer for id. It is a no-op while one is already pending.
func (c *CleanupScheduler) Schedule(id domain.SessionID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[id]; ok {
		return false
	}
	p := &pendingCleanup{}
	p.timer = time.AfterFunc(c.ttl, func() { c.fire(id, p) })
	c.pending[id] = p
	log.Info().Str("module", "app.cleanup").Str("sid", string(id)).Dur("ttl", c.ttl).Msg("cleanup scheduled")
	return true
}

// Cancel stops the pending timer for id, if any.
func (c *CleanupScheduler) Cancel(id domain.SessionID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[id]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(c.pending, id)
	log.Info().Str("module", "app.cleanup").Str("sid", string(id)).Msg("cleanup canceled")
	return true
}

func (c *CleanupScheduler) Pending(id domain.SessionID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[id]
	return ok
}

// Stop cancels every pending timer. Used on shutdown.
func (c *CleanupScheduler) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, p := range c.pending {
		p.timer.Stop()
		delete(c.pending, id)
	}
}

func (c *CleanupScheduler) fire(id domain.SessionID, p *pendingCleanup) {
	c.mu.Lock()
	if c.pending[id] != p {
		c.mu.Unlock()
		return
	}
	delete(c.pending, id)
	c.mu.Unlock()

	log.Info().Str("module", "app.cleanup").Str("sid", string(id)).Msg("cleanup expired")
	if c.onExpire != nil {
		c.onExpire(id)
	}
}
