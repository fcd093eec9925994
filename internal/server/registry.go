package server

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/verdict/internal/metrics"
	"github.com/ppiankov/verdict/internal/session"
)

// Registry holds the sessions of the host. A session expires after ttl
// without being accessed.
type Registry struct {
	store   *gocache.Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	cleanup := ttl / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}

	r := &Registry{
		store:   gocache.New(ttl, cleanup),
		metrics: m,
		logger:  logger,
	}
	r.store.OnEvicted(func(id string, _ interface{}) {
		r.metrics.SessionClosed()
		r.logger.Debug("session closed", "session_id", id)
	})
	return r
}

// Put stores s under a new id
func (r *Registry) Put(s *session.Session) string {
	id := uuid.NewString()
	r.store.Set(id, s, gocache.DefaultExpiration)
	r.metrics.SessionOpened()
	r.logger.Debug("session opened", "session_id", id)
	return id
}

// Get returns the session stored under id and extends its lifetime
func (r *Registry) Get(id string) (*session.Session, bool) {
	v, ok := r.store.Get(id)
	if !ok {
		return nil, false
	}
	// Replace fails for a session deleted since the lookup; it stays deleted
	if err := r.store.Replace(id, v, gocache.DefaultExpiration); err != nil {
		return nil, false
	}
	return v.(*session.Session), true
}

// Touch extends the lifetime of the session stored under id.
// It reports false when the session is gone.
func (r *Registry) Touch(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Delete removes the session stored under id
func (r *Registry) Delete(id string) bool {
	if _, ok := r.store.Get(id); !ok {
		return false
	}
	r.store.Delete(id)
	return true
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	return r.store.ItemCount()
}
