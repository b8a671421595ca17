package sessions

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/widgethq/widgetmcp/internal/logctx"
)

func sessionCtx(ctx context.Context, sess *Session) context.Context {
	return logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: sess.id})
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the slog logger used for lifecycle events. Logs are
// discarded if not provided.
func WithLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) { m.log = log }
}

// WithClock overrides the manager's time source. Used by tests to exercise
// eviction deterministically.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// Manager owns the session table. The table is the only data structure in
// the system mutated by concurrent in-flight requests, so every access goes
// through the manager's lock.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	log *slog.Logger
	now func() time.Time
}

// NewManager creates an empty session manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		log:      slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create registers a new session under id. The caller must have fully
// constructed the instance and transport first: once Create returns, the
// session is visible to concurrent lookups.
func (m *Manager) Create(id string, instance Instance, transport Transport) (*Session, error) {
	sess := &Session{id: id, instance: instance, transport: transport, createdAt: m.now()}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; exists {
		return nil, ErrSessionExists
	}
	m.sessions[id] = sess
	return sess, nil
}

// Get looks up a session by ID. It has no side effects.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Delete removes a session if present and reports whether it existed.
// Deleting an absent session is not an error.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Count returns the number of live sessions. Observability only.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup evicts every session older than maxAge and returns the number
// removed. Evicted transports are closed best-effort; close failures are
// logged and do not interrupt the scan. Safe to call concurrently with
// Create, Get, and Delete.
func (m *Manager) Cleanup(ctx context.Context, maxAge time.Duration) int {
	now := m.now()

	m.mu.Lock()
	var evicted []*Session
	for id, sess := range m.sessions {
		if now.Sub(sess.createdAt) > maxAge {
			evicted = append(evicted, sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, sess := range evicted {
		ctx := sessionCtx(ctx, sess)
		if err := sess.transport.Close(ctx); err != nil {
			m.log.WarnContext(ctx, "session.evict.transport_close.fail", slog.String("err", err.Error()))
			continue
		}
		m.log.InfoContext(ctx, "session.evict.ok", slog.Duration("age", now.Sub(sess.createdAt)))
	}
	return len(evicted)
}

// CloseAll drains every session: each transport is closed best-effort, then
// all session state is cleared. Individual close failures are logged and do
// not abort closing the remaining sessions. Used only during shutdown.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	drained := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		drained = append(drained, sess)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range drained {
		ctx := sessionCtx(ctx, sess)
		if err := sess.transport.Close(ctx); err != nil {
			m.log.WarnContext(ctx, "session.drain.transport_close.fail", slog.String("err", err.Error()))
		}
	}
	m.log.InfoContext(ctx, "sessions.drain.ok", slog.Int("count", len(drained)))
}

// Sweep runs Cleanup on a fixed interval until ctx is canceled. It is the
// only mechanism that reclaims abandoned sessions; callers run it on its own
// goroutine and cancel it as the first step of graceful shutdown.
func (m *Manager) Sweep(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Cleanup(ctx, maxAge); n > 0 {
				m.log.InfoContext(ctx, "sessions.sweep.ok", slog.Int("evicted", n))
			}
		}
	}
}
