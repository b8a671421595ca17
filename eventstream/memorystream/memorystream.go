// Package memorystream provides the in-memory eventstream.Log used by
// single-process deployments and tests. Logs are sharded per session; the
// entry slice is append-only, so sequence number N is always found at index
// N-1 and replay is a slice copy.
package memorystream

import (
	"context"
	"sync"

	"github.com/widgethq/widgetmcp/eventstream"
)

// Log is an in-memory implementation of eventstream.Log.
type Log struct {
	mu       sync.RWMutex
	sessions map[string]*sessionLog
}

type sessionLog struct {
	mu      sync.Mutex
	entries []eventstream.Entry
	// wake is closed and replaced on every append so that blocked
	// subscribers observe new entries without polling.
	wake    chan struct{}
	dropped bool
}

// New creates an empty in-memory log.
func New() *Log {
	return &Log{sessions: make(map[string]*sessionLog)}
}

func (l *Log) session(sessionID string) *sessionLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	sl, ok := l.sessions[sessionID]
	if !ok {
		sl = &sessionLog{wake: make(chan struct{})}
		l.sessions[sessionID] = sl
	}
	return sl
}

// Append implements eventstream.Log.
func (l *Log) Append(ctx context.Context, sessionID string, data []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	sl := l.session(sessionID)

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.dropped {
		return 0, eventstream.ErrStreamClosed
	}
	seq := uint64(len(sl.entries)) + 1
	sl.entries = append(sl.entries, eventstream.Entry{Seq: seq, Data: append([]byte(nil), data...)})
	close(sl.wake)
	sl.wake = make(chan struct{})
	return seq, nil
}

// Replay implements eventstream.Log.
func (l *Log) Replay(ctx context.Context, sessionID string, lastSeen uint64) ([]eventstream.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	sl, ok := l.sessions[sessionID]
	l.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.dropped {
		return nil, eventstream.ErrStreamClosed
	}
	if lastSeen >= uint64(len(sl.entries)) {
		return nil, nil
	}
	out := make([]eventstream.Entry, len(sl.entries)-int(lastSeen))
	copy(out, sl.entries[lastSeen:])
	return out, nil
}

// Subscribe implements eventstream.Log.
func (l *Log) Subscribe(ctx context.Context, sessionID string, lastSeen uint64, fn eventstream.HandlerFunc) error {
	cursor := lastSeen
	sl := l.session(sessionID)

	for {
		sl.mu.Lock()
		if sl.dropped {
			sl.mu.Unlock()
			return eventstream.ErrStreamClosed
		}
		var pending []eventstream.Entry
		if cursor < uint64(len(sl.entries)) {
			pending = make([]eventstream.Entry, len(sl.entries)-int(cursor))
			copy(pending, sl.entries[cursor:])
		}
		wake := sl.wake
		sl.mu.Unlock()

		for _, e := range pending {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, e); err != nil {
				return err
			}
			cursor = e.Seq
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}
	}
}

// Drop implements eventstream.Log.
func (l *Log) Drop(ctx context.Context, sessionID string) error {
	l.mu.Lock()
	sl, ok := l.sessions[sessionID]
	if ok {
		delete(l.sessions, sessionID)
	}
	l.mu.Unlock()
	if !ok {
		return nil
	}

	sl.mu.Lock()
	sl.dropped = true
	sl.entries = nil
	close(sl.wake)
	sl.mu.Unlock()
	return nil
}

var _ eventstream.Log = (*Log)(nil)
