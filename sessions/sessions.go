// Package sessions owns the lifecycle of MCP sessions: creation on a
// successful initialize handshake, lookup on subsequent requests, age-based
// eviction, and best-effort draining at shutdown.
//
// The Manager is an injected dependency, never a process global, so a test
// (or a multi-tenant process) can run any number of independent managers.
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/widgethq/widgetmcp/internal/jsonrpc"
)

var (
	// ErrSessionExists is returned by Create when the session ID is already
	// registered. Given the ID generation contract this indicates a
	// programming error, not a runtime condition to handle.
	ErrSessionExists = errors.New("session already exists")

	// ErrSessionNotFound is returned when no live session matches an ID. The
	// client must re-run the initialize handshake.
	ErrSessionNotFound = errors.New("session not found")
)

// Instance is the per-session protocol dispatcher bound to a Session. Each
// session exclusively owns its Instance.
type Instance interface {
	// Handle processes one inbound request and returns the response to emit.
	Handle(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error)

	// HandleNotification processes an inbound notification. No response is
	// produced.
	HandleNotification(ctx context.Context, req *jsonrpc.Request) error
}

// Transport is the session's handle on its outbound messaging machinery.
// Close releases buffered events and terminates live subscriptions.
type Transport interface {
	Close(ctx context.Context) error
}

// NewID mints a fresh opaque session identifier. IDs are random UUIDs:
// unique, never reused, and not guessable from prior values.
func NewID() string {
	return uuid.NewString()
}

// Session is one live session record. All fields are assigned at creation
// and immutable thereafter; the transport may buffer and replay events
// internally, but the record itself never changes.
type Session struct {
	id        string
	instance  Instance
	transport Transport
	createdAt time.Time
}

// ID returns the session's opaque identifier.
func (s *Session) ID() string { return s.id }

// Instance returns the protocol server instance owned by this session.
func (s *Session) Instance() Instance { return s.instance }

// Transport returns the transport handle owned by this session.
func (s *Session) Transport() Transport { return s.transport }

// CreatedAt returns the session's creation timestamp.
func (s *Session) CreatedAt() time.Time { return s.createdAt }
