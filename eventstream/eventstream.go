// Package eventstream defines the resumable per-session event log behind the
// streaming HTTP transport. Every outbound protocol message is appended to
// the owning session's log and assigned a strictly increasing sequence
// number; a reconnecting client presents the last sequence number it saw and
// receives exactly the entries it missed, in order, without duplicates.
package eventstream

import (
	"context"
	"errors"
)

// ErrStreamClosed terminates subscriptions whose session log was dropped
// mid-flight. Session IDs are never reused, so operations on a dropped ID
// otherwise behave as if the session never existed.
var ErrStreamClosed = errors.New("event stream closed")

// Entry is one immutable record in a session's event log.
type Entry struct {
	// Seq is the entry's sequence number, scoped to its session. Sequence
	// numbers start at 1 and are never reused.
	Seq uint64
	// Data is the serialized outbound protocol message.
	Data []byte
}

// HandlerFunc consumes one entry of a subscription. Returning an error
// terminates the subscription with that error.
type HandlerFunc func(ctx context.Context, e Entry) error

// Log stores per-session ordered event streams. All operations are safe for
// concurrent use; concurrent appends within one session each get a distinct,
// strictly increasing sequence number. Entries live exactly as long as their
// session: Drop discards everything.
type Log interface {
	// Append assigns the session's next sequence number to data and stores
	// the entry. The first append for a session returns 1.
	Append(ctx context.Context, sessionID string, data []byte) (uint64, error)

	// Replay returns all entries with sequence number greater than lastSeen,
	// in ascending order. lastSeen == 0 replays the full log.
	Replay(ctx context.Context, sessionID string, lastSeen uint64) ([]Entry, error)

	// Subscribe replays entries after lastSeen, then delivers new entries as
	// they are appended, in order. It blocks until ctx is canceled, the
	// session's log is dropped, or fn returns an error.
	Subscribe(ctx context.Context, sessionID string, lastSeen uint64, fn HandlerFunc) error

	// Drop discards the session's log and terminates its subscriptions. It
	// is idempotent.
	Drop(ctx context.Context, sessionID string) error
}
