// Package redisstream provides an eventstream.Log backed by Redis Streams.
// It exists for deployments that want the per-session event buffer to
// survive a process restart; session records themselves are still
// process-local.
//
// Each session maps to one stream key. Sequence numbers are allocated with
// INCR and used as explicit stream entry IDs ("<seq>-0"), which preserves the
// per-session, starts-at-1, strictly-increasing contract that the in-memory
// implementation provides. Allocation and XADD run as one server-side script
// so concurrent appends cannot interleave between the two.
package redisstream

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"github.com/widgethq/widgetmcp/eventstream"
)

// Config for the Redis-backed event log. Defaults can be loaded via envdecode.
type Config struct {
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// KeyPrefix for all keys. ENV: EVENTSTREAM_KEY_PREFIX
	KeyPrefix string `env:"EVENTSTREAM_KEY_PREFIX,default=widgetmcp:stream:"`
}

// Log is a Redis Streams implementation of eventstream.Log.
type Log struct {
	client    *redis.Client
	keyPrefix string
}

// New connects to Redis and verifies the connection.
func New(cfg Config) (*Log, error) {
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	cl := redis.NewClient(&redis.Options{Addr: addr})
	if err := cl.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "widgetmcp:stream:"
	}
	return &Log{client: cl, keyPrefix: prefix}, nil
}

// NewFromEnv builds a Log using envdecode to populate Config.
func NewFromEnv() (*Log, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	return New(cfg)
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(cl *redis.Client, keyPrefix string) *Log {
	if keyPrefix == "" {
		keyPrefix = "widgetmcp:stream:"
	}
	return &Log{client: cl, keyPrefix: keyPrefix}
}

// Close closes the Redis client.
func (l *Log) Close() error { return l.client.Close() }

func (l *Log) streamKey(sessionID string) string { return l.keyPrefix + "log:" + sessionID }
func (l *Log) seqKey(sessionID string) string    { return l.keyPrefix + "seq:" + sessionID }
func (l *Log) closedKey(sessionID string) string { return l.keyPrefix + "closed:" + sessionID }

// closedMarkerTTL bounds how long a dropped session keeps its marker key.
// It only needs to outlive in-flight subscribers; session IDs are never
// reused, so expiry cannot resurrect a session.
const closedMarkerTTL = time.Hour

// appendScript allocates the next sequence number and appends the entry in
// one atomic step. Running INCR and XADD as separate commands would let two
// concurrent appends reach XADD out of order, and Redis rejects stream IDs
// that are not strictly increasing.
var appendScript = redis.NewScript(`
local seq = redis.call('INCR', KEYS[1])
redis.call('XADD', KEYS[2], seq .. '-0', 'd', ARGV[1])
return seq
`)

// Append implements eventstream.Log.
func (l *Log) Append(ctx context.Context, sessionID string, data []byte) (uint64, error) {
	keys := []string{l.seqKey(sessionID), l.streamKey(sessionID)}
	seq, err := appendScript.Run(ctx, l.client, keys, data).Int64()
	if err != nil {
		return 0, fmt.Errorf("append entry: %w", err)
	}
	return uint64(seq), nil
}

// Replay implements eventstream.Log.
func (l *Log) Replay(ctx context.Context, sessionID string, lastSeen uint64) ([]eventstream.Entry, error) {
	start := fmt.Sprintf("%d-0", lastSeen+1)
	msgs, err := l.client.XRange(ctx, l.streamKey(sessionID), start, "+").Result()
	if err != nil {
		return nil, fmt.Errorf("xrange: %w", err)
	}
	out := make([]eventstream.Entry, 0, len(msgs))
	for _, m := range msgs {
		e, err := entryFromMessage(m)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Subscribe implements eventstream.Log.
func (l *Log) Subscribe(ctx context.Context, sessionID string, lastSeen uint64, fn eventstream.HandlerFunc) error {
	cursor := lastSeen

	// Deliver the backlog before blocking on new entries.
	backlog, err := l.Replay(ctx, sessionID, cursor)
	if err != nil {
		return err
	}
	for _, e := range backlog {
		if err := fn(ctx, e); err != nil {
			return err
		}
		cursor = e.Seq
	}

	key := l.streamKey(sessionID)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		closed, err := l.client.Exists(ctx, l.closedKey(sessionID)).Result()
		if err != nil {
			return fmt.Errorf("check closed marker: %w", err)
		}
		if closed > 0 {
			return eventstream.ErrStreamClosed
		}
		res, err := l.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{key, fmt.Sprintf("%d-0", cursor)},
			Block:   500 * time.Millisecond,
		}).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return fmt.Errorf("xread: %w", err)
		}
		for _, stream := range res {
			for _, m := range stream.Messages {
				e, err := entryFromMessage(m)
				if err != nil {
					return err
				}
				if err := fn(ctx, e); err != nil {
					return err
				}
				cursor = e.Seq
			}
		}
	}
}

// Drop implements eventstream.Log. A short-lived marker key is left behind
// so blocked subscribers observe the drop and terminate with
// eventstream.ErrStreamClosed.
func (l *Log) Drop(ctx context.Context, sessionID string) error {
	c := context.WithoutCancel(ctx)
	pipe := l.client.TxPipeline()
	pipe.Set(c, l.closedKey(sessionID), "1", closedMarkerTTL)
	pipe.Del(c, l.streamKey(sessionID), l.seqKey(sessionID))
	if _, err := pipe.Exec(c); err != nil {
		return fmt.Errorf("del session stream: %w", err)
	}
	return nil
}

func entryFromMessage(m redis.XMessage) (eventstream.Entry, error) {
	seqPart, _, ok := strings.Cut(m.ID, "-")
	if !ok {
		return eventstream.Entry{}, fmt.Errorf("malformed stream entry id %q", m.ID)
	}
	seq, err := strconv.ParseUint(seqPart, 10, 64)
	if err != nil {
		return eventstream.Entry{}, fmt.Errorf("malformed stream entry id %q: %w", m.ID, err)
	}

	var data []byte
	switch v := m.Values["d"].(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return eventstream.Entry{}, fmt.Errorf("unexpected payload type %T in entry %q", v, m.ID)
	}
	return eventstream.Entry{Seq: seq, Data: data}, nil
}

var _ eventstream.Log = (*Log)(nil)
