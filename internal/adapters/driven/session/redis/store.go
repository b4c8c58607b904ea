// Package redis provides a session store backed by Redis. Sessions are
// JSON values under a key prefix; the TTL lives on the key itself, so
// expiry is enforced by Redis rather than application sweeps.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridian-labs/briefing/internal/core/domain"
	"github.com/meridian-labs/briefing/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SessionStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultMaxMessages = 50
	DefaultTTL         = time.Hour
	DefaultKeyPrefix   = "briefing:session:"

	// appendRetries bounds optimistic retry when concurrent appends to
	// the same session collide under WATCH.
	appendRetries = 5
)

// Config holds configuration for the Redis session store.
type Config struct {
	// Addr is the Redis host:port (required).
	Addr string

	// Password authenticates the connection. Empty means no auth.
	Password string

	// DB is the Redis logical database.
	DB int

	// MaxMessages caps how many messages a session retains
	// (default: 50).
	MaxMessages int

	// TTL is the idle expiry refreshed on every append
	// (default: 1h).
	TTL time.Duration

	// KeyPrefix namespaces the session keys
	// (default: briefing:session:).
	KeyPrefix string
}

// Store persists sessions in Redis. Appends run inside a WATCH
// transaction so concurrent writers to the same session serialize
// instead of losing messages.
type Store struct {
	client      *redis.Client
	maxMessages int
	ttl         time.Duration
	prefix      string
}

// NewStore connects to Redis and verifies the connection.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: address is required")
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = DefaultMaxMessages
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return &Store{
		client:      client,
		maxMessages: cfg.MaxMessages,
		ttl:         cfg.TTL,
		prefix:      cfg.KeyPrefix,
	}, nil
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

// Append adds a message, creating the session if absent, trims the
// window and resets the key TTL.
func (s *Store) Append(ctx context.Context, sessionID string, msg domain.Message) (*domain.Session, error) {
	key := s.key(sessionID)
	var result *domain.Session

	txn := func(tx *redis.Tx) error {
		session, err := readSession(ctx, tx, key, sessionID)
		if err != nil {
			return err
		}

		now := time.Now()
		session.Messages = append(session.Messages, msg)
		session.Trim(s.maxMessages)
		session.UpdatedAt = now
		if session.CreatedAt.IsZero() {
			session.CreatedAt = now
		}

		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		result = session
		return nil
	}

	var err error
	for i := 0; i < appendRetries; i++ {
		err = s.client.Watch(ctx, txn, key)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	return nil, fmt.Errorf("redis: append to %s: %v: %w", sessionID, err, domain.ErrPersistenceFailed)
}

// History returns the session's messages. An absent or expired key
// yields an empty history. Reads do not refresh the TTL.
func (s *Store) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: history for %s: %v: %w", sessionID, err, domain.ErrHistoryUnavailable)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("redis: decode session %s: %w", sessionID, err)
	}
	return session.Messages, nil
}

// Reset deletes the session. Deleting an absent key is a no-op.
func (s *Store) Reset(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis: reset %s: %v: %w", sessionID, err, domain.ErrPersistenceFailed)
	}
	return nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func readSession(ctx context.Context, tx *redis.Tx, key, sessionID string) (*domain.Session, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return &domain.Session{ID: sessionID}, nil
	}
	if err != nil {
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		// A corrupt value should not wedge the session forever.
		return &domain.Session{ID: sessionID}, nil
	}
	return &session, nil
}
