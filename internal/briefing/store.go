package briefing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store is the durable keyspace for session records. Update must apply the
// mutation atomically per key: two concurrent updates of the same session may
// never both observe the same starting state and both win.
type Store interface {
	Create(ctx context.Context, s *Session) error
	// Get returns nil, nil when the session does not exist.
	Get(ctx context.Context, id string) (*Session, error)
	// Update loads the session, applies mutate, and persists the result.
	// Returns ErrNotFound if the session is absent; a mutate error aborts
	// the write and is returned as-is.
	Update(ctx context.Context, id string, mutate func(*Session) error) (*Session, error)
}

const (
	keyPrefix   = "briefing:session:"
	casAttempts = 8
)

// RedisStore keeps session records as JSON values and serializes per-key
// read-modify-write with optimistic locking (WATCH + MULTI/EXEC).
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(id string) string { return keyPrefix + id }

func (s *RedisStore) Create(ctx context.Context, sess *Session) error {
	if sess.ID == "" || sess.UserID == "" {
		return errors.New("briefing: missing session id or user id")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	created, err := s.client.SetNX(ctx, s.key(sess.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !created {
		return fmt.Errorf("briefing: session %s already exists", sess.ID)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("briefing: corrupt session record %s: %w", id, err)
	}
	return &sess, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, mutate func(*Session) error) (*Session, error) {
	key := s.key(id)

	var updated *Session
	txn := func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		var sess Session
		if err := json.Unmarshal([]byte(val), &sess); err != nil {
			return fmt.Errorf("briefing: corrupt session record %s: %w", id, err)
		}
		if err := mutate(&sess); err != nil {
			return err
		}

		data, err := json.Marshal(&sess)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		if err != nil {
			if errors.Is(err, redis.TxFailedErr) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		updated = &sess
		return nil
	}

	for i := 0; i < casAttempts; i++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			// Lost the race, reload and retry.
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("%w: session %s under sustained write contention", ErrUnavailable, id)
}
