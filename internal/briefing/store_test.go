package briefing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func openTestStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func testSession(id string) *Session {
	return &Session{
		ID:             id,
		UserID:         "user-1",
		StoryOrder:     []string{"a", "b", "c"},
		CurrentIndex:   0,
		CurrentStoryID: "a",
		Status:         StatusPlaying,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestRedisStore_CreateGetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, testSession("s1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatalf("expected session")
	}
	if got.CurrentStoryID != "a" || got.Status != StatusPlaying || len(got.StoryOrder) != 3 {
		t.Fatalf("round trip mangled session: %+v", got)
	}
}

func TestRedisStore_CreateRejectsDuplicate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, testSession("s1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, testSession("s1")); err == nil {
		t.Fatalf("expected duplicate create to fail")
	}
}

func TestRedisStore_GetMissingIsSoftMiss(t *testing.T) {
	store := openTestStore(t)

	got, err := store.Get(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil, got %v, %v", got, err)
	}
}

func TestRedisStore_UpdateMissingIsNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Update(context.Background(), "nope", func(s *Session) error { return nil })
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestRedisStore_UpdateAppliesMutation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	_ = store.Create(ctx, testSession("s1"))

	updated, err := store.Update(ctx, "s1", func(s *Session) error {
		s.CurrentIndex = 1
		s.CurrentStoryID = s.StoryOrder[1]
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CurrentIndex != 1 || updated.CurrentStoryID != "b" {
		t.Fatalf("mutation not applied: %+v", updated)
	}

	got, _ := store.Get(ctx, "s1")
	if got.CurrentIndex != 1 {
		t.Fatalf("mutation not persisted: %+v", got)
	}
}

func TestRedisStore_ConcurrentUpdatesAllLand(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sess := testSession("s1")
	sess.StoryOrder = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	_ = store.Create(ctx, sess)

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			// Contention errors are retryable by contract.
			for {
				_, err := store.Update(ctx, "s1", func(s *Session) error {
					s.CurrentIndex++
					s.CurrentStoryID = s.StoryOrder[s.CurrentIndex]
					return nil
				})
				if err == nil {
					return
				}
				if !errors.Is(err, ErrUnavailable) {
					t.Errorf("update: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentIndex != workers {
		t.Fatalf("lost updates: expected index %d, got %d", workers, got.CurrentIndex)
	}
}

func TestRedisStore_MutateErrorAborts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	_ = store.Create(ctx, testSession("s1"))

	wantErr := context.DeadlineExceeded
	_, err := store.Update(ctx, "s1", func(s *Session) error {
		s.CurrentIndex = 99
		return wantErr
	})
	if err == nil {
		t.Fatalf("expected mutate error to propagate")
	}

	got, _ := store.Get(ctx, "s1")
	if got.CurrentIndex != 0 {
		t.Fatalf("aborted mutation leaked: %+v", got)
	}
}
