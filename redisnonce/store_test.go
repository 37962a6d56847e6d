package redisnonce

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// setupStoreTest starts a miniredis instance and returns a store over it.
func setupStoreTest(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client, ""), mr
}

func TestStore_CheckAndSet(t *testing.T) {
	store, _ := setupStoreTest(t)
	ctx := context.Background()

	fresh, err := store.CheckAndSet(ctx, "nonce-1", "nonce-1", time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet: %v", err)
	}
	if !fresh {
		t.Fatal("expected first CheckAndSet to report fresh")
	}

	fresh, err = store.CheckAndSet(ctx, "nonce-1", "nonce-1", time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet second call: %v", err)
	}
	if fresh {
		t.Fatal("expected second CheckAndSet to report existing")
	}

	// Different key is independent.
	fresh, err = store.CheckAndSet(ctx, "nonce-2", "nonce-2", time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet different key: %v", err)
	}
	if !fresh {
		t.Fatal("expected different key to be fresh")
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	store, mr := setupStoreTest(t)
	ctx := context.Background()

	if _, err := store.CheckAndSet(ctx, "nonce-1", "nonce-1", time.Minute); err != nil {
		t.Fatalf("CheckAndSet: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	fresh, err := store.CheckAndSet(ctx, "nonce-1", "nonce-1", time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet after expiry: %v", err)
	}
	if !fresh {
		t.Fatal("expected expired nonce to be reusable")
	}
}

func TestStore_KeyPrefix(t *testing.T) {
	store, mr := setupStoreTest(t)
	ctx := context.Background()

	if _, err := store.CheckAndSet(ctx, "nonce-1", "nonce-1", time.Minute); err != nil {
		t.Fatalf("CheckAndSet: %v", err)
	}
	if !mr.Exists("idsite:nonce:nonce-1") {
		t.Fatalf("expected prefixed key, got keys %v", mr.Keys())
	}
}

func TestStore_ConcurrentCheckAndSet(t *testing.T) {
	store, _ := setupStoreTest(t)
	ctx := context.Background()

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		freshWins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fresh, err := store.CheckAndSet(ctx, "contended", "contended", time.Minute)
			if err != nil {
				t.Errorf("CheckAndSet: %v", err)
				return
			}
			if fresh {
				mu.Lock()
				freshWins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if freshWins != 1 {
		t.Fatalf("expected exactly one fresh write, got %d", freshWins)
	}
}

func TestStore_StoreUnavailable(t *testing.T) {
	store, mr := setupStoreTest(t)
	mr.Close()

	_, err := store.CheckAndSet(context.Background(), "nonce-1", "nonce-1", time.Minute)
	if err == nil {
		t.Fatal("expected error when redis is down")
	}
}

func TestConnect_Failure(t *testing.T) {
	_, err := Connect(context.Background(), "localhost:1", "", 0)
	if err == nil {
		t.Fatal("expected connection error")
	}
}
