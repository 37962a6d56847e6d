package idsite

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_CheckAndSet(t *testing.T) {
	store := NewMemoryStore()
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

	if store.Len() != 1 {
		t.Fatalf("expected one entry, got %d", store.Len())
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.CheckAndSet(ctx, "nonce-1", "nonce-1", 10*time.Millisecond); err != nil {
		t.Fatalf("CheckAndSet: %v", err)
	}

	time.Sleep(25 * time.Millisecond)

	fresh, err := store.CheckAndSet(ctx, "nonce-1", "nonce-1", time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet after expiry: %v", err)
	}
	if !fresh {
		t.Fatal("expected expired nonce to be reusable")
	}
}

func TestMemoryStore_SweepDropsExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if _, err := store.CheckAndSet(ctx, key, key, 10*time.Millisecond); err != nil {
			t.Fatalf("CheckAndSet %s: %v", key, err)
		}
	}
	if _, err := store.CheckAndSet(ctx, "keep", "keep", time.Minute); err != nil {
		t.Fatalf("CheckAndSet keep: %v", err)
	}

	time.Sleep(25 * time.Millisecond)

	if got := store.Len(); got != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", got)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const callers = 32
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
