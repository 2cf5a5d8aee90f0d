package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLockMutualExclusion(t *testing.T) {
	client := testRedis(t)
	ctx := context.Background()

	first := NewRedisLock(client, "sync:aud-1", time.Minute)
	second := NewRedisLock(client, "sync:aud-1", time.Minute)

	ok, err := first.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	ok, err = second.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("second holder acquired a held lock")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatal(err)
	}

	ok, err = second.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestRedisLockDifferentKeysIndependent(t *testing.T) {
	client := testRedis(t)
	ctx := context.Background()

	a := NewRedisLock(client, "sync:aud-1", time.Minute)
	b := NewRedisLock(client, "sync:aud-2", time.Minute)

	if ok, _ := a.Acquire(ctx); !ok {
		t.Fatal("acquire aud-1")
	}
	if ok, _ := b.Acquire(ctx); !ok {
		t.Fatal("locks on different audiences must not conflict")
	}
}

func TestRedisLockReleaseOnlyOwn(t *testing.T) {
	client := testRedis(t)
	ctx := context.Background()

	owner := NewRedisLock(client, "sync:aud-1", time.Minute)
	intruder := NewRedisLock(client, "sync:aud-1", time.Minute)

	if ok, _ := owner.Acquire(ctx); !ok {
		t.Fatal("owner acquire")
	}

	// A holder that never acquired must not free someone else's lock.
	if err := intruder.Release(ctx); err != nil {
		t.Fatal(err)
	}
	if ok, _ := intruder.Acquire(ctx); ok {
		t.Fatal("lock was stolen after a foreign release")
	}
}
