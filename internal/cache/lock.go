package cache

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const lockPrefix = "nemu:lock:"

// Locker serializes work on a key across replicas
type Locker interface {
	// Acquire takes the lock for owner. It reports false when someone else holds it.
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	// Release frees the lock if owner still holds it
	Release(ctx context.Context, key, owner string) error
}

type redisLocker struct {
	client *redis.Client
}

// NewRedisLocker creates a Locker backed by SETNX keys with a TTL
func NewRedisLocker(client *redis.Client) Locker {
	return &redisLocker{client: client}
}

func (l *redisLocker) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, lockPrefix+key, owner, ttl).Result()
}

func (l *redisLocker) Release(ctx context.Context, key, owner string) error {
	k := lockPrefix + key
	val, err := l.client.Get(ctx, k).Result()
	if err == redis.Nil {
		return nil // expired
	}
	if err != nil {
		return err
	}
	if val != owner {
		return nil
	}
	return l.client.Del(ctx, k).Err()
}

type memoryEntry struct {
	owner     string
	expiresAt time.Time
}

// MemoryLocker is a process-local Locker for single-replica deployments and tests
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]memoryEntry
	now   func() time.Time
}

// NewMemoryLocker creates a MemoryLocker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]memoryEntry), now: time.Now}
}

func (l *MemoryLocker) Acquire(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.locks[key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	l.locks[key] = memoryEntry{owner: owner, expiresAt: now.Add(ttl)}
	return true, nil
}

func (l *MemoryLocker) Release(_ context.Context, key, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.locks[key]; ok && e.owner == owner {
		delete(l.locks, key)
	}
	return nil
}

// DecisionLockKey names the lock held while a request is being decided
func DecisionLockKey(requestID string) string { return "decision:" + requestID }

// KanbanLockKey names the lock held while a board document is rewritten
func KanbanLockKey(kanbanID string) string { return "kanban:" + kanbanID }
