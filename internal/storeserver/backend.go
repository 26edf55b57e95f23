package storeserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Record is what the server keeps per key.
type Record struct {
	Data          string `json:"data"`
	AllowedOrigin string `json:"allowedOrigin,omitempty"`
}

// Backend stores records with a lifetime. Get returns (nil, nil) for a
// missing or expired key.
type Backend interface {
	Set(ctx context.Context, key string, rec Record, ttl time.Duration) error
	Get(ctx context.Context, key string) (*Record, error)
}

type memoryEntry struct {
	rec     Record
	expires time.Time
}

// MemoryBackend keeps records in process. Expired records are dropped when
// read.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryBackend) Set(_ context.Context, key string, rec Record, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{rec: rec, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemoryBackend) Get(_ context.Context, key string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, nil
	}
	rec := e.rec
	return &rec, nil
}

// RedisBackend keeps records in Redis and lets Redis expire them.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// DialRedis connects and pings within two seconds.
func DialRedis(addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client, prefix: "store:"}
}

func (r *RedisBackend) key(k string) string { return r.prefix + k }

func (r *RedisBackend) Set(ctx context.Context, key string, rec Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("storeserver: marshal: %w", err)
	}
	return r.client.Set(ctx, r.key(key), data, ttl).Err()
}

func (r *RedisBackend) Get(ctx context.Context, key string) (*Record, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("storeserver: unmarshal: %w", err)
	}
	return &rec, nil
}

var (
	_ Backend = (*MemoryBackend)(nil)
	_ Backend = (*RedisBackend)(nil)
)
