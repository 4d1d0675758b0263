//go:build !integration

package redis

import (
	"context"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// mockRedisClient is an in-memory stand-in for the real client. Expirations
// are recorded but never enforced; tests drive behavior through the map.
type mockRedisClient struct {
	mu       sync.Mutex
	data     map[string]string
	counters map[string]int64
	ttls     map[string]time.Duration

	SetErr error
	GetErr error
}

func newMockRedisClient() *mockRedisClient {
	return &mockRedisClient{
		data:     make(map[string]string),
		counters: make(map[string]int64),
		ttls:     make(map[string]time.Duration),
	}
}

var _ RedisClient = (*mockRedisClient)(nil)

func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }

func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case string:
		m.data[key] = v
	case []byte:
		m.data[key] = string(v)
	}
	m.ttls[key] = expiration
	return nil
}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetErr != nil {
		return "", m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
	return m.counters[key], nil
}

func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttls[key] = expiration
	return nil
}

func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
		delete(m.counters, k)
		delete(m.ttls, k)
	}
	return nil
}

func (m *mockRedisClient) Close() error { return nil }
