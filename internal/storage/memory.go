package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps objects in process memory. It backs local runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	base    string
	buckets map[string]map[string][]byte

	// PutErr, when set, fails every upload with this error.
	PutErr error
}

// NewMemory returns an empty store whose links start with base.
func NewMemory(base string) *MemoryStore {
	if base == "" {
		base = "memory://objects"
	}

	return &MemoryStore{base: base, buckets: make(map[string]map[string][]byte)}
}

// Put implements ObjectStore.
func (m *MemoryStore) Put(_ context.Context, bucket, key, localPath string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PutErr != nil {
		return 0, m.PutErr
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return 0, err
	}

	if m.buckets[bucket] == nil {
		m.buckets[bucket] = make(map[string][]byte)
	}

	m.buckets[bucket][key] = data

	return int64(len(data)), nil
}

// PresignedGet implements ObjectStore.
func (m *MemoryStore) PresignedGet(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	v := url.Values{}
	v.Set("expires", ttl.String())

	return m.PublicURL(bucket, key) + "?" + v.Encode(), nil
}

// PublicURL implements ObjectStore.
func (m *MemoryStore) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", m.base, bucket, key)
}

// EnsureBucket implements ObjectStore.
func (m *MemoryStore) EnsureBucket(_ context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.buckets[bucket] == nil {
		m.buckets[bucket] = make(map[string][]byte)
	}

	return nil
}

// Object returns a stored object.
func (m *MemoryStore) Object(bucket, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.buckets[bucket][key]

	return data, ok
}

// Keys lists a bucket's keys in sorted order.
func (m *MemoryStore) Keys(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.buckets[bucket]))
	for k := range m.buckets[bucket] {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
