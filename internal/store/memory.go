package store

import (
	"context"
	"sync"
	"time"

	"github.com/agenthands/meddesert/internal/core/catalog"
	"github.com/agenthands/meddesert/internal/core/model"
)

// MemoryAuditStore keeps the audit log in process memory.
type MemoryAuditStore struct {
	mu      sync.RWMutex
	entries []model.AuditLog
}

func NewMemoryAuditStore(seed []model.AuditLog) *MemoryAuditStore {
	return &MemoryAuditStore{entries: append([]model.AuditLog(nil), seed...)}
}

func (s *MemoryAuditStore) List(ctx context.Context, status string) ([]model.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return catalog.FilterAudit(s.entries, status), nil
}

func (s *MemoryAuditStore) Append(ctx context.Context, e model.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *MemoryAuditStore) Close() error { return nil }

type memoryValue struct {
	value   string
	expires time.Time
}

// MemoryKVStore is the KVStore used when no Redis URL is configured.
type MemoryKVStore struct {
	mu     sync.Mutex
	values map[string]memoryValue
	now    func() time.Time
}

func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{values: make(map[string]memoryValue), now: time.Now}
}

func (s *MemoryKVStore) Get(ctx context.Context, namespace, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := Key(namespace, key)
	v, ok := s.values[k]
	if !ok {
		return "", ErrNotFound
	}
	if !v.expires.IsZero() && !s.now().Before(v.expires) {
		delete(s.values, k)
		return "", ErrNotFound
	}
	return v.value, nil
}

func (s *MemoryKVStore) Set(ctx context.Context, namespace, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := memoryValue{value: value}
	if ttl > 0 {
		v.expires = s.now().Add(ttl)
	}
	s.values[Key(namespace, key)] = v
	return nil
}

func (s *MemoryKVStore) Delete(ctx context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, Key(namespace, key))
	return nil
}

func (s *MemoryKVStore) Close() error { return nil }
