// Package cache memoizes report computations.
package cache

import (
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Stats summarizes a Loader's effectiveness.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Shared    int64 `json:"shared"`
	Size      int   `json:"size"`
	Evictions int64 `json:"evictions"`
}

// Loader returns cached values and computes missing ones once, even when
// many callers miss the same key at the same time.
type Loader[T any] struct {
	cache  *LRUCache[T]
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
	shared atomic.Int64
}

func NewLoader[T any](maxSize int, ttl time.Duration) *Loader[T] {
	return &Loader[T]{cache: NewLRUCache[T](maxSize, ttl)}
}

// Get returns the value cached under key or stores the result of compute.
// Errors are returned to every waiting caller and never cached.
func (l *Loader[T]) Get(key string, compute func() (T, error)) (T, error) {
	if v, ok := l.cache.Get(key); ok {
		l.hits.Add(1)
		return v, nil
	}
	l.misses.Add(1)

	v, err, shared := l.group.Do(key, func() (any, error) {
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return v, err
		}
		l.cache.Set(key, v)
		return v, nil
	})
	if shared {
		l.shared.Add(1)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (l *Loader[T]) CleanExpired() int { return l.cache.CleanExpired() }

func (l *Loader[T]) Purge() { l.cache.Purge() }

func (l *Loader[T]) Stats() Stats {
	return Stats{
		Hits:      l.hits.Load(),
		Misses:    l.misses.Load(),
		Shared:    l.shared.Load(),
		Size:      l.cache.Size(),
		Evictions: l.cache.Evictions(),
	}
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically drops expired entries from registered caches.
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup. Not safe after StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			total := 0
			for _, cache := range m.caches {
				total += cache.CleanExpired()
			}
			if total > 0 {
				slog.Debug("Expired cache entries removed", "count", total)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup routine started by StartCleanup.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
