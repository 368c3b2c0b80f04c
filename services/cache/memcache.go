package cache

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService implements CacheService over memcached. It backs the
// scraper's rate-limit blocklist, so entries are short lived and losing
// them only costs an extra fetch attempt.
type MemcacheService struct {
	client *memcache.Client
}

// NewMemcacheService creates a memcache-backed cache service
func NewMemcacheService(serverAddr string) *MemcacheService {
	return &MemcacheService{
		client: memcache.New(serverAddr),
	}
}

// Get retrieves a value. A miss returns memcache.ErrCacheMiss.
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Set stores a value with an expiration. Memcached reads expirations
// in whole seconds and treats zero as no expiry, so positive durations
// under a second round up instead of becoming permanent.
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	seconds := int32(expiration / time.Second)
	if expiration > 0 && seconds == 0 {
		seconds = 1
	}
	return m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: seconds,
	})
}

// Delete removes a value
func (m *MemcacheService) Delete(key string) error {
	return m.client.Delete(key)
}
