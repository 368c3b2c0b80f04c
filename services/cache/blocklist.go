package cache

import (
	"strconv"
	"time"
)

// Blocklist marks fetch targets that answered with a rate limit so
// later cycles skip them until the block expires. A nil Blocklist is
// valid and blocks nothing.
type Blocklist struct {
	svc       CacheService
	blockTime time.Duration
}

// NewBlocklist creates a blocklist on top of a cache service
func NewBlocklist(svc CacheService, blockTime time.Duration) *Blocklist {
	return &Blocklist{
		svc:       svc,
		blockTime: blockTime,
	}
}

// Blocked reports whether the key is currently blocked
func (b *Blocklist) Blocked(key string) bool {
	if b == nil || b.svc == nil {
		return false
	}
	_, err := b.svc.Get(blockKey(key))
	return err == nil
}

// Block blocks the key for the configured duration
func (b *Blocklist) Block(key string) error {
	if b == nil || b.svc == nil {
		return nil
	}
	seconds := strconv.Itoa(int(b.blockTime / time.Second))
	return b.svc.Set(blockKey(key), []byte(seconds), b.blockTime)
}

// BlockTime returns the configured block duration
func (b *Blocklist) BlockTime() time.Duration {
	if b == nil {
		return 0
	}
	return b.blockTime
}

func blockKey(key string) string {
	return "rate_limited:" + key
}
