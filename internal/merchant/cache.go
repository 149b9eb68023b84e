package merchant

import (
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/recollect/internal/model"
)

type cacheEntry struct {
	expiry  time.Time
	profile model.MerchantProfile
}

// profileCache provides thread-safe caching for merchant profiles. Unknown
// merchants are cached too, so a miss is not re-classified until it expires.
type profileCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	now     func() time.Time
	ttl     time.Duration
	mu      sync.RWMutex
	once    sync.Once
}

func newProfileCache(ttl time.Duration, now func() time.Time) *profileCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}

	cache := &profileCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     now,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

func cacheKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *profileCache) get(name string) (model.MerchantProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[cacheKey(name)]
	if !exists || c.now().After(entry.expiry) {
		return model.MerchantProfile{}, false
	}
	return entry.profile, true
}

func (c *profileCache) set(name string, profile model.MerchantProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(name)] = cacheEntry{
		profile: profile,
		expiry:  c.now().Add(c.ttl),
	}
}

func (c *profileCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *profileCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiry) {
			delete(c.entries, key)
		}
	}
}

func (c *profileCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// close stops the cleanup goroutine. It is safe to call more than once.
func (c *profileCache) close() {
	c.once.Do(func() { close(c.stopCh) })
}
