package cache

import (
	"sync"
	"time"

	"github.com/juanGallardor/ReproductorMusica/pkg/models"
)

// entry is a cached item with its expiration time.
type entry struct {
	value      interface{}
	expiration time.Time
}

func (e *entry) expired() bool {
	return time.Now().After(e.expiration)
}

// MemoryCache is a simple TTL cache. Expired entries are dropped lazily on
// Get and swept periodically by a background goroutine.
type MemoryCache struct {
	items map[string]*entry
	mutex sync.RWMutex
	ttl   time.Duration
}

// NewMemoryCache creates a cache whose entries live for ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	cache := &MemoryCache{
		items: make(map[string]*entry),
		ttl:   ttl,
	}
	go cache.cleanupExpired()
	return cache
}

// Set stores a value under key, resetting its TTL.
func (c *MemoryCache) Set(key string, value interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = &entry{
		value:      value,
		expiration: time.Now().Add(c.ttl),
	}
}

// Get retrieves a live value from the cache.
func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, exists := c.items[key]
	if !exists || e.expired() {
		return nil, false
	}
	return e.value, true
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
}

// Clear removes every item.
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = make(map[string]*entry)
}

// Size returns the number of items, expired ones included.
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		for key, e := range c.items {
			if e.expired() {
				delete(c.items, key)
			}
		}
		c.mutex.Unlock()
	}
}

// TrackCache caches library query results so repeated track listings and
// searches skip the database.
type TrackCache struct {
	*MemoryCache
}

// NewTrackCache creates a track cache with a 15 minute TTL.
func NewTrackCache() *TrackCache {
	return &TrackCache{
		MemoryCache: NewMemoryCache(15 * time.Minute),
	}
}

// SetTracks caches a slice of tracks.
func (tc *TrackCache) SetTracks(key string, tracks []models.Track) {
	tc.Set(key, tracks)
}

// GetTracks retrieves cached tracks.
func (tc *TrackCache) GetTracks(key string) ([]models.Track, bool) {
	value, exists := tc.Get(key)
	if !exists {
		return nil, false
	}
	tracks, ok := value.([]models.Track)
	return tracks, ok
}

// SetTrack caches a single track.
func (tc *TrackCache) SetTrack(key string, track *models.Track) {
	tc.Set(key, track)
}

// GetTrack retrieves a cached track.
func (tc *TrackCache) GetTrack(key string) (*models.Track, bool) {
	value, exists := tc.Get(key)
	if !exists {
		return nil, false
	}
	track, ok := value.(*models.Track)
	return track, ok
}
