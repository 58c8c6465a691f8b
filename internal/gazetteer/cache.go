package gazetteer

import (
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/pfrederiksen/rota-da-festa/internal/event"
)

// Cache is the team → venue table. It starts from a seed (usually
// StaticVenues) and grows as geocoding succeeds. It also remembers teams that
// could not be resolved so they are not queried again in the same run.
// Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry // folded key → entry
	order   []string              // folded keys, longest first
	misses  map[string]bool       // folded team → true
}

type cacheEntry struct {
	key   string
	venue event.Venue
}

// NewCache creates a cache seeded with the given entries
func NewCache(seed map[string]event.Venue) *Cache {
	c := &Cache{
		entries: make(map[string]cacheEntry, len(seed)),
		misses:  make(map[string]bool),
	}
	for k, v := range seed {
		c.put(k, v)
	}
	return c
}

// Lookup finds the venue whose key matches team under TeamMatch, trying
// longer keys first.
func (c *Cache) Lookup(team string) (event.Venue, bool) {
	folded := Fold(team)
	if folded == "" {
		return event.Venue{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.entries[folded]; ok {
		return e.venue, true
	}
	for _, k := range c.order {
		if TeamMatch(k, folded) {
			return c.entries[k].venue, true
		}
	}
	return event.Venue{}, false
}

// Learn stores a resolved venue for team and clears any recorded miss
func (c *Cache) Learn(team string, venue event.Venue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(team, venue)
	delete(c.misses, Fold(team))
}

// MarkMiss records that team could not be resolved
func (c *Cache) MarkMiss(team string) {
	folded := Fold(team)
	if folded == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses[folded] = true
}

// Missed reports whether team was previously recorded as unresolvable
func (c *Cache) Missed(team string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.misses[Fold(team)]
}

// Keys returns the original (unfolded) keys in lookup order
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.order))
	for _, k := range c.order {
		keys = append(keys, c.entries[k].key)
	}
	return keys
}

// Size returns the number of known venues
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// put must be called with the write lock held (or before the cache is shared)
func (c *Cache) put(key string, venue event.Venue) {
	folded := Fold(key)
	if folded == "" {
		return
	}
	if _, exists := c.entries[folded]; !exists {
		c.order = append(c.order, folded)
		sort.SliceStable(c.order, func(i, j int) bool {
			li, lj := utf8.RuneCountInString(c.order[i]), utf8.RuneCountInString(c.order[j])
			if li != lj {
				return li > lj
			}
			return c.order[i] < c.order[j]
		})
	}
	c.entries[folded] = cacheEntry{key: key, venue: venue}
}
