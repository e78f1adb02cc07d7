// Package calendar holds the in-memory mirror of a user's calendar events and the logic that
// keeps it in step with the backend.
package calendar

import (
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/dunzo-api/internal/models"
)

// Collection is the local mirror of the backend's event list. Readers may run concurrently;
// replacement happens only through Apply or Reconcile.
type Collection struct {
	mu         sync.RWMutex
	applyMu    sync.Mutex
	items      map[string]models.EventRecord
	generation uint64
	latest     uint64
	touched    time.Time
	refreshed  time.Time
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{items: make(map[string]models.EventRecord), touched: time.Now()}
}

// Len returns the number of records.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// IDs returns the record ids in ascending order.
func (c *Collection) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns the record with id.
func (c *Collection) Get(id string) (models.EventRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.items[id]
	return record, ok
}

// Records returns every record ordered by start then id. Records without a start sort by end.
func (c *Collection) Records() []models.EventRecord {
	c.mu.RLock()
	records := make([]models.EventRecord, 0, len(c.items))
	for _, record := range c.items {
		records = append(records, record)
	}
	c.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		ki, kj := sortKey(records[i]), sortKey(records[j])
		if !ki.Equal(kj) {
			return ki.Before(kj)
		}
		return records[i].ID < records[j].ID
	})
	return records
}

// Put inserts or replaces one record after a confirmed create or update. Fetches begun
// before the write are invalidated so they cannot resurrect the old state.
func (c *Collection) Put(record models.EventRecord) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	c.mu.Lock()
	c.items[record.ID] = record
	c.invalidate()
	c.mu.Unlock()
}

// Remove deletes one record after a confirmed delete, invalidating in-flight fetches.
func (c *Collection) Remove(id string) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	c.mu.Lock()
	delete(c.items, id)
	c.invalidate()
	c.mu.Unlock()
}

// Touch records use of the collection for idle eviction.
func (c *Collection) Touch(now time.Time) {
	c.mu.Lock()
	c.touched = now
	c.mu.Unlock()
}

// LastTouched returns the last time the collection was used.
func (c *Collection) LastTouched() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.touched
}

// RefreshedAt returns the time of the last applied fetch.
func (c *Collection) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshed
}

// Begin issues the generation token for a new fetch. Only the most recently issued token can
// be applied.
func (c *Collection) Begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidate()
	return c.generation
}

// invalidate advances the generation; callers hold mu.
func (c *Collection) invalidate() {
	c.generation++
	c.latest = c.generation
}

// Current reports whether gen is still the latest issued token.
func (c *Collection) Current(gen uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return gen == c.latest
}

// replace swaps the contents in one step.
func (c *Collection) replace(records map[string]models.EventRecord, now time.Time) {
	c.mu.Lock()
	c.items = records
	c.refreshed = now
	c.touched = now
	c.mu.Unlock()
}

func sortKey(record models.EventRecord) time.Time {
	if record.Start != nil {
		return record.Start.Time
	}
	if record.End != nil {
		return record.End.Time
	}
	return time.Time{}
}
