// Package streetstore keeps placeholder streets, and in the Postgres case the
// named street dataset too.
package streetstore

import (
	"context"
	"sync"

	"github.com/google/btree"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/royalcat/communityaddr/geomodel"
)

// MemoryStore is a process local placeholder store. Insert-if-absent is atomic
// through the concurrent map; the btree only keeps IDs ordered for listing.
type MemoryStore struct {
	streets *xsync.MapOf[string, geomodel.PlaceholderStreet]

	mu    sync.RWMutex
	order *btree.BTreeG[string]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		streets: xsync.NewMapOf[string, geomodel.PlaceholderStreet](),
		order:   btree.NewG(32, func(a, b string) bool { return a < b }),
	}
}

// GetOrCreatePlaceholderStreet implements placeholder.Store.
func (s *MemoryStore) GetOrCreatePlaceholderStreet(ctx context.Context, candidate geomodel.PlaceholderStreet) (geomodel.PlaceholderStreet, error) {
	if err := ctx.Err(); err != nil {
		return geomodel.PlaceholderStreet{}, err
	}

	street, loaded := s.streets.LoadOrStore(candidate.ID, candidate)
	if !loaded {
		s.mu.Lock()
		s.order.ReplaceOrInsert(candidate.ID)
		s.mu.Unlock()
	}
	return street, nil
}

// Get returns the stored street with the given ID.
func (s *MemoryStore) Get(id string) (geomodel.PlaceholderStreet, bool) {
	return s.streets.Load(id)
}

// Put stores a street, replacing any street with the same ID. Used to restore snapshots.
func (s *MemoryStore) Put(street geomodel.PlaceholderStreet) {
	s.streets.Store(street.ID, street)

	s.mu.Lock()
	s.order.ReplaceOrInsert(street.ID)
	s.mu.Unlock()
}

func (s *MemoryStore) Len() int {
	return s.streets.Size()
}

// Range calls f for every street in ID order until f returns false.
// Streets created during the iteration may be skipped.
func (s *MemoryStore) Range(f func(street geomodel.PlaceholderStreet) bool) {
	s.mu.RLock()
	ids := make([]string, 0, s.order.Len())
	s.order.Ascend(func(id string) bool {
		ids = append(ids, id)
		return true
	})
	s.mu.RUnlock()

	for _, id := range ids {
		street, ok := s.streets.Load(id)
		if !ok {
			continue
		}
		if !f(street) {
			return
		}
	}
}

// RangePrefix iterates streets whose ID starts with prefix, such as a region code.
func (s *MemoryStore) RangePrefix(prefix string, f func(street geomodel.PlaceholderStreet) bool) {
	s.mu.RLock()
	ids := []string{}
	s.order.AscendGreaterOrEqual(prefix, func(id string) bool {
		if len(id) < len(prefix) || id[:len(prefix)] != prefix {
			return false
		}
		ids = append(ids, id)
		return true
	})
	s.mu.RUnlock()

	for _, id := range ids {
		street, ok := s.streets.Load(id)
		if ok && !f(street) {
			return
		}
	}
}

// List returns all streets in ID order.
func (s *MemoryStore) List() []geomodel.PlaceholderStreet {
	out := make([]geomodel.PlaceholderStreet, 0, s.Len())
	s.Range(func(street geomodel.PlaceholderStreet) bool {
		out = append(out, street)
		return true
	})
	return out
}
