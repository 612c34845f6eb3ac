// Package filter holds the current filter criteria: the single source of
// truth read by the query client and mutated by the input controller.
package filter

import (
	"strings"
	"sync"

	"github.com/stwalsh4118/projectmap/internal/textmatch"
)

// Criteria is one snapshot of the filter state. An empty id set means no
// restriction on that dimension.
type Criteria struct {
	LocationID        string
	PropertyTypeIDs   []string
	BuildingStatusIDs []string
	Keyword           string
}

// EffectiveKeyword returns the keyword when it is long enough to search by.
func (c Criteria) EffectiveKeyword() string {
	return textmatch.EffectiveKeyword(c.Keyword)
}

// Clone returns a deep copy.
func (c Criteria) Clone() Criteria {
	c.PropertyTypeIDs = cloneIDs(c.PropertyTypeIDs)
	c.BuildingStatusIDs = cloneIDs(c.BuildingStatusIDs)
	return c
}

// Defaults are the criteria a Store starts from and resets to.
type Defaults struct {
	LocationID        string
	PropertyTypeIDs   []string
	BuildingStatusIDs []string
}

// Store is the mutable filter state. Setters only mutate; triggering a
// query is the caller's job.
type Store struct {
	mu       sync.RWMutex
	defaults Defaults
	current  Criteria
}

// NewStore creates a Store initialised to d.
func NewStore(d Defaults) *Store {
	s := &Store{defaults: Defaults{
		LocationID:        strings.TrimSpace(d.LocationID),
		PropertyTypeIDs:   normalizeIDs(d.PropertyTypeIDs),
		BuildingStatusIDs: normalizeIDs(d.BuildingStatusIDs),
	}}
	s.Reset()
	return s
}

// Snapshot returns a copy of the current criteria.
func (s *Store) Snapshot() Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Reset restores the defaults and clears the keyword.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Criteria{
		LocationID:        s.defaults.LocationID,
		PropertyTypeIDs:   cloneIDs(s.defaults.PropertyTypeIDs),
		BuildingStatusIDs: cloneIDs(s.defaults.BuildingStatusIDs),
	}
}

// SetLocation sets the location filter. An empty id clears it.
func (s *Store) SetLocation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.LocationID = strings.TrimSpace(id)
}

// SetPropertyTypes replaces the property-type set.
func (s *Store) SetPropertyTypes(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.PropertyTypeIDs = normalizeIDs(ids)
}

// SetBuildingStatuses replaces the building-status set.
func (s *Store) SetBuildingStatuses(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.BuildingStatusIDs = normalizeIDs(ids)
}

// SetKeyword stores the raw keyword. Whether it is active is decided by
// Criteria.EffectiveKeyword.
func (s *Store) SetKeyword(keyword string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Keyword = keyword
}

// normalizeIDs trims ids and drops blanks and duplicates, keeping the
// first occurrence order.
func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
