package views

import (
	"sort"
	"sync"

	"github.com/stwalsh4118/projectmap/internal/geo"
	"github.com/stwalsh4118/projectmap/internal/models"
	"github.com/stwalsh4118/projectmap/internal/reconcile"
	"github.com/stwalsh4118/projectmap/internal/textmatch"
)

// SidebarEntry is one row of the sidebar project list.
type SidebarEntry struct {
	ProjectID    string
	Name         string
	PropertyType string
	DistanceKm   float64
	Distance     string
}

// SidebarListView lists geoValid records nearest first. Its text filter
// narrows the rendered rows without issuing a query.
type SidebarListView struct {
	mu      sync.RWMutex
	focuser Focuser
	entries []SidebarEntry
	filter  string
}

// NewSidebarListView creates a sidebar list that focuses records through
// focuser.
func NewSidebarListView(focuser Focuser) *SidebarListView {
	return &SidebarListView{focuser: focuser}
}

// Publish implements reconcile.View. Equal distances keep result order.
func (v *SidebarListView) Publish(s reconcile.Snapshot) {
	entries := make([]SidebarEntry, 0, len(s.Partition.Valid))
	for _, rec := range s.Partition.Valid {
		d := s.Distance(rec.Project.ID())
		entries = append(entries, SidebarEntry{
			ProjectID:    rec.Project.ID(),
			Name:         rec.Project.DisplayName(),
			PropertyType: models.OrNA(rec.Project.PropertyTypeName),
			DistanceKm:   d,
			Distance:     geo.FormatDistance(d),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DistanceKm < entries[j].DistanceKm
	})

	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = entries
}

// SetFilter sets the case-insensitive text filter. Blank shows every row.
func (v *SidebarListView) SetFilter(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = text
}

// Filter returns the current filter text.
func (v *SidebarListView) Filter() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filter
}

// Entries returns the rows matching the filter.
func (v *SidebarListView) Entries() []SidebarEntry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]SidebarEntry, 0, len(v.entries))
	for _, e := range v.entries {
		if textmatch.AnyContains(v.filter, e.Name, e.PropertyType) {
			out = append(out, e)
		}
	}
	return out
}

// Total returns the number of rows before filtering.
func (v *SidebarListView) Total() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}

// Select focuses the record on the map.
func (v *SidebarListView) Select(id string) error {
	return v.focuser.Focus(id)
}
