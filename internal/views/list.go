// Package views renders projections of the current result set: the
// property list, the sidebar summary and list, and keyword suggestions.
// Each view is a reconcile.View and forwards user actions to the engine.
package views

import (
	"sync"
	"time"

	"github.com/stwalsh4118/projectmap/internal/clock"
	"github.com/stwalsh4118/projectmap/internal/geo"
	"github.com/stwalsh4118/projectmap/internal/models"
	"github.com/stwalsh4118/projectmap/internal/reconcile"
)

// HighlightDuration is how long a card stays marked active after
// "view on map".
const HighlightDuration = 5 * time.Second

// NoCoordinatesDiagnostic is shown for records kept off the map.
const NoCoordinatesDiagnostic = "no valid coordinates"

// Focuser centres the map on a record and selects it.
type Focuser interface {
	Focus(id string) error
}

// Card is one entry of the property list.
type Card struct {
	ProjectID      string
	Name           string
	Location       string
	PropertyType   string
	BuildingStatus string
	Developer      string
	Coordinates    string
	Distance       string
}

// SkippedRecord is a record left out of the list because it cannot be
// placed on the map.
type SkippedRecord struct {
	ProjectID  string
	Name       string
	Diagnostic string
}

// ListView is the property list. Cards keep result order.
type ListView struct {
	mu        sync.Mutex
	focuser   Focuser
	scheduler clock.Scheduler
	onScroll  func()
	onChange  func()

	cards    []Card
	skipped  []SkippedRecord
	activeID string
	timer    clock.Timer
	gen      uint64
}

// NewListView creates a list that focuses records through focuser and
// times card highlights with scheduler.
func NewListView(focuser Focuser, scheduler clock.Scheduler) *ListView {
	return &ListView{focuser: focuser, scheduler: scheduler}
}

// OnScroll registers fn to bring the map into view after "view on map".
func (v *ListView) OnScroll(fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onScroll = fn
}

// OnChange registers fn to run when the highlight expires.
func (v *ListView) OnChange(fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onChange = fn
}

// Publish implements reconcile.View.
func (v *ListView) Publish(s reconcile.Snapshot) {
	cards := make([]Card, 0, len(s.Partition.Valid))
	for _, rec := range s.Partition.Valid {
		cards = append(cards, newCard(rec.Project, s.Distance(rec.Project.ID())))
	}
	skipped := make([]SkippedRecord, 0, len(s.Partition.Invalid))
	for _, inv := range s.Partition.Invalid {
		skipped = append(skipped, SkippedRecord{
			ProjectID:  inv.Project.ID(),
			Name:       inv.Project.DisplayName(),
			Diagnostic: NoCoordinatesDiagnostic,
		})
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.cards = cards
	v.skipped = skipped
	if v.activeID != "" && !containsCard(cards, v.activeID) {
		v.clearHighlight()
	}
}

func newCard(p models.Project, distanceKm float64) Card {
	return Card{
		ProjectID:      p.ID(),
		Name:           p.DisplayName(),
		Location:       models.OrNA(p.LocationName),
		PropertyType:   models.OrNA(p.PropertyTypeName),
		BuildingStatus: models.OrNA(p.BuildingStatusName),
		Developer:      models.OrNA(p.DeveloperName),
		Coordinates:    geo.FormatCoordinate(p.RawLatitude()) + ", " + geo.FormatCoordinate(p.RawLongitude()),
		Distance:       geo.FormatDistance(distanceKm),
	}
}

func containsCard(cards []Card, id string) bool {
	for _, c := range cards {
		if c.ProjectID == id {
			return true
		}
	}
	return false
}

// Cards returns the cards in result order.
func (v *ListView) Cards() []Card {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Card(nil), v.cards...)
}

// Skipped returns the records without valid coordinates.
func (v *ListView) Skipped() []SkippedRecord {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]SkippedRecord(nil), v.skipped...)
}

// ActiveID returns the highlighted card, or "".
func (v *ListView) ActiveID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.activeID
}

// ViewOnMap focuses the record on the map, asks for the map to be scrolled
// into view and highlights the card for HighlightDuration. Activating a card
// restarts the window.
func (v *ListView) ViewOnMap(id string) error {
	if err := v.focuser.Focus(id); err != nil {
		return err
	}

	v.mu.Lock()
	v.clearHighlight()
	v.activeID = id
	v.gen++
	gen := v.gen
	v.timer = v.scheduler.AfterFunc(HighlightDuration, func() { v.expire(gen) })
	scroll := v.onScroll
	v.mu.Unlock()

	if scroll != nil {
		scroll()
	}
	return nil
}

func (v *ListView) expire(gen uint64) {
	v.mu.Lock()
	if gen != v.gen {
		v.mu.Unlock()
		return
	}
	v.activeID = ""
	v.timer = nil
	changed := v.onChange
	v.mu.Unlock()

	if changed != nil {
		changed()
	}
}

// clearHighlight stops the pending highlight timer. Caller holds mu.
func (v *ListView) clearHighlight() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.activeID = ""
	v.gen++
}
