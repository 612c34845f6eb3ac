// Package reconcile keeps the map, its popups and every view adapter in
// step with the latest result set.
//
// Each query is tagged with a sequence number when it is issued. Only the
// response to the most recently issued query is applied; anything older is
// dropped. Applying a result set tears down every marker and popup, then
// rebuilds them and publishes the set to the views in one critical section,
// so no view ever observes a half-applied update.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/stwalsh4118/projectmap/internal/filter"
	"github.com/stwalsh4118/projectmap/internal/geo"
	"github.com/stwalsh4118/projectmap/internal/logger"
	"github.com/stwalsh4118/projectmap/internal/mapview"
	"github.com/stwalsh4118/projectmap/internal/models"
)

const (
	// DefaultRadiusMeters is the radius of the circle drawn around the
	// view center.
	DefaultRadiusMeters = 1000
	// DefaultFocusZoom is the zoom level used when focusing a record.
	DefaultFocusZoom = 17
)

var (
	// ErrUnknownRecord is returned for ids not in the current result set.
	ErrUnknownRecord = errors.New("record is not in the current result set")
	// ErrNoCoordinates is returned for records that have no marker.
	ErrNoCoordinates = errors.New("record has no valid coordinates")
	// ErrNotSelected is returned when toggling details of a record whose
	// detail popup is not open.
	ErrNotSelected = errors.New("record is not selected")
	// ErrSuperseded is returned by RefreshSync when a newer query was
	// issued before this one resolved.
	ErrSuperseded = errors.New("query superseded by a newer one")
)

// Querier runs a search for a filter snapshot.
type Querier interface {
	Query(ctx context.Context, criteria filter.Criteria) (models.ResultSet, error)
}

// CriteriaSource provides the filter snapshot a query is issued with.
type CriteriaSource interface {
	Snapshot() filter.Criteria
}

// View receives every applied result set. Publish is called with the
// engine lock held and must not call back into the Engine.
type View interface {
	Publish(s Snapshot)
}

// MarkerState is the per-record bookkeeping of a record on the map.
type MarkerState struct {
	Record      models.Project
	Position    geo.Point
	DistanceKm  float64
	Marker      mapview.MarkerHandle
	Compact     mapview.PopupHandle
	Detail      mapview.PopupHandle
	CompactOpen bool
	DetailOpen  bool
}

// Snapshot is the state published to views. Views must treat it as
// read-only.
type Snapshot struct {
	Seq       uint64
	Criteria  filter.Criteria
	Records   []models.Project
	Partition models.Partition
	Center    geo.Point
	// Distances holds the distance in km from Center for every geoValid
	// record, keyed by project id.
	Distances map[string]float64
}

// Distance returns the distance of a record from the view center, or NaN
// when the record has no valid coordinates.
func (s Snapshot) Distance(id string) float64 {
	if d, ok := s.Distances[id]; ok {
		return d
	}
	return math.NaN()
}

// Option configures an Engine.
type Option func(*Engine)

// WithRadius sets the view-center circle radius in meters.
func WithRadius(meters float64) Option {
	return func(e *Engine) { e.radius = meters }
}

// WithFocusZoom sets the zoom level used by Focus.
func WithFocusZoom(level int) Option {
	return func(e *Engine) { e.focusZoom = level }
}

// Engine is the reconciliation state machine.
type Engine struct {
	mu        sync.Mutex
	widget    mapview.Widget
	querier   Querier
	criteria  CriteriaSource
	log       *logger.Logger
	views     []View
	listener  func()
	radius    float64
	focusZoom int

	markers map[string]*MarkerState
	order   []string
	invalid map[string]struct{}
	center  geo.Point
	circle  mapview.OverlayHandle

	issued   uint64
	applied  uint64
	pending  filter.Criteria
	snap     Snapshot
	active   string
	expanded bool
	lastErr  error

	wg sync.WaitGroup
}

// New creates an Engine drawing on widget, centred on center.
func New(widget mapview.Widget, querier Querier, criteria CriteriaSource, center geo.Point, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		widget:    widget,
		querier:   querier,
		criteria:  criteria,
		log:       log.WithComponent("reconcile"),
		radius:    DefaultRadiusMeters,
		focusZoom: DefaultFocusZoom,
		markers:   make(map[string]*MarkerState),
		invalid:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.moveCenter(center)
	e.snap = Snapshot{
		Partition: models.Partition{Valid: []models.GeoRecord{}, Invalid: []models.InvalidRecord{}},
		Center:    center,
		Distances: map[string]float64{},
	}
	widget.OnMapClick(e.BackgroundClick)
	return e
}

// AddView subscribes v to result sets. It is immediately handed the
// current snapshot.
func (e *Engine) AddView(v View) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.views = append(e.views, v)
	v.Publish(e.snap)
}

// SetListener registers fn to run, without the engine lock, after every
// state change.
func (e *Engine) SetListener(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = fn
}

// Begin issues a new sequence number and captures the criteria it is
// issued with. Any response for an earlier sequence number becomes stale.
func (e *Engine) Begin() (uint64, filter.Criteria) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.issued++
	e.pending = e.criteria.Snapshot()
	return e.issued, e.pending.Clone()
}

// Refresh issues a query for the current criteria in the background and
// applies its result when it is still the latest. It returns the sequence
// number of the query.
func (e *Engine) Refresh(ctx context.Context) uint64 {
	seq, criteria := e.Begin()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		rs, err := e.querier.Query(ctx, criteria)
		e.Apply(seq, rs, err)
	}()
	return seq
}

// RefreshSync issues a query and applies it before returning.
func (e *Engine) RefreshSync(ctx context.Context) error {
	seq, criteria := e.Begin()
	rs, err := e.querier.Query(ctx, criteria)
	if !e.Apply(seq, rs, err) && err == nil {
		return ErrSuperseded
	}
	return err
}

// Wait blocks until every background query has been applied or dropped.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Apply reconciles the map and views with the response to query seq. It
// reports whether the result set was applied. Stale responses are no-ops;
// a failed query leaves the previous render untouched.
func (e *Engine) Apply(seq uint64, rs models.ResultSet, err error) bool {
	e.mu.Lock()
	if seq != e.issued || seq <= e.applied {
		latest := e.issued
		e.mu.Unlock()
		e.log.Debug("Discarding stale result", map[string]interface{}{
			"seq":    seq,
			"latest": latest,
		})
		return false
	}
	e.applied = seq

	if err != nil {
		e.lastErr = err
		e.mu.Unlock()
		e.log.Error("Query failed, keeping previous results", err, map[string]interface{}{
			"seq": seq,
		})
		e.notify()
		return false
	}
	e.lastErr = nil

	rs = rs.Unique()
	e.teardown()
	part := rs.Partition()
	e.build(part)
	e.snap = Snapshot{
		Seq:       seq,
		Criteria:  e.pending.Clone(),
		Records:   append([]models.Project(nil), rs.Records...),
		Partition: part,
		Center:    e.center,
		Distances: e.distances(),
	}
	e.publish()
	e.mu.Unlock()

	if len(part.Invalid) > 0 {
		ids := make([]string, 0, len(part.Invalid))
		for _, inv := range part.Invalid {
			ids = append(ids, inv.Project.ID())
		}
		e.log.Warn("Records without valid coordinates kept off the map", map[string]interface{}{
			"seq":   seq,
			"count": len(ids),
			"ids":   ids,
		})
	}
	e.log.Debug("Applied result set", map[string]interface{}{
		"seq":     seq,
		"records": rs.Len(),
		"markers": len(part.Valid),
	})
	e.notify()
	return true
}

// teardown removes every marker and its popups. Caller holds mu.
func (e *Engine) teardown() {
	for _, id := range e.order {
		ms := e.markers[id]
		e.widget.ClosePopup(ms.Compact)
		e.widget.ClosePopup(ms.Detail)
		e.widget.RemoveMarker(ms.Marker)
	}
	e.markers = make(map[string]*MarkerState, len(e.order))
	e.order = nil
	e.invalid = make(map[string]struct{})
	e.active = ""
	e.expanded = false
}

// build places a marker with an open compact popup for every geoValid
// record. Caller holds mu.
func (e *Engine) build(part models.Partition) {
	e.order = make([]string, 0, len(part.Valid))
	for _, rec := range part.Valid {
		id := rec.Project.ID()
		h := e.widget.PlaceMarker(rec.Position, rec.Project.DisplayName())
		ms := &MarkerState{
			Record:     rec.Project,
			Position:   rec.Position,
			DistanceKm: geo.DistanceKm(e.center, rec.Position),
			Marker:     h,
			Compact:    e.widget.NewPopup(h, mapview.PopupCompact),
			Detail:     e.widget.NewPopup(h, mapview.PopupDetail),
		}
		e.markers[id] = ms
		e.order = append(e.order, id)

		e.widget.OpenPopup(ms.Compact, e.content(ms, mapview.PopupCompact))
		ms.CompactOpen = true
		e.widget.OnMarkerClick(h, func() { e.markerClicked(id) })
	}
	for _, inv := range part.Invalid {
		e.invalid[inv.Project.ID()] = struct{}{}
	}
}

func (e *Engine) publish() {
	for _, v := range e.views {
		v.Publish(e.snap)
	}
}

func (e *Engine) notify() {
	e.mu.Lock()
	fn := e.listener
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (e *Engine) distances() map[string]float64 {
	d := make(map[string]float64, len(e.order))
	for _, id := range e.order {
		d[id] = e.markers[id].DistanceKm
	}
	return d
}

func (e *Engine) markerClicked(id string) {
	if err := e.Select(id); err != nil {
		e.log.Debug("Ignoring click on stale marker", map[string]interface{}{
			"project_id": id,
			"error":      err.Error(),
		})
	}
}

// lookup finds the marker of id. Caller holds mu.
func (e *Engine) lookup(id string) (*MarkerState, error) {
	if ms, ok := e.markers[id]; ok {
		return ms, nil
	}
	if _, ok := e.invalid[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrNoCoordinates, id)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownRecord, id)
}

// Select opens the detail popup of id and makes it the active record.
// Every compact popup is closed, except that a previously active record
// drops back to its compact popup. Selecting the active record again
// re-opens its detail popup and keeps it open.
func (e *Engine) Select(id string) error {
	e.mu.Lock()
	err := e.selectLocked(id)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.notify()
	return nil
}

func (e *Engine) selectLocked(id string) error {
	ms, err := e.lookup(id)
	if err != nil {
		return err
	}

	if e.active == id {
		e.widget.OpenPopup(ms.Detail, e.content(ms, mapview.PopupDetail))
		ms.DetailOpen = true
		return nil
	}

	for _, oid := range e.order {
		other := e.markers[oid]
		if other.CompactOpen {
			e.widget.ClosePopup(other.Compact)
			other.CompactOpen = false
		}
	}

	if prev, ok := e.markers[e.active]; ok {
		e.widget.ClosePopup(prev.Detail)
		prev.DetailOpen = false
		e.widget.OpenPopup(prev.Compact, e.content(prev, mapview.PopupCompact))
		prev.CompactOpen = true
	}

	e.expanded = false
	e.widget.OpenPopup(ms.Detail, e.content(ms, mapview.PopupDetail))
	ms.DetailOpen = true
	e.active = id
	return nil
}

// Focus pans and zooms the map to id, then selects it.
func (e *Engine) Focus(id string) error {
	e.mu.Lock()
	ms, err := e.lookup(id)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.widget.PanTo(ms.Position)
	e.widget.SetZoom(e.focusZoom)
	err = e.selectLocked(id)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.notify()
	return nil
}

// BackgroundClick closes the active detail popup and re-opens every
// compact popup.
func (e *Engine) BackgroundClick() {
	e.mu.Lock()
	if ms, ok := e.markers[e.active]; ok {
		e.widget.ClosePopup(ms.Detail)
		ms.DetailOpen = false
	}
	e.active = ""
	e.expanded = false
	for _, id := range e.order {
		ms := e.markers[id]
		if !ms.CompactOpen {
			e.widget.OpenPopup(ms.Compact, e.content(ms, mapview.PopupCompact))
			ms.CompactOpen = true
		}
	}
	e.mu.Unlock()
	e.notify()
}

// ToggleDetails flips the "More details" panel of the active detail popup
// and returns the new state. The panel starts collapsed each time a detail
// popup is opened for a new selection.
func (e *Engine) ToggleDetails(id string) (bool, error) {
	e.mu.Lock()
	ms, err := e.lookup(id)
	if err != nil {
		e.mu.Unlock()
		return false, err
	}
	if e.active != id || !ms.DetailOpen {
		e.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrNotSelected, id)
	}
	e.expanded = !e.expanded
	expanded := e.expanded
	e.widget.OpenPopup(ms.Detail, e.content(ms, mapview.PopupDetail))
	e.mu.Unlock()

	e.notify()
	return expanded, nil
}

// SetViewCenter moves the distance reference point, pans the map to it and
// redraws the radius circle. Distances and open popups are refreshed and
// the views receive the updated snapshot.
func (e *Engine) SetViewCenter(p geo.Point) {
	e.mu.Lock()
	e.moveCenter(p)
	for _, id := range e.order {
		ms := e.markers[id]
		ms.DistanceKm = geo.DistanceKm(p, ms.Position)
		if ms.CompactOpen {
			e.widget.OpenPopup(ms.Compact, e.content(ms, mapview.PopupCompact))
		}
		if ms.DetailOpen {
			e.widget.OpenPopup(ms.Detail, e.content(ms, mapview.PopupDetail))
		}
	}
	e.snap.Center = p
	e.snap.Distances = e.distances()
	e.publish()
	e.mu.Unlock()
	e.notify()
}

// moveCenter pans to p and redraws the circle. Caller holds mu, or is New.
func (e *Engine) moveCenter(p geo.Point) {
	e.center = p
	e.widget.PanTo(p)
	if e.circle != 0 {
		e.widget.RemoveOverlay(e.circle)
	}
	e.circle = e.widget.DrawCircle(p, e.radius)
}

// content builds popup content for a marker. Caller holds mu.
func (e *Engine) content(ms *MarkerState, kind mapview.PopupKind) mapview.PopupContent {
	p := ms.Record
	c := mapview.PopupContent{
		Kind:         kind,
		ProjectID:    p.ID(),
		Title:        p.DisplayName(),
		Distance:     geo.FormatDistance(ms.DistanceKm),
		PropertyType: models.OrNA(p.PropertyTypeName),
		Developer:    models.OrNA(p.DeveloperName),
		Coordinates:  geo.FormatCoordinate(p.RawLatitude()) + ", " + geo.FormatCoordinate(p.RawLongitude()),
		Units:        p.DisplayUnits(),
	}
	if kind == mapview.PopupDetail {
		c.BuildingStatus = models.OrNA(p.BuildingStatusName)
		c.Location = models.OrNA(p.LocationName)
		c.Province = models.OrNA(p.ProvinceName)
		c.PriceMin = models.OrNA(p.PriceMin.String())
		c.Expanded = e.expanded
	}
	return c
}

// Snapshot returns the last published snapshot.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// MarkerState returns a copy of the marker state of id.
func (e *Engine) MarkerState(id string) (MarkerState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ms, ok := e.markers[id]
	if !ok {
		return MarkerState{}, false
	}
	return *ms, true
}

// MarkerCount returns the number of records on the map.
func (e *Engine) MarkerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.order)
}

// ActiveID returns the record whose detail popup is open, or "".
func (e *Engine) ActiveID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Expanded reports whether the active detail popup shows more details.
func (e *Engine) Expanded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expanded
}

// Center returns the view center.
func (e *Engine) Center() geo.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.center
}

// Err returns the error of the latest query, or nil once a later query
// succeeds.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Seq returns the latest issued and latest applied sequence numbers.
func (e *Engine) Seq() (issued, applied uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.issued, e.applied
}
