package mapview

import (
	"sort"
	"sync"

	"github.com/stwalsh4118/projectmap/internal/geo"
)

// Marker is a snapshot of a placed marker.
type Marker struct {
	Handle   MarkerHandle
	Position geo.Point
	Title    string
}

// Popup is a snapshot of a popup.
type Popup struct {
	Handle  PopupHandle
	Anchor  MarkerHandle
	Kind    PopupKind
	Open    bool
	Content PopupContent
}

// Circle is a snapshot of a circle overlay.
type Circle struct {
	Handle       OverlayHandle
	Center       geo.Point
	RadiusMeters float64
}

// Canvas is an in-memory Widget. It records what is on the map and lets
// callers simulate clicks. Safe for concurrent use.
type Canvas struct {
	mu           sync.Mutex
	next         int
	markers      map[MarkerHandle]*Marker
	popups       map[PopupHandle]*Popup
	circles      map[OverlayHandle]*Circle
	markerClicks map[MarkerHandle]func()
	mapClick     func()
	center       geo.Point
	zoom         int
	placed       int
	removed      int
}

// NewCanvas creates an empty canvas centred on center.
func NewCanvas(center geo.Point, zoom int) *Canvas {
	return &Canvas{
		markers:      make(map[MarkerHandle]*Marker),
		popups:       make(map[PopupHandle]*Popup),
		circles:      make(map[OverlayHandle]*Circle),
		markerClicks: make(map[MarkerHandle]func()),
		center:       center,
		zoom:         zoom,
	}
}

func (c *Canvas) handle() int {
	c.next++
	return c.next
}

// PlaceMarker implements Widget.
func (c *Canvas) PlaceMarker(p geo.Point, title string) MarkerHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := MarkerHandle(c.handle())
	c.markers[h] = &Marker{Handle: h, Position: p, Title: title}
	c.placed++
	return h
}

// RemoveMarker implements Widget.
func (c *Canvas) RemoveMarker(h MarkerHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.markers[h]; !ok {
		return
	}
	delete(c.markers, h)
	delete(c.markerClicks, h)
	for ph, p := range c.popups {
		if p.Anchor == h {
			delete(c.popups, ph)
		}
	}
	c.removed++
}

// NewPopup implements Widget. Popups for unknown markers are not tracked.
func (c *Canvas) NewPopup(anchor MarkerHandle, kind PopupKind) PopupHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := PopupHandle(c.handle())
	if _, ok := c.markers[anchor]; ok {
		c.popups[h] = &Popup{Handle: h, Anchor: anchor, Kind: kind}
	}
	return h
}

// OpenPopup implements Widget.
func (c *Canvas) OpenPopup(h PopupHandle, content PopupContent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.popups[h]; ok {
		p.Open = true
		p.Content = content
	}
}

// ClosePopup implements Widget.
func (c *Canvas) ClosePopup(h PopupHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.popups[h]; ok {
		p.Open = false
	}
}

// PanTo implements Widget.
func (c *Canvas) PanTo(p geo.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.center = p
}

// SetZoom implements Widget.
func (c *Canvas) SetZoom(level int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = level
}

// DrawCircle implements Widget.
func (c *Canvas) DrawCircle(center geo.Point, radiusMeters float64) OverlayHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := OverlayHandle(c.handle())
	c.circles[h] = &Circle{Handle: h, Center: center, RadiusMeters: radiusMeters}
	return h
}

// RemoveOverlay implements Widget.
func (c *Canvas) RemoveOverlay(h OverlayHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.circles, h)
}

// OnMapClick implements Widget.
func (c *Canvas) OnMapClick(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mapClick = fn
}

// OnMarkerClick implements Widget.
func (c *Canvas) OnMarkerClick(h MarkerHandle, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.markers[h]; ok {
		c.markerClicks[h] = fn
	}
}

// ClickMarker simulates a click on a marker. It reports whether a handler
// ran.
func (c *Canvas) ClickMarker(h MarkerHandle) bool {
	c.mu.Lock()
	fn := c.markerClicks[h]
	c.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// ClickBackground simulates a click on empty map.
func (c *Canvas) ClickBackground() {
	c.mu.Lock()
	fn := c.mapClick
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Markers returns the placed markers ordered by handle.
func (c *Canvas) Markers() []Marker {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Marker, 0, len(c.markers))
	for _, m := range c.markers {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

// MarkerCount returns the number of markers on the map.
func (c *Canvas) MarkerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.markers)
}

// OpenPopups returns the open popups of kind, ordered by handle.
func (c *Canvas) OpenPopups(kind PopupKind) []Popup {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Popup
	for _, p := range c.popups {
		if p.Open && p.Kind == kind {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

// PopupCount returns the number of tracked popups, open or closed.
func (c *Canvas) PopupCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.popups)
}

// Circles returns the circle overlays.
func (c *Canvas) Circles() []Circle {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Circle, 0, len(c.circles))
	for _, ci := range c.circles {
		out = append(out, *ci)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

// Center returns the current pan position.
func (c *Canvas) Center() geo.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.center
}

// Zoom returns the current zoom level.
func (c *Canvas) Zoom() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

// Totals returns how many markers were ever placed and removed.
func (c *Canvas) Totals() (placed, removed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.placed, c.removed
}
