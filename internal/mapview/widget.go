// Package mapview defines the map widget the reconciliation engine draws
// on, and Canvas, an in-memory implementation used by the terminal browser
// and by tests.
package mapview

import "github.com/stwalsh4118/projectmap/internal/geo"

// Handles are opaque references issued by a Widget. Zero is never issued.
type (
	MarkerHandle  int
	PopupHandle   int
	OverlayHandle int
)

// PopupKind distinguishes the two popup tiers of a marker.
type PopupKind int

const (
	// PopupCompact is the always-visible summary popup.
	PopupCompact PopupKind = iota + 1
	// PopupDetail is the full popup opened on selection.
	PopupDetail
)

func (k PopupKind) String() string {
	switch k {
	case PopupCompact:
		return "compact"
	case PopupDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// PopupContent is the data a popup shows. Rendering is up to the widget.
type PopupContent struct {
	Kind         PopupKind
	ProjectID    string
	Title        string
	Distance     string
	PropertyType string
	Developer    string
	Coordinates  string
	Units        string

	// More-details panel, shown when Expanded.
	BuildingStatus string
	Location       string
	Province       string
	PriceMin       string
	Expanded       bool
}

// Widget is the map surface. Implementations must not call back into the
// caller (click handlers included) while holding their own locks.
type Widget interface {
	PlaceMarker(p geo.Point, title string) MarkerHandle
	// RemoveMarker removes the marker with its popups and click handler.
	RemoveMarker(h MarkerHandle)

	// NewPopup creates a closed popup anchored to a marker.
	NewPopup(anchor MarkerHandle, kind PopupKind) PopupHandle
	// OpenPopup shows the popup with content, replacing any content it had.
	OpenPopup(h PopupHandle, content PopupContent)
	ClosePopup(h PopupHandle)

	PanTo(p geo.Point)
	SetZoom(level int)

	DrawCircle(center geo.Point, radiusMeters float64) OverlayHandle
	RemoveOverlay(h OverlayHandle)

	OnMapClick(fn func())
	OnMarkerClick(h MarkerHandle, fn func())
}
