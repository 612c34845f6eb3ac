package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stwalsh4118/projectmap/internal/geo"
)

// NotAvailable is displayed for any missing field.
const NotAvailable = "N/A"

// Project is one real-estate project as stored in the dataset and as
// returned by the search endpoint. Identity is ProjectID.
type Project struct {
	ProjectID          FlexString `json:"project_id"`
	NameTH             string     `json:"name_th,omitempty"`
	NameEN             string     `json:"name_en,omitempty"`
	PropertyTypeID     FlexString `json:"propertytype_id,omitempty"`
	PropertyTypeName   string     `json:"propertytype_name_th,omitempty"`
	DeveloperName      string     `json:"developer_name_th,omitempty"`
	BuildingStatusID   FlexString `json:"building_status_id,omitempty"`
	BuildingStatusName string     `json:"building_status_name_th,omitempty"`
	LocationID         FlexString `json:"location_id,omitempty"`
	LocationName       string     `json:"location_name_th,omitempty"`
	ProvinceName       string     `json:"province_name_th,omitempty"`
	Lat                Coordinate `json:"lat"`
	Lng                Coordinate `json:"lng"`
	Latitude           Coordinate `json:"latitude,omitempty"`
	Longitude          Coordinate `json:"longitude,omitempty"`
	CountUnit          FlexString `json:"count_unit,omitempty"`
	PriceMin           FlexString `json:"price_min,omitempty"`
}

// ID returns the project identifier.
func (p Project) ID() string {
	return string(p.ProjectID)
}

// DisplayName returns the Thai name, falling back to the English name.
func (p Project) DisplayName() string {
	if p.NameTH != "" {
		return p.NameTH
	}
	return OrNA(p.NameEN)
}

// RawLatitude returns the latitude text. The lat/lng pair wins whenever
// either of its fields is set; latitude/longitude is read only when both
// are empty, so the two pairs are never mixed.
func (p Project) RawLatitude() string {
	if p.hasShortCoordinates() {
		return p.Lat.String()
	}
	return p.Latitude.String()
}

// RawLongitude returns the longitude text from the same pair as RawLatitude.
func (p Project) RawLongitude() string {
	if p.hasShortCoordinates() {
		return p.Lng.String()
	}
	return p.Longitude.String()
}

func (p Project) hasShortCoordinates() bool {
	return p.Lat != "" || p.Lng != ""
}

// Position returns the parsed coordinates, or a MalformedRecordError when
// either one is missing or unparsable.
func (p Project) Position() (geo.Point, error) {
	lat, latOK := geo.ParseCoordinate(p.RawLatitude())
	lng, lngOK := geo.ParseCoordinate(p.RawLongitude())
	if !latOK || !lngOK {
		return geo.Point{}, &MalformedRecordError{
			ProjectID: p.ID(),
			Latitude:  p.RawLatitude(),
			Longitude: p.RawLongitude(),
		}
	}
	return geo.Point{Lat: lat, Lng: lng}, nil
}

// UnitCount returns the number of units when the dataset provides one.
func (p Project) UnitCount() (int, bool) {
	raw := strings.TrimSpace(p.CountUnit.String())
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// DisplayUnits renders the unit count or N/A.
func (p Project) DisplayUnits() string {
	if n, ok := p.UnitCount(); ok && n > 0 {
		return strconv.Itoa(n)
	}
	return NotAvailable
}

// Normalize trims surrounding whitespace from every text field.
func (p Project) Normalize() Project {
	p.ProjectID = FlexString(strings.TrimSpace(p.ProjectID.String()))
	p.NameTH = strings.TrimSpace(p.NameTH)
	p.NameEN = strings.TrimSpace(p.NameEN)
	p.PropertyTypeName = strings.TrimSpace(p.PropertyTypeName)
	p.DeveloperName = strings.TrimSpace(p.DeveloperName)
	p.BuildingStatusName = strings.TrimSpace(p.BuildingStatusName)
	p.LocationName = strings.TrimSpace(p.LocationName)
	p.ProvinceName = strings.TrimSpace(p.ProvinceName)
	return p
}

// OrNA returns s, or N/A when s is blank.
func OrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

// MalformedRecordError reports a project whose coordinates cannot be parsed.
// Such records stay in the result set but are kept off the map.
type MalformedRecordError struct {
	ProjectID string
	Latitude  string
	Longitude string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("project %q has no valid coordinates (lat=%q, lng=%q)",
		e.ProjectID, e.Latitude, e.Longitude)
}
