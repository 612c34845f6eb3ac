package models

import "github.com/stwalsh4118/projectmap/internal/geo"

// LookupOption is one entry of the location, property-type or
// building-status lists used to populate the filter controls.
type LookupOption struct {
	ID     FlexString `json:"id"`
	Name   string     `json:"name"`
	NameTH string     `json:"name_th,omitempty"`
	Lat    Coordinate `json:"lat,omitempty"`
	Lng    Coordinate `json:"lng,omitempty"`
}

// Key returns the option identifier.
func (o LookupOption) Key() string {
	return string(o.ID)
}

// Label returns the display name, falling back to the Thai name.
func (o LookupOption) Label() string {
	if o.Name != "" {
		return o.Name
	}
	return OrNA(o.NameTH)
}

// Center returns the option's coordinates. Only locations carry them.
func (o LookupOption) Center() (geo.Point, bool) {
	lat, latOK := o.Lat.Float()
	lng, lngOK := o.Lng.Float()
	if !latOK || !lngOK {
		return geo.Point{}, false
	}
	return geo.Point{Lat: lat, Lng: lng}, true
}
