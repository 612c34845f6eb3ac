package repository

import (
	"context"
	"errors"

	"github.com/stwalsh4118/projectmap/internal/models"
	"github.com/stwalsh4118/projectmap/internal/textmatch"
)

// ErrLookupUnavailable is returned when a lookup list could not be loaded.
var ErrLookupUnavailable = errors.New("lookup data unavailable")

// Lookup names, used in errors and logs.
const (
	LookupLocations        = "locations"
	LookupPropertyTypes    = "property-types"
	LookupBuildingStatuses = "building-status"
)

// SearchFilter is a validated search request. Empty id slices and an empty
// location mean no filtering on that dimension.
type SearchFilter struct {
	LocationID        string
	PropertyTypeIDs   []string
	BuildingStatusIDs []string
	Keyword           string
	Limit             int
}

// ProjectRepository defines data access for projects.
type ProjectRepository interface {
	// Search returns projects matching filter in dataset order, at most
	// filter.Limit of them.
	Search(ctx context.Context, filter SearchFilter) ([]models.Project, error)

	// All returns every project in dataset order.
	All(ctx context.Context) ([]models.Project, error)

	// Ping reports whether the backing store is usable.
	Ping(ctx context.Context) error
}

// LookupRepository defines data access for the filter option lists.
type LookupRepository interface {
	Locations(ctx context.Context) ([]models.LookupOption, error)
	PropertyTypes(ctx context.Context) ([]models.LookupOption, error)
	BuildingStatuses(ctx context.Context) ([]models.LookupOption, error)
}

// Store is a backend that serves both projects and lookups.
type Store interface {
	ProjectRepository
	LookupRepository
}

// Matches reports whether p satisfies every dimension of filter.
func (f SearchFilter) Matches(p models.Project) bool {
	if f.LocationID != "" && p.LocationID.String() != f.LocationID {
		return false
	}
	if len(f.PropertyTypeIDs) > 0 && !containsID(f.PropertyTypeIDs, p.PropertyTypeID.String()) {
		return false
	}
	if len(f.BuildingStatusIDs) > 0 && !containsID(f.BuildingStatusIDs, p.BuildingStatusID.String()) {
		return false
	}
	if f.Keyword != "" && !textmatch.AnyContains(f.Keyword,
		p.NameTH, p.NameEN, p.PropertyTypeName, p.DeveloperName, p.ProvinceName) {
		return false
	}
	return true
}

// toWire fills the numeric lat/lng fields from the raw coordinates. An
// unparsable coordinate becomes null while the raw text is kept.
func toWire(p models.Project) models.Project {
	rawLat, rawLng := p.RawLatitude(), p.RawLongitude()
	p.Lat = wireCoordinate(rawLat)
	p.Lng = wireCoordinate(rawLng)
	if p.Latitude == "" {
		p.Latitude = models.Coordinate(rawLat)
	}
	if p.Longitude == "" {
		p.Longitude = models.Coordinate(rawLng)
	}
	return p
}

func wireCoordinate(raw string) models.Coordinate {
	c := models.Coordinate(raw)
	if _, ok := c.Float(); !ok {
		return ""
	}
	return c
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
