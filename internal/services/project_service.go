package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stwalsh4118/projectmap/internal/logger"
	"github.com/stwalsh4118/projectmap/internal/models"
	"github.com/stwalsh4118/projectmap/internal/repository"
	"github.com/stwalsh4118/projectmap/internal/textmatch"
)

// Service-level errors
var (
	ErrInvalidLimit    = errors.New("invalid limit")
	ErrUnknownLookup   = errors.New("unknown lookup")
	ErrDataUnavailable = errors.New("project data unavailable")
)

// SearchRequest is the raw search input as received from the API.
// PropertyTypes and BuildingStatus are comma-separated id lists.
type SearchRequest struct {
	LocationID     string
	PropertyTypes  string
	BuildingStatus string
	Keyword        string
	Limit          int
}

// ProjectService defines the interface for project search and lookup
// operations.
type ProjectService interface {
	// Search validates req and returns matching projects in dataset order.
	// Returns ErrInvalidLimit for a negative limit.
	// Returns ErrDataUnavailable wrapping the store error on failure.
	Search(ctx context.Context, req SearchRequest) ([]models.Project, error)

	// Points returns every project, unfiltered.
	Points(ctx context.Context) ([]models.Project, error)

	// Lookup returns the options of the named lookup list.
	// Returns ErrUnknownLookup for an unrecognised name.
	Lookup(ctx context.Context, name string) ([]models.LookupOption, error)

	// Ready reports whether the backing store can serve requests.
	Ready(ctx context.Context) error
}

type projectService struct {
	store        repository.Store
	log          *logger.Logger
	defaultLimit int
	maxLimit     int
}

// NewProjectService creates a new ProjectService. defaultLimit applies when
// a request carries no limit; larger limits are clamped to maxLimit.
func NewProjectService(store repository.Store, log *logger.Logger, defaultLimit, maxLimit int) ProjectService {
	return &projectService{
		store:        store,
		log:          log,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Search normalises the request into a SearchFilter and queries the store.
func (s *projectService) Search(ctx context.Context, req SearchRequest) ([]models.Project, error) {
	filter, err := s.buildFilter(req)
	if err != nil {
		s.log.Warn("Invalid search request", map[string]interface{}{
			"limit": req.Limit,
			"error": err.Error(),
		})
		return nil, err
	}

	s.log.Debug("Searching projects", map[string]interface{}{
		"location_id":     filter.LocationID,
		"property_types":  filter.PropertyTypeIDs,
		"building_status": filter.BuildingStatusIDs,
		"keyword":         filter.Keyword,
		"limit":           filter.Limit,
	})

	projects, err := s.store.Search(ctx, filter)
	if err != nil {
		s.log.Error("Failed to search projects", err, map[string]interface{}{
			"location_id": filter.LocationID,
		})
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	s.log.Info("Projects found", map[string]interface{}{
		"location_id": filter.LocationID,
		"count":       len(projects),
	})
	return projects, nil
}

// Points returns every project.
func (s *projectService) Points(ctx context.Context) ([]models.Project, error) {
	projects, err := s.store.All(ctx)
	if err != nil {
		s.log.Error("Failed to load project points", err, nil)
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	return projects, nil
}

// Lookup dispatches to the store's lookup list by name.
func (s *projectService) Lookup(ctx context.Context, name string) ([]models.LookupOption, error) {
	var (
		options []models.LookupOption
		err     error
	)
	switch name {
	case repository.LookupLocations:
		options, err = s.store.Locations(ctx)
	case repository.LookupPropertyTypes:
		options, err = s.store.PropertyTypes(ctx)
	case repository.LookupBuildingStatuses:
		options, err = s.store.BuildingStatuses(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLookup, name)
	}
	if err != nil {
		s.log.Error("Failed to load lookup", err, map[string]interface{}{
			"lookup": name,
		})
		return nil, err
	}
	return options, nil
}

// Ready pings the store.
func (s *projectService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *projectService) buildFilter(req SearchRequest) (repository.SearchFilter, error) {
	limit := req.Limit
	switch {
	case limit < 0:
		return repository.SearchFilter{}, fmt.Errorf("%w: must not be negative, got %d", ErrInvalidLimit, limit)
	case limit == 0:
		limit = s.defaultLimit
	case s.maxLimit > 0 && limit > s.maxLimit:
		limit = s.maxLimit
	}

	return repository.SearchFilter{
		LocationID:        strings.TrimSpace(req.LocationID),
		PropertyTypeIDs:   SplitIDs(req.PropertyTypes),
		BuildingStatusIDs: SplitIDs(req.BuildingStatus),
		Keyword:           textmatch.EffectiveKeyword(req.Keyword),
		Limit:             limit,
	}, nil
}

// SplitIDs parses a comma-separated id list, dropping blank entries.
func SplitIDs(csv string) []string {
	var ids []string
	for _, part := range strings.Split(csv, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
