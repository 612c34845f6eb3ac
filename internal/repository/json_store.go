package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stwalsh4118/projectmap/internal/models"
)

// Dataset file names inside the data directory.
const (
	ProjectsFile         = "project.json"
	LocationsFile        = "location.json"
	PropertyTypesFile    = "properties_type.json"
	BuildingStatusesFile = "building_status.json"
)

// projectFile is the on-disk envelope of the project dataset.
type projectFile struct {
	Payload []models.Project `json:"payload"`
}

// lookupList holds one lookup file's options, or the error hit loading it.
type lookupList struct {
	options []models.LookupOption
	err     error
}

// JSONStore serves projects and lookups from JSON files loaded once into
// memory. The data is read-only after loading, so no locking is needed.
type JSONStore struct {
	projects    []models.Project
	projectsErr error
	lookups     map[string]lookupList
}

// NewJSONStore loads the dataset from dataDir. A missing or malformed file
// does not fail construction; the affected operations return the load error
// instead so the rest of the API keeps serving.
func NewJSONStore(dataDir string) *JSONStore {
	s := &JSONStore{lookups: make(map[string]lookupList, 3)}

	var pf projectFile
	if err := readJSON(filepath.Join(dataDir, ProjectsFile), &pf); err != nil {
		s.projectsErr = err
	} else {
		s.projects = make([]models.Project, 0, len(pf.Payload))
		for _, p := range pf.Payload {
			s.projects = append(s.projects, p.Normalize())
		}
	}

	for name, file := range map[string]string{
		LookupLocations:        LocationsFile,
		LookupPropertyTypes:    PropertyTypesFile,
		LookupBuildingStatuses: BuildingStatusesFile,
	} {
		var opts []models.LookupOption
		err := readJSON(filepath.Join(dataDir, file), &opts)
		s.lookups[name] = lookupList{options: opts, err: err}
	}

	return s
}

// NewJSONStoreFromData builds a store from in-memory data.
func NewJSONStoreFromData(projects []models.Project, locations, propertyTypes, buildingStatuses []models.LookupOption) *JSONStore {
	normalized := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		normalized = append(normalized, p.Normalize())
	}
	return &JSONStore{
		projects: normalized,
		lookups: map[string]lookupList{
			LookupLocations:        {options: locations},
			LookupPropertyTypes:    {options: propertyTypes},
			LookupBuildingStatuses: {options: buildingStatuses},
		},
	}
}

// LoadErrors returns every file load failure, keyed by dataset name.
func (s *JSONStore) LoadErrors() map[string]error {
	errs := make(map[string]error)
	if s.projectsErr != nil {
		errs["projects"] = s.projectsErr
	}
	for name, l := range s.lookups {
		if l.err != nil {
			errs[name] = l.err
		}
	}
	return errs
}

// Search filters the in-memory projects.
func (s *JSONStore) Search(ctx context.Context, filter SearchFilter) ([]models.Project, error) {
	if s.projectsErr != nil {
		return nil, fmt.Errorf("project dataset unavailable: %w", s.projectsErr)
	}

	results := []models.Project{}
	for _, p := range s.projects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
		if filter.Matches(p) {
			results = append(results, toWire(p))
		}
	}
	return results, nil
}

// All returns every project.
func (s *JSONStore) All(ctx context.Context) ([]models.Project, error) {
	return s.Search(ctx, SearchFilter{})
}

// Ping reports the project dataset load error, if any.
func (s *JSONStore) Ping(ctx context.Context) error {
	if s.projectsErr != nil {
		return fmt.Errorf("project dataset unavailable: %w", s.projectsErr)
	}
	return ctx.Err()
}

// Locations returns the location options.
func (s *JSONStore) Locations(ctx context.Context) ([]models.LookupOption, error) {
	return s.lookup(ctx, LookupLocations)
}

// PropertyTypes returns the property-type options.
func (s *JSONStore) PropertyTypes(ctx context.Context) ([]models.LookupOption, error) {
	return s.lookup(ctx, LookupPropertyTypes)
}

// BuildingStatuses returns the building-status options.
func (s *JSONStore) BuildingStatuses(ctx context.Context) ([]models.LookupOption, error) {
	return s.lookup(ctx, LookupBuildingStatuses)
}

func (s *JSONStore) lookup(ctx context.Context, name string) ([]models.LookupOption, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := s.lookups[name]
	if l.err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLookupUnavailable, name, l.err)
	}
	out := make([]models.LookupOption, len(l.options))
	copy(out, l.options)
	return out, nil
}

func readJSON(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
