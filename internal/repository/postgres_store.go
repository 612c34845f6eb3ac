package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/text/unicode/norm"
	"github.com/stwalsh4118/projectmap/internal/database"
	"github.com/stwalsh4118/projectmap/internal/models"
)

// projectColumns is shared by every project query. Text columns are
// coalesced so rows scan into plain strings.
const projectColumns = `
	project_id,
	COALESCE(name_th, ''),
	COALESCE(name_en, ''),
	COALESCE(propertytype_id, ''),
	COALESCE(propertytype_name_th, ''),
	COALESCE(developer_name_th, ''),
	COALESCE(building_status_id, ''),
	COALESCE(building_status_name_th, ''),
	COALESCE(location_id, ''),
	COALESCE(location_name_th, ''),
	COALESCE(province_name_th, ''),
	COALESCE(latitude, ''),
	COALESCE(longitude, ''),
	COALESCE(count_unit, ''),
	COALESCE(price_min, '')`

// PostgresStore serves projects and lookups from PostgreSQL.
type PostgresStore struct {
	db *database.Database
}

// NewPostgresStore creates a store over an open pool.
func NewPostgresStore(db *database.Database) *PostgresStore {
	return &PostgresStore{db: db}
}

// Search runs the filtered project query. Empty filter dimensions are
// passed through and short-circuited in SQL.
func (r *PostgresStore) Search(ctx context.Context, filter SearchFilter) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + `
		FROM projects
		WHERE ($1 = '' OR location_id = $1)
		  AND (cardinality($2::text[]) = 0 OR propertytype_id = ANY($2::text[]))
		  AND (cardinality($3::text[]) = 0 OR building_status_id = ANY($3::text[]))
		  AND ($4 = '' OR
		       normalize(name_th, NFC) ILIKE $4 ESCAPE '\' OR
		       normalize(name_en, NFC) ILIKE $4 ESCAPE '\' OR
		       normalize(propertytype_name_th, NFC) ILIKE $4 ESCAPE '\' OR
		       normalize(developer_name_th, NFC) ILIKE $4 ESCAPE '\' OR
		       normalize(province_name_th, NFC) ILIKE $4 ESCAPE '\')
		ORDER BY id
		LIMIT $5`

	pattern := likePattern(filter.Keyword)

	var limit interface{}
	if filter.Limit > 0 {
		limit = filter.Limit
	}

	propertyTypes := filter.PropertyTypeIDs
	if propertyTypes == nil {
		propertyTypes = []string{}
	}
	statuses := filter.BuildingStatusIDs
	if statuses == nil {
		statuses = []string{}
	}

	rows, err := r.db.Pool.Query(ctx, query, filter.LocationID, propertyTypes, statuses, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	return scanProjects(rows)
}

// All returns every project.
func (r *PostgresStore) All(ctx context.Context) ([]models.Project, error) {
	return r.Search(ctx, SearchFilter{})
}

// Ping checks the database connection.
func (r *PostgresStore) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Locations returns the location options.
func (r *PostgresStore) Locations(ctx context.Context) ([]models.LookupOption, error) {
	return r.lookup(ctx, LookupLocations, `
		SELECT id, COALESCE(name, ''), COALESCE(name_th, ''), COALESCE(lat, ''), COALESCE(lng, '')
		FROM locations ORDER BY sort_order, id`)
}

// PropertyTypes returns the property-type options.
func (r *PostgresStore) PropertyTypes(ctx context.Context) ([]models.LookupOption, error) {
	return r.lookup(ctx, LookupPropertyTypes, `
		SELECT id, COALESCE(name, ''), COALESCE(name_th, ''), '', ''
		FROM property_types ORDER BY sort_order, id`)
}

// BuildingStatuses returns the building-status options.
func (r *PostgresStore) BuildingStatuses(ctx context.Context) ([]models.LookupOption, error) {
	return r.lookup(ctx, LookupBuildingStatuses, `
		SELECT id, COALESCE(name, ''), COALESCE(name_th, ''), '', ''
		FROM building_statuses ORDER BY sort_order, id`)
}

func (r *PostgresStore) lookup(ctx context.Context, name, query string) ([]models.LookupOption, error) {
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLookupUnavailable, name, err)
	}
	defer rows.Close()

	options := []models.LookupOption{}
	for rows.Next() {
		var id, optName, nameTH, lat, lng string
		if err := rows.Scan(&id, &optName, &nameTH, &lat, &lng); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", name, err)
		}
		options = append(options, models.LookupOption{
			ID:     models.FlexString(id),
			Name:   optName,
			NameTH: nameTH,
			Lat:    models.Coordinate(lat),
			Lng:    models.Coordinate(lng),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", name, err)
	}
	return options, nil
}

func scanProjects(rows pgx.Rows) ([]models.Project, error) {
	defer rows.Close()

	results := []models.Project{}
	for rows.Next() {
		var (
			p                                    models.Project
			id, typeID, statusID, locationID     string
			latitude, longitude, units, priceMin string
		)
		err := rows.Scan(
			&id,
			&p.NameTH,
			&p.NameEN,
			&typeID,
			&p.PropertyTypeName,
			&p.DeveloperName,
			&statusID,
			&p.BuildingStatusName,
			&locationID,
			&p.LocationName,
			&p.ProvinceName,
			&latitude,
			&longitude,
			&units,
			&priceMin,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}

		p.ProjectID = models.FlexString(id)
		p.PropertyTypeID = models.FlexString(typeID)
		p.BuildingStatusID = models.FlexString(statusID)
		p.LocationID = models.FlexString(locationID)
		p.Latitude = models.Coordinate(latitude)
		p.Longitude = models.Coordinate(longitude)
		p.CountUnit = models.FlexString(units)
		p.PriceMin = models.FlexString(priceMin)

		results = append(results, toWire(p.Normalize()))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return results, nil
}

// likePattern builds the ILIKE pattern for a keyword, or "" for none. The
// keyword is NFC-normalised to match the normalised columns, so composed
// and decomposed Thai input find the same rows.
func likePattern(keyword string) string {
	keyword = norm.NFC.String(strings.TrimSpace(keyword))
	if keyword == "" {
		return ""
	}
	return "%" + escapeLike(keyword) + "%"
}

// escapeLike escapes LIKE metacharacters so the keyword matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
