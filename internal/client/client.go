// Package client queries the project data source over HTTP.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stwalsh4118/projectmap/internal/filter"
	"github.com/stwalsh4118/projectmap/internal/logger"
	"github.com/stwalsh4118/projectmap/internal/models"
)

// Endpoint paths relative to the server base URL.
const (
	SearchPath           = "/api/search"
	LocationsPath        = "/api/locations"
	PropertyTypesPath    = "/api/property-types"
	BuildingStatusesPath = "/api/building-status"
)

// RequestIDHeader tags each outgoing request so server logs can be matched
// with client diagnostics.
const RequestIDHeader = "X-Request-ID"

// DefaultLimit is the result cap requested when none is configured.
const DefaultLimit = 100

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 32 << 20

// Client issues search and lookup requests against the data source.
type Client struct {
	baseURL string
	limit   int
	http    *http.Client
	log     *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client for baseURL that requests at most limit records per
// query. A non-positive limit uses DefaultLimit.
func New(baseURL string, limit int, opts ...Option) *Client {
	if limit <= 0 {
		limit = DefaultLimit
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   limit,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Limit returns the configured result cap.
func (c *Client) Limit() int {
	return c.limit
}

// SearchURL builds the search request URL for criteria. Empty id sets and
// short keywords are omitted; the limit is always sent.
func (c *Client) SearchURL(criteria filter.Criteria) string {
	params := url.Values{}
	if criteria.LocationID != "" {
		params.Set("location_id", criteria.LocationID)
	}
	if len(criteria.PropertyTypeIDs) > 0 {
		params.Set("property_types", strings.Join(criteria.PropertyTypeIDs, ","))
	}
	if len(criteria.BuildingStatusIDs) > 0 {
		params.Set("building_status", strings.Join(criteria.BuildingStatusIDs, ","))
	}
	if keyword := criteria.EffectiveKeyword(); keyword != "" {
		params.Set("q", keyword)
	}
	params.Set("limit", strconv.Itoa(c.limit))
	return c.baseURL + SearchPath + "?" + params.Encode()
}

// Query runs one search. Any failure is returned as *DataSourceError.
func (c *Client) Query(ctx context.Context, criteria filter.Criteria) (models.ResultSet, error) {
	target := c.SearchURL(criteria)

	var records []models.Project
	if err := c.getJSON(ctx, target, &records); err != nil {
		return models.ResultSet{}, err
	}

	normalized := normalize(records, c.limit)
	c.log.Debug("Query completed", map[string]interface{}{
		"url":      target,
		"received": len(records),
		"kept":     len(normalized),
	})
	return models.ResultSet{Records: normalized}, nil
}

// Locations fetches the location options.
func (c *Client) Locations(ctx context.Context) ([]models.LookupOption, error) {
	return c.lookup(ctx, "locations", LocationsPath)
}

// PropertyTypes fetches the property-type options.
func (c *Client) PropertyTypes(ctx context.Context) ([]models.LookupOption, error) {
	return c.lookup(ctx, "property-types", PropertyTypesPath)
}

// BuildingStatuses fetches the building-status options.
func (c *Client) BuildingStatuses(ctx context.Context) ([]models.LookupOption, error) {
	return c.lookup(ctx, "building-status", BuildingStatusesPath)
}

func (c *Client) lookup(ctx context.Context, name, path string) ([]models.LookupOption, error) {
	var options []models.LookupOption
	if err := c.getJSON(ctx, c.baseURL+path, &options); err != nil {
		return nil, &LookupFailure{Lookup: name, Err: err}
	}

	out := make([]models.LookupOption, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		o.ID = models.FlexString(strings.TrimSpace(o.Key()))
		if o.Key() == "" {
			continue
		}
		if _, dup := seen[o.Key()]; dup {
			continue
		}
		seen[o.Key()] = struct{}{}
		o.Name = strings.TrimSpace(o.Name)
		o.NameTH = strings.TrimSpace(o.NameTH)
		out = append(out, o)
	}
	return out, nil
}

// getJSON fetches target and decodes a JSON array into dst. A null body
// decodes to an empty array.
func (c *Client) getJSON(ctx context.Context, target string, dst interface{}) error {
	requestID := uuid.New().String()
	fail := func(status int, err error) error {
		c.log.Debug("Data source request failed", map[string]interface{}{
			"url":        target,
			"status":     status,
			"request_id": requestID,
			"error":      err.Error(),
		})
		return &DataSourceError{URL: target, StatusCode: status, RequestID: requestID, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fail(0, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, errorMessage(body))
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if !strings.HasPrefix(trimmed, "[") {
		return fail(resp.StatusCode, errors.New("malformed payload: expected a JSON array"))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fail(resp.StatusCode, fmt.Errorf("malformed payload: %w", err))
	}
	return nil
}

// errorMessage extracts the message of a JSON error envelope, falling back
// to the HTTP status text.
func errorMessage(body []byte) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return fmt.Errorf("%s: %s", envelope.Error.Code, envelope.Error.Message)
	}
	return errors.New("unexpected response")
}

// normalize trims text fields, caps the set at limit, drops repeated
// project ids (first wins) and gives records without an id a positional
// one so every record stays addressable.
func normalize(records []models.Project, limit int) []models.Project {
	out := make([]models.Project, 0, min(len(records), limit))
	seen := make(map[string]struct{}, len(records))
	for i, p := range records {
		if len(out) >= limit {
			break
		}
		p = p.Normalize()
		if p.ID() == "" {
			p.ProjectID = models.FlexString("#" + strconv.Itoa(i))
		}
		if _, dup := seen[p.ID()]; dup {
			continue
		}
		seen[p.ID()] = struct{}{}
		out = append(out, p)
	}
	return out
}
