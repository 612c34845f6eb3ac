package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/projectmap/internal/filter"
	"github.com/stwalsh4118/projectmap/internal/models"
)

// recordingServer serves fixed bodies per path and records every query.
type recordingServer struct {
	*httptest.Server
	mu      sync.Mutex
	queries []url.Values
}

func newRecordingServer(t *testing.T, routes map[string]func(w http.ResponseWriter)) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.queries = append(rs.queries, r.URL.Query())
		rs.mu.Unlock()

		handler, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		handler(w)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) lastQuery() url.Values {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.queries[len(rs.queries)-1]
}

func body(status int, payload string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}
}

func TestSearchURL(t *testing.T) {
	c := New("http://example.test/", 100)

	tests := []struct {
		name     string
		criteria filter.Criteria
		want     url.Values
	}{
		{
			name: "full criteria",
			criteria: filter.Criteria{
				LocationID:        "1",
				PropertyTypeIDs:   []string{"2", "3"},
				BuildingStatusIDs: []string{"1"},
				Keyword:           "noble",
			},
			want: url.Values{
				"location_id":     {"1"},
				"property_types":  {"2,3"},
				"building_status": {"1"},
				"q":               {"noble"},
				"limit":           {"100"},
			},
		},
		{
			name:     "select-all omits the property_types parameter",
			criteria: filter.Criteria{LocationID: "1", PropertyTypeIDs: []string{}, BuildingStatusIDs: []string{"1"}},
			want: url.Values{
				"location_id":     {"1"},
				"building_status": {"1"},
				"limit":           {"100"},
			},
		},
		{
			name:     "short keyword omitted",
			criteria: filter.Criteria{Keyword: "ab"},
			want:     url.Values{"limit": {"100"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(c.SearchURL(tt.criteria))
			require.NoError(t, err)
			assert.Equal(t, "/api/search", u.Path)
			assert.Equal(t, tt.want, u.Query())
		})
	}
}

func TestQuery_Success(t *testing.T) {
	srv := newRecordingServer(t, map[string]func(http.ResponseWriter){
		SearchPath: body(http.StatusOK, `[
			{"project_id":"1","lat":"13.75","lng":"100.50","name_th":" Noble Test "},
			{"project_id":"2","lat":"bad","lng":"100.51","name_th":"Invalid Geo"}
		]`),
	})
	c := New(srv.URL, 100)

	rs, err := c.Query(context.Background(), filter.Criteria{})
	require.NoError(t, err)

	require.Equal(t, 2, rs.Len())
	assert.Equal(t, "Noble Test", rs.Records[0].NameTH)

	part := rs.Partition()
	require.Len(t, part.Valid, 1)
	require.Len(t, part.Invalid, 1)
	assert.Equal(t, "1", part.Valid[0].Project.ID())
	assert.Equal(t, "2", part.Invalid[0].Project.ID())

	q := srv.lastQuery()
	assert.Equal(t, "100", q.Get("limit"))
	_, hasTypes := q["property_types"]
	assert.False(t, hasTypes)
}

func TestQuery_ToleratesMissingFields(t *testing.T) {
	srv := newRecordingServer(t, map[string]func(http.ResponseWriter){
		SearchPath: body(http.StatusOK, `[{"project_id": 7}, {}, {"name_th": null, "count_unit": {"x": 1}}]`),
	})
	c := New(srv.URL, 100)

	rs, err := c.Query(context.Background(), filter.Criteria{})
	require.NoError(t, err)
	require.Equal(t, 3, rs.Len())
	assert.Equal(t, "7", rs.Records[0].ID())
	assert.Equal(t, "#1", rs.Records[1].ID(), "records without an id get a positional one")
	assert.Equal(t, models.NotAvailable, rs.Records[2].DisplayUnits())
}

func TestQuery_NullBodyIsEmpty(t *testing.T) {
	srv := newRecordingServer(t, map[string]func(http.ResponseWriter){
		SearchPath: body(http.StatusOK, `null`),
	})

	rs, err := New(srv.URL, 10).Query(context.Background(), filter.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
}

func TestQuery_Failures(t *testing.T) {
	tests := []struct {
		name       string
		handler    func(http.ResponseWriter)
		wantStatus int
		wantText   string
	}{
		{
			name:       "server error envelope",
			handler:    body(http.StatusServiceUnavailable, `{"error":{"code":"DATA_SOURCE_ERROR","message":"Failed to search projects"}}`),
			wantStatus: http.StatusServiceUnavailable,
			wantText:   "Failed to search projects",
		},
		{
			name:       "plain error",
			handler:    body(http.StatusInternalServerError, `oops`),
			wantStatus: http.StatusInternalServerError,
			wantText:   "unexpected response",
		},
		{
			name:       "object instead of array",
			handler:    body(http.StatusOK, `{"payload": []}`),
			wantStatus: http.StatusOK,
			wantText:   "malformed payload",
		},
		{
			name:       "truncated json",
			handler:    body(http.StatusOK, `[{"project_id": "1"`),
			wantStatus: http.StatusOK,
			wantText:   "malformed payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newRecordingServer(t, map[string]func(http.ResponseWriter){SearchPath: tt.handler})

			_, err := New(srv.URL, 10).Query(context.Background(), filter.Criteria{})

			var dsErr *DataSourceError
			require.ErrorAs(t, err, &dsErr)
			assert.Equal(t, tt.wantStatus, dsErr.StatusCode)
			assert.Contains(t, err.Error(), tt.wantText)
		})
	}
}

func TestQuery_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := New(base, 10).Query(context.Background(), filter.Criteria{})

	var dsErr *DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Zero(t, dsErr.StatusCode)
}

func TestQuery_ContextCancelled(t *testing.T) {
	srv := newRecordingServer(t, map[string]func(http.ResponseWriter){SearchPath: body(http.StatusOK, `[]`)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL, 10).Query(ctx, filter.Criteria{})

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNormalize(t *testing.T) {
	records := []models.Project{
		{ProjectID: "1", NameTH: " A "},
		{ProjectID: "2"},
		{ProjectID: "1", NameTH: "duplicate"},
		{ProjectID: ""},
		{ProjectID: "5"},
	}

	out := normalize(records, 3)

	require.Len(t, out, 3)
	assert.Equal(t, "1", out[0].ID())
	assert.Equal(t, "A", out[0].NameTH)
	assert.Equal(t, "2", out[1].ID())
	assert.Equal(t, "#3", out[2].ID())
}

func TestLookups(t *testing.T) {
	srv := newRecordingServer(t, map[string]func(http.ResponseWriter){
		LocationsPath:     body(http.StatusOK, `[{"id":1,"name":" Ploenchit ","lat":13.7440357,"lng":100.5486963},{"id":"1","name":"dup"},{"id":"","name":"blank"}]`),
		PropertyTypesPath: body(http.StatusOK, `[{"id":"2","name":"Condo"}]`),
	})
	c := New(srv.URL, 10)
	ctx := context.Background()

	locations, err := c.Locations(ctx)
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "Ploenchit", locations[0].Name)

	types, err := c.PropertyTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 1)

	_, err = c.BuildingStatuses(ctx)
	var failure *LookupFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "building-status", failure.Lookup)
	var dsErr *DataSourceError
	assert.ErrorAs(t, err, &dsErr, "the transport error is wrapped")
}

func TestNew_Defaults(t *testing.T) {
	c := New("http://x", 0)
	assert.Equal(t, DefaultLimit, c.Limit())
}

func TestQuery_SendsRequestID(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get(RequestIDHeader))
		mu.Unlock()
		if r.URL.Path == LocationsPath {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, 10)
	_, err := c.Locations(context.Background())
	require.NoError(t, err)

	_, err = c.Query(context.Background(), filter.Criteria{})
	var dsErr *DataSourceError
	require.ErrorAs(t, err, &dsErr)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.NotEmpty(t, seen[0])
	assert.NotEqual(t, seen[0], seen[1], "each request gets its own id")
	assert.Equal(t, seen[1], dsErr.RequestID)
	assert.Contains(t, err.Error(), "(request "+seen[1]+")")
}
