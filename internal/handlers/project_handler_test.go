package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/stwalsh4118/projectmap/internal/errors"
	"github.com/stwalsh4118/projectmap/internal/logger"
	"github.com/stwalsh4118/projectmap/internal/middleware"
	"github.com/stwalsh4118/projectmap/internal/models"
	"github.com/stwalsh4118/projectmap/internal/repository"
	"github.com/stwalsh4118/projectmap/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

func testProjects() []models.Project {
	return []models.Project{
		{ProjectID: "1", NameTH: "โนเบิล เพลินจิต", NameEN: "Noble Ploenchit", PropertyTypeID: "2",
			PropertyTypeName: "คอนโด", BuildingStatusID: "1", LocationID: "1",
			Latitude: "13.7440", Longitude: "100.5487"},
		{ProjectID: "2", NameTH: "Garden Villa", PropertyTypeID: "3", BuildingStatusID: "2",
			LocationID: "2", Latitude: "bad", Longitude: "100.6"},
	}
}

// setupProjectRouter wires the real service over an in-memory store.
func setupProjectRouter(store repository.Store) *gin.Engine {
	log := logger.Nop()
	handler := NewProjectHandler(services.NewProjectService(store, log, 50, 500))

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	api := router.Group("/api")
	api.GET("/search", handler.Search)
	api.GET("/points", handler.Points)
	api.GET("/locations", handler.Lookup(repository.LookupLocations))
	api.GET("/property-types", handler.Lookup(repository.LookupPropertyTypes))
	api.GET("/building-status", handler.Lookup(repository.LookupBuildingStatuses))
	api.GET("/unknown", handler.Lookup("planets"))
	return router
}

func defaultStore() *repository.JSONStore {
	return repository.NewJSONStoreFromData(
		testProjects(),
		[]models.LookupOption{{ID: "1", Name: "Ploenchit", Lat: "13.7440357", Lng: "100.5486963"}},
		[]models.LookupOption{{ID: "2", Name: "Condo"}},
		nil,
	)
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decodeProjects(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestProjectHandler_Search(t *testing.T) {
	router := setupProjectRouter(defaultStore())

	tests := []struct {
		name    string
		target  string
		wantIDs []string
	}{
		{name: "no filters", target: "/api/search", wantIDs: []string{"1", "2"}},
		{name: "location", target: "/api/search?location_id=1", wantIDs: []string{"1"}},
		{name: "property types", target: "/api/search?property_types=2", wantIDs: []string{"1"}},
		{name: "multiple property types", target: "/api/search?property_types=1,2,3", wantIDs: []string{"1", "2"}},
		{name: "building status", target: "/api/search?building_status=2", wantIDs: []string{"2"}},
		{name: "thai keyword", target: "/api/search?q=%E0%B9%82%E0%B8%99%E0%B9%80%E0%B8%9A%E0%B8%B4%E0%B8%A5", wantIDs: []string{"1"}},
		{name: "english keyword", target: "/api/search?q=noble", wantIDs: []string{"1"}},
		{name: "short keyword ignored", target: "/api/search?q=no", wantIDs: []string{"1", "2"}},
		{name: "limit", target: "/api/search?limit=1", wantIDs: []string{"1"}},
		{name: "nothing matches", target: "/api/search?location_id=99", wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.target)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			ids := []string{}
			for _, p := range decodeProjects(t, w) {
				ids = append(ids, p["project_id"].(string))
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestProjectHandler_SearchCoordinates(t *testing.T) {
	router := setupProjectRouter(defaultStore())

	projects := decodeProjects(t, get(router, "/api/search"))
	require.Len(t, projects, 2)

	assert.Equal(t, 13.744, projects[0]["lat"])
	assert.Equal(t, 100.5487, projects[0]["lng"])
	assert.Nil(t, projects[1]["lat"], "unparsable latitude is null")
	assert.Equal(t, "bad", projects[1]["latitude"])
}

func TestProjectHandler_SearchValidation(t *testing.T) {
	router := setupProjectRouter(defaultStore())

	tests := []struct {
		name   string
		target string
		field  string
	}{
		{name: "negative limit", target: "/api/search?limit=-1", field: "limit"},
		{name: "bad id list", target: "/api/search?property_types=1;DROP", field: "property_types"},
		{name: "bad location", target: "/api/search?location_id=a%20b", field: "location_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.target)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp apierrors.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, apierrors.ErrValidation, resp.Error.Code)
			assert.Contains(t, resp.Error.Details, tt.field)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}

	w := get(router, "/api/search?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), apierrors.ErrBadRequest)
}

func TestProjectHandler_DataUnavailable(t *testing.T) {
	router := setupProjectRouter(repository.NewJSONStore(t.TempDir()))

	for _, target := range []string{"/api/search", "/api/points", "/api/locations"} {
		w := get(router, target)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, target)
		assert.Contains(t, w.Body.String(), apierrors.ErrDataSource, target)
	}
}

func TestProjectHandler_Points(t *testing.T) {
	router := setupProjectRouter(defaultStore())

	w := get(router, "/api/points")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeProjects(t, w), 2)
}

func TestProjectHandler_Lookups(t *testing.T) {
	router := setupProjectRouter(defaultStore())

	w := get(router, "/api/locations")
	require.Equal(t, http.StatusOK, w.Code)
	var locations []models.LookupOption
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &locations))
	require.Len(t, locations, 1)
	center, ok := locations[0].Center()
	assert.True(t, ok)
	assert.InDelta(t, 13.7440357, center.Lat, 1e-9)

	w = get(router, "/api/building-status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = get(router, "/api/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// cancelledStore fails every call with the context error.
type cancelledStore struct {
	repository.Store
}

func (cancelledStore) Search(ctx context.Context, _ repository.SearchFilter) ([]models.Project, error) {
	return nil, context.Canceled
}

func TestProjectHandler_StoreErrorIsDataSource(t *testing.T) {
	router := setupProjectRouter(cancelledStore{Store: defaultStore()})

	w := get(router, "/api/search")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestValidateIDList(t *testing.T) {
	type probe struct {
		IDs string `form:"ids" binding:"idlist"`
	}
	RegisterValidators()

	router := gin.New()
	router.GET("/", func(c *gin.Context) {
		var p probe
		if bindQuery(c, &p) {
			c.Status(http.StatusOK)
		}
	})

	assert.Equal(t, http.StatusOK, get(router, "/?ids=1,2,abc-d_e").Code)
	assert.Equal(t, http.StatusOK, get(router, "/?ids=1,,2").Code)
	assert.Equal(t, http.StatusBadRequest, get(router, "/?ids=1%27").Code)
}
