package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/projectmap/internal/errors"
	"github.com/stwalsh4118/projectmap/internal/middleware"
	"github.com/stwalsh4118/projectmap/internal/models"
	"github.com/stwalsh4118/projectmap/internal/repository"
	"github.com/stwalsh4118/projectmap/internal/services"
)

// ProjectHandler handles project search and lookup requests.
type ProjectHandler struct {
	service services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler instance.
func NewProjectHandler(service services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		service: service,
	}
}

// SearchQuery represents the query parameters of the search endpoint.
// Id lists are comma-separated; an absent list means no filtering.
type SearchQuery struct {
	LocationID     string `form:"location_id" binding:"omitempty,max=64,idlist"`
	PropertyTypes  string `form:"property_types" binding:"omitempty,max=512,idlist"`
	BuildingStatus string `form:"building_status" binding:"omitempty,max=512,idlist"`
	Keyword        string `form:"q" binding:"max=200"`
	Limit          int    `form:"limit" binding:"gte=0"`
}

// Search handles GET /api/search.
func (h *ProjectHandler) Search(c *gin.Context) {
	var query SearchQuery
	if !bindQuery(c, &query) {
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Debug("Processing search request", map[string]interface{}{
			"location_id":     query.LocationID,
			"property_types":  query.PropertyTypes,
			"building_status": query.BuildingStatus,
			"q":               query.Keyword,
			"limit":           query.Limit,
		})
	}

	projects, err := h.service.Search(c.Request.Context(), services.SearchRequest{
		LocationID:     query.LocationID,
		PropertyTypes:  query.PropertyTypes,
		BuildingStatus: query.BuildingStatus,
		Keyword:        query.Keyword,
		Limit:          query.Limit,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidLimit):
			apierrors.BadRequest(c, err.Error(), nil)
		case errors.Is(err, services.ErrDataUnavailable):
			apierrors.DataSourceUnavailable(c, "Failed to search projects", err)
		default:
			apierrors.InternalServerError(c, "Failed to search projects", err)
		}
		return
	}

	c.JSON(http.StatusOK, nonNilProjects(projects))
}

// Points handles GET /api/points. It returns every project unfiltered.
func (h *ProjectHandler) Points(c *gin.Context) {
	projects, err := h.service.Points(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrDataUnavailable) {
			apierrors.DataSourceUnavailable(c, "Failed to load points data", err)
			return
		}
		apierrors.InternalServerError(c, "Failed to load points data", err)
		return
	}

	c.JSON(http.StatusOK, nonNilProjects(projects))
}

// Lookup returns a handler serving the named lookup list.
func (h *ProjectHandler) Lookup(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		options, err := h.service.Lookup(c.Request.Context(), name)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUnknownLookup):
				apierrors.NotFound(c, "Unknown lookup list")
			case errors.Is(err, repository.ErrLookupUnavailable):
				apierrors.DataSourceUnavailable(c, "Failed to load "+name, err)
			default:
				apierrors.InternalServerError(c, "Failed to load "+name, err)
			}
			return
		}

		if options == nil {
			options = []models.LookupOption{}
		}
		c.JSON(http.StatusOK, options)
	}
}

// bindQuery binds and validates query parameters, writing the error
// response itself. It reports whether the handler should continue.
func bindQuery(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindQuery(dst)
	if err == nil {
		return true
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return false
	}
	apierrors.BadRequest(c, "Invalid query parameters", nil)
	return false
}

func nonNilProjects(projects []models.Project) []models.Project {
	if projects == nil {
		return []models.Project{}
	}
	return projects
}
