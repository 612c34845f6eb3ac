package handlers

import (
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/projectmap/internal/errors"
	"github.com/stwalsh4118/projectmap/internal/middleware"
)

// APIKeyPlaceholder is replaced with the maps API key in the index page.
const APIKeyPlaceholder = "{{GMAP_APIKEY}}"

// PageHandler serves the map page and the static asset tree.
type PageHandler struct {
	templatePath string
	apiKey       string
	publicDir    string
	files        http.Handler
}

// NewPageHandler creates a PageHandler. The template is read on every
// request so edits show up without a restart.
func NewPageHandler(templatePath, apiKey, publicDir string) *PageHandler {
	return &PageHandler{
		templatePath: templatePath,
		apiKey:       apiKey,
		publicDir:    publicDir,
		files:        http.FileServer(http.Dir(publicDir)),
	}
}

// Index handles GET /.
func (h *PageHandler) Index(c *gin.Context) {
	page, err := os.ReadFile(h.templatePath)
	if err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Failed to read index template", err, map[string]interface{}{
				"template": h.templatePath,
			})
		}
		c.String(http.StatusInternalServerError, "Error loading page")
		return
	}

	html := strings.Replace(string(page), APIKeyPlaceholder, url.QueryEscape(h.apiKey), 1)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// Static serves files under the public directory for unmatched routes.
// Unknown API paths and missing files get the JSON 404 envelope.
func (h *PageHandler) Static(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		apierrors.NotFound(c, "Route not found")
		return
	}

	clean := path.Clean("/" + c.Request.URL.Path)
	if strings.HasPrefix(clean, "/api/") || !h.exists(clean) {
		apierrors.NotFound(c, "Route not found")
		return
	}

	h.files.ServeHTTP(c.Writer, c.Request)
}

func (h *PageHandler) exists(clean string) bool {
	info, err := os.Stat(filepath.Join(h.publicDir, filepath.FromSlash(clean)))
	return err == nil && !info.IsDir()
}
