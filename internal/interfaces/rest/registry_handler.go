package rest

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexuscrm/registry/internal/application/services"
	"github.com/nexuscrm/registry/internal/domain/models"
	"github.com/nexuscrm/registry/internal/interfaces/web"
)

// RegistryHandler serves the public HTML pages
type RegistryHandler struct {
	svc *services.ServiceManager
	log *zap.Logger
}

// NewRegistryHandler creates a new registry handler
func NewRegistryHandler(svc *services.ServiceManager, log *zap.Logger) *RegistryHandler {
	return &RegistryHandler{svc: svc, log: log}
}

// Index lists every registry page
func (h *RegistryHandler) Index(c *gin.Context) {
	pages, err := h.svc.Pages.List(c.Request.Context())
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.HTML(http.StatusOK, web.TemplateIndex, gin.H{"Title": "Registry", "Pages": pages})
}

// page resolves the :segment parameter, rendering the error page on failure
func (h *RegistryHandler) page(c *gin.Context) (*models.RegistryPage, bool) {
	page, err := h.svc.Pages.GetBySegment(c.Request.Context(), c.Param("segment"))
	if err != nil {
		RenderError(c, h.log, err)
		return nil, false
	}
	return page, true
}

// List renders the filter form and one page of results. It serves both the
// page itself and its filter form action.
func (h *RegistryHandler) List(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}

	result, err := h.svc.Registry.Search(c.Request.Context(), page, c.Request.URL.Query())
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.HTML(http.StatusOK, web.TemplateRegistry, gin.H{"Title": page.Title, "Result": result})
}

// Export streams the filtered results as a CSV attachment
func (h *RegistryHandler) Export(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}

	// Buffered: nothing is sent when the query fails
	var buf bytes.Buffer
	if _, err := h.svc.Registry.Export(c.Request.Context(), page, c.Request.URL.Query(), &buf); err != nil {
		RenderError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, h.svc.Registry.ExportFilename(page)))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Show renders the detail view of one record
func (h *RegistryHandler) Show(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}

	detail, err := h.svc.Registry.Show(c.Request.Context(), page, c.Param("id"))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.HTML(http.StatusOK, web.TemplateShow, gin.H{"Title": detail.Title, "Detail": detail})
}

// NotFound renders the 404 page for unmatched routes
func (h *RegistryHandler) NotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, web.TemplateError, gin.H{
		"Title":   http.StatusText(http.StatusNotFound),
		"Status":  http.StatusNotFound,
		"Message": "The page you requested could not be found.",
	})
}
