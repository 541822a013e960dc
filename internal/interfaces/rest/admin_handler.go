package rest

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexuscrm/registry/internal/application/services"
	"github.com/nexuscrm/registry/internal/domain/models"
	"github.com/nexuscrm/registry/pkg/errors"
)

// maxImportSize bounds CSV uploads
const maxImportSize = 10 << 20

// AdminHandler handles administrative endpoints
type AdminHandler struct {
	svc *services.ServiceManager
	log *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(svc *services.ServiceManager, log *zap.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, log: log}
}

// ListModels returns every registered model
func (h *AdminHandler) ListModels(c *gin.Context) {
	HandleGetEnvelope(c, h.log, "data", func() (interface{}, error) {
		return h.svc.Metadata.GetSchemas(), nil
	})
}

// ListPages returns every registry page
func (h *AdminHandler) ListPages(c *gin.Context) {
	HandleGetEnvelope(c, h.log, "data", func() (interface{}, error) {
		return h.svc.Pages.List(c.Request.Context())
	})
}

// CreatePage creates a registry page
func (h *AdminHandler) CreatePage(c *gin.Context) {
	var page models.RegistryPage
	HandleCreateEnvelope(c, h.log, "data", "Page created", &page, func() error {
		page.ID = 0
		return h.svc.Pages.Create(c.Request.Context(), &page)
	})
}

func (h *AdminHandler) pageID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondAppError(c, h.log, errors.NewNotFoundError("Page", c.Param("id")))
		return 0, false
	}
	return id, true
}

// UpdatePage replaces the settings of a registry page
func (h *AdminHandler) UpdatePage(c *gin.Context) {
	id, ok := h.pageID(c)
	if !ok {
		return
	}
	var page models.RegistryPage
	HandleUpdateEnvelope(c, h.log, "data", "Page updated", &page, func() error {
		page.ID = id
		return h.svc.Pages.Update(c.Request.Context(), &page)
	})
}

// DeletePage removes a registry page
func (h *AdminHandler) DeletePage(c *gin.Context) {
	id, ok := h.pageID(c)
	if !ok {
		return
	}
	HandleDeleteEnvelope(c, h.log, "Page deleted", func() error {
		return h.svc.Pages.Delete(c.Request.Context(), id)
	})
}

// ImportRecords loads CSV records into a model. The CSV is read from the
// multipart field "file" or, failing that, from the request body.
func (h *AdminHandler) ImportRecords(c *gin.Context) {
	var body io.Reader = io.LimitReader(c.Request.Body, maxImportSize)
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			RespondAppError(c, h.log, errors.NewValidationError("file", err.Error()))
			return
		}
		defer f.Close()
		body = io.LimitReader(f, maxImportSize)
	}

	HandleGetEnvelope(c, h.log, "data", func() (interface{}, error) {
		return h.svc.Import.Import(c.Request.Context(), c.Param("model"), body)
	})
}
