package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexuscrm/registry/internal/interfaces/web"
	"github.com/nexuscrm/registry/pkg/constants"
	"github.com/nexuscrm/registry/pkg/errors"
)

// internalMessage replaces the text of server errors shown to clients
const internalMessage = "An unexpected error occurred"

// RespondAppError sends a standardised JSON error response using pkg/errors
func RespondAppError(c *gin.Context, log *zap.Logger, err error) {
	code := errors.GetHTTPStatus(err)
	resp := errors.ToResponse(err)

	if code >= 500 {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		resp.Message = internalMessage
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, resp)
}

// RenderError renders the HTML error page with the error's status
func RenderError(c *gin.Context, log *zap.Logger, err error) {
	code := errors.GetHTTPStatus(err)
	message := err.Error()

	if code >= 500 {
		log.Error("page failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		message = internalMessage
	}
	if code == http.StatusNotFound {
		message = "The page you requested could not be found."
	}
	_ = c.Error(err)
	c.HTML(code, web.TemplateError, gin.H{
		"Title":   http.StatusText(code),
		"Status":  code,
		"Message": message,
	})
	c.Abort()
}

// BindJSON binds JSON and returns true if successful. If failed, it sends bad request error.
func BindJSON(c *gin.Context, log *zap.Logger, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, log, errors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

// HandleGetEnvelope executes a read action and returns the result wrapped in a JSON key
// Response: { [key]: result }
func HandleGetEnvelope(c *gin.Context, log *zap.Logger, key string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: result})
}

// HandleCreateEnvelope binds the body into obj, runs the create action and
// returns the object wrapped with a message
func HandleCreateEnvelope(c *gin.Context, log *zap.Logger, key, successMsg string, obj interface{}, action func() error) {
	if !BindJSON(c, log, obj) {
		return
	}
	if err := action(); err != nil {
		RespondAppError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{constants.FieldMessage: successMsg, key: obj})
}

// HandleUpdateEnvelope is HandleCreateEnvelope for updates
func HandleUpdateEnvelope(c *gin.Context, log *zap.Logger, key, successMsg string, obj interface{}, action func() error) {
	if !BindJSON(c, log, obj) {
		return
	}
	if err := action(); err != nil {
		RespondAppError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: successMsg, key: obj})
}

// HandleDeleteEnvelope executes a delete action and returns a success message
func HandleDeleteEnvelope(c *gin.Context, log *zap.Logger, successMsg string, action func() error) {
	if err := action(); err != nil {
		RespondAppError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: successMsg})
}
