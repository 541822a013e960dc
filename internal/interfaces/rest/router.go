package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"github.com/nexuscrm/registry/internal/application/services"
	"github.com/nexuscrm/registry/internal/interfaces/middleware"
	"github.com/nexuscrm/registry/internal/interfaces/web"
	"github.com/nexuscrm/registry/pkg/auth"
	"github.com/nexuscrm/registry/pkg/constants"
)

// RouterOptions selects the optional parts of the HTTP surface
type RouterOptions struct {
	// Issuer validates admin API tokens; without it the admin API is not mounted
	Issuer  *auth.TokenIssuer
	Metrics bool
}

// NewRouter builds the gin engine serving the registry pages, the admin API,
// health and metrics
func NewRouter(sm *services.ServiceManager, log *zap.Logger, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(log))
	router.SetHTMLTemplate(web.MustTemplates())

	if opts.Metrics {
		p := ginprometheus.NewPrometheus("registry")
		// One series per route rather than per page segment or record id
		p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
			if path := c.FullPath(); path != "" {
				return path
			}
			return "unmatched"
		}
		p.Use(router)
	}

	router.GET("/health", func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if err := sm.DB().DB().PingContext(c.Request.Context()); err != nil {
			status, code = "unavailable", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "database": sm.DB().Driver()})
	})
	router.StaticFS("/static", web.Static())

	if opts.Issuer != nil {
		admin := NewAdminHandler(sm, log)
		api := router.Group("/api/admin")
		api.Use(middleware.RequireAdmin(opts.Issuer))
		{
			api.GET("/models", admin.ListModels)
			api.POST("/models/:model/import", admin.ImportRecords)
			api.GET("/pages", admin.ListPages)
			api.POST("/pages", admin.CreatePage)
			api.PUT("/pages/:id", admin.UpdatePage)
			api.DELETE("/pages/:id", admin.DeletePage)
		}
	}

	registry := NewRegistryHandler(sm, log)
	router.GET("/", registry.Index)
	router.GET("/:segment/", registry.List)
	router.GET("/:segment/"+constants.FormRegistryFilter, registry.List)
	router.GET("/:segment/"+constants.ActionExport, registry.Export)
	router.GET("/:segment/"+constants.ActionShow+"/:id", registry.Show)
	router.NoRoute(registry.NotFound)

	return router
}
