package routes

import (
	"github.com/admin5fedu/duraval-app-sub010/common/auth"
	"github.com/admin5fedu/duraval-app-sub010/common/middleware"
	"github.com/admin5fedu/duraval-app-sub010/controllers"
	"github.com/gin-gonic/gin"
)

func RegisterImportRoutes(r *gin.Engine, h *controllers.ImportHandler, parser *auth.TokenParser) {
	importRoutes := r.Group("/api/v1/imports")
	importRoutes.Use(middleware.AuthMiddleware(parser))
	{
		importRoutes.GET("/modules", h.ListModules)
		importRoutes.GET("/modules/:module/template", h.Template)
		importRoutes.POST("/modules/:module/validate", h.Validate)
		importRoutes.POST("/modules/:module", h.Import)

		importRoutes.GET("/jobs/:id", h.GetJob)
		importRoutes.GET("/jobs/:id/errors", h.JobErrors)

		importRoutes.POST("/errors/export", h.ExportErrors)
	}
}
