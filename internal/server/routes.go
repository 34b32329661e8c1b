package server

import (
	"net/http"

	"github.com/graphview/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	apiRoutes := e.Group("/api")

	// Graph routes
	apiRoutes.POST("/entity-graph", routes.PostEntityGraphHandler)
	apiRoutes.POST("/force-graph", routes.PostForceGraphHandler)
	apiRoutes.GET("/entities", routes.GetEntitiesHandler)
	apiRoutes.GET("/relations", routes.GetRelationsHandler)
	apiRoutes.GET("/types", routes.GetTypesHandler)

	// Chat routes
	apiRoutes.POST("/chat", routes.PostChatHandler)
	apiRoutes.GET("/chat/metrics", routes.GetChatMetricsHandler)
	apiRoutes.DELETE("/chat/metrics", routes.DeleteChatMetricsHandler)
}
