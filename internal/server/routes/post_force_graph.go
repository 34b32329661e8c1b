package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphview/backend/internal/server/middleware"
	"github.com/graphview/backend/pkg/graph"
	"github.com/graphview/backend/pkg/logger"
)

// PostForceGraphHandler assembles like PostEntityGraphHandler and returns
// the node/link projection.
func PostForceGraphHandler(c echo.Context) error {
	params, err := bindEntityGraphParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "entities and relations must be arrays"})
	}

	ctx := c.Request().Context()
	client := c.(*middleware.AppContext).App.Graph

	g, err := client.Assemble(ctx, params.Entities, params.Relations)
	if err != nil {
		logger.Error("Failed to assemble force graph", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to assemble entity graph"})
	}

	return c.JSON(http.StatusOK, graph.ToForceGraph(g))
}
