package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphview/backend/internal/server/middleware"
	"github.com/graphview/backend/pkg/logger"
)

// GetRelationsHandler returns the raw rows of every relation snapshot keyed
// by relation type.
func GetRelationsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	client := c.(*middleware.AppContext).App.Graph

	relations, err := client.RawRelations(ctx)
	if err != nil {
		logger.Error("Failed to load relations", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load relations"})
	}

	return c.JSON(http.StatusOK, relations)
}
