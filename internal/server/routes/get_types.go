package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphview/backend/internal/server/middleware"
	"github.com/graphview/backend/pkg/logger"
)

func GetTypesHandler(c echo.Context) error {
	ctx := c.Request().Context()
	client := c.(*middleware.AppContext).App.Graph

	types, err := client.SnapshotTypes(ctx)
	if err != nil {
		logger.Error("Failed to list snapshot types", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list snapshot types"})
	}

	return c.JSON(http.StatusOK, types)
}
