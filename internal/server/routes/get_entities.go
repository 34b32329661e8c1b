package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphview/backend/internal/server/middleware"
	"github.com/graphview/backend/pkg/common"
	"github.com/graphview/backend/pkg/logger"
)

func GetEntitiesHandler(c echo.Context) error {
	type responseData struct {
		Entities []common.Entity `json:"entities"`
	}

	ctx := c.Request().Context()
	client := c.(*middleware.AppContext).App.Graph

	entities, err := client.AllEntities(ctx)
	if err != nil {
		logger.Error("Failed to load entities", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load entities"})
	}

	return c.JSON(http.StatusOK, responseData{Entities: entities})
}
