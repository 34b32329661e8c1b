package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphview/backend/internal/server/middleware"
	"github.com/graphview/backend/pkg/logger"
)

type entityGraphParams struct {
	Entities  []string `json:"entities" validate:"required"`
	Relations []string `json:"relations" validate:"required"`
}

func bindEntityGraphParams(c echo.Context) (*entityGraphParams, error) {
	params := new(entityGraphParams)
	if err := c.Bind(params); err != nil {
		return nil, err
	}
	if err := c.Validate(params); err != nil {
		return nil, err
	}
	return params, nil
}

func PostEntityGraphHandler(c echo.Context) error {
	params, err := bindEntityGraphParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "entities and relations must be arrays"})
	}

	ctx := c.Request().Context()
	client := c.(*middleware.AppContext).App.Graph

	g, err := client.Assemble(ctx, params.Entities, params.Relations)
	if err != nil {
		logger.Error("Failed to assemble entity graph", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to assemble entity graph"})
	}

	return c.JSON(http.StatusOK, g)
}
