package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphview/backend/internal/server/middleware"
)

// GetChatMetricsHandler returns the token usage of the chat backend since
// start or the last reset.
func GetChatMetricsHandler(c echo.Context) error {
	chat := c.(*middleware.AppContext).App.Chat
	if chat == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Chat is not configured"})
	}

	return c.JSON(http.StatusOK, chat.Metrics())
}
