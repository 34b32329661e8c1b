package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphview/backend/internal/server/middleware"
	"github.com/graphview/backend/pkg/logger"
)

// DeleteChatMetricsHandler resets the chat usage counters and returns the
// totals they held.
func DeleteChatMetricsHandler(c echo.Context) error {
	chat := c.(*middleware.AppContext).App.Chat
	if chat == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Chat is not configured"})
	}

	metrics := chat.Metrics()
	chat.ResetMetrics()
	logger.Info("Chat metrics reset",
		"input_tokens", metrics.InputTokens,
		"output_tokens", metrics.OutputTokens,
		"total_tokens", metrics.TotalTokens,
	)

	return c.JSON(http.StatusOK, metrics)
}
