package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphview/backend/internal/server/middleware"
	"github.com/graphview/backend/pkg/ai"
	"github.com/graphview/backend/pkg/logger"
)

func PostChatHandler(c echo.Context) error {
	type chatMessage struct {
		Role    string `json:"role" validate:"required,oneof=system user assistant"`
		Content string `json:"content"`
	}

	type postChatParams struct {
		Messages []chatMessage `json:"messages" validate:"required,dive"`
	}

	type responseMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	type responseData struct {
		Message   responseMessage `json:"message"`
		ToolCalls []ai.ToolCall   `json:"tool_calls"`
		Usage     ai.ModelMetrics `json:"usage"`
	}

	params := new(postChatParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "messages must be an array of {role, content}"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "messages must be an array of {role, content}"})
	}

	chat := c.(*middleware.AppContext).App.Chat
	if chat == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Chat is not configured"})
	}

	msgs := make([]ai.ChatMessage, 0, len(params.Messages))
	for _, m := range params.Messages {
		msgs = append(msgs, ai.ChatMessage{Role: m.Role, Message: m.Content})
	}

	ctx := c.Request().Context()
	res, err := chat.Chat(ctx, msgs)
	if err != nil {
		logger.Error("Chat API error", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Failed to process chat request.",
			"details": err.Error(),
		})
	}

	toolCalls := res.ToolCalls
	if toolCalls == nil {
		toolCalls = []ai.ToolCall{}
	}

	return c.JSON(http.StatusOK, responseData{
		Message:   responseMessage{Role: "assistant", Content: res.Content},
		ToolCalls: toolCalls,
		Usage:     res.Usage,
	})
}
