package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/graphview/backend/internal/util"
	"github.com/graphview/backend/pkg/ai"
	oai "github.com/graphview/backend/pkg/ai/ollama"
	gai "github.com/graphview/backend/pkg/ai/openai"
	"github.com/graphview/backend/pkg/graph"
	"github.com/graphview/backend/pkg/query"
)

type App struct {
	Graph *graph.GraphClient
	// Chat is nil when no AI backend is configured.
	Chat *query.GraphChatClient
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}

// NewAIClientFromEnv creates the chat backend selected by AI_ADAPTER. It
// returns nil without an error when the backend is not configured.
func NewAIClientFromEnv() (ai.GraphAIClient, error) {
	adapter := util.GetEnv("AI_ADAPTER")
	model := util.GetEnvString("AI_CHAT_MODEL", "gpt-4o-mini")

	switch adapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			ChatModel: model,

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		client := gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			ChatModel: model,

			ChatURL: util.GetEnv("AI_CHAT_URL"),
			ChatKey: util.GetEnv("AI_CHAT_KEY"),
		})
		if client == nil {
			return nil, nil
		}
		return client, nil
	}
}
