package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "github.com/graphview/backend/internal/server/middleware"
	"github.com/graphview/backend/internal/storage"
	"github.com/graphview/backend/internal/util"
	"github.com/graphview/backend/pkg/graph"
	"github.com/graphview/backend/pkg/logger"
	"github.com/graphview/backend/pkg/query"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New builds the echo instance with the shared middleware stack and all
// routes registered.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return gonanoid.Must()
		},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			keyvals := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				logger.Error("Request failed", append(keyvals, "err", v.Error)...)
				return nil
			}
			logger.Info("Request", keyvals...)
			return nil
		},
	}))
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(util.GetEnvString("BODY_LIMIT", "2M")))
	e.Use(mid.AppContextMiddleware(app))

	RegisterRoutes(e)

	return e
}

// NewAppFromEnv wires the snapshot store, the graph client and the optional
// chat client from the environment.
func NewAppFromEnv(ctx context.Context) (*mid.App, error) {
	snapshots, err := storage.NewSnapshotLoader(ctx)
	if err != nil {
		return nil, err
	}

	graphClient := graph.NewGraphClient(graph.NewGraphClientParams{
		Loader:        snapshots,
		ParallelLoads: int(util.GetEnvNumeric("GRAPH_PARALLEL_LOADS", 8)),
	})

	app := &mid.App{Graph: graphClient}

	aiClient, err := mid.NewAIClientFromEnv()
	if err != nil {
		return nil, err
	}
	if aiClient == nil {
		logger.Warn("No AI backend configured, chat is disabled")
		return app, nil
	}

	app.Chat = query.NewGraphChatClient(
		aiClient,
		graphClient,
		query.WithModel(util.GetEnvString("AI_CHAT_MODEL", "gpt-4o-mini")),
		query.WithContextTokens(int(util.GetEnvNumeric("AI_CONTEXT_TOKENS", 60000))),
	)
	return app, nil
}

func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewAppFromEnv(ctx)
	if err != nil {
		logger.Fatal("Failed to initialize app", "err", err)
	}

	e := New(app)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
