package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	oai "github.com/graphview/backend/pkg/ai/ollama"
	gai "github.com/graphview/backend/pkg/ai/openai"
)

func TestAppContextMiddleware(t *testing.T) {
	app := &App{}
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	var seen *App
	h := AppContextMiddleware(app)(func(c echo.Context) error {
		seen = c.(*AppContext).App
		return c.NoContent(http.StatusOK)
	})
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if seen != app {
		t.Fatal("handler did not receive the shared app")
	}
}

func TestNewAIClientFromEnv(t *testing.T) {
	t.Run("openai without key", func(t *testing.T) {
		t.Setenv("AI_ADAPTER", "openai")
		t.Setenv("AI_CHAT_KEY", "")
		client, err := NewAIClientFromEnv()
		if err != nil {
			t.Fatalf("NewAIClientFromEnv() error = %v", err)
		}
		if client != nil {
			t.Fatalf("expected no client, got %T", client)
		}
	})

	t.Run("openai with key", func(t *testing.T) {
		t.Setenv("AI_ADAPTER", "")
		t.Setenv("AI_CHAT_KEY", "sk-test")
		client, err := NewAIClientFromEnv()
		if err != nil {
			t.Fatalf("NewAIClientFromEnv() error = %v", err)
		}
		if _, ok := client.(*gai.GraphOpenAIClient); !ok {
			t.Fatalf("expected an OpenAI client, got %T", client)
		}
	})

	t.Run("ollama", func(t *testing.T) {
		t.Setenv("AI_ADAPTER", "ollama")
		t.Setenv("AI_CHAT_URL", "http://127.0.0.1:11434")
		client, err := NewAIClientFromEnv()
		if err != nil {
			t.Fatalf("NewAIClientFromEnv() error = %v", err)
		}
		if _, ok := client.(*oai.GraphOllamaClient); !ok {
			t.Fatalf("expected an Ollama client, got %T", client)
		}
	})

	t.Run("ollama with invalid url", func(t *testing.T) {
		t.Setenv("AI_ADAPTER", "ollama")
		t.Setenv("AI_CHAT_URL", "://bad")
		if _, err := NewAIClientFromEnv(); err == nil {
			t.Fatal("expected an error for an invalid url")
		}
	})
}
