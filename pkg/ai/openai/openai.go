package openai

import (
	"sync"

	"github.com/graphview/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GraphOpenAIClient is a chat client for OpenAI compatible endpoints.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	chatModel string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration parameters for
// creating a new GraphOpenAIClient.
//
// ChatURL and ChatKey configure the chat/completion API endpoint. An empty
// ChatURL uses the public OpenAI API.
type NewGraphOpenAIClientParams struct {
	ChatModel string

	ChatURL string
	ChatKey string
}

// NewGraphOpenAIClient creates a client configured with the provided
// parameters. It returns nil when no API key is set.
//
// Example:
//
//	client := openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
//		ChatModel: "gpt-4o-mini",
//		ChatURL:   "https://api.openai.com/v1",
//		ChatKey:   os.Getenv("AI_CHAT_KEY"),
//	})
func NewGraphOpenAIClient(
	params NewGraphOpenAIClientParams,
) *GraphOpenAIClient {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)
	if chatClient == nil {
		return nil
	}

	return &GraphOpenAIClient{
		chatModel:  params.ChatModel,
		ChatClient: chatClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
