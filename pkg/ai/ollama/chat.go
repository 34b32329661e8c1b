package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/graphview/backend/pkg/ai"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/ollama/ollama/api"
)

const defaultContextWindow = 4096

func (c *GraphOllamaClient) options(opts []ai.GenerateOption) ai.GenerateOptions {
	options := ai.GenerateOptions{
		Model:         c.chatModel,
		SystemPrompts: []string{},
		Temperature:   0.2,
		MaxRounds:     ai.DefaultMaxRounds,
	}
	for _, o := range opts {
		o(&options)
	}
	return options
}

func buildMessages(options ai.GenerateOptions, messages []ai.ChatMessage) []api.Message {
	msgs := make([]api.Message, 0, len(options.SystemPrompts)+len(messages))
	for _, sys := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sys})
	}
	for _, m := range messages {
		role := m.Role
		if role == "" {
			role = "user"
		}
		msgs = append(msgs, api.Message{Role: role, Content: m.Message})
	}
	return msgs
}

// contextWindow sizes num_ctx so long graph prompts are not silently cut by
// the server's default window.
func (c *GraphOllamaClient) contextWindow(msgs []api.Message) int {
	var chatString strings.Builder
	for _, m := range msgs {
		chatString.WriteString(m.Content)
		chatString.WriteString("\n")
	}
	return c.counter.CountTokens(chatString.String()) + 1024
}

func (c *GraphOllamaClient) chat(
	ctx context.Context,
	options ai.GenerateOptions,
	msgs []api.Message,
	tools api.Tools,
) (api.ChatResponse, ai.ModelMetrics, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Tools:    tools,
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	if tokens := c.contextWindow(msgs); tokens > defaultContextWindow {
		req.Options["num_ctx"] = tokens
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return api.ChatResponse{}, ai.ModelMetrics{}, err
	}
	defer c.reqLock.Release(1)

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Role = "assistant"
		final.Message.Content += cr.Message.Content
		if len(cr.Message.ToolCalls) > 0 {
			final.Message.ToolCalls = cr.Message.ToolCalls
		}
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return api.ChatResponse{}, ai.ModelMetrics{}, err
	}

	metrics := ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	}
	c.modifyMetrics(metrics)

	return final, metrics, nil
}

// GenerateChatWithTools sends a conversation with tools. Server tools are
// executed and their results fed back to the model; the first round that
// requests a client tool ends the call and returns those tool calls.
func (c *GraphOllamaClient) GenerateChatWithTools(
	ctx context.Context,
	messages []ai.ChatMessage,
	tools []ai.Tool,
	opts ...ai.GenerateOption,
) (ai.ChatResult, error) {
	options := c.options(opts)
	maxRounds := options.MaxRounds
	if maxRounds < 1 {
		maxRounds = ai.DefaultMaxRounds
	}

	msgs := buildMessages(options, messages)
	ollamaTools := toOllamaTools(tools)

	var usage ai.ModelMetrics
	for range maxRounds {
		final, metrics, err := c.chat(ctx, options, msgs, ollamaTools)
		if err != nil {
			return ai.ChatResult{}, err
		}
		usage = usage.Add(metrics)

		if len(final.Message.ToolCalls) == 0 {
			return ai.ChatResult{Content: final.Message.Content, Usage: usage}, nil
		}

		calls := make([]ai.ToolCall, 0, len(final.Message.ToolCalls))
		for _, tc := range final.Message.ToolCalls {
			argsBytes, err := json.Marshal(tc.Function.Arguments)
			if err != nil {
				return ai.ChatResult{}, fmt.Errorf("failed to marshal tool arguments: %w", err)
			}
			id, err := gonanoid.New()
			if err != nil {
				return ai.ChatResult{}, err
			}
			calls = append(calls, ai.ToolCall{
				ID:        "call_" + id,
				Name:      tc.Function.Name,
				Arguments: ai.NormalizeArguments(string(argsBytes)),
			})
		}

		serverCalls, clientCalls, err := ai.SplitToolCalls(tools, calls)
		if err != nil {
			return ai.ChatResult{}, err
		}
		if len(clientCalls) > 0 {
			return ai.ChatResult{
				Content:   final.Message.Content,
				ToolCalls: clientCalls,
				Usage:     usage,
			}, nil
		}

		msgs = append(msgs, final.Message)
		for _, call := range serverCalls {
			tool, _ := ai.FindTool(tools, call.Name)
			result, err := tool.Handler(ctx, call.Arguments)
			if err != nil {
				return ai.ChatResult{}, fmt.Errorf("tool %s failed: %w", call.Name, err)
			}
			msgs = append(msgs, api.Message{
				Role:    "tool",
				Content: result,
			})
		}
	}

	return ai.ChatResult{}, fmt.Errorf("max tool rounds (%d) exceeded", maxRounds)
}

func toOllamaTools(tools []ai.Tool) api.Tools {
	ollamaTools := make(api.Tools, len(tools))
	for i, tool := range tools {
		params := api.ToolFunctionParameters{
			Type:       "object",
			Required:   []string{},
			Properties: map[string]api.ToolProperty{},
		}

		if tool.Parameters != nil {
			if props, ok := tool.Parameters["properties"].(map[string]any); ok {
				for name, prop := range props {
					if propMap, ok := prop.(map[string]any); ok {
						tp := api.ToolProperty{}
						if t, ok := propMap["type"].(string); ok {
							tp.Type = api.PropertyType([]string{t})
						}
						if desc, ok := propMap["description"].(string); ok {
							tp.Description = desc
						}
						if enum, ok := propMap["enum"].([]any); ok {
							tp.Enum = enum
						}
						params.Properties[name] = tp
					}
				}
			}
			if reqInterface, ok := tool.Parameters["required"].([]any); ok {
				params.Required = make([]string, 0, len(reqInterface))
				for _, v := range reqInterface {
					if s, ok := v.(string); ok {
						params.Required = append(params.Required, s)
					}
				}
			} else if req, ok := tool.Parameters["required"].([]string); ok {
				params.Required = req
			}
		}

		ollamaTools[i] = api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  params,
			},
		}
	}
	return ollamaTools
}
