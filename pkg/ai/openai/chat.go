package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/graphview/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
)

var errNoChoices = errors.New("chat completion returned no choices")

func (c *GraphOpenAIClient) options(opts []ai.GenerateOption) ai.GenerateOptions {
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

func buildMessages(
	options ai.GenerateOptions,
	messages []ai.ChatMessage,
) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(options.SystemPrompts)+len(messages))
	for _, message := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(message))
	}
	for _, message := range messages {
		switch message.Role {
		case "system":
			msgs = append(msgs, openai.SystemMessage(message.Message))
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(message.Message))
		default:
			msgs = append(msgs, openai.UserMessage(message.Message))
		}
	}
	return msgs
}

func (c *GraphOpenAIClient) complete(
	ctx context.Context,
	body openai.ChatCompletionNewParams,
) (openai.ChatCompletionMessage, ai.ModelMetrics, error) {
	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return openai.ChatCompletionMessage{}, ai.ModelMetrics{}, err
	}
	duration := time.Since(start).Milliseconds()

	metrics := ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	}
	c.modifyMetrics(metrics)

	if len(response.Choices) == 0 {
		return openai.ChatCompletionMessage{}, metrics, errNoChoices
	}
	return response.Choices[0].Message, metrics, nil
}

// GenerateChatWithTools sends a conversation with tools. Server tools are
// executed and their results fed back to the model; the first round that
// requests a client tool ends the call and returns those tool calls.
func (c *GraphOpenAIClient) GenerateChatWithTools(
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

	// nil keeps the tools field out of requests without tools.
	var openaiTools []openai.ChatCompletionToolUnionParam
	for _, tool := range tools {
		openaiTools = append(openaiTools, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        tool.Name,
			Description: openai.String(tool.Description),
			Parameters:  tool.Parameters,
		}))
	}

	var usage ai.ModelMetrics
	for range maxRounds {
		message, metrics, err := c.complete(ctx, openai.ChatCompletionNewParams{
			Model:       openai.ChatModel(options.Model),
			Messages:    msgs,
			Tools:       openaiTools,
			Temperature: openai.Float(options.Temperature),
		})
		usage = usage.Add(metrics)
		if err != nil {
			return ai.ChatResult{}, err
		}

		if len(message.ToolCalls) == 0 {
			return ai.ChatResult{Content: message.Content, Usage: usage}, nil
		}

		calls := make([]ai.ToolCall, 0, len(message.ToolCalls))
		for _, tc := range message.ToolCalls {
			ftc := tc.AsFunction()
			calls = append(calls, ai.ToolCall{
				ID:        ftc.ID,
				Name:      ftc.Function.Name,
				Arguments: ai.NormalizeArguments(ftc.Function.Arguments),
			})
		}

		serverCalls, clientCalls, err := ai.SplitToolCalls(tools, calls)
		if err != nil {
			return ai.ChatResult{}, err
		}
		if len(clientCalls) > 0 {
			return ai.ChatResult{
				Content:   message.Content,
				ToolCalls: clientCalls,
				Usage:     usage,
			}, nil
		}

		msgs = append(msgs, message.ToParam())
		for _, call := range serverCalls {
			tool, _ := ai.FindTool(tools, call.Name)
			result, err := tool.Handler(ctx, call.Arguments)
			if err != nil {
				return ai.ChatResult{}, fmt.Errorf("tool %s failed: %w", call.Name, err)
			}
			msgs = append(msgs, openai.ToolMessage(result, call.ID))
		}
	}

	return ai.ChatResult{}, fmt.Errorf("max tool rounds (%d) exceeded", maxRounds)
}
