package ai

import (
	"context"
)

// ToolHandler is a function that executes a tool call and returns its result.
// The arguments parameter contains the JSON-encoded arguments from the AI model.
type ToolHandler func(ctx context.Context, arguments string) (string, error)

// Tool defines a function that can be called by an AI model during generation.
type Tool struct {
	Name        string         // Unique identifier for the tool
	Description string         // Human-readable description of what the tool does
	Parameters  map[string]any // JSON Schema defining the tool's input parameters
	Handler     ToolHandler    // Function to execute when the tool is called (server tools only)
	Execution   ToolExecution  // Where the tool call is executed
}

// ToolCall represents a request from the AI model to invoke a specific tool.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatMessage represents a single message in a chat conversation.
//
// Role must be one of:
//   - "system"    → additional instructions
//   - "user"      → a user-provided message
//   - "assistant" → a message from the AI assistant
type ChatMessage struct {
	Message string `json:"message"`
	Role    string `json:"role"`
}

// ChatResult is the outcome of a tool-enabled chat turn. When the model
// requested client tools, ToolCalls holds them and Content may be empty.
type ChatResult struct {
	Content   string
	ToolCalls []ToolCall
	Usage     ModelMetrics // usage of this call only
}

// GenerateOptions holds configuration for AI generation requests.
type GenerateOptions struct {
	Model         string   // Model identifier to use for generation
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
	MaxRounds     int      // Upper bound on server tool rounds
}

// ModelMetrics contains performance metrics from AI model operations.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// Add returns the sum of both metrics. TokenPerSecond is not summed.
func (m ModelMetrics) Add(o ModelMetrics) ModelMetrics {
	m.InputTokens += o.InputTokens
	m.OutputTokens += o.OutputTokens
	m.TotalTokens += o.TotalTokens
	m.DurationMs += o.DurationMs
	return m
}

// GenerateOption is a functional option for configuring AI generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts returns a GenerateOption that sets the system prompts
// to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithMaxRounds limits how many server tool rounds a chat may run before
// giving up.
func WithMaxRounds(rounds int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxRounds = rounds
	}
}

// GraphAIClient defines the interface for the chat assistant backends.
type GraphAIClient interface {
	// GenerateChatWithTools runs server tools until the model answers or
	// requests a client tool. Client tool calls are returned, not executed.
	GenerateChatWithTools(
		ctx context.Context,
		messages []ChatMessage,
		tools []Tool,
		opts ...GenerateOption,
	) (ChatResult, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}
