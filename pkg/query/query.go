package query

import (
	"context"
	"fmt"

	"github.com/graphview/backend/pkg/ai"
	"github.com/graphview/backend/pkg/common"
	"github.com/graphview/backend/pkg/graph"
	"github.com/graphview/backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const defaultContextTokens = 60000

type queryOptions struct {
	SystemPrompts []string
	Model         string
	ContextTokens int
	MaxRounds     int
	Counter       ai.TokenCounter
}

// QueryOption is a functional option for configuring chat behavior.
type QueryOption func(*queryOptions)

// WithSystemPrompts returns a QueryOption that appends additional system
// prompts after the graph prompt.
func WithSystemPrompts(prompts ...string) QueryOption {
	return func(o *queryOptions) {
		o.SystemPrompts = append(o.SystemPrompts, prompts...)
	}
}

// WithModel returns a QueryOption that specifies which AI model to use
// for generating responses.
func WithModel(model string) QueryOption {
	return func(o *queryOptions) {
		o.Model = model
	}
}

// WithContextTokens limits how many tokens of graph data are put into the
// system prompt. Values <= 0 keep the default.
func WithContextTokens(tokens int) QueryOption {
	return func(o *queryOptions) {
		if tokens > 0 {
			o.ContextTokens = tokens
		}
	}
}

// WithMaxRounds bounds the server tool rounds of one chat turn.
func WithMaxRounds(rounds int) QueryOption {
	return func(o *queryOptions) {
		o.MaxRounds = rounds
	}
}

// WithTokenCounter replaces the tiktoken based counter.
func WithTokenCounter(counter ai.TokenCounter) QueryOption {
	return func(o *queryOptions) {
		o.Counter = counter
	}
}

// GraphChatClient answers chat turns about the snapshot graph. Mutations the
// model proposes are returned as client tool calls and never applied.
type GraphChatClient struct {
	aiClient ai.GraphAIClient
	graph    *graph.GraphClient
	options  queryOptions
}

// NewGraphChatClient combines an AI client with the graph the assistant
// talks about.
//
// Example:
//
//	client := query.NewGraphChatClient(aiClient, graphClient, query.WithModel("gpt-4o-mini"))
//	res, err := client.Chat(ctx, msgs)
func NewGraphChatClient(
	aiClient ai.GraphAIClient,
	graphClient *graph.GraphClient,
	opts ...QueryOption,
) *GraphChatClient {
	options := queryOptions{
		ContextTokens: defaultContextTokens,
		MaxRounds:     ai.DefaultMaxRounds,
	}
	for _, o := range opts {
		o(&options)
	}
	if options.Counter == nil {
		options.Counter = ai.NewTiktokenCounter()
	}

	return &GraphChatClient{
		aiClient: aiClient,
		graph:    graphClient,
		options:  options,
	}
}

func (c *GraphChatClient) loadGraph(ctx context.Context) ([]common.Entity, []common.Relation, error) {
	var (
		entities  []common.Entity
		relations []common.Relation
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entities, err = c.graph.AllEntities(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		relations, err = c.graph.AllRelations(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return entities, relations, nil
}

// SystemPrompt renders the chat prompt with as much of the graph as fits
// into the token budget.
func (c *GraphChatClient) SystemPrompt(entities []common.Entity, relations []common.Relation) string {
	data, truncated := ai.RenderGraphContext(c.options.Counter, entities, relations, c.options.ContextTokens)
	if truncated {
		logger.Debug("[Chat] Graph context truncated", "entities", len(entities), "relations", len(relations), "budget", c.options.ContextTokens)
		data += ai.ChatContextTruncated
	}
	return fmt.Sprintf(ai.ChatPrompt, data)
}

// Chat runs one chat turn.
func (c *GraphChatClient) Chat(ctx context.Context, msgs []ai.ChatMessage) (ai.ChatResult, error) {
	entities, relations, err := c.loadGraph(ctx)
	if err != nil {
		return ai.ChatResult{}, fmt.Errorf("load graph: %w", err)
	}

	systemPrompts := []string{c.SystemPrompt(entities, relations)}
	systemPrompts = append(systemPrompts, c.options.SystemPrompts...)

	generateOpts := []ai.GenerateOption{
		ai.WithSystemPrompts(systemPrompts...),
		ai.WithMaxRounds(c.options.MaxRounds),
	}
	if c.options.Model != "" {
		generateOpts = append(generateOpts, ai.WithModel(c.options.Model))
	}

	res, err := c.aiClient.GenerateChatWithTools(ctx, msgs, ChatTools(entities), generateOpts...)
	if err != nil {
		return ai.ChatResult{}, err
	}

	logger.Debug("[Chat] Turn finished",
		"tool_calls", len(res.ToolCalls),
		"tokens", res.Usage.TotalTokens,
		"total_tokens", c.Metrics().TotalTokens,
	)
	return res, nil
}

// Metrics returns the usage accumulated by the chat backend since the last
// reset.
func (c *GraphChatClient) Metrics() ai.ModelMetrics {
	return c.aiClient.GetMetrics()
}

func (c *GraphChatClient) ResetMetrics() {
	c.aiClient.ResetMetrics()
}
