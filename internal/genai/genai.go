// Package genai wraps the OpenAI API for generating advisor responses.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Default generation parameters. Replies are kept short for chat-bubble
// readability.
const (
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.3
)

// ClientInterface defines the operations the conversation flow needs from
// the LLM provider. Implementations must deliver stream deltas in strict
// arrival order.
type ClientInterface interface {
	// GenerateWithMessages runs a one-shot chat completion.
	GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
	// StreamWithMessages runs a streaming chat completion, invoking onDelta
	// for every token chunk with the chunk text and the accumulation so
	// far. Returns the full accumulated text; the concatenation of all
	// delta arguments equals the returned text.
	StreamWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, onDelta func(delta, accumulated string)) (string, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel sets the chat completion model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithMaxTokens sets the completion token budget.
func WithMaxTokens(n int) Option {
	return func(o *Opts) { o.MaxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) Option {
	return func(o *Opts) { o.Temperature = temp }
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewClient initializes a new GenAI client, falling back to the
// OPENAI_API_KEY environment variable when no key option is provided.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{MaxTokens: DefaultMaxTokens, Temperature: DefaultTemperature}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4oMini
	}
	slog.Debug("genai.NewClient: client configured", "model", cfg.Model, "maxTokens", cfg.MaxTokens)

	return &Client{
		client:      openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (c *Client) params(messages []openai.ChatCompletionMessageParamUnion) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   openai.Int(int64(c.maxTokens)),
		Temperature: openai.Float(c.temperature),
	}
}

// GenerateWithMessages runs a one-shot chat completion over the provided
// message history.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.params(messages))
	if err != nil {
		slog.Error("Client.GenerateWithMessages: completion failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// StreamWithMessages runs a streaming chat completion. Chunks are consumed
// sequentially; cancellation of ctx is honored at chunk-read time.
func (c *Client) StreamWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, onDelta func(delta, accumulated string)) (string, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(messages))
	defer stream.Close()

	var acc strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		acc.WriteString(delta)
		if onDelta != nil {
			onDelta(delta, acc.String())
		}
	}
	if err := stream.Err(); err != nil {
		slog.Error("Client.StreamWithMessages: stream failed", "error", err, "accumulated_length", acc.Len())
		return "", fmt.Errorf("chat completion stream failed: %w", err)
	}
	return acc.String(), nil
}
