// Package llm implements the scoring oracle on the OpenAI chat completions API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"ticket_analyzer/core/domain"
	"ticket_analyzer/pkg/apperr"
	"ticket_analyzer/pkg/httputil"
)

const DefaultModel = "gpt-4o-2024-08-06"

// ErrEmptyResponse is returned when the completion has no choices or no content.
var ErrEmptyResponse = errors.New("empty completion")

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Oracle sends a rubric and a thread to a chat model and returns the raw completion text.
type Oracle struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	log     zerolog.Logger
}

// NewOracle creates an OpenAI-backed oracle. A nil httpClient uses the pooled OpenAI defaults.
func NewOracle(cfg Config, httpClient *http.Client, log zerolog.Logger) *Oracle {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if httpClient == nil {
		httpClient = httputil.NewClient(httputil.OpenAIClientConfig())
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = httpClient

	return &Oracle{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: cfg.Timeout,
		log:     log.With().Str("component", "openai_oracle").Logger(),
	}
}

// Invoke sends prompt as the system message and the JSON-encoded thread as the user message.
func (o *Oracle) Invoke(ctx context.Context, prompt string, thread []domain.Message) (string, error) {
	payload, err := json.Marshal(thread)
	if err != nil {
		return "", fmt.Errorf("encode thread: %w", err)
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: prompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: string(payload),
			},
		},
	})
	if err != nil {
		return "", apperr.ExternalError("openai", err)
	}

	o.log.Debug().
		Str("model", o.model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("latency", time.Since(start)).
		Msg("completion received")

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", apperr.ExternalError("openai", ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
