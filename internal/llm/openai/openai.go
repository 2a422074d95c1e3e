// Package openai implements the completion-service contract on the OpenAI
// chat completions API. Any OpenAI-compatible endpoint works through the
// base URL override.
package openai

import (
	"context"
	"fmt"
	"log"
	"time"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/quorralabs/deepresearch/config"
	"github.com/quorralabs/deepresearch/internal/llm"
)

type Provider struct {
	client  oai.Client
	timeout time.Duration
	logger  *log.Logger
}

// New builds a Provider from the completion-service configuration.
func New(cfg config.LLMConfig) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Provider{
		client:  oai.NewClient(opts...),
		timeout: timeout,
		logger:  log.New(log.Writer(), "[LLM] ", log.LstdFlags),
	}
}

func (p *Provider) Generate(ctx context.Context, system, prompt string, opts llm.Options) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var messages []oai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, oai.SystemMessage(system))
	}
	messages = append(messages, oai.UserMessage(prompt))

	params := oai.ChatCompletionNewParams{
		Model:    oai.ChatModel(opts.Model),
		Messages: messages,
	}
	if opts.Temperature > 0 {
		params.Temperature = param.NewOpt(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(opts.MaxTokens))
	}

	start := time.Now()
	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	p.logger.Printf("model=%s tokens=%d elapsed=%s",
		opts.Model, completion.Usage.TotalTokens, time.Since(start).Round(time.Millisecond))
	return completion.Choices[0].Message.Content, nil
}
