// Package huggingface is the secondary remote generation backend, talking to
// the Hugging Face serverless inference API.
package huggingface

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/llm/prompt"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/resilience"
)

const DefaultModel = "mistralai/Mistral-7B-Instruct-v0.2"

type Options struct {
	BaseURL      string
	Token        string
	Model        string
	Temperature  float64
	MaxNewTokens int
	Timeout      time.Duration
	Executor     *resilience.Executor
}

type Client struct {
	baseURL      string
	token        string
	model        string
	temperature  float64
	maxNewTokens int
	httpClient   *http.Client
	executor     *resilience.Executor
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api-inference.huggingface.co"
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.3
	}
	if opts.MaxNewTokens <= 0 {
		opts.MaxNewTokens = 500
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Executor == nil {
		opts.Executor = resilience.NewExecutor(resilience.SingleAttemptConfig())
	}
	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		token:        opts.Token,
		model:        opts.Model,
		temperature:  opts.Temperature,
		maxNewTokens: opts.MaxNewTokens,
		httpClient:   &http.Client{Timeout: opts.Timeout},
		executor:     opts.Executor,
	}
}

func (c *Client) Name() string { return "huggingface/" + c.model }

// Generate requests one completion from the hosted model. A 503 means the
// model is still loading; it surfaces as an error and the tier chain falls
// through rather than waiting.
func (c *Client) Generate(ctx context.Context, pc domain.PromptContext) (string, error) {
	payload := map[string]any{
		"inputs": prompt.Render(pc),
		"parameters": map[string]any{
			"max_new_tokens":   c.maxNewTokens,
			"temperature":      c.temperature,
			"return_full_text": false,
		},
		"options": map[string]any{
			"wait_for_model": false,
		},
	}

	var text string
	err := c.executor.Execute(ctx, "huggingface_generate", func(ctx context.Context) error {
		out, err := c.generateOnce(ctx, payload)
		if err != nil {
			return err
		}
		text = out
		return nil
	}, classifyHFError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("huggingface generate", err)
	}
	return text, nil
}

func (c *Client) generateOnce(ctx context.Context, payload map[string]any) (string, error) {
	var response []struct {
		GeneratedText string `json:"generated_text"`
	}

	if err := c.postJSON(ctx, "/models/"+c.model, payload, &response, "generate"); err != nil {
		return "", err
	}
	if len(response) == 0 {
		return "", fmt.Errorf("huggingface returned no generations")
	}

	text := strings.TrimSpace(response[0].GeneratedText)
	if text == "" {
		return "", fmt.Errorf("huggingface returned an empty completion")
	}
	return text, nil
}
