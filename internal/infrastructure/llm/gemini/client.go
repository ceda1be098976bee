// Package gemini is the primary remote generation backend, talking to the
// Gemini REST API.
package gemini

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

const DefaultModel = "gemini-2.5-flash"

type Options struct {
	BaseURL         string
	APIKey          string
	Model           string
	Temperature     float64
	MaxOutputTokens int
	Timeout         time.Duration
	Executor        *resilience.Executor
}

type Client struct {
	baseURL         string
	apiKey          string
	model           string
	temperature     float64
	maxOutputTokens int
	httpClient      *http.Client
	executor        *resilience.Executor
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.3
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = 1024
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Executor == nil {
		opts.Executor = resilience.NewExecutor(resilience.SingleAttemptConfig())
	}
	return &Client{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		apiKey:          opts.APIKey,
		model:           opts.Model,
		temperature:     opts.Temperature,
		maxOutputTokens: opts.MaxOutputTokens,
		httpClient:      &http.Client{Timeout: opts.Timeout},
		executor:        opts.Executor,
	}
}

func (c *Client) Name() string { return "gemini/" + c.model }

// Generate renders the context into a flat prompt and requests one
// completion. Failures surface as errors so the tier chain can fall through.
func (c *Client) Generate(ctx context.Context, pc domain.PromptContext) (string, error) {
	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": prompt.Render(pc)}}},
		},
		"generationConfig": map[string]any{
			"temperature":     c.temperature,
			"maxOutputTokens": c.maxOutputTokens,
		},
	}

	var text string
	err := c.executor.Execute(ctx, "gemini_generate", func(ctx context.Context) error {
		out, err := c.generateOnce(ctx, payload)
		if err != nil {
			return err
		}
		text = out
		return nil
	}, classifyGeminiError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("gemini generate", err)
	}
	return text, nil
}

func (c *Client) generateOnce(ctx context.Context, payload map[string]any) (string, error) {
	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.model)
	if err := c.postJSON(ctx, path, payload, &response, "generate"); err != nil {
		return "", err
	}

	if len(response.Candidates) == 0 {
		if reason := response.PromptFeedback.BlockReason; reason != "" {
			return "", fmt.Errorf("gemini prompt blocked: %s", reason)
		}
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var b strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty completion")
	}
	return text, nil
}
