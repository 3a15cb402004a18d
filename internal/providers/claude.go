package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/wonny/argos/pkg/config"
	"github.com/wonny/argos/pkg/logger"
)

// ClaudeClient is the Anthropic Claude adapter.
// 심층 추론 프로바이더: 합의 동률 시 기본 우선권을 가진다 (strategy 설정).
type ClaudeClient struct {
	client anthropic.Client
	model  string
	logger *logger.Logger
}

// NewClaudeClient creates a Claude provider adapter
func NewClaudeClient(cfg config.ClaudeConfig, log *logger.Logger) (*ClaudeClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (ANTHROPIC_API_KEY)")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
	)

	return &ClaudeClient{
		client: client,
		model:  cfg.Model,
		logger: log.WithField("provider", "claude"),
	}, nil
}

// ID returns the provider id
func (c *ClaudeClient) ID() string {
	return "claude"
}

// Submit sends the candidate prompt and parses the typed verdict
func (c *ClaudeClient) Submit(ctx context.Context, req Request) (*Analysis, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(BuildPrompt(req)),
			),
		},
		System: []anthropic.TextBlockParam{
			{Text: systemPersona},
		},
		Temperature: anthropic.Float(0.2),
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyClaudeError(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return nil, Permanent(fmt.Errorf("empty Claude response for %s", req.Code))
	}

	return ParseAnalysis(text.String())
}

// classifyClaudeError separates auth failures from transient API errors
func classifyClaudeError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		// 400/401/403: malformed request 또는 credentials, retry 무의미
		if apiErr.StatusCode == 400 || apiErr.StatusCode == 401 || apiErr.StatusCode == 403 {
			return Permanent(fmt.Errorf("Claude API rejected request (%d): %w", apiErr.StatusCode, err))
		}
	}
	return fmt.Errorf("Claude API call failed: %w", err)
}
