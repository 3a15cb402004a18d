package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/argos/pkg/config"
	"github.com/wonny/argos/pkg/httputil"
	"github.com/wonny/argos/pkg/logger"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
// vLLM 등 자체 호스팅 모델도 동일 어댑터로 사용.
type OpenAIClient struct {
	http    *httputil.Client
	baseURL string
	apiKey  string
	model   string
	logger  *logger.Logger
}

// NewOpenAIClient creates an OpenAI-compatible provider adapter.
// 재시도는 합의 엔진이 소유하므로 HTTP 레벨 retry는 비활성화.
func NewOpenAIClient(cfg config.OpenAIConfig, http *httputil.Client, log *logger.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (OPENAI_API_KEY)")
	}

	return &OpenAIClient{
		http:    http.DisableRetry(),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		logger:  log.WithField("provider", "openai"),
	}, nil
}

// ID returns the provider id
func (c *OpenAIClient) ID() string {
	return "openai"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Submit sends the candidate prompt and parses the typed verdict
func (c *OpenAIClient) Submit(ctx context.Context, req Request) (*Analysis, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPersona},
			{Role: "user", Content: BuildPrompt(req)},
		},
		Temperature: 0.2,
	}

	resp, err := c.http.PostJSON(ctx, c.baseURL+"/chat/completions", body, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completions request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fallthrough to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, Permanent(fmt.Errorf("endpoint rejected credentials (%d)", resp.StatusCode))
	case httputil.IsRetryableStatus(resp.StatusCode):
		return nil, fmt.Errorf("transient endpoint failure (%d): %s", resp.StatusCode, string(raw))
	default:
		return nil, Permanent(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, Permanent(fmt.Errorf("decode chat response: %w", err))
	}
	if parsed.Error != nil {
		return nil, Permanent(fmt.Errorf("endpoint error: %s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, Permanent(fmt.Errorf("empty completion for %s", req.Code))
	}

	return ParseAnalysis(parsed.Choices[0].Message.Content)
}
