package providers

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/wonny/argos/pkg/config"
	"github.com/wonny/argos/pkg/logger"
)

// GeminiClient is the Google Gemini adapter
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *logger.Logger
}

// NewGeminiClient creates a Gemini provider adapter
func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig, log *logger.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (GEMINI_API_KEY)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  cfg.Model,
		logger: log.WithField("provider", "gemini"),
	}, nil
}

// ID returns the provider id
func (c *GeminiClient) ID() string {
	return "gemini"
}

// Submit sends the candidate prompt and parses the typed verdict
func (c *GeminiClient) Submit(ctx context.Context, req Request) (*Analysis, error) {
	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(BuildPrompt(req))},
		},
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(0.2)),
		SystemInstruction: genai.NewContentFromText(systemPersona, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genConfig)
	if err != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}

	// Iterate candidates until non-empty text is found
	var text strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					text.WriteString(part.Text)
				}
			}
			if text.Len() > 0 {
				break
			}
		}
	}

	if text.Len() == 0 {
		return nil, Permanent(fmt.Errorf("empty Gemini response for %s", req.Code))
	}

	return ParseAnalysis(text.String())
}
