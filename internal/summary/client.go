// Package summary generates a one-line AI preview for long emails via
// Amazon Bedrock.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const (
	// DefaultMaxLength is the default maximum preview length in characters.
	DefaultMaxLength = 200
	// maxBodyInput is the maximum body text chars sent to the model.
	maxBodyInput = 4000
	// anthropicVersion is the required API version for Claude on Bedrock.
	anthropicVersion = "bedrock-2023-05-31"
)

// Previewer generates a short preview line for an email.
type Previewer interface {
	Preview(ctx context.Context, subject, from, bodyText string) (string, error)
}

// BedrockInvoker abstracts Bedrock model invocation for dependency inversion.
type BedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Config holds configuration for the previewer.
type Config struct {
	ModelID   string
	MaxLength int
}

// BedrockPreviewer generates email previews via Amazon Bedrock Claude models.
type BedrockPreviewer struct {
	client    BedrockInvoker
	modelID   string
	maxLength int
}

// NewBedrockPreviewer creates a new BedrockPreviewer.
func NewBedrockPreviewer(client BedrockInvoker, cfg Config) *BedrockPreviewer {
	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &BedrockPreviewer{
		client:    client,
		modelID:   cfg.ModelID,
		maxLength: maxLength,
	}
}

type claudeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Messages         []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const promptTemplate = `Write a one-line preview of this email for a chat notification.

- For spam or phishing: start with "Spam:" and a brief description
- For automated notifications: describe the event concisely
- For personal or business mail: describe the key point or action needed
- Maximum 100 characters. Be specific, not vague.
- Output ONLY the preview line. No quotes, no preamble.

Subject: %s
From: %s
---
%s`

// Preview generates a one-line preview of an email.
func (p *BedrockPreviewer) Preview(ctx context.Context, subject, from, bodyText string) (string, error) {
	if len(bodyText) > maxBodyInput {
		bodyText = bodyText[:maxBodyInput]
	}

	prompt := fmt.Sprintf(promptTemplate, subject, from, bodyText)

	reqBody, err := json.Marshal(claudeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        p.maxLength,
		Messages: []message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	modelID := p.modelID
	output, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId: &modelID,
		Body:    reqBody,
	})
	if err != nil {
		return "", fmt.Errorf("invoke model: %w", err)
	}

	var resp claudeResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(resp.Content) == 0 {
		return "", nil
	}

	preview := strings.TrimSpace(resp.Content[0].Text)
	return truncateAtWordBoundary(preview, p.maxLength), nil
}

// truncateAtWordBoundary truncates text to maxLen characters at a word
// boundary, appending "..." if truncated.
func truncateAtWordBoundary(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}

	cutoff := maxLen - 3
	if cutoff <= 0 {
		return text[:maxLen]
	}

	lastSpace := strings.LastIndex(text[:cutoff], " ")
	if lastSpace > 0 {
		return text[:lastSpace] + "..."
	}

	return text[:cutoff] + "..."
}
