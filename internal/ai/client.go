// Package ai wraps the OpenAI-compatible chat API for expense categorization
// and spending insights. The whole package sits behind the AI_ENABLED flag;
// when disabled nothing here is constructed.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Client talks to an OpenAI-compatible endpoint.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a client. baseURL may be empty to use the default endpoint,
// which also allows pointing at compatible local models.
func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Suggestion is the model's category pick for one expense description.
type Suggestion struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

const categorizePrompt = `You are an expense categorization assistant.
Given an expense description, pick the single best matching category from this list:
%s

Respond with JSON only, no prose: {"category": "<name from the list>", "confidence": <0.0-1.0>}.
If nothing fits, use the last category in the list with low confidence.`

// Categorize asks the model to assign one of the user's categories to the
// description.
func (c *Client) Categorize(ctx context.Context, description string, categories []string) (Suggestion, error) {
	if len(categories) == 0 {
		return Suggestion{}, fmt.Errorf("no categories to choose from")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(categorizePrompt, strings.Join(categories, ", "))},
			{Role: openai.ChatMessageRoleUser, Content: description},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return Suggestion{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Suggestion{}, fmt.Errorf("empty completion response")
	}

	var s Suggestion
	if err := json.Unmarshal([]byte(stripFences(resp.Choices[0].Message.Content)), &s); err != nil {
		return Suggestion{}, fmt.Errorf("parse suggestion: %w", err)
	}
	if s.Category == "" {
		return Suggestion{}, fmt.Errorf("suggestion missing category")
	}
	return s, nil
}

const insightsPrompt = `You are a personal finance assistant. The user's recent
spending by category follows. Write 2-4 short, concrete observations about their
spending habits as a JSON array of strings, no prose outside the JSON.`

// Insights asks the model for short observations about a spending breakdown.
// The summary argument is a preformatted "category: amount" listing.
func (c *Client) Insights(ctx context.Context, summary string) ([]string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: insightsPrompt},
			{Role: openai.ChatMessageRoleUser, Content: summary},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	var insights []string
	if err := json.Unmarshal([]byte(stripFences(resp.Choices[0].Message.Content)), &insights); err != nil {
		return nil, fmt.Errorf("parse insights: %w", err)
	}
	return insights, nil
}

// stripFences removes a markdown code fence some models wrap JSON answers in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
