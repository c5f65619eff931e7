// Package feedback asks a hosted language model to explain a learner's quiz answer.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = errors.New("feedback generator is not configured")

// Prompt is the input of one feedback request
type Prompt struct {
	Language      string
	Question      string
	Answer        string
	CorrectAnswer string
}

var promptTemplate = template.Must(template.New("feedback").Parse(
	`You are a language tutor specializing in {{.Language}}.

You will provide personalized feedback to a learner on their quiz answer. Highlight areas for improvement and provide specific pointers to help them better understand {{.Language}}. Answer in at most four sentences.

Question: {{.Question}}
Learner's Answer: {{.Answer}}
Correct Answer: {{.CorrectAnswer}}

Feedback:`))

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Client calls the Gemini generateContent REST endpoint
type Client struct {
	http   *resty.Client
	apiKey string
	model  string
}

// NewClient creates a feedback client. An empty apiKey yields a client that
// always fails with ErrNotConfigured.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{
		http:   rc,
		apiKey: apiKey,
		model:  model,
	}
}

// Generate returns feedback text for p. There is no retry.
func (c *Client) Generate(ctx context.Context, p Prompt) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	var text strings.Builder
	if err := promptTemplate.Execute(&text, p); err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}

	var out generateResponse
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", c.apiKey).
		SetPathParam("model", c.model).
		SetBody(generateRequest{Contents: []content{{Parts: []part{{Text: text.String()}}}}}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1beta/models/{model}:generateContent")
	if err != nil {
		return "", fmt.Errorf("feedback request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("feedback request failed with status %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}

	for _, candidate := range out.Candidates {
		var b strings.Builder
		for _, p := range candidate.Content.Parts {
			b.WriteString(p.Text)
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			return s, nil
		}
	}
	return "", errors.New("feedback response has no text")
}
