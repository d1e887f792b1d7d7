package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"friands/internal/config"
	"friands/internal/domain"
	"friands/internal/ports"
)

// MistralClient generates restaurant summaries through a chat-completions
// API.
type MistralClient struct {
	endpoint    string
	model       string
	apiKey      string
	temperature float64
	httpClient  *http.Client
}

var _ ports.Summarizer = (*MistralClient)(nil)

// NewMistralClient builds a client from configuration.
func NewMistralClient(cfg config.MistralConfig) *MistralClient {
	return &MistralClient{
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Summarize builds a prompt from the recent reviews and returns the model's
// reply.
func (c *MistralClient) Summarize(ctx context.Context, restaurant string, reviews []domain.Review) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("mistral client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":       c.model,
		"temperature": c.temperature,
		"messages": []map[string]string{
			{"role": "user", "content": buildPrompt(restaurant, reviews)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal mistral payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build mistral request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mistral request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("mistral error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode mistral response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("mistral returned no completion")
	}
	return strings.TrimSpace(payload.Choices[0].Message.Content), nil
}

func buildPrompt(restaurant string, reviews []domain.Review) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Résume en quelques phrases les avis récents du restaurant %s.\n\n", restaurant)
	for _, review := range reviews {
		fmt.Fprintf(&b, "- %s (%.0f/5, %s) : %s\n",
			review.Title,
			review.Rating,
			review.Date.Format("2006-01-02"),
			review.Body)
	}
	return b.String()
}
