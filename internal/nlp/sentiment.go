package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"friands/internal/ports"
)

// Classifier input is capped; the model only needs the opening of a review.
const maxClassifierInput = 1500

// SentimentClient labels review text through an external classification
// service that answers with star labels like "4 stars".
type SentimentClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.SentimentClassifier = (*SentimentClient)(nil)

// NewSentimentClient creates a reusable HTTP client.
func NewSentimentClient(endpoint, apiKey string) *SentimentClient {
	return &SentimentClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Classify sends the first 1500 characters of the text and returns the star
// count from the returned label.
func (c *SentimentClient) Classify(ctx context.Context, text string) (int, error) {
	if runes := []rune(text); len(runes) > maxClassifierInput {
		text = string(runes[:maxClassifierInput])
	}

	body, err := json.Marshal(map[string]any{"inputs": text})
	if err != nil {
		return 0, fmt.Errorf("marshal classifier payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build classifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("classifier returned %s", resp.Status)
	}

	var payload struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode classifier response: %w", err)
	}

	fields := strings.Fields(payload.Label)
	if len(fields) == 0 {
		return 0, fmt.Errorf("classifier returned empty label")
	}
	stars, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("unexpected label %q: %w", payload.Label, err)
	}
	return stars, nil
}
