package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"DisasterTriage/internal/entities"
)

// Client talks to an external NER service hosting one or more models.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient creates a reusable HTTP client; timeout <= 0 means 15s.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Providers returns one recognizer per model, in the given order.
func (c *Client) Providers(models ...string) []entities.NERProvider {
	out := make([]entities.NERProvider, 0, len(models))
	for _, m := range models {
		out = append(out, &Model{client: c, name: m})
	}
	return out
}

// Model is a single remote model exposed as an entities.NERProvider.
type Model struct {
	client *Client
	name   string
}

var _ entities.NERProvider = (*Model)(nil)

// Name identifies the model in degradation warnings.
func (m *Model) Name() string {
	return "remote:" + m.name
}

type recognizeResponse struct {
	Entities []struct {
		Text  string `json:"text"`
		Label string `json:"label"`
		Start int    `json:"start"`
		End   int    `json:"end"`
	} `json:"entities"`
}

// Recognize posts the text to /ner. The service reports character offsets;
// they are converted to byte offsets and out-of-range spans are dropped.
func (m *Model) Recognize(ctx context.Context, text string) ([]entities.NamedEntity, error) {
	payload := map[string]any{
		"model": m.name,
		"text":  text,
	}

	var resp recognizeResponse
	if err := m.client.post(ctx, "/ner", payload, &resp); err != nil {
		return nil, fmt.Errorf("model %s: %w", m.name, err)
	}

	offsets := runeOffsets(text)
	out := make([]entities.NamedEntity, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		if e.Start < 0 || e.End < e.Start || e.End >= len(offsets) {
			continue
		}
		start, end := offsets[e.Start], offsets[e.End]
		out = append(out, entities.NamedEntity{
			Text:  text[start:end],
			Label: e.Label,
			Start: start,
			End:   end,
		})
	}
	return out, nil
}

// runeOffsets maps character index i to its byte offset; the final entry is
// len(text) so that an exclusive end index can be converted too.
func runeOffsets(text string) []int {
	offsets := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if v == nil {
		if err := resp.Body.Close(); err != nil {
			return fmt.Errorf("close response body: %w", err)
		}
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
