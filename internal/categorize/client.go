package categorize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spec-kit/helpdesk/internal/config"
)

// Suggestion is the categorization returned by the ML collaborator.
type Suggestion struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// Client calls the external ML text-categorization service. Clients
// normally supply category and priority themselves; this is the
// server-side fallback used when a creating client omits them.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient builds a client, or nil when no endpoint is configured.
func NewClient(cfg config.CategorizerConfig) *Client {
	if cfg.URL == "" {
		return nil
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Suggest posts the ticket text and returns the suggested category and
// priority.
func (c *Client) Suggest(ctx context.Context, title, description string) (*Suggestion, error) {
	payload, err := json.Marshal(map[string]string{
		"title":       title,
		"description": description,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("categorizer returned status %d", resp.StatusCode)
	}

	var suggestion Suggestion
	if err := json.NewDecoder(resp.Body).Decode(&suggestion); err != nil {
		return nil, err
	}
	return &suggestion, nil
}
