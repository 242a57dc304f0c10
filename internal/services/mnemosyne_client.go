package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// MemoryContext is the semantic-memory service's answer for one query
type MemoryContext struct {
	Summaries []string `json:"summaries"`
}

// MnemosyneClient is the capability interface for the external semantic-memory
// service. It is a soft dependency: any error (including timeout) means
// "unavailable this turn" and must never fail the request.
type MnemosyneClient interface {
	Query(ctx context.Context, topics []string, since time.Time) (*MemoryContext, error)
}

// HTTPMnemosyneClient talks to a live Mnemosyne instance over HTTP
type HTTPMnemosyneClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPMnemosyneClient creates a client with a per-call timeout
func NewHTTPMnemosyneClient(baseURL string, timeout time.Duration) *HTTPMnemosyneClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPMnemosyneClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type mnemosyneQuery struct {
	Topics []string  `json:"topics"`
	Since  time.Time `json:"since"`
}

// Query posts the topic set and date range to the memory service
func (c *HTTPMnemosyneClient) Query(ctx context.Context, topics []string, since time.Time) (*MemoryContext, error) {
	payload, err := json.Marshal(mnemosyneQuery{Topics: topics, Since: since})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/memory/query", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mnemosyne unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mnemosyne returned status %d", resp.StatusCode)
	}

	var result MemoryContext
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode mnemosyne response: %w", err)
	}
	return &result, nil
}

// StubMnemosyne is a deterministic in-process implementation used in tests
// and local development.
type StubMnemosyne struct {
	Context *MemoryContext
	Err     error
}

// Query returns the configured answer or error
func (s *StubMnemosyne) Query(ctx context.Context, topics []string, since time.Time) (*MemoryContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Context != nil {
		return s.Context, nil
	}
	return &MemoryContext{}, nil
}
