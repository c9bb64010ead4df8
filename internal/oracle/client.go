// Package oracle implements the HTTP client for the sports-data oracle
// collaborator. The engine issues fire-and-forget requests here; the
// oracle answers later through the inbound webhook endpoints.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

// Client is the REST client for the oracle collaborator.
type Client struct {
	baseURL    string
	apiKey     string
	callback   string
	httpClient *http.Client
}

// NewClient creates a new oracle client.
//
// baseURL is the oracle API root, e.g. "https://oracle.example.com".
// callback is the public base URL of this service's webhook endpoints.
func NewClient(baseURL, apiKey, callback string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		callback: callback,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// requestBody is the JSON envelope for an outbound oracle request.
type requestBody struct {
	RequestID   string `json:"request_id"`
	Type        string `json:"type"`
	FixtureID   string `json:"fixture_id"`
	CallbackURL string `json:"callback_url"`
}

// requestAck is the oracle's acknowledgement of an accepted request.
type requestAck struct {
	RequestID string `json:"request_id"`
	Accepted  bool   `json:"accepted"`
}

// RequestKickoffTime asks the oracle to deliver a fixture's kickoff time to
// the kickoff webhook.
func (c *Client) RequestKickoffTime(ctx context.Context, id domain.FixtureID) (string, error) {
	return c.submit(ctx, domain.OracleRequestKickoff, id)
}

// RequestResult asks the oracle to deliver a fixture's final result to the
// result webhook.
func (c *Client) RequestResult(ctx context.Context, id domain.FixtureID) (string, error) {
	return c.submit(ctx, domain.OracleRequestResult, id)
}

func (c *Client) submit(ctx context.Context, typ domain.OracleRequestType, id domain.FixtureID) (string, error) {
	body := requestBody{
		RequestID:   uuid.NewString(),
		Type:        string(typ),
		FixtureID:   string(id),
		CallbackURL: c.callback + "/api/oracle/" + string(typ),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("oracle: marshal %s request: %w", typ, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/requests", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("oracle: build %s request: %w", typ, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("oracle: %s request for fixture %s: %w", typ, id, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("oracle: read %s response: %w", typ, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("oracle: %s request for fixture %s: status %d: %s",
			typ, id, resp.StatusCode, raw)
	}

	var ack requestAck
	if err := json.Unmarshal(raw, &ack); err != nil {
		return "", fmt.Errorf("oracle: decode %s ack: %w", typ, err)
	}
	if !ack.Accepted {
		return "", fmt.Errorf("oracle: %s request for fixture %s rejected", typ, id)
	}
	if ack.RequestID == "" {
		ack.RequestID = body.RequestID
	}
	return ack.RequestID, nil
}

// Compile-time interface check.
var _ domain.OracleClient = (*Client)(nil)
