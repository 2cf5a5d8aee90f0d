// Package provider implements the client for the external
// email-marketing provider's REST API: audiences, contacts, broadcasts,
// and single transactional sends.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voicehouse/outreach/internal/pkg/httpretry"
)

// Client is an email-provider API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
}

// Config holds provider connection settings.
type Config struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
	MaxRetries     int
}

// NewClient creates a provider API client with retrying transport.
func NewClient(cfg Config) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: timeout,
		}, cfg.MaxRetries),
	}
}

// doRequest executes one API call and decodes the JSON response into out.
// Non-2xx responses decode into an *APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = string(respBody)
		}
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// CreateAudience creates a provider-side audience and returns it.
func (c *Client) CreateAudience(ctx context.Context, name string) (*AudienceResponse, error) {
	var out AudienceResponse
	err := c.doRequest(ctx, http.MethodPost, "/audiences", AudienceRequest{Name: name}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateContact creates a contact inside the given provider audience.
func (c *Client) CreateContact(ctx context.Context, audienceID string, req ContactRequest) (*ContactResponse, error) {
	var out ContactResponse
	path := fmt.Sprintf("/audiences/%s/contacts", audienceID)
	if err := c.doRequest(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateContact updates an existing provider-side contact.
func (c *Client) UpdateContact(ctx context.Context, audienceID, contactID string, req ContactRequest) (*ContactResponse, error) {
	var out ContactResponse
	path := fmt.Sprintf("/audiences/%s/contacts/%s", audienceID, contactID)
	if err := c.doRequest(ctx, http.MethodPatch, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListContacts returns all contacts in a provider audience.
func (c *Client) ListContacts(ctx context.Context, audienceID string) (*ContactList, error) {
	var out ContactList
	path := fmt.Sprintf("/audiences/%s/contacts", audienceID)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateBroadcast registers a broadcast body for an audience.
func (c *Client) CreateBroadcast(ctx context.Context, req BroadcastRequest) (*BroadcastResponse, error) {
	var out BroadcastResponse
	if err := c.doRequest(ctx, http.MethodPost, "/broadcasts", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendBroadcast dispatches a created broadcast, optionally scheduled.
func (c *Client) SendBroadcast(ctx context.Context, broadcastID string, req SendBroadcastRequest) (*BroadcastResponse, error) {
	var out BroadcastResponse
	path := fmt.Sprintf("/broadcasts/%s/send", broadcastID)
	if err := c.doRequest(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendEmail sends a single transactional email.
func (c *Client) SendEmail(ctx context.Context, req EmailRequest) (*EmailResponse, error) {
	var out EmailResponse
	if err := c.doRequest(ctx, http.MethodPost, "/emails", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
