// Package cloudflare implements the provider interface for the Cloudflare
// DNS API. The provider updates the content of an existing A or AAAA record
// through the v4 REST API; it never creates records.
package cloudflare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/dnsanchor/pkg/provider"
)

const (
	// DefaultAPIEndpoint is the base URL for Cloudflare API v4.
	DefaultAPIEndpoint = "https://api.cloudflare.com/client/v4"

	// DefaultTimeout is the HTTP client timeout.
	DefaultTimeout = 30 * time.Second
)

// apiError represents an error from the Cloudflare API.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// apiResponse is the standard Cloudflare API response wrapper.
type apiResponse struct {
	Success bool            `json:"success"`
	Errors  []apiError      `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

// zoneResult represents a zone from the Cloudflare API.
type zoneResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// dnsRecord represents a DNS record from the Cloudflare API.
type dnsRecord struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
	Proxied bool   `json:"proxied"`
	ZoneID  string `json:"zone_id"`
}

// updateRecordRequest is the request body for rewriting a DNS record.
type updateRecordRequest struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
	Proxied bool   `json:"proxied"`
}

// Client is a Cloudflare DNS API client.
type Client struct {
	apiEndpoint string
	token       string
	httpClient  *http.Client
	logger      *slog.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithClientLogger sets a custom logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAPIEndpoint sets a custom API endpoint (useful for testing).
func WithAPIEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.apiEndpoint = strings.TrimSuffix(endpoint, "/")
	}
}

// NewClient creates a new Cloudflare API client.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		apiEndpoint: DefaultAPIEndpoint,
		token:       token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// doRequest performs an HTTP request to the Cloudflare API.
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (*apiResponse, error) {
	reqURL := fmt.Sprintf("%s%s", c.apiEndpoint, path)

	c.logger.Debug("making API request",
		slog.String("method", method),
		slog.String("path", path),
	)

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", provider.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, respBody)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parsing response JSON: %w", err)
	}

	if !apiResp.Success {
		if len(apiResp.Errors) > 0 {
			return nil, fmt.Errorf("API error: %s (code: %d)", apiResp.Errors[0].Message, apiResp.Errors[0].Code)
		}
		return nil, fmt.Errorf("API request failed with unknown error")
	}

	return &apiResp, nil
}

// classifyStatus maps a non-2xx API response onto the provider error
// taxonomy. Auth rejections are permanent, server-side failures and rate
// limiting are transient.
func classifyStatus(status int, body []byte) error {
	detail := apiErrorDetail(body)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d%s", provider.ErrUnauthorized, status, detail)

	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: status %d%s", provider.ErrUnavailable, status, detail)

	default:
		return fmt.Errorf("unexpected status code %d%s", status, detail)
	}
}

// apiErrorDetail extracts the first API error from a response body for
// inclusion in error messages.
func apiErrorDetail(body []byte) string {
	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err == nil && len(apiResp.Errors) > 0 {
		return fmt.Sprintf(": %s (code: %d)", apiResp.Errors[0].Message, apiResp.Errors[0].Code)
	}
	return ""
}

// VerifyToken checks that the API token is valid.
// Uses the /user/tokens/verify endpoint which is lightweight.
func (c *Client) VerifyToken(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/user/tokens/verify", nil)
	if err != nil {
		return fmt.Errorf("token verification failed: %w", err)
	}
	return nil
}

// GetZoneID returns the zone ID for the given zone name.
func (c *Client) GetZoneID(ctx context.Context, zone string) (string, error) {
	params := url.Values{}
	params.Set("name", zone)
	params.Set("status", "active")

	resp, err := c.doRequest(ctx, http.MethodGet, "/zones?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("looking up zone %s: %w", zone, err)
	}

	var zones []zoneResult
	if err := json.Unmarshal(resp.Result, &zones); err != nil {
		return "", fmt.Errorf("parsing zones response: %w", err)
	}

	if len(zones) == 0 {
		// A missing zone is an operator mistake, not a fault that clears
		// on retry.
		return "", fmt.Errorf("%w: no active zone named %s", provider.ErrZoneInvalid, zone)
	}

	c.logger.Debug("found zone",
		slog.String("zone", zone),
		slog.String("zone_id", zones[0].ID),
	)

	return zones[0].ID, nil
}

// FindRecord finds a DNS record by name and type in the given zone.
// Returns nil with no error when the record does not exist.
func (c *Client) FindRecord(ctx context.Context, zoneID, recordType, name string) (*dnsRecord, error) {
	params := url.Values{}
	params.Set("type", recordType)
	params.Set("name", name)

	path := fmt.Sprintf("/zones/%s/dns_records?%s", zoneID, params.Encode())
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("finding record: %w", err)
	}

	var records []dnsRecord
	if err := json.Unmarshal(resp.Result, &records); err != nil {
		return nil, fmt.Errorf("parsing records response: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	return &records[0], nil
}

// UpdateRecord rewrites the content of an existing DNS record, preserving
// its name, type, TTL and proxied flag.
func (c *Client) UpdateRecord(ctx context.Context, record *dnsRecord, content string) error {
	reqBody := updateRecordRequest{
		Type:    record.Type,
		Name:    record.Name,
		Content: content,
		TTL:     record.TTL,
		Proxied: record.Proxied,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	path := fmt.Sprintf("/zones/%s/dns_records/%s", record.ZoneID, record.ID)
	_, err = c.doRequest(ctx, http.MethodPut, path, strings.NewReader(string(bodyBytes)))
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}

	c.logger.Info("updated DNS record",
		slog.String("zone_id", record.ZoneID),
		slog.String("type", record.Type),
		slog.String("name", record.Name),
		slog.String("content", content),
	)

	return nil
}
