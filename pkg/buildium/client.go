// Package buildium provides a client for the Buildium REST API, covering the
// bill payment endpoints the back office submits check payments through.
package buildium

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ClientConfig represents the configuration for the Buildium API client.
type ClientConfig struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration // Default: 30 seconds
	RequestsPerSecond float64       // Default: 5
}

// Client is a Buildium REST API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// APIError is an error returned by the Buildium API, carrying the HTTP status
// and the API's own message verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("buildium API error (status %d): %s", e.StatusCode, e.Message)
}

// NewClient creates a new Buildium API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// CreateBillPayment creates a payment against the given Buildium bill.
func (c *Client) CreateBillPayment(ctx context.Context, billID int64, payment BillPaymentRequest) (*BillPaymentResponse, error) {
	endpoint := fmt.Sprintf("%s/v1/bills/%d/payments", c.baseURL, billID)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(payment)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	var paymentResp BillPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&paymentResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &paymentResp, nil
}

// parseError parses an error response from the Buildium API.
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "failed to read error response"}
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	if errResp.UserMessage != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.UserMessage}
	}
	if errResp.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
}
