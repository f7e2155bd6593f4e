package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nkiryanov/authservice/internal/logger"
)

const sendTimeout = 5 * time.Second

// Message shape the email API expects
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Client for the outbound email HTTP API
// The API authenticates with a token appended to the URL
type Client struct {
	url string

	client *http.Client
	logger logger.Logger
}

func NewClient(apiURL string, apiToken string, l logger.Logger) *Client {
	return &Client{
		url:    apiURL + apiToken,
		client: &http.Client{},
		logger: l,
	}
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiError, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Warn("Email API refused message", "status_code", resp.StatusCode, "response", string(apiError))
		return fmt.Errorf("email api status %d", resp.StatusCode)
	}

	c.logger.Debug("Email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}
