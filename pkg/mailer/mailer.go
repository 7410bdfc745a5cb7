package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/omarsegovia/pipelinecrm-backend/pkg/config"
)

// Sender is the notification collaborator contract. Lifecycle operations treat
// delivery as fire-and-forget: a failed send is logged, never rolled back into
// the operation result.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Client posts messages to an HTTP mail API.
type Client struct {
	baseURL string
	apiKey  string
	from    string
	http    *http.Client
}

// New builds a mail client from configuration. A client without a base URL is
// still usable; Send becomes a no-op so dev environments run without a mail key.
func New(cfg config.MailerConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.APIBaseURL,
		apiKey:  cfg.APIKey,
		from:    cfg.DefaultFrom,
		http:    &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send delivers a single message. Returns an error on non-2xx responses.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	if c.baseURL == "" {
		return nil
	}
	if to == "" {
		return fmt.Errorf("recipient is required")
	}

	payload, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail api returned status %d", resp.StatusCode)
	}
	return nil
}
