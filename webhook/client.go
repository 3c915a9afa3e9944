// Package webhook performs the outbound call to an automation's endpoint.
// One attempt per invocation: no retries, no circuit breaker. Recording the
// outcome is the caller's job.
package webhook

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"automatisierung-backend/models"
)

// CallError is returned for a non-2xx response so callers can distinguish
// an unhappy endpoint from a transport failure.
type CallError struct {
	StatusCode int
	Body       string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.StatusCode)
}

type Client struct {
	HTTP *http.Client
}

func New() *Client {
	return &Client{HTTP: &http.Client{Timeout: 30 * time.Second}}
}

// AuthHeaders builds the auth header for the automation's scheme.
// Basic auth with an incomplete credential pair yields no header at all;
// the call proceeds unauthenticated rather than failing.
func AuthHeaders(automation models.Automation) map[string]string {
	headers := map[string]string{}
	switch automation.AuthType {
	case models.AuthTypeBasic:
		if automation.AuthUsername != "" && automation.AuthPassword != "" {
			raw := automation.AuthUsername + ":" + automation.AuthPassword
			headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
		}
	case models.AuthTypeJWT:
		headers["Authorization"] = "Bearer " + automation.AuthToken
	case models.AuthTypeHeader:
		headers["X-Auth-Token"] = automation.AuthToken
	}
	return headers
}

// Invoke POSTs the payload ({} when empty) to the automation's webhook URL
// and returns the response body verbatim. Any transport error or non-2xx
// status is a hard failure.
func (c *Client) Invoke(ctx context.Context, automation models.Automation, payload json.RawMessage) (json.RawMessage, error) {
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, automation.WebhookUrl, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range AuthHeaders(automation) {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &CallError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
