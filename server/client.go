// Package server is the client for the remote signal server: it fetches the
// pending signal for a cycle and reports the execution outcome back.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tradewire/sigagent/executor"
)

// Client talks to the signal server over plain HTTP. Both calls block the
// single agent worker for at most the configured timeout.
type Client struct {
	BaseURL string
	Secret  string

	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL, secret string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Fetch retrieves the raw signal payload for this cycle. A transport failure
// or a non-200 status is an error; the caller treats either exactly like an
// empty cycle and retries on the next tick.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	u := c.BaseURL + "/signal"
	if c.Secret != "" {
		u += "?secret=" + url.QueryEscape(c.Secret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch signal: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch signal: http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", fmt.Errorf("read signal body: %w", err)
	}
	return string(body), nil
}

// Report delivers the outcome of an executed signal, best effort. There is no
// retry queue: the venue action has already happened whether or not this
// confirmation arrives, so a failed delivery is logged and dropped. The error
// return exists only so the journal can mark the outcome unconfirmed.
func (c *Client) Report(ctx context.Context, oc executor.Outcome) error {
	result := "success"
	if !oc.Success {
		result = "error"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/signal/done", strings.NewReader(confirmBody(c.Secret, result, oc.Message)))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("confirmation delivery failed", zap.Error(err))
		return fmt.Errorf("post confirmation: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("confirmation rejected", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("post confirmation: http %d", resp.StatusCode)
	}
	return nil
}

// confirmBody assembles the flat confirmation object by hand. Double quotes
// inside the free-text message are substituted with single quotes to keep the
// object well formed without a full JSON string escaper. Known limitation:
// backslashes and control characters are not escaped.
func confirmBody(secret, result, message string) string {
	message = strings.ReplaceAll(message, `"`, `'`)
	return fmt.Sprintf(`{"secret":"%s","result":"%s","message":"%s"}`, secret, result, message)
}
