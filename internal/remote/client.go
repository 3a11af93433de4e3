package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	userAgent = "attsync/1.0"

	// maxBodyBytes bounds how much of a response body is read; server ids
	// are short and error bodies are only logged truncated.
	maxBodyBytes = 1 << 16

	// bodySnippet is the truncation applied to bodies kept in errors.
	bodySnippet = 300
)

// Config holds the delivery client settings.
type Config struct {
	// Endpoint is the remote attendance URL.
	Endpoint string

	// Secret, when non-empty, is attached to every payload as "pass".
	Secret string

	// MaxAttempts bounds the retry budget per record. Minimum 1.
	MaxAttempts int

	// Timeout applies per attempt, not per record.
	Timeout time.Duration
}

// Client submits attendance records to the remote service with bounded,
// idempotency-aware retries.
//
// Thread-safety: Client is stateless between calls and safe for concurrent
// use, though the pipeline drives it strictly sequentially.
type Client struct {
	endpoint    string
	secret      string
	maxAttempts int
	timeout     time.Duration

	httpClient *http.Client
	log        *slog.Logger

	// sleep is the backoff function; replaced in tests.
	sleep func(time.Duration)
}

// New creates a delivery client.
func New(cfg Config, log *slog.Logger) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		endpoint:    cfg.Endpoint,
		secret:      cfg.Secret,
		maxAttempts: cfg.MaxAttempts,
		timeout:     cfg.Timeout,
		httpClient:  &http.Client{},
		log:         log,
		sleep:       time.Sleep,
	}
}

// Deliver submits one record identified by its canonical (uid, timestamp)
// pair and returns the server-assigned identifier.
func (c *Client) Deliver(ctx context.Context, uid, timestamp string) (string, error) {
	p := Payload{UserID: uid, Time: timestamp}
	if c.secret != "" {
		p.Pass = c.secret
	}
	return c.Submit(ctx, p)
}

// Submit runs the retrying delivery exchange for one payload.
//
// Outcome rules:
//   - transport failure: retried with linear backoff (attempt seconds)
//     until the budget is exhausted, then NETWORK_ERROR
//   - success-range status: server id parsed from res_id, then id, then
//     the raw body text; no usable id is NO_SERVER_ID, not retried
//   - duplicate status (409): success, using the returned id or the
//     DUPLICATE sentinel - the remote already holds this record, so the
//     local store may converge to "sent"
//   - validation rejection (422): REJECTED, not retried
//   - any other status: retried like a transport failure, then
//     SERVER_ERROR with status and body
func (c *Client) Submit(ctx context.Context, p Payload) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	var last *DeliveryError
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("submit: %w", err)
		}

		serverID, derr, retryable := c.attempt(ctx, body)
		if derr == nil {
			return serverID, nil
		}
		if !retryable {
			return "", derr
		}

		last = derr
		if attempt < c.maxAttempts {
			c.log.Warn("delivery attempt failed",
				"attempt", attempt, "max_attempts", c.maxAttempts, "error", derr)
			c.sleep(time.Duration(attempt) * time.Second)
		}
	}

	return "", last
}

// attempt performs one request/response exchange with a bounded timeout.
func (c *Client) attempt(ctx context.Context, body []byte) (serverID string, derr *DeliveryError, retryable bool) {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &DeliveryError{Code: ErrCodeNetwork, Message: err.Error()}, false
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", &DeliveryError{Code: ErrCodeNetwork, Message: "network error: " + err.Error()}, true
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return "", &DeliveryError{Code: ErrCodeNetwork, Message: "read response: " + err.Error()}, true
	}
	text := strings.TrimSpace(string(raw))

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		if id := parseServerID(raw, text); id != "" {
			return id, nil, false
		}
		return "", &DeliveryError{
			Code:    ErrCodeNoServerID,
			Message: "no server id in response",
			Status:  res.StatusCode,
			Body:    truncate(text),
		}, false

	case res.StatusCode == http.StatusConflict:
		if id := parseServerID(raw, ""); id != "" {
			return id, nil, false
		}
		return DuplicateServerID, nil, false

	case res.StatusCode == http.StatusUnprocessableEntity:
		return "", &DeliveryError{
			Code:    ErrCodeRejected,
			Message: "validation rejected",
			Status:  res.StatusCode,
			Body:    truncate(text),
		}, false

	default:
		return "", &DeliveryError{
			Code:    ErrCodeServer,
			Message: "unexpected status",
			Status:  res.StatusCode,
			Body:    truncate(text),
		}, true
	}
}

// parseServerID extracts the server-assigned identifier from a response
// body, checking res_id then id, falling back to the given default.
func parseServerID(raw []byte, fallback string) string {
	var body struct {
		ResID any `json:"res_id"`
		ID    any `json:"id"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if s := idString(body.ResID); s != "" {
			return s
		}
		if s := idString(body.ID); s != "" {
			return s
		}
	}
	return fallback
}

// idString renders an identifier field that may arrive as string or number.
func idString(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	default:
		return ""
	}
}

func truncate(s string) string {
	if len(s) <= bodySnippet {
		return s
	}
	return s[:bodySnippet]
}
