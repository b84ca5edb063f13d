// Package fetch wraps HTTP calls with a connectivity guard: when the monitor
// reports no connection the call is never issued and a distinguished offline
// error is returned instead, so callers branch with errors.Is rather than
// sniffing transport failures.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/fireguard/internal/common"
	"github.com/dmitrijs2005/fireguard/internal/connectivity"
)

// ErrOffline is the errors.Is target for every OfflineError.
var ErrOffline = errors.New("offline")

// Offline reasons.
const (
	ReasonNetwork = "network"
	ReasonServer  = "server-5xx"
)

// OfflineError signals that fresh data could not be obtained: either the
// monitor reported no connection (ReasonNetwork) or the backend answered with
// a 5xx (ReasonServer). Callers fall back to cached data in both cases; the
// reason is surfaced so the presentation layer can message accordingly.
type OfflineError struct {
	Reason string
}

func (e *OfflineError) Error() string { return "offline: " + e.Reason }

func (e *OfflineError) Unwrap() error { return ErrOffline }

// Client issues guarded HTTP calls.
type Client struct {
	http    *http.Client
	monitor connectivity.Monitor
	timeout time.Duration
}

// NewClient builds a guarded client. hc may be nil, in which case a default
// http.Client is used. timeout bounds each JSON helper call; Do is bounded
// only by the request's own context.
func NewClient(hc *http.Client, monitor connectivity.Monitor, timeout time.Duration) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{http: hc, monitor: monitor, timeout: timeout}
}

// Do performs the request unless the monitor reports no connection. The raw
// response is returned unmodified, including non-2xx statuses, so callers can
// distinguish "offline" from "server returned an error". No retries.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if !c.monitor.Online() {
		return nil, &OfflineError{Reason: ReasonNetwork}
	}
	return c.http.Do(req)
}

// GetJSON fetches url and decodes the 2xx body into out. A 5xx is reported
// as an OfflineError with ReasonServer; a JSON decode failure is reported as
// common.ErrMalformedResponse.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	return c.doJSON(ctx, http.MethodGet, url, nil, out)
}

// PostJSON sends body as JSON to url and decodes the 2xx response into out.
// out may be nil when the response body is irrelevant.
func (c *Client) PostJSON(ctx context.Context, url string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, url, b, out)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body []byte, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		io.Copy(io.Discard, resp.Body)
		return &OfflineError{Reason: ReasonServer}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}
	return nil
}
