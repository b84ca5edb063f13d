package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// Pinger probes backend reachability for the connectivity monitor. It
// deliberately bypasses the offline guard: the monitor is its caller, and a
// guarded probe could never observe recovery.
type Pinger struct {
	base string
	http *http.Client
}

func NewPinger(base string, hc *http.Client) *Pinger {
	if hc == nil {
		hc = &http.Client{Timeout: 3 * time.Second}
	}
	return &Pinger{base: strings.TrimRight(base, "/"), http: hc}
}

// Ping issues a lightweight request. Any HTTP response, regardless of status,
// means the backend is reachable; only a transport error counts as offline.
func (p *Pinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}
