// Package api is the HTTP client for the backend inspection service. Payload
// shapes are deliberately loose (raw records), because the service has gone
// through several field-naming conventions; mapping into typed models happens
// in the models package.
package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/fireguard/internal/fetch"
	"github.com/dmitrijs2005/fireguard/internal/models"
)

type Client struct {
	base  string
	fetch *fetch.Client
}

func NewClient(base string, f *fetch.Client) *Client {
	return &Client{base: strings.TrimRight(base, "/"), fetch: f}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Assets fetches the primary per-technician list. The raw records are
// returned as-is for the caller to map.
func (c *Client) Assets(ctx context.Context, badge string) ([]map[string]any, error) {
	q := url.Values{"badge": {badge}}

	var payload any
	if err := c.fetch.GetJSON(ctx, c.endpoint("/assets", q), &payload); err != nil {
		return nil, err
	}
	return models.ExtractList(payload), nil
}

// Profile fetches the technician profile. Callers treat failures as
// best-effort.
func (c *Client) Profile(ctx context.Context, badge string) (map[string]any, error) {
	q := url.Values{"badge": {badge}}

	var payload map[string]any
	if err := c.fetch.GetJSON(ctx, c.endpoint("/profile", q), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// OfflineManifest fetches one page of the rescue-strategy token manifest.
// Records may come back as plain token strings (fields=minimal) or as objects
// carrying a token field; both are accepted.
func (c *Client) OfflineManifest(ctx context.Context, badge string, daysAhead, page, pageSize int) ([]string, error) {
	q := url.Values{
		"badge":     {badge},
		"daysAhead": {strconv.Itoa(daysAhead)},
		"fields":    {"minimal"},
		"page":      {strconv.Itoa(page)},
		"pageSize":  {strconv.Itoa(pageSize)},
	}

	var payload any
	if err := c.fetch.GetJSON(ctx, c.endpoint("/assets/offline/manifest", q), &payload); err != nil {
		return nil, err
	}
	return extractTokens(payload), nil
}

// OfflineDetails fetches full detail records for a batch of tokens.
func (c *Client) OfflineDetails(ctx context.Context, tokens []string) ([]map[string]any, error) {
	var payload any
	body := map[string]any{"tokens": tokens}
	if err := c.fetch.PostJSON(ctx, c.endpoint("/assets/offline/details", nil), body, &payload); err != nil {
		return nil, err
	}
	return models.ExtractList(payload), nil
}

// Detail fetch variants, tried by callers in a defined fallback order.

func (c *Client) DetailByToken(ctx context.Context, token, badge string) (map[string]any, error) {
	q := url.Values{"token": {token}}
	if badge != "" {
		q.Set("badge", badge)
	}
	return c.getRecord(ctx, c.endpoint("/assets/detail/by-token", q))
}

func (c *Client) DetailByTokenSafe(ctx context.Context, token string) (map[string]any, error) {
	q := url.Values{"token": {token}}
	return c.getRecord(ctx, c.endpoint("/assets/detail/by-token-safe", q))
}

func (c *Client) DetailWithChecklist(ctx context.Context, id, badge string) (map[string]any, error) {
	q := url.Values{"id": {id}, "badge": {badge}}
	return c.getRecord(ctx, c.endpoint("/assets/detail/with-checklist", q))
}

func (c *Client) DetailByID(ctx context.Context, id string) (map[string]any, error) {
	q := url.Values{"id": {id}}
	return c.getRecord(ctx, c.endpoint("/assets/detail", q))
}

func (c *Client) getRecord(ctx context.Context, url string) (map[string]any, error) {
	var payload map[string]any
	if err := c.fetch.GetJSON(ctx, url, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// StatusLiteBatch fetches due-date information for up to a chunk of ids,
// keyed by asset id. Best-effort at the call sites.
func (c *Client) StatusLiteBatch(ctx context.Context, ids []string) (map[string]map[string]any, error) {
	q := url.Values{"ids": {strings.Join(ids, ",")}}

	var payload any
	if err := c.fetch.GetJSON(ctx, c.endpoint("/assets/detail/status-lite-batch", q), &payload); err != nil {
		return nil, err
	}

	out := make(map[string]map[string]any)
	for _, raw := range models.ExtractList(payload) {
		if s, ok := models.SummaryFromRaw(raw); ok {
			out[s.ID] = raw
		}
	}
	return out, nil
}

// TokensByBadge fetches the id→token map for a technician.
func (c *Client) TokensByBadge(ctx context.Context, badge string) (map[string]string, error) {
	var payload any
	if err := c.fetch.GetJSON(ctx, c.endpoint("/assets/tokens-by-badge/"+url.PathEscape(badge), nil), &payload); err != nil {
		return nil, err
	}

	out := make(map[string]string)
	if records := models.ExtractList(payload); len(records) > 0 {
		for _, raw := range records {
			id := models.IDFromRaw(raw)
			tok := models.TokenFromRaw(raw)
			if id != "" && tok != "" {
				out[id] = tok
			}
		}
		return out, nil
	}
	if m, ok := payload.(map[string]any); ok {
		// flat id → token map
		for id, tok := range m {
			if s, ok := tok.(string); ok && s != "" {
				out[id] = s
			}
		}
	}
	return out, nil
}

// Replay re-issues a queued write request verbatim. Relative targets are
// resolved against the client base URL. Any 2xx response counts as success.
func (c *Client) Replay(ctx context.Context, req models.QueuedWriteRequest) error {
	target := req.Target
	if strings.HasPrefix(target, "/") {
		target = c.base + target
	}

	var body *bytes.Reader
	if len(req.BodyParts) > 0 {
		body = bytes.NewReader(req.BodyParts)
	} else {
		body = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build replay request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if httpReq.Header.Get("Content-Type") == "" && len(req.BodyParts) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.fetch.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("replay rejected: %s", resp.Status)
	}
	return nil
}

func extractTokens(payload any) []string {
	var tokens []string

	appendToken := func(item any) {
		switch v := item.(type) {
		case string:
			if v != "" {
				tokens = append(tokens, v)
			}
		case map[string]any:
			if tok := models.TokenFromRaw(v); tok != "" {
				tokens = append(tokens, tok)
			}
		}
	}

	switch v := payload.(type) {
	case []any:
		for _, item := range v {
			appendToken(item)
		}
	case map[string]any:
		for _, name := range []string{"tokens", "items", "data", "results"} {
			arr, ok := v[name].([]any)
			if !ok {
				continue
			}
			for _, item := range arr {
				appendToken(item)
			}
			break
		}
	}
	return tokens
}
