package upstream

import (
	"bytes"
	"context"
	"dispatcher/internal/config"
	"dispatcher/internal/domain"
	"dispatcher/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

var _ ports.Gateway = (*Client)(nil)

// Client talks to the task store, delivery, presence, restriction and
// tracking endpoints. It is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(cfg config.Upstream) *Client {
	log.Info().Msgf("upstream gateway at %s (timeout %s)", cfg.BaseURL, cfg.Timeout)
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// do performs one request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return &domain.RemoteError{Kind: domain.RemoteTransport, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.RemoteError{Kind: domain.RemoteTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		reason := strings.TrimSpace(string(msg))
		if reason == "" {
			reason = resp.Status
		}
		return &domain.RemoteError{Kind: domain.RemoteStatus, Op: op, Status: resp.StatusCode, Err: errors.New(reason)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.RemoteError{Kind: domain.RemoteMalformed, Op: op, Status: resp.StatusCode, Err: err}
	}
	return nil
}

func malformed(op string, err error) error {
	return &domain.RemoteError{Kind: domain.RemoteMalformed, Op: op, Err: err}
}
