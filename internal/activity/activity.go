// Package activity implements the optional external activity-oracle client
// that feeds the ActiveWindow condition: a small HTTP client, in the style
// of fetchurl's Fetcher (context-scoped requests over a plain *http.Client,
// typed status errors, no retry logic left implicit), that queries a
// Tautulli-like media server for per-user watch progress and degrades
// gracefully when the server is unreachable, since a stale or missing
// activity view must never block a rebalancing run.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tiersync/tiersync/internal/stats"
)

// DefaultTimeout bounds every request this client makes; the oracle is a
// convenience input, never a blocking dependency.
const DefaultTimeout = 30 * time.Second

// HTTPStatusError is returned when the oracle responds with a non-200
// status.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("activity oracle: unexpected status %d", e.StatusCode)
}

// historyEntry mirrors the subset of a Tautulli-style get_history response
// this client consumes.
type historyEntry struct {
	User          string `json:"user"`
	GrandparentTitle string `json:"grandparent_title"`
	ParentMediaIndex string `json:"parent_media_index"`
	MediaIndex       string `json:"media_index"`
	FilePath         string `json:"file"`
}

type historyResponse struct {
	Response struct {
		Data struct {
			Data []historyEntry `json:"data"`
		} `json:"data"`
	} `json:"response"`
}

// Client queries an activity oracle over HTTP. BaseURL and APIKey identify
// the server; HTTPClient defaults to a fresh client with DefaultTimeout.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient constructs a Client with a timeout-bound default HTTP client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// Ping performs a lightweight reachability check, used by config validation
// (§6.1) to confirm an activity-oracle block is usable before a run depends
// on it.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, "status")
	if err != nil {
		return err
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return fmt.Errorf("activity oracle unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &HTTPStatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// FetchProgress retrieves recent watch history and converts it into
// stats.UserProgress records. A failure is returned to the caller rather
// than swallowed here; FetchProgressOrDegrade is the variant that degrades
// a failed fetch to "no activity data".
func (c *Client) FetchProgress(ctx context.Context) ([]stats.UserProgress, error) {
	req, err := c.newRequest(ctx, "get_history")
	if err != nil {
		return nil, err
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("activity oracle request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode}
	}

	var body historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("activity oracle: decoding response: %w", err)
	}

	out := make([]stats.UserProgress, 0, len(body.Response.Data.Data))
	for _, e := range body.Response.Data.Data {
		season, episode, ok := parseIndices(e.ParentMediaIndex, e.MediaIndex)
		if !ok {
			c.log("skipping history entry with unparseable indices", "user", e.User, "show", e.GrandparentTitle)
			continue
		}
		up := stats.UserProgress{
			User:    e.User,
			Show:    e.GrandparentTitle,
			Season:  season,
			Episode: episode,
		}
		if e.FilePath != "" {
			up.FilePaths = []string{e.FilePath}
		}
		out = append(out, up)
	}
	return out, nil
}

// FetchProgressOrDegrade wraps FetchProgress, logging and returning nil
// instead of an error on failure. Used by every rebalance pass (internal/cli's
// runPass, shared by the rebalance and daemon commands), where a single
// oracle hiccup should not abort the pass.
func (c *Client) FetchProgressOrDegrade(ctx context.Context) []stats.UserProgress {
	progress, err := c.FetchProgress(ctx)
	if err != nil {
		c.log("activity oracle fetch failed, continuing without activity data", "error", err)
		return nil
	}
	return progress
}

func (c *Client) newRequest(ctx context.Context, cmd string) (*http.Request, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("activity oracle: invalid base url: %w", err)
	}
	u.Path = joinPath(u.Path, "api", "v2")
	q := u.Query()
	q.Set("apikey", c.APIKey)
	q.Set("cmd", cmd)
	u.RawQuery = q.Encode()

	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}

func (c *Client) log(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Warn(msg, args...)
	}
}

func joinPath(base string, parts ...string) string {
	for _, p := range parts {
		if base == "" || base[len(base)-1] != '/' {
			base += "/"
		}
		base += p
	}
	return base
}

func parseIndices(parentMediaIndex, mediaIndex string) (season, episode int, ok bool) {
	s, err1 := parseIntField(parentMediaIndex)
	e, err2 := parseIntField(mediaIndex)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return s, e, true
}

func parseIntField(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
