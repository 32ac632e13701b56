package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://api.github.com"
	defaultPerPage   = 100
	defaultRetries   = 3
	defaultBackoff   = 500 * time.Millisecond
	defaultUserAgent = "issuesync"
)

// Client talks to the GitHub REST API. All reads are paced through a local
// rate limiter, and server-side rate-limit responses are waited out rather
// than surfaced as errors.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	limiter    *rate.Limiter

	baseURL   string
	token     string
	owner     string
	name      string
	userAgent string

	perPage     int
	maxRetries  int
	backoffBase time.Duration

	// sleep and now are stubbed in tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (GitHub Enterprise, tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithPerPage sets the page size requested from the API (1-100).
func WithPerPage(n int) Option {
	return func(c *Client) { c.perPage = n }
}

// NewClient returns a ready-to-use GitHub API client for the given
// owner/name repository slug.
func NewClient(logger *slog.Logger, token, repo string, opts ...Option) (*Client, error) {
	repo = strings.TrimSpace(repo)
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return nil, fmt.Errorf("invalid repository slug %q, expected owner/repo", repo)
	}

	c := &Client{
		logger:      logger,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(10), 5),
		baseURL:     defaultBaseURL,
		token:       token,
		owner:       parts[0],
		name:        parts[1],
		userAgent:   defaultUserAgent,
		perPage:     defaultPerPage,
		maxRetries:  defaultRetries,
		backoffBase: defaultBackoff,
		now:         time.Now,
	}
	c.sleep = func(ctx context.Context, d time.Duration) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
			return nil
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListIssues returns a forward-only iterator over all issues matching the
// state filter, in the order the API returns them. Pagination is handled
// internally; pull requests are skipped.
func (c *Client) ListIssues(state string) *IssueIterator {
	return &IssueIterator{client: c, state: state, page: 1}
}

// ListComments fetches every comment of an issue in ascending creation-time
// order. When a page fails after the retry budget is exhausted, the comments
// collected so far are returned alongside the error so callers can fall back
// to a partial record.
func (c *Client) ListComments(ctx context.Context, number int) ([]Comment, error) {
	var all []Comment
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("per_page", strconv.Itoa(c.perPage))
		query.Set("page", strconv.Itoa(page))

		var comments []Comment
		path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", url.PathEscape(c.owner), url.PathEscape(c.name), number)
		if err := c.get(ctx, path, query, &comments); err != nil {
			return all, fmt.Errorf("fetch comments for issue #%d (page %d): %w", number, page, err)
		}
		all = append(all, comments...)
		if len(comments) < c.perPage {
			return all, nil
		}
	}
}

// fetchIssuesPage retrieves one page of the issues listing.
func (c *Client) fetchIssuesPage(ctx context.Context, state string, page int) ([]Issue, error) {
	query := url.Values{}
	query.Set("state", state)
	query.Set("per_page", strconv.Itoa(c.perPage))
	query.Set("page", strconv.Itoa(page))
	query.Set("sort", "created")
	query.Set("direction", "desc")

	var issues []Issue
	path := fmt.Sprintf("/repos/%s/%s/issues", url.PathEscape(c.owner), url.PathEscape(c.name))
	if err := c.get(ctx, path, query, &issues); err != nil {
		return nil, fmt.Errorf("fetch issues page %d: %w", page, err)
	}
	return issues, nil
}

// get executes a GET request with rate limiting, rate-limit waits and
// bounded retries, decoding the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var lastErr error
	attempt := 0
	rlWaits := 0
	for {
		body, status, header, err := c.doOnce(ctx, fullURL)
		switch {
		case err != nil:
			lastErr = err
		case status >= 200 && status < 300:
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decode %s: %w", fullURL, err)
			}
			return nil
		case rateLimited(status, header):
			// Backpressure, not an error: wait for the reported reset
			// and retry the same page without consuming the retry budget.
			wait := c.rateLimitWait(header, rlWaits)
			rlWaits++
			c.logger.Warn("rate limited, waiting for reset", "url", fullURL, "wait", wait)
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		case status >= 500:
			lastErr = &StatusError{StatusCode: status, URL: fullURL, Message: apiMessage(body)}
		default:
			return &StatusError{StatusCode: status, URL: fullURL, Message: apiMessage(body)}
		}

		if attempt >= c.maxRetries {
			return fmt.Errorf("max retries exceeded: %w", lastErr)
		}
		backoff := time.Duration(1<<uint(attempt)) * c.backoffBase
		attempt++
		c.logger.Debug("transient fetch failure, retrying", "url", fullURL, "attempt", attempt, "backoff", backoff, "error", lastErr)
		if err := c.sleep(ctx, backoff); err != nil {
			return err
		}
	}
}

// doOnce executes a single request attempt.
func (c *Client) doOnce(ctx context.Context, fullURL string) ([]byte, int, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, resp.Header, nil
}

// rateLimited reports whether the response signals rate-limit exhaustion.
func rateLimited(status int, header http.Header) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status == http.StatusForbidden && header.Get("X-RateLimit-Remaining") == "0"
}

// rateLimitWait derives how long to pause from the response headers, falling
// back to exponential backoff when the API reports no reset time.
func (c *Client) rateLimitWait(header http.Header, waits int) time.Duration {
	if v := header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if v := header.Get("X-RateLimit-Reset"); v != "" {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
			// One extra second absorbs clock skew against the API.
			if wait := time.Unix(unix, 0).Sub(c.now()) + time.Second; wait > 0 {
				return wait
			}
			return time.Second
		}
	}
	if waits > 6 {
		waits = 6
	}
	return time.Duration(1<<uint(waits)) * time.Second
}

// apiMessage extracts the "message" field GitHub includes in error bodies.
func apiMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}
