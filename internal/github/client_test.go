package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	client, err := NewClient(discardLogger(), "test-token", "octo/widgets", append([]Option{WithBaseURL(baseURL)}, opts...)...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.backoffBase = time.Millisecond
	return client
}

func issuePage(start, count int) []map[string]any {
	page := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		page = append(page, map[string]any{
			"id":         start + i,
			"number":     start + i,
			"title":      fmt.Sprintf("issue %d", start+i),
			"state":      "open",
			"created_at": "2024-01-01T00:00:00Z",
			"updated_at": "2024-01-02T00:00:00Z",
		})
	}
	return page
}

func TestListIssuesPaginationComplete(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if got := r.URL.Query().Get("per_page"); got != "100" {
			t.Fatalf("per_page: want=100 got=%s", got)
		}
		switch page {
		case 1, 2:
			_ = json.NewEncoder(w).Encode(issuePage((page-1)*100+1, 100))
		case 3:
			_ = json.NewEncoder(w).Encode(issuePage(201, 50))
		default:
			t.Fatalf("unexpected page request: %d", page)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	it := client.ListIssues("all")

	var numbers []int
	for it.Next(context.Background()) {
		numbers = append(numbers, it.Issue().Number)
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterator error: %v", err)
	}
	if len(numbers) != 250 {
		t.Fatalf("issues: want=250 got=%d", len(numbers))
	}
	for i, n := range numbers {
		if n != i+1 {
			t.Fatalf("order broken at index %d: got number %d", i, n)
		}
	}
	if requests != 3 {
		t.Fatalf("page requests: want=3 got=%d", requests)
	}
}

func TestListIssuesSkipsPullRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		page := issuePage(1, 3)
		page[1]["pull_request"] = map[string]any{"url": "https://api.github.com/repos/octo/widgets/pulls/2"}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	it := client.ListIssues("all")

	var numbers []int
	for it.Next(context.Background()) {
		numbers = append(numbers, it.Issue().Number)
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterator error: %v", err)
	}
	if len(numbers) != 2 || numbers[0] != 1 || numbers[1] != 3 {
		t.Fatalf("expected issues [1 3], got %v", numbers)
	}
}

func TestRateLimitWaitsUntilReset(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	reset := now.Add(30 * time.Second)

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests == 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(issuePage(1, 1))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	client.now = func() time.Time { return now }
	var slept []time.Duration
	client.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	issues, err := client.fetchIssuesPage(context.Background(), "all", 1)
	if err != nil {
		t.Fatalf("fetchIssuesPage: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("issues: want=1 got=%d", len(issues))
	}
	if requests != 2 {
		t.Fatalf("requests: want=2 got=%d", requests)
	}
	if len(slept) != 1 {
		t.Fatalf("sleeps: want=1 got=%d", len(slept))
	}
	// Reset is 30s away plus the one-second skew allowance.
	if slept[0] != 31*time.Second {
		t.Fatalf("wait: want=31s got=%s", slept[0])
	}
}

func TestRateLimitBackoffWithoutResetHeader(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests <= 2 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(issuePage(1, 1))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	var slept []time.Duration
	client.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	if _, err := client.fetchIssuesPage(context.Background(), "all", 1); err != nil {
		t.Fatalf("fetchIssuesPage: %v", err)
	}
	if len(slept) != 2 {
		t.Fatalf("sleeps: want=2 got=%d", len(slept))
	}
	if slept[0] != 1*time.Second || slept[1] != 2*time.Second {
		t.Fatalf("backoff progression: got %v", slept)
	}
}

func TestTransientErrorsRetriedThenSucceed(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(issuePage(1, 2))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	client.sleep = func(context.Context, time.Duration) error { return nil }

	issues, err := client.fetchIssuesPage(context.Background(), "all", 1)
	if err != nil {
		t.Fatalf("fetchIssuesPage: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("issues: want=2 got=%d", len(issues))
	}
	if requests != 3 {
		t.Fatalf("requests: want=3 got=%d", requests)
	}
}

func TestRetryBudgetExhausted(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	client.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := client.fetchIssuesPage(context.Background(), "all", 1)
	if err == nil {
		t.Fatal("expected error after retry budget exhausted")
	}
	// Initial attempt plus maxRetries.
	if requests != 4 {
		t.Fatalf("requests: want=4 got=%d", requests)
	}
}

func TestAuthFailureIsFatalWithoutRetry(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.fetchIssuesPage(context.Background(), "all", 1)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if !statusErr.Fatal() {
		t.Fatalf("expected fatal error, got %v", statusErr)
	}
	if statusErr.Message != "Bad credentials" {
		t.Fatalf("message: got %q", statusErr.Message)
	}
	if requests != 1 {
		t.Fatalf("requests: want=1 got=%d", requests)
	}
}

func TestListCommentsReturnsPartialOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 1 {
			comments := make([]map[string]any, 100)
			for i := range comments {
				comments[i] = map[string]any{
					"id":         i + 1,
					"body":       fmt.Sprintf("comment %d", i+1),
					"created_at": "2024-01-01T00:00:00Z",
				}
			}
			_ = json.NewEncoder(w).Encode(comments)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	client.sleep = func(context.Context, time.Duration) error { return nil }

	comments, err := client.ListComments(context.Background(), 7)
	if err == nil {
		t.Fatal("expected error from failing second page")
	}
	if len(comments) != 100 {
		t.Fatalf("partial comments: want=100 got=%d", len(comments))
	}
}

func TestNewClientRejectsBadSlug(t *testing.T) {
	for _, slug := range []string{"", "justname", "owner/", "/name"} {
		if _, err := NewClient(discardLogger(), "tok", slug); err == nil {
			t.Fatalf("expected error for slug %q", slug)
		}
	}
}
