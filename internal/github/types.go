// Package github provides the issue-tracker source client: a minimal wrapper
// around GitHub's REST API v3 that hides pagination and rate limiting from
// its callers.
package github

import (
	"encoding/json"
	"fmt"
	"time"
)

// Issue is a raw issue record as returned by the tracker. It is immutable
// once fetched.
type Issue struct {
	// ID is the GitHub issue database ID.
	ID int64 `json:"id"`
	// Number is the issue number within the repository.
	Number int `json:"number"`
	// Title is the issue title.
	Title string `json:"title"`
	// Body is the raw markdown body; GitHub returns null for empty bodies.
	Body *string `json:"body"`
	// State is "open" or "closed".
	State string `json:"state"`
	// HTMLURL is the canonical URL of the issue.
	HTMLURL string `json:"html_url"`
	// User is the issue author.
	User *User `json:"user"`
	// Labels are the labels attached to the issue, in API order.
	Labels []Label `json:"labels"`
	// Comments is the number of comments on the issue.
	Comments int `json:"comments"`
	// CreatedAt is when the issue was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the issue was last updated.
	UpdatedAt time.Time `json:"updated_at"`
	// ClosedAt is when the issue was closed, if it was.
	ClosedAt *time.Time `json:"closed_at"`
	// PullRequest is present when the record is actually a pull request;
	// the issues endpoint returns both.
	PullRequest json.RawMessage `json:"pull_request,omitempty"`
}

// IsPullRequest reports whether the record is a pull request rather than an
// issue.
func (i Issue) IsPullRequest() bool {
	return len(i.PullRequest) > 0
}

// BodyText returns the issue body, mapping a null body to the empty string.
func (i Issue) BodyText() string {
	if i.Body == nil {
		return ""
	}
	return *i.Body
}

// Author returns the author login, or the empty string for ghost users.
func (i Issue) Author() string {
	if i.User == nil {
		return ""
	}
	return i.User.Login
}

// Comment is a raw issue comment record.
type Comment struct {
	// ID is the GitHub comment database ID.
	ID int64 `json:"id"`
	// Body is the raw markdown body of the comment.
	Body string `json:"body"`
	// User is the comment author.
	User *User `json:"user"`
	// CreatedAt is when the comment was created.
	CreatedAt time.Time `json:"created_at"`
}

// User is a GitHub account reference.
type User struct {
	// Login is the account login name.
	Login string `json:"login"`
}

// Label is a label attached to an issue.
type Label struct {
	// Name is the label name.
	Name string `json:"name"`
}

// StatusError is returned when the tracker rejects a request with a
// non-retryable HTTP status.
type StatusError struct {
	// StatusCode is the HTTP status of the failing response.
	StatusCode int
	// URL is the request URL that failed.
	URL string
	// Message is the error message extracted from the API response body.
	Message string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "github: request failed"
	}
	if e.Message != "" {
		return fmt.Sprintf("github: %s returned %d: %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github: %s returned %d", e.URL, e.StatusCode)
}

// Fatal reports whether the error indicates a condition that retrying cannot
// fix: bad credentials, insufficient permissions or a missing repository.
func (e *StatusError) Fatal() bool {
	if e == nil {
		return false
	}
	switch e.StatusCode {
	case 401, 403, 404, 410:
		return true
	}
	return false
}
