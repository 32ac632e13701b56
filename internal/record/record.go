// Package record converts raw tracker records into the flat field set stored
// in the target collection. Mapping is pure and total: any missing optional
// field maps to a defined default instead of an error.
package record

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is the persisted unit: one issue flattened into the collection's
// property set, including the synthesized composite fields that exist only
// as inputs to the named vector projections.
type Record struct {
	// IssueID is the stable issue key ("owner/repo#number") used for
	// idempotent upserts.
	IssueID string
	// Number is the issue number within the repository.
	Number int
	// Title is the issue title.
	Title string
	// Body is the issue body; never empty-vs-null ambiguous, always a string.
	Body string
	// State is "open" or "closed".
	State string
	// URL is the canonical issue URL.
	URL string
	// Repository is the owner/name slug the issue belongs to.
	Repository string
	// Author is the login of the issue author, or "" for ghost users.
	Author string
	// Labels holds the label names in the order the tracker returned them.
	Labels []string
	// CommentCount is the tracker-reported number of comments.
	CommentCount int
	// CreatedAt is the issue creation time.
	CreatedAt time.Time
	// UpdatedAt is the last update time.
	UpdatedAt time.Time
	// ClosedAt is the close time, nil while the issue is open.
	ClosedAt *time.Time
	// CommentsText is the chronological concatenation of comment bodies,
	// "" when comments were excluded or absent.
	CommentsText string
	// TitleBody is title + body, a vectorization source only.
	TitleBody string
	// AllContent is title + body + comments, a vectorization source only.
	AllContent string
}

// ObjectID derives the deterministic store object ID for the record. The
// same issue always hashes to the same UUID, which is what makes re-runs
// overwrite instead of duplicate.
func (r Record) ObjectID() string {
	key := fmt.Sprintf("https://github.com/%s/issues/%d", r.Repository, r.Number)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// Properties returns the object property map submitted to the store. Dates
// are RFC3339 strings; closed_at is omitted while the issue is open.
func (r Record) Properties() map[string]any {
	props := map[string]any{
		"issue_id":      r.IssueID,
		"number":        r.Number,
		"title":         r.Title,
		"body":          r.Body,
		"state":         r.State,
		"url":           r.URL,
		"repository":    r.Repository,
		"author":        r.Author,
		"labels":        r.Labels,
		"comment_count": r.CommentCount,
		"created_at":    r.CreatedAt.Format(time.RFC3339),
		"updated_at":    r.UpdatedAt.Format(time.RFC3339),
		"comments_text": r.CommentsText,
		"title_body":    r.TitleBody,
		"all_content":   r.AllContent,
	}
	if r.ClosedAt != nil {
		props["closed_at"] = r.ClosedAt.Format(time.RFC3339)
	}
	return props
}
