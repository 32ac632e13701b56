package record

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gitvector/issuesync/internal/github"
)

// separator joins the segments of the composite vectorization fields.
const separator = "\n\n"

// Map flattens a raw issue and its comments into a Record. comments may be
// nil when comment fetching is disabled. The function never fails.
func Map(repository string, issue github.Issue, comments []github.Comment) Record {
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.Name)
	}

	title := issue.Title
	body := issue.BodyText()
	commentsText := joinComments(comments)

	titleBody := title
	if body != "" {
		titleBody = title + separator + body
	}
	allContent := titleBody
	if commentsText != "" {
		allContent = titleBody + separator + commentsText
	}

	return Record{
		IssueID:      fmt.Sprintf("%s#%d", repository, issue.Number),
		Number:       issue.Number,
		Title:        title,
		Body:         body,
		State:        issue.State,
		URL:          issue.HTMLURL,
		Repository:   repository,
		Author:       issue.Author(),
		Labels:       labels,
		CommentCount: issue.Comments,
		CreatedAt:    issue.CreatedAt,
		UpdatedAt:    issue.UpdatedAt,
		ClosedAt:     issue.ClosedAt,
		CommentsText: commentsText,
		TitleBody:    titleBody,
		AllContent:   allContent,
	}
}

// joinComments concatenates comment bodies in ascending creation-time order.
func joinComments(comments []github.Comment) string {
	if len(comments) == 0 {
		return ""
	}
	sorted := make([]github.Comment, len(comments))
	copy(sorted, comments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	bodies := make([]string, 0, len(sorted))
	for _, c := range sorted {
		if c.Body == "" {
			continue
		}
		bodies = append(bodies, c.Body)
	}
	return strings.Join(bodies, separator)
}
