package syncer

import (
	"context"

	"github.com/gitvector/issuesync/internal/github"
)

// githubSource adapts the concrete GitHub client to the Source interface.
type githubSource struct {
	client *github.Client
}

// NewGitHubSource wraps a GitHub client as a Source.
func NewGitHubSource(client *github.Client) Source {
	return githubSource{client: client}
}

func (s githubSource) ListIssues(state string) Iterator {
	return s.client.ListIssues(state)
}

func (s githubSource) ListComments(ctx context.Context, number int) ([]github.Comment, error) {
	return s.client.ListComments(ctx, number)
}
