// Package syncer contains the high-level orchestration for one sync run:
// schema pre-flight, the per-issue fetch→map→submit pipeline, and the final
// flush and summary.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gitvector/issuesync/internal/config"
	"github.com/gitvector/issuesync/internal/github"
	"github.com/gitvector/issuesync/internal/record"
	"github.com/gitvector/issuesync/internal/store"
)

// Iterator is the forward-only issue sequence produced by the source.
type Iterator interface {
	Next(ctx context.Context) bool
	Issue() github.Issue
	Err() error
}

// Source abstracts the issue tracker client.
type Source interface {
	ListIssues(state string) Iterator
	ListComments(ctx context.Context, number int) ([]github.Comment, error)
}

// Schema abstracts the store's schema pre-flight.
type Schema interface {
	EnsureSchema(ctx context.Context) error
}

// Upserter abstracts the buffered batch writer.
type Upserter interface {
	Submit(ctx context.Context, rec record.Record) error
	Flush(ctx context.Context) (store.BatchResult, error)
}

// Summary reports the outcome of a run.
type Summary struct {
	// Repository is the owner/name slug that was synced.
	Repository string
	// Fetched is the number of issues pulled from the source.
	Fetched int
	// Stored is the number of objects the store accepted.
	Stored int
	// Failed lists per-object store rejections.
	Failed []store.FailedObject
}

// Syncer drives one end-to-end run. A Syncer is single-use: construct, Run
// once, inspect the summary. Runs against the same collection must be
// serialized by the caller's scheduler.
type Syncer struct {
	cfg      config.Config
	logger   *slog.Logger
	source   Source
	schema   Schema
	upserter Upserter
	state    State
}

// New constructs a Syncer from its collaborators.
func New(cfg config.Config, logger *slog.Logger, source Source, schema Schema, upserter Upserter) *Syncer {
	return &Syncer{
		cfg:      cfg,
		logger:   logger,
		source:   source,
		schema:   schema,
		upserter: upserter,
		state:    StateInit,
	}
}

// State returns the current lifecycle state.
func (s *Syncer) State() State {
	return s.state
}

// Run executes the full pipeline and returns the run summary. The returned
// error is non-nil only for fatal failures; per-object store rejections are
// reported through the summary instead.
func (s *Syncer) Run(ctx context.Context) (Summary, error) {
	summary := Summary{Repository: s.cfg.Repository()}

	// INIT: validate before any network call.
	if err := s.cfg.Validate(); err != nil {
		return summary, s.fail(err)
	}
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.RunTimeout))
		defer cancel()
	}

	// Schema pre-flight: no point fetching data that cannot be stored.
	if err := s.schema.EnsureSchema(ctx); err != nil {
		return summary, s.fail(fmt.Errorf("ensure schema: %w", err))
	}
	s.state = StateSchemaReady
	s.logger.Info("schema ready", "class", s.cfg.ClassName)

	it := s.source.ListIssues(s.cfg.State)
	for {
		s.state = StateFetching
		if !it.Next(ctx) {
			break
		}
		issue := it.Issue()
		summary.Fetched++

		comments, err := s.fetchComments(ctx, issue)
		if err != nil {
			return summary, s.fail(err)
		}

		s.state = StateStoring
		rec := record.Map(summary.Repository, issue, comments)
		if err := s.upserter.Submit(ctx, rec); err != nil {
			return summary, s.fail(err)
		}
	}
	if err := it.Err(); err != nil {
		return summary, s.fail(fmt.Errorf("fetch issues: %w", err))
	}

	result, err := s.upserter.Flush(ctx)
	summary.Stored = result.Stored
	summary.Failed = result.Failed
	if err != nil {
		return summary, s.fail(err)
	}

	s.state = StateDone
	s.logger.Info("run complete",
		"repository", summary.Repository,
		"fetched", summary.Fetched,
		"stored", summary.Stored,
		"failed", len(summary.Failed))
	return summary, nil
}

// fetchComments pulls an issue's comments when enabled. A comment fetch
// that fails non-fatally degrades to the partial set collected so far with
// a logged warning, the least data-lossy option.
func (s *Syncer) fetchComments(ctx context.Context, issue github.Issue) ([]github.Comment, error) {
	if !s.cfg.IncludeComments || issue.Comments == 0 {
		return nil, nil
	}
	comments, err := s.source.ListComments(ctx, issue.Number)
	if err == nil {
		return comments, nil
	}

	var statusErr *github.StatusError
	if errors.As(err, &statusErr) && statusErr.Fatal() {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, err
	}
	s.logger.Warn("storing issue with partial comments",
		"issue", issue.Number,
		"fetched_comments", len(comments),
		"error", err)
	return comments, nil
}

// fail records the fatal error, moves the run to FAILED and returns the
// error for propagation.
func (s *Syncer) fail(err error) error {
	s.state = StateFailed
	s.logger.Error("run failed", "state", s.state, "error", err)
	return err
}
