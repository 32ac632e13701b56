package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/gitvector/issuesync/internal/record"
)

// BatchResult aggregates the outcome of all flushes in a run.
type BatchResult struct {
	// Stored is the number of objects the store accepted.
	Stored int
	// Failed lists objects the store rejected, one entry per object.
	Failed []FailedObject
}

// FailedObject identifies a single rejected record. Per-item failures never
// abort the run; they are reported in the final summary.
type FailedObject struct {
	// IssueID is the stable issue key of the rejected record.
	IssueID string
	// Message is the store's error message for the object.
	Message string
}

func (f FailedObject) String() string {
	return fmt.Sprintf("%s: %s", f.IssueID, f.Message)
}

// objectBatcher abstracts the store's batch endpoint so tests can fake it.
type objectBatcher interface {
	BatchObjects(ctx context.Context, objects []*models.Object) ([]models.ObjectsGetResponse, error)
}

// weaviateBatcher submits batches through the Weaviate client.
type weaviateBatcher struct {
	client *weaviate.Client
}

func (b weaviateBatcher) BatchObjects(ctx context.Context, objects []*models.Object) ([]models.ObjectsGetResponse, error) {
	return b.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
}

// Upserter buffers mapped records and submits them in bounded batches.
// Object identity is the record's deterministic UUID, so resubmitting the
// same issue overwrites instead of duplicating. Not safe for concurrent use.
type Upserter struct {
	batcher objectBatcher
	logger  *slog.Logger
	class   string
	size    int

	buf    []record.Record
	keys   map[string]int
	result BatchResult
}

// NewUpserter returns an Upserter writing to the given class with the given
// batch size.
func NewUpserter(client *weaviate.Client, logger *slog.Logger, class string, size int) *Upserter {
	return newUpserter(weaviateBatcher{client: client}, logger, class, size)
}

func newUpserter(batcher objectBatcher, logger *slog.Logger, class string, size int) *Upserter {
	return &Upserter{
		batcher: batcher,
		logger:  logger,
		class:   class,
		size:    size,
		keys:    make(map[string]int),
	}
}

// Submit buffers a record, flushing automatically when the buffer reaches
// the batch size. A record with an already-buffered issue key replaces the
// earlier one; the later record reflects the fresher fetch.
func (u *Upserter) Submit(ctx context.Context, rec record.Record) error {
	if i, ok := u.keys[rec.IssueID]; ok {
		u.buf[i] = rec
		return nil
	}
	u.keys[rec.IssueID] = len(u.buf)
	u.buf = append(u.buf, rec)

	if len(u.buf) >= u.size {
		return u.flushBuffer(ctx)
	}
	return nil
}

// Flush submits any remaining partial buffer and returns the cumulative
// result for the run. It must be called once at the end of every run so no
// record is dropped for not filling a batch.
func (u *Upserter) Flush(ctx context.Context) (BatchResult, error) {
	if err := u.flushBuffer(ctx); err != nil {
		return u.result, err
	}
	return u.result, nil
}

// flushBuffer submits the buffered records as one batch call and records
// per-object outcomes. A failed batch round-trip is fatal; a rejected object
// inside an otherwise accepted batch is not.
func (u *Upserter) flushBuffer(ctx context.Context) error {
	if len(u.buf) == 0 {
		return nil
	}

	objects := make([]*models.Object, 0, len(u.buf))
	byID := make(map[strfmt.UUID]string, len(u.buf))
	for _, rec := range u.buf {
		id := strfmt.UUID(rec.ObjectID())
		byID[id] = rec.IssueID
		objects = append(objects, &models.Object{
			Class:      u.class,
			ID:         id,
			Properties: rec.Properties(),
		})
	}

	u.logger.Debug("submitting batch", "class", u.class, "objects", len(objects))
	responses, err := u.batcher.BatchObjects(ctx, objects)
	if err != nil {
		return fmt.Errorf("submit batch of %d objects: %w", len(objects), err)
	}

	for _, resp := range responses {
		issueID := byID[resp.ID]
		if msg, failed := objectError(resp); failed {
			u.logger.Warn("object rejected by store", "issue", issueID, "error", msg)
			u.result.Failed = append(u.result.Failed, FailedObject{IssueID: issueID, Message: msg})
			continue
		}
		u.result.Stored++
	}

	u.buf = u.buf[:0]
	u.keys = make(map[string]int)
	return nil
}

// objectError extracts the per-object failure message from a batch response
// entry, if the store rejected it.
func objectError(resp models.ObjectsGetResponse) (string, bool) {
	if resp.Result == nil {
		return "", false
	}
	if resp.Result.Errors != nil && len(resp.Result.Errors.Error) > 0 {
		for _, item := range resp.Result.Errors.Error {
			if item != nil && item.Message != "" {
				return item.Message, true
			}
		}
		return "object rejected", true
	}
	if resp.Result.Status != nil && *resp.Result.Status == models.ObjectsGetResponseAO2ResultStatusFAILED {
		return "object rejected", true
	}
	return "", false
}
