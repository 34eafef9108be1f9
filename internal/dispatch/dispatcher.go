// Package dispatch carries reconciliation records to the highlight service.
//
// Submissions are appended to an Outbox and return immediately; a single
// worker drains the outbox in order, so records for the same highlight reach
// the service in the order they were generated.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"

	"highlight-sync/internal/domain"
)

// Dispatcher is the boundary the reader core hands its records to.
// No method waits for the network.
type Dispatcher interface {
	SubmitCreate(id, shortID, articleID, quote string, patch json.RawMessage) error
	SubmitMerge(id, shortID, articleID, quote string, overlapIDs []string, patch json.RawMessage) error
	SubmitDelete(ids []string) error
	SubmitNote(id, articleID, note string) error
	SubmitProgress(articleID string, percent float64, anchorIndex int) error
}

// Transport performs the remote calls for queued jobs.
type Transport interface {
	CreateHighlight(ctx context.Context, req *domain.CreateHighlightRequest) error
	MergeHighlight(ctx context.Context, req *domain.MergeHighlightRequest) error
	DeleteHighlights(ctx context.Context, req *domain.DeleteHighlightsRequest) error
	UpdateNote(ctx context.Context, id string, req *domain.UpdateNoteRequest) error
	UpdateProgress(ctx context.Context, articleID string, req *domain.UpdateProgressRequest) error
}

// PermanentError marks a failure that retrying cannot fix, such as a rejected request.
type PermanentError struct {
	StatusCode int
	Err        error
}

func (e *PermanentError) Error() string {
	return "permanent failure: " + e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// Result reports the outcome of one job. Err is nil on success.
type Result struct {
	JobID     string
	Kind      domain.RecordKind
	ArticleID string
	IDs       []string
	Err       error
}
