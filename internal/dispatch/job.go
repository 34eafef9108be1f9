package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"highlight-sync/internal/domain"
)

// Job is one queued remote call, persisted as JSON by the outbox.
type Job struct {
	ID          string            `json:"id"`
	Kind        domain.RecordKind `json:"kind"`
	ArticleID   string            `json:"article_id,omitempty"`
	HighlightID string            `json:"highlight_id,omitempty"`
	ShortID     string            `json:"short_id,omitempty"`
	Quote       string            `json:"quote,omitempty"`
	Patch       json.RawMessage   `json:"patch,omitempty"`
	OverlapIDs  []string          `json:"overlap_ids,omitempty"`
	IDs         []string          `json:"ids,omitempty"`
	Note        string            `json:"note,omitempty"`
	Percent     float64           `json:"percent,omitempty"`
	AnchorIndex int               `json:"anchor_index,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// SubjectIDs are the highlight ids the job's outcome should be reported against.
func (j *Job) SubjectIDs() []string {
	switch j.Kind {
	case domain.RecordDelete:
		return j.IDs
	case domain.RecordProgress:
		return nil
	default:
		return []string{j.HighlightID}
	}
}

func (j *Job) send(ctx context.Context, t Transport) error {
	switch j.Kind {
	case domain.RecordCreate:
		return t.CreateHighlight(ctx, &domain.CreateHighlightRequest{
			ID:        j.HighlightID,
			ShortID:   j.ShortID,
			ArticleID: j.ArticleID,
			Quote:     j.Quote,
			Patch:     j.Patch,
		})
	case domain.RecordMerge:
		return t.MergeHighlight(ctx, &domain.MergeHighlightRequest{
			ID:                     j.HighlightID,
			ShortID:                j.ShortID,
			ArticleID:              j.ArticleID,
			Quote:                  j.Quote,
			Patch:                  j.Patch,
			OverlapHighlightIDList: j.OverlapIDs,
		})
	case domain.RecordDelete:
		return t.DeleteHighlights(ctx, &domain.DeleteHighlightsRequest{HighlightIDs: j.IDs})
	case domain.RecordNote:
		return t.UpdateNote(ctx, j.HighlightID, &domain.UpdateNoteRequest{
			ArticleID:  j.ArticleID,
			Annotation: j.Note,
		})
	case domain.RecordProgress:
		return t.UpdateProgress(ctx, j.ArticleID, &domain.UpdateProgressRequest{
			ReadingProgressPercent:     j.Percent,
			ReadingProgressAnchorIndex: j.AnchorIndex,
		})
	default:
		return &PermanentError{Err: fmt.Errorf("unknown job kind %q", j.Kind)}
	}
}
