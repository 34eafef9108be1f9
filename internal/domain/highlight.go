package domain

import (
	"encoding/json"
	"time"
)

// Highlight is the authoritative, shareable record held by the highlight service.
type Highlight struct {
	ID         string          `json:"id"`
	ShortID    string          `json:"short_id"`
	ArticleID  string          `json:"article_id"`
	Quote      string          `json:"quote"`
	Patch      json.RawMessage `json:"patch,omitempty"`
	Rects      RectSet         `json:"rects,omitempty"`
	Annotation string          `json:"annotation"`
	CreatedBy  string          `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	IsDeleted  bool            `json:"is_deleted"`
	MergedInto string          `json:"merged_into,omitempty"`
}

type CreateHighlightRequest struct {
	ID         string          `json:"id" validate:"required"`
	ShortID    string          `json:"short_id" validate:"required,alphanum"`
	ArticleID  string          `json:"article_id" validate:"required"`
	Quote      string          `json:"quote"`
	Patch      json.RawMessage `json:"patch"`
	Annotation *string         `json:"annotation,omitempty"`
}

type MergeHighlightRequest struct {
	ID                     string          `json:"id" validate:"required"`
	ShortID                string          `json:"short_id" validate:"required,alphanum"`
	ArticleID              string          `json:"article_id" validate:"required"`
	Quote                  string          `json:"quote"`
	Patch                  json.RawMessage `json:"patch"`
	OverlapHighlightIDList []string        `json:"overlap_highlight_id_list" validate:"required,min=1,dive,required"`
	Annotation             *string         `json:"annotation,omitempty"`
}

type DeleteHighlightsRequest struct {
	HighlightIDs []string `json:"highlight_ids" validate:"required,min=1,dive,required"`
}

type UpdateNoteRequest struct {
	ArticleID  string `json:"article_id"`
	Annotation string `json:"annotation"`
}

type HighlightResponse struct {
	ID         string          `json:"id"`
	ShortID    string          `json:"short_id"`
	ArticleID  string          `json:"article_id"`
	Quote      string          `json:"quote"`
	Patch      json.RawMessage `json:"patch,omitempty"`
	Rects      RectSet         `json:"rects,omitempty"`
	Annotation string          `json:"annotation"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (h *Highlight) ToResponse() *HighlightResponse {
	return &HighlightResponse{
		ID:         h.ID,
		ShortID:    h.ShortID,
		ArticleID:  h.ArticleID,
		Quote:      h.Quote,
		Patch:      h.Patch,
		Rects:      h.Rects,
		Annotation: h.Annotation,
		UpdatedAt:  h.UpdatedAt,
	}
}

type DeleteHighlightsResponse struct {
	Deleted []string `json:"deleted"`
}
