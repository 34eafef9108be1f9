package domain

import (
	"encoding/json"
	"fmt"
)

// Rect is an axis-aligned box reported by the rendering layer.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

type RectSet []Rect

// Normalize swaps inverted edges so that Left <= Right and Top <= Bottom.
func (r Rect) Normalize() Rect {
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Top > r.Bottom {
		r.Top, r.Bottom = r.Bottom, r.Top
	}
	return r
}

// MarshalJSON encodes the rect as [left, top, right, bottom].
func (r Rect) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{r.Left, r.Top, r.Right, r.Bottom})
}

func (r *Rect) UnmarshalJSON(data []byte) error {
	var edges []float64
	if err := json.Unmarshal(data, &edges); err != nil {
		return fmt.Errorf("rect must be an array of four numbers: %w", err)
	}
	if len(edges) != 4 {
		return fmt.Errorf("rect must have 4 edges, got %d", len(edges))
	}
	r.Left, r.Top, r.Right, r.Bottom = edges[0], edges[1], edges[2], edges[3]
	return nil
}

type Provenance string

const (
	ProvenanceLocalOnly     Provenance = "local_only"
	ProvenanceSynced        Provenance = "synced"
	ProvenancePendingCreate Provenance = "pending_create"
	ProvenancePendingMerge  Provenance = "pending_merge"
	ProvenancePendingDelete Provenance = "pending_delete"
)

// IsPending reports whether a record for the annotation is still in flight.
func (p Provenance) IsPending() bool {
	switch p {
	case ProvenancePendingCreate, ProvenancePendingMerge, ProvenancePendingDelete:
		return true
	}
	return false
}

// Annotation is a highlight or note anchored to a region of the open document.
// ID, ShortID, Quote and Rects never change after creation.
type Annotation struct {
	ID         string     `json:"id"`
	ShortID    string     `json:"shortId"`
	ArticleID  string     `json:"articleId"`
	Quote      string     `json:"quote"`
	PageIndex  int        `json:"pageIndex"`
	Rects      RectSet    `json:"rects"`
	Note       *string    `json:"note,omitempty"`
	Provenance Provenance `json:"provenance"`
}

// HasLocalNote reports whether the user edited the note on this device.
func (a *Annotation) HasLocalNote() bool {
	return a.Note != nil
}

func (a *Annotation) Clone() *Annotation {
	c := *a
	c.Rects = append(RectSet(nil), a.Rects...)
	if a.Note != nil {
		note := *a.Note
		c.Note = &note
	}
	return &c
}
