package domain

import "encoding/json"

type RecordKind string

const (
	RecordCreate   RecordKind = "create"
	RecordMerge    RecordKind = "merge"
	RecordDelete   RecordKind = "delete"
	RecordNote     RecordKind = "note"
	RecordProgress RecordKind = "progress"
)

// Record is the outbound unit handed to the dispatcher.
//
// Create carries Annotation and Quote. Merge additionally carries OverlapIDs,
// which is never empty. Delete carries only IDs.
type Record struct {
	Kind       RecordKind      `json:"kind"`
	ArticleID  string          `json:"articleId"`
	Annotation *Annotation     `json:"annotation,omitempty"`
	Quote      string          `json:"quote,omitempty"`
	Patch      json.RawMessage `json:"patch,omitempty"`
	OverlapIDs []string        `json:"overlapIds,omitempty"`
	IDs        []string        `json:"ids,omitempty"`
}

// ProgressUpdate is emitted when the reading position advances.
type ProgressUpdate struct {
	ArticleID   string  `json:"articleId"`
	Percent     float64 `json:"percent"`
	AnchorIndex int     `json:"anchorIndex"`
}
