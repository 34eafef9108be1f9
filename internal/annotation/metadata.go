package annotation

import (
	"encoding/json"
	"fmt"

	"highlight-sync/internal/domain"
)

// MetadataKey is the customData key the highlight metadata lives under.
const MetadataKey = "highlight"

const nativeTypeHighlight = "highlight"

// Metadata is the mapping embedded into the rendering layer's native annotation object.
// EditedNote is omitted entirely until the user edits the note locally.
type Metadata struct {
	ID         string  `json:"id"`
	ShortID    string  `json:"shortId"`
	Quote      string  `json:"quote"`
	ArticleID  string  `json:"articleId"`
	EditedNote *string `json:"editedNote,omitempty"`
}

func MetadataFor(a *domain.Annotation) Metadata {
	m := Metadata{
		ID:        a.ID,
		ShortID:   a.ShortID,
		Quote:     a.Quote,
		ArticleID: a.ArticleID,
	}
	if a.Note != nil {
		note := *a.Note
		m.EditedNote = &note
	}
	return m
}

// EmbedMetadata writes m into native.customData without touching any other field.
func EmbedMetadata(native json.RawMessage, m Metadata) (json.RawMessage, error) {
	obj := map[string]json.RawMessage{}
	if len(native) > 0 {
		if err := json.Unmarshal(native, &obj); err != nil {
			return nil, fmt.Errorf("failed to decode native annotation: %w", err)
		}
	}

	custom := map[string]json.RawMessage{}
	if raw, ok := obj["customData"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &custom); err != nil {
			return nil, fmt.Errorf("failed to decode customData: %w", err)
		}
	}

	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	custom[MetadataKey] = encoded

	if obj["customData"], err = json.Marshal(custom); err != nil {
		return nil, err
	}

	return json.Marshal(obj)
}

// ExtractMetadata reads the embedded mapping back. ok is false when none is present.
func ExtractMetadata(native json.RawMessage) (m Metadata, ok bool, err error) {
	var obj struct {
		CustomData map[string]json.RawMessage `json:"customData"`
	}
	if err := json.Unmarshal(native, &obj); err != nil {
		return Metadata{}, false, fmt.Errorf("failed to decode native annotation: %w", err)
	}

	raw, ok := obj.CustomData[MetadataKey]
	if !ok || string(raw) == "null" {
		return Metadata{}, false, nil
	}

	if err := json.Unmarshal(raw, &m); err != nil {
		return Metadata{}, false, fmt.Errorf("failed to decode highlight metadata: %w", err)
	}
	return m, true, nil
}

type nativeHighlight struct {
	Type      string         `json:"type"`
	PageIndex int            `json:"pageIndex"`
	Rects     domain.RectSet `json:"rects"`
}

// EncodePatch serializes a as the native highlight object sent to the service.
func EncodePatch(a *domain.Annotation) (json.RawMessage, error) {
	native, err := json.Marshal(nativeHighlight{
		Type:      nativeTypeHighlight,
		PageIndex: a.PageIndex,
		Rects:     a.Rects,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch: %w", err)
	}
	return EmbedMetadata(native, MetadataFor(a))
}

// DecodePatch rebuilds an annotation from a patch produced by EncodePatch.
// The provenance is left empty for the caller to decide.
func DecodePatch(patch json.RawMessage) (*domain.Annotation, error) {
	var native nativeHighlight
	if err := json.Unmarshal(patch, &native); err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}

	m, ok, err := ExtractMetadata(patch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("patch has no %s metadata: %w", MetadataKey, domain.ErrInvalidInput)
	}

	return &domain.Annotation{
		ID:        m.ID,
		ShortID:   m.ShortID,
		ArticleID: m.ArticleID,
		Quote:     m.Quote,
		PageIndex: native.PageIndex,
		Rects:     native.Rects,
		Note:      m.EditedNote,
	}, nil
}
