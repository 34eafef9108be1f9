package annotation

import (
	"encoding/json"
	"strings"
	"testing"

	"highlight-sync/internal/domain"
)

func TestEncodePatch_OmitsEditedNoteWithoutLocalEdit(t *testing.T) {
	a := &domain.Annotation{ID: "h1", ShortID: "abc12345", ArticleID: "article1", Quote: "hello", Rects: domain.RectSet{rect(0, 0, 1, 1)}}

	patch, err := EncodePatch(a)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if strings.Contains(string(patch), "editedNote") {
		t.Errorf("expected no editedNote key, got %s", patch)
	}

	m, ok, err := ExtractMetadata(patch)
	if err != nil || !ok {
		t.Fatalf("expected metadata, got ok=%v err=%v", ok, err)
	}
	if m.EditedNote != nil {
		t.Errorf("expected absent edited note, got %q", *m.EditedNote)
	}
	if m.ID != "h1" || m.ShortID != "abc12345" || m.Quote != "hello" || m.ArticleID != "article1" {
		t.Errorf("unexpected metadata: %+v", m)
	}
}

func TestDecodePatch_RoundTrip(t *testing.T) {
	empty := ""
	for _, note := range []*string{nil, &empty} {
		a := &domain.Annotation{
			ID: "h1", ShortID: "abc12345", ArticleID: "article1", Quote: "q", PageIndex: 2,
			Rects: domain.RectSet{rect(0, 0, 10, 10), rect(0, 12, 4, 20)},
			Note:  note,
		}
		patch, err := EncodePatch(a)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := DecodePatch(patch)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.ID != a.ID || got.ShortID != a.ShortID || got.Quote != a.Quote || got.PageIndex != a.PageIndex {
			t.Errorf("round trip mismatch: %+v", got)
		}
		if len(got.Rects) != 2 || got.Rects[1] != a.Rects[1] {
			t.Errorf("expected rects to survive, got %v", got.Rects)
		}
		if (note == nil) != (got.Note == nil) {
			t.Errorf("expected edited note presence %v, got %v", note != nil, got.Note != nil)
		}
	}
}

func TestEmbedMetadata_PreservesNativeFields(t *testing.T) {
	native := json.RawMessage(`{"bbox":[1,2,3,4],"color":"#ffff00","customData":{"other":{"x":1}}}`)
	note := "edited"

	out, err := EmbedMetadata(native, Metadata{ID: "h1", ShortID: "abc12345", Quote: "q", ArticleID: "a1", EditedNote: &note})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(out, &obj); err != nil {
		t.Fatalf("expected valid json, got %v", err)
	}
	if string(obj["color"]) != `"#ffff00"` || string(obj["bbox"]) != `[1,2,3,4]` {
		t.Errorf("expected native fields untouched, got %s", out)
	}

	var custom map[string]json.RawMessage
	json.Unmarshal(obj["customData"], &custom)
	if string(custom["other"]) != `{"x":1}` {
		t.Errorf("expected foreign custom data untouched, got %s", custom["other"])
	}

	m, ok, err := ExtractMetadata(out)
	if err != nil || !ok {
		t.Fatalf("expected metadata, got ok=%v err=%v", ok, err)
	}
	if m.EditedNote == nil || *m.EditedNote != "edited" {
		t.Errorf("expected edited note, got %v", m.EditedNote)
	}
}

func TestMetadata_BitExactKeys(t *testing.T) {
	data, err := json.Marshal(Metadata{ID: "i", ShortID: "s", Quote: "q", ArticleID: "a"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := `{"id":"i","shortId":"s","quote":"q","articleId":"a"}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestDecodePatch_MissingMetadata(t *testing.T) {
	_, err := DecodePatch(json.RawMessage(`{"type":"highlight","rects":[[0,0,1,1]]}`))
	if err == nil {
		t.Error("expected error for patch without metadata")
	}
}
