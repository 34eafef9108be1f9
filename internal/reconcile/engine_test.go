package reconcile

import (
	"errors"
	"fmt"
	"testing"

	"highlight-sync/internal/annotation"
	"highlight-sync/internal/domain"
)

func rect(l, t, r, b float64) domain.Rect {
	return domain.Rect{Left: l, Top: t, Right: r, Bottom: b}
}

func sessionWithHighlight(t *testing.T) *annotation.Store {
	t.Helper()
	store, err := annotation.NewStoreFromDocument(&domain.Document{
		ID: "article1",
		Highlights: []*domain.HighlightResponse{
			{ID: "H", ShortID: "abc12345", Quote: "existing", Rects: domain.RectSet{rect(0, 0, 10, 10)}},
		},
	}, annotation.RemoveOnConfirm)
	if err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return store
}

func TestReconcile_OverlapYieldsMerge(t *testing.T) {
	store := sessionWithHighlight(t)
	n := &domain.Annotation{ID: "N", ShortID: "nnn00000", Quote: "hello", Rects: domain.RectSet{rect(5, 5, 15, 15)}}
	store.Add(n)

	rec, err := NewEngine().Reconcile(store, n)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if rec.Kind != domain.RecordMerge {
		t.Fatalf("expected merge, got %s", rec.Kind)
	}
	if rec.Annotation.ID != "N" || rec.Annotation.ShortID != "nnn00000" {
		t.Errorf("expected merge to carry the new annotation identity, got %s/%s", rec.Annotation.ID, rec.Annotation.ShortID)
	}
	if len(rec.OverlapIDs) != 1 || rec.OverlapIDs[0] != "H" {
		t.Errorf("expected overlap ids [H], got %v", rec.OverlapIDs)
	}
	if rec.Quote != "hello" {
		t.Errorf("expected quote hello, got %q", rec.Quote)
	}
	if rec.ArticleID != "article1" {
		t.Errorf("expected article1, got %s", rec.ArticleID)
	}

	m, ok, err := annotation.ExtractMetadata(rec.Patch)
	if err != nil || !ok || m.ID != "N" {
		t.Errorf("expected patch metadata for N, got %+v ok=%v err=%v", m, ok, err)
	}
}

func TestReconcile_NoOverlapYieldsCreate(t *testing.T) {
	store := sessionWithHighlight(t)
	m := &domain.Annotation{ID: "M", ShortID: "mmm00000", Quote: "quote text", Rects: domain.RectSet{rect(100, 100, 110, 110)}}
	store.Add(m)

	rec, err := NewEngine().Reconcile(store, m)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Kind != domain.RecordCreate {
		t.Fatalf("expected create, got %s", rec.Kind)
	}
	if rec.Annotation.ID != "M" || rec.Quote != "quote text" {
		t.Errorf("unexpected create record: %+v", rec)
	}
	if len(rec.OverlapIDs) != 0 {
		t.Errorf("expected no overlap ids, got %v", rec.OverlapIDs)
	}
}

func TestReconcile_EmptySessionCreates(t *testing.T) {
	store := annotation.NewStore("article1", annotation.RemoveOnConfirm)
	a := &domain.Annotation{ID: "A", Rects: domain.RectSet{rect(0, 0, 1, 1)}}

	rec, err := NewEngine().Reconcile(store, a)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Kind != domain.RecordCreate {
		t.Errorf("expected create, got %s", rec.Kind)
	}
}

func TestReconcile_DisjointSessionNeverMerges(t *testing.T) {
	for n := 0; n < 20; n++ {
		store := annotation.NewStore("article1", annotation.RemoveOnConfirm)
		for i := 0; i < n; i++ {
			x := float64(i * 20)
			store.Add(&domain.Annotation{ID: fmt.Sprintf("e%d", i), Rects: domain.RectSet{rect(x, 0, x+10, 10)}})
		}

		// Sits in the gap between every pair of existing rects, touching none.
		candidate := &domain.Annotation{ID: "new", Rects: domain.RectSet{rect(10, 0, 20, 10), rect(0, 10, 400, 20)}}
		store.Add(candidate)

		rec, err := NewEngine().Reconcile(store, candidate)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.Kind != domain.RecordCreate {
			t.Fatalf("expected create with %d disjoint annotations, got %s %v", n, rec.Kind, rec.OverlapIDs)
		}
	}
}

func TestReconcile_OverlapOrderAndPendingDelete(t *testing.T) {
	store := annotation.NewStore("article1", annotation.RemoveOnConfirm)
	store.Add(&domain.Annotation{ID: "b", Rects: domain.RectSet{rect(0, 0, 10, 10)}, Provenance: domain.ProvenanceSynced})
	store.Add(&domain.Annotation{ID: "far", Rects: domain.RectSet{rect(500, 500, 510, 510)}, Provenance: domain.ProvenanceSynced})
	store.Add(&domain.Annotation{ID: "a", Rects: domain.RectSet{rect(8, 8, 12, 12)}, Provenance: domain.ProvenanceSynced})
	store.Remove("a")

	n := &domain.Annotation{ID: "n", Rects: domain.RectSet{rect(5, 5, 9, 9)}}
	rec, err := NewEngine().Reconcile(store, n)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Kind != domain.RecordMerge {
		t.Fatalf("expected merge, got %s", rec.Kind)
	}
	if len(rec.OverlapIDs) != 2 || rec.OverlapIDs[0] != "b" || rec.OverlapIDs[1] != "a" {
		t.Errorf("expected [b a], got %v", rec.OverlapIDs)
	}
}

func TestReconcile_ExcludesItself(t *testing.T) {
	store := annotation.NewStore("article1", annotation.RemoveOnConfirm)
	a := &domain.Annotation{ID: "self", Rects: domain.RectSet{rect(0, 0, 10, 10)}}
	store.Add(a)

	rec, err := NewEngine().Reconcile(store, a)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Kind != domain.RecordCreate {
		t.Errorf("expected create, got %s", rec.Kind)
	}
}

func TestReconcile_MissingSession(t *testing.T) {
	a := &domain.Annotation{ID: "x"}

	if _, err := NewEngine().Reconcile(nil, a); !errors.Is(err, domain.ErrMissingSessionContext) {
		t.Errorf("expected ErrMissingSessionContext, got %v", err)
	}

	store := annotation.NewStore("", annotation.RemoveOnConfirm)
	if _, err := NewEngine().Reconcile(store, a); !errors.Is(err, domain.ErrMissingSessionContext) {
		t.Errorf("expected ErrMissingSessionContext, got %v", err)
	}
}

func TestPendingProvenance(t *testing.T) {
	if PendingProvenance(domain.RecordCreate) != domain.ProvenancePendingCreate {
		t.Error("expected pending create")
	}
	if PendingProvenance(domain.RecordMerge) != domain.ProvenancePendingMerge {
		t.Error("expected pending merge")
	}
	if PendingProvenance(domain.RecordDelete) != domain.ProvenancePendingDelete {
		t.Error("expected pending delete")
	}
}
