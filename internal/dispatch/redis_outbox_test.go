package dispatch

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"highlight-sync/internal/domain"

	"github.com/alicebob/miniredis/v2"
)

func setupRedisOutbox(t *testing.T) (*RedisOutbox, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)

	outbox, err := NewRedisOutbox("redis://"+s.Addr(), "outbox:", "device-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	t.Cleanup(func() { outbox.Close() })

	return outbox, s
}

func TestRedisOutbox_PushPeekAck(t *testing.T) {
	outbox, s := setupRedisOutbox(t)
	ctx := context.Background()

	if outbox.Key() != "outbox:device-1" {
		t.Fatalf("unexpected key %q", outbox.Key())
	}

	head, err := outbox.Peek(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if head != nil {
		t.Fatalf("expected empty outbox, got %+v", head)
	}

	first := &Job{
		ID:          "j1",
		Kind:        domain.RecordMerge,
		ArticleID:   "article-1",
		HighlightID: "h2",
		ShortID:     "efgh5678",
		Patch:       json.RawMessage(`{"type":"highlight"}`),
		OverlapIDs:  []string{"h1"},
		CreatedAt:   time.Now().UTC(),
	}
	second := &Job{ID: "j2", Kind: domain.RecordDelete, IDs: []string{"h2"}}

	if err := outbox.Push(ctx, first); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := outbox.Push(ctx, second); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	items, err := s.List("outbox:device-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 list entries, got %d", len(items))
	}

	head, err = outbox.Peek(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if head.ID != "j1" || head.Kind != domain.RecordMerge {
		t.Fatalf("expected merge job j1 at head, got %+v", head)
	}
	if len(head.OverlapIDs) != 1 || head.OverlapIDs[0] != "h1" {
		t.Errorf("expected overlap ids to survive storage, got %v", head.OverlapIDs)
	}
	if string(head.Patch) != `{"type":"highlight"}` {
		t.Errorf("expected patch to survive storage, got %s", head.Patch)
	}

	if err := outbox.Ack(ctx, "j2"); err == nil {
		t.Fatal("expected error acking a job that is not at the head")
	}
	if err := outbox.Ack(ctx, "j1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	n, err := outbox.Len(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 job left, got %d", n)
	}

	pending, err := outbox.Pending(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "j2" {
		t.Fatalf("expected j2 pending, got %+v", pending)
	}
}

func TestRedisOutbox_SurvivesReconnect(t *testing.T) {
	outbox, s := setupRedisOutbox(t)
	ctx := context.Background()

	outbox.Push(ctx, &Job{ID: "j1", Kind: domain.RecordCreate, HighlightID: "h1"})
	outbox.Close()

	reopened, err := NewRedisOutbox("redis://"+s.Addr(), "outbox:", "device-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer reopened.Close()

	transport := newFakeTransport()
	q := NewQueue(reopened, transport, testQueueConfig())

	sent, err := q.Flush(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected replayed job to be sent, got %d", sent)
	}
	if calls := transport.Calls(); len(calls) != 1 || calls[0].id != "h1" {
		t.Fatalf("unexpected calls %+v", calls)
	}
}

func TestNewRedisOutbox_InvalidURL(t *testing.T) {
	if _, err := NewRedisOutbox("not-a-url", "outbox:", "device-1"); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestRedisOutbox_UndecodableJobIsDeadLettered(t *testing.T) {
	outbox, s := setupRedisOutbox(t)
	ctx := context.Background()

	s.Push(outbox.Key(), "{not json")
	outbox.Push(ctx, &Job{ID: "j1", Kind: domain.RecordCreate, HighlightID: "h1"})

	transport := newFakeTransport()
	q := NewQueue(outbox, transport, testQueueConfig())

	sent, err := q.Flush(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected the job behind the broken entry to be sent, got %d", sent)
	}

	dead, err := s.List(outbox.DeadLetterKey())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(dead) != 1 || dead[0] != "{not json" {
		t.Errorf("expected broken entry in %s, got %v", outbox.DeadLetterKey(), dead)
	}
	if s.Exists(outbox.Key()) {
		t.Errorf("expected outbox drained")
	}
}
