// Package reader runs one document session: it seeds the local store from the
// loaded article, turns user edits into reconciliation records and hands them
// to the dispatcher.
//
// A Reader is not safe for concurrent use. The goroutine that owns it also
// drains the dispatcher results and passes them to ApplyResult.
package reader

import (
	"context"
	"fmt"
	"log"

	"highlight-sync/internal/annotation"
	"highlight-sync/internal/dispatch"
	"highlight-sync/internal/domain"
	"highlight-sync/internal/identity"
	"highlight-sync/internal/progress"
	"highlight-sync/internal/reconcile"
)

type DocumentSource interface {
	LoadDocument(ctx context.Context, slug string) (*domain.Document, error)
}

type Reader struct {
	source     DocumentSource
	dispatcher dispatch.Dispatcher
	assigner   *identity.Assigner
	engine     *reconcile.Engine
	policy     annotation.RemovalPolicy

	document *domain.Document
	store    *annotation.Store
	tracker  *progress.Tracker
}

func NewReader(source DocumentSource, dispatcher dispatch.Dispatcher, assigner *identity.Assigner, policy annotation.RemovalPolicy) *Reader {
	if assigner == nil {
		assigner = identity.NewAssigner(nil)
	}
	return &Reader{
		source:     source,
		dispatcher: dispatcher,
		assigner:   assigner,
		engine:     reconcile.NewEngine(),
		policy:     policy,
	}
}

// Open loads the article and replaces any session already open.
func (r *Reader) Open(ctx context.Context, slug string) (*domain.Document, error) {
	doc, err := r.source.LoadDocument(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", slug, err)
	}

	store, err := annotation.NewStoreFromDocument(doc, r.policy)
	if err != nil {
		return nil, err
	}

	r.document = doc
	r.store = store
	r.tracker = progress.NewTracker(doc.ReadingProgressPercent)

	log.Printf("[Reader] opened %s with %d highlights at %.1f%%", doc.ID, store.Len(), r.tracker.Current())
	return doc, nil
}

func (r *Reader) Close() {
	r.document = nil
	r.store = nil
	r.tracker = nil
}

func (r *Reader) Document() *domain.Document {
	return r.document
}

func (r *Reader) Store() *annotation.Store {
	return r.store
}

func (r *Reader) Tracker() *progress.Tracker {
	return r.tracker
}

// Draw records a region the user just highlighted and submits it as a Create
// or a Merge, depending on what it overlaps. When the record cannot be queued
// the annotation is discarded and the session is left as it was.
func (r *Reader) Draw(rects domain.RectSet, quote string, pageIndex int) (domain.Record, error) {
	if r.store == nil {
		return domain.Record{}, domain.ErrMissingSessionContext
	}
	if len(rects) == 0 {
		return domain.Record{}, fmt.Errorf("annotation needs at least one rect: %w", domain.ErrInvalidInput)
	}

	id, shortID, err := r.assigner.NewIdentity()
	if err != nil {
		return domain.Record{}, err
	}

	a := &domain.Annotation{
		ID:        id,
		ShortID:   shortID,
		ArticleID: r.store.ArticleID(),
		Quote:     quote,
		PageIndex: pageIndex,
		Rects:     rects,
	}

	// Reconcile before Add so a failed decision leaves the store untouched.
	record, err := r.engine.Reconcile(r.store, a)
	if err != nil {
		return domain.Record{}, err
	}

	if err := r.store.Add(a); err != nil {
		return domain.Record{}, err
	}
	if err := r.store.SetProvenance(id, reconcile.PendingProvenance(record.Kind)); err != nil {
		return domain.Record{}, err
	}

	if err := dispatch.Submit(r.dispatcher, record); err != nil {
		r.store.Discard(id)
		return domain.Record{}, fmt.Errorf("failed to submit %s for %s: %w", record.Kind, id, err)
	}
	return record, nil
}

// EditNote updates the note locally and sends it to the service.
func (r *Reader) EditNote(id, text string) error {
	if r.store == nil {
		return domain.ErrMissingSessionContext
	}
	if err := r.store.EditNote(id, text); err != nil {
		return err
	}
	if err := r.dispatcher.SubmitNote(id, r.store.ArticleID(), text); err != nil {
		return fmt.Errorf("failed to submit note for %s: %w", id, err)
	}
	return nil
}

// Note returns the note to display for id.
func (r *Reader) Note(id string) (string, bool, error) {
	if r.store == nil {
		return "", false, domain.ErrMissingSessionContext
	}
	return r.store.FindNoteFor(id)
}

// Delete removes an annotation and submits its Delete record, even when the
// annotation's create or merge is still in flight.
func (r *Reader) Delete(id string) (domain.Record, error) {
	if r.store == nil {
		return domain.Record{}, domain.ErrMissingSessionContext
	}

	record, err := r.store.Remove(id)
	if err != nil {
		return domain.Record{}, err
	}
	if err := dispatch.Submit(r.dispatcher, record); err != nil {
		return record, fmt.Errorf("failed to submit delete for %s: %w", id, err)
	}
	return record, nil
}

// PageChanged reports the visible page and submits progress only when it advanced.
func (r *Reader) PageChanged(index, total int) (float64, bool, error) {
	if r.tracker == nil {
		return 0, false, domain.ErrMissingSessionContext
	}

	percent, advanced, err := r.tracker.Report(index, total)
	if err != nil || !advanced {
		return percent, false, err
	}

	if err := r.dispatcher.SubmitProgress(r.store.ArticleID(), percent, index); err != nil {
		return percent, true, fmt.Errorf("failed to submit progress: %w", err)
	}
	return percent, true, nil
}

// ApplyResult folds a dispatcher outcome back into the session. Results for
// another article, and failed results, leave the store unchanged.
func (r *Reader) ApplyResult(res dispatch.Result) {
	if r.store == nil {
		return
	}
	if res.ArticleID != "" && res.ArticleID != r.store.ArticleID() {
		return
	}
	if res.Err != nil {
		log.Printf("[Reader] %s for %v failed: %v", res.Kind, res.IDs, res.Err)
		return
	}

	switch res.Kind {
	case domain.RecordCreate, domain.RecordMerge, domain.RecordDelete:
		for _, id := range res.IDs {
			r.store.Confirm(id, res.Kind)
		}
	}
}

// Refresh reloads the document and merges remote changes into the session.
func (r *Reader) Refresh(ctx context.Context) error {
	if r.document == nil {
		return domain.ErrMissingSessionContext
	}

	doc, err := r.source.LoadDocument(ctx, r.document.Slug)
	if err != nil {
		return fmt.Errorf("failed to reload document %s: %w", r.document.Slug, err)
	}

	added, dropped, err := r.store.ApplyRemote(doc.Highlights)
	if err != nil {
		return err
	}
	r.document = doc

	if len(added) > 0 || len(dropped) > 0 {
		log.Printf("[Reader] refreshed %s: %d added, %d dropped", doc.ID, len(added), len(dropped))
	}
	return nil
}
