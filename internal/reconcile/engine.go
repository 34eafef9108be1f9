// Package reconcile classifies a newly drawn annotation as a Create or a Merge
// against the annotations already present in the document session.
package reconcile

import (
	"fmt"

	"highlight-sync/internal/annotation"
	"highlight-sync/internal/domain"
	"highlight-sync/internal/geometry"
)

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Reconcile builds the outbound record for a. Annotations pending delete still
// count as overlaps; the service resolves those races.
func (e *Engine) Reconcile(store *annotation.Store, a *domain.Annotation) (domain.Record, error) {
	if store == nil || store.ArticleID() == "" {
		return domain.Record{}, domain.ErrMissingSessionContext
	}
	if a == nil || a.ID == "" {
		return domain.Record{}, fmt.Errorf("annotation id is required: %w", domain.ErrInvalidInput)
	}

	subject := a.Clone()
	if subject.ArticleID == "" {
		subject.ArticleID = store.ArticleID()
	}

	var existing []*domain.Annotation
	for _, other := range store.Annotations() {
		if other.ID != subject.ID {
			existing = append(existing, other)
		}
	}
	overlapping := geometry.FindOverlapping(subject.Rects, existing)

	patch, err := annotation.EncodePatch(subject)
	if err != nil {
		return domain.Record{}, err
	}

	record := domain.Record{
		Kind:       domain.RecordCreate,
		ArticleID:  store.ArticleID(),
		Annotation: subject,
		Quote:      subject.Quote,
		Patch:      patch,
	}

	if len(overlapping) == 0 {
		return record, nil
	}

	record.Kind = domain.RecordMerge
	record.OverlapIDs = make([]string, 0, len(overlapping))
	for _, o := range overlapping {
		record.OverlapIDs = append(record.OverlapIDs, o.ID)
	}
	return record, nil
}

// PendingProvenance maps a record to the provenance its subject takes while in flight.
func PendingProvenance(kind domain.RecordKind) domain.Provenance {
	switch kind {
	case domain.RecordMerge:
		return domain.ProvenancePendingMerge
	case domain.RecordDelete:
		return domain.ProvenancePendingDelete
	default:
		return domain.ProvenancePendingCreate
	}
}
