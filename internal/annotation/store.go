// Package annotation holds the annotation set of the open document and applies
// local edits to it before the remote service has acknowledged them.
//
// A Store is owned by a single goroutine; callers serialize every operation.
package annotation

import (
	"fmt"
	"strings"

	"highlight-sync/internal/domain"
	"highlight-sync/internal/geometry"
)

// RemovalPolicy decides when a removed annotation leaves the store.
type RemovalPolicy int

const (
	// RemoveOnConfirm keeps the annotation as PendingDelete until Confirm is called.
	RemoveOnConfirm RemovalPolicy = iota
	// RemoveImmediately erases the annotation as soon as Remove returns.
	RemoveImmediately
)

func ParseRemovalPolicy(s string) (RemovalPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "confirm":
		return RemoveOnConfirm, nil
	case "immediate":
		return RemoveImmediately, nil
	default:
		return RemoveOnConfirm, fmt.Errorf("unknown removal policy %q: %w", s, domain.ErrInvalidInput)
	}
}

type Store struct {
	articleID   string
	policy      RemovalPolicy
	order       []string
	annotations map[string]*domain.Annotation
	// last fetched remote highlights, keyed by short id
	snapshot map[string]*domain.HighlightResponse
}

func NewStore(articleID string, policy RemovalPolicy) *Store {
	return &Store{
		articleID:   articleID,
		policy:      policy,
		annotations: make(map[string]*domain.Annotation),
		snapshot:    make(map[string]*domain.HighlightResponse),
	}
}

// NewStoreFromDocument seeds a store with the document's highlights, all Synced.
func NewStoreFromDocument(doc *domain.Document, policy RemovalPolicy) (*Store, error) {
	if doc == nil || doc.ID == "" {
		return nil, domain.ErrMissingSessionContext
	}

	s := NewStore(doc.ID, policy)
	if _, _, err := s.ApplyRemote(doc.Highlights); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ArticleID() string {
	return s.articleID
}

func (s *Store) Policy() RemovalPolicy {
	return s.policy
}

func (s *Store) Len() int {
	return len(s.order)
}

// Add stores a copy of a. Empty ArticleID and Provenance default to the
// store's article and LocalOnly.
func (s *Store) Add(a *domain.Annotation) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("annotation id is required: %w", domain.ErrInvalidInput)
	}
	if _, exists := s.annotations[a.ID]; exists {
		return fmt.Errorf("add %s: %w", a.ID, domain.ErrDuplicateID)
	}

	c := a.Clone()
	if c.ArticleID == "" {
		c.ArticleID = s.articleID
	}
	if c.Provenance == "" {
		c.Provenance = domain.ProvenanceLocalOnly
	}

	s.annotations[c.ID] = c
	s.order = append(s.order, c.ID)
	return nil
}

func (s *Store) Get(id string) (*domain.Annotation, error) {
	a, ok := s.annotations[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, domain.ErrNotFound)
	}
	return a.Clone(), nil
}

// Annotations returns copies of every annotation in insertion order.
func (s *Store) Annotations() []*domain.Annotation {
	result := make([]*domain.Annotation, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.annotations[id].Clone())
	}
	return result
}

// Overlapping returns the stored annotations whose rects overlap candidate.
func (s *Store) Overlapping(candidate domain.RectSet) []*domain.Annotation {
	return geometry.FindOverlapping(candidate, s.Annotations())
}

func (s *Store) EditNote(id, text string) error {
	a, ok := s.annotations[id]
	if !ok {
		return fmt.Errorf("edit note %s: %w", id, domain.ErrNotFound)
	}
	if a.Provenance == domain.ProvenancePendingDelete {
		return fmt.Errorf("edit note %s: %w", id, domain.ErrImmutable)
	}

	note := text
	a.Note = &note
	return nil
}

// Remove marks the annotation PendingDelete and returns the Delete record to
// dispatch. Removing an annotation already pending delete fails with ErrImmutable.
func (s *Store) Remove(id string) (domain.Record, error) {
	a, ok := s.annotations[id]
	if !ok {
		return domain.Record{}, fmt.Errorf("remove %s: %w", id, domain.ErrNotFound)
	}
	if a.Provenance == domain.ProvenancePendingDelete {
		return domain.Record{}, fmt.Errorf("remove %s: %w", id, domain.ErrImmutable)
	}

	a.Provenance = domain.ProvenancePendingDelete
	if s.policy == RemoveImmediately {
		s.erase(id)
	}

	return domain.Record{
		Kind:      domain.RecordDelete,
		ArticleID: s.articleID,
		IDs:       []string{id},
	}, nil
}

// SetProvenance records the sync state after a record was generated for id.
func (s *Store) SetProvenance(id string, p domain.Provenance) error {
	a, ok := s.annotations[id]
	if !ok {
		return fmt.Errorf("set provenance %s: %w", id, domain.ErrNotFound)
	}
	if a.Provenance == domain.ProvenancePendingDelete && p != domain.ProvenancePendingDelete {
		return fmt.Errorf("set provenance %s: %w", id, domain.ErrImmutable)
	}
	a.Provenance = p
	return nil
}

// Confirm applies a successful remote acknowledgment of kind for id. Only a
// delete acknowledgment erases an annotation pending delete; a late create or
// merge acknowledgment leaves it waiting for its delete. Pending creates and
// merges become Synced. Confirming an id that is no longer present is not an
// error.
func (s *Store) Confirm(id string, kind domain.RecordKind) {
	a, ok := s.annotations[id]
	if !ok {
		return
	}

	switch a.Provenance {
	case domain.ProvenancePendingDelete:
		if kind == domain.RecordDelete {
			s.erase(id)
		}
	case domain.ProvenancePendingCreate, domain.ProvenancePendingMerge:
		if kind == domain.RecordCreate || kind == domain.RecordMerge {
			a.Provenance = domain.ProvenanceSynced
		}
	}
}

// FindNoteFor returns the locally edited note, falling back to the note of the
// last fetched remote highlight with the same short id.
func (s *Store) FindNoteFor(id string) (string, bool, error) {
	a, ok := s.annotations[id]
	if !ok {
		return "", false, fmt.Errorf("find note %s: %w", id, domain.ErrNotFound)
	}
	if a.Note != nil {
		return *a.Note, true, nil
	}

	note, ok := s.RemoteNote(a.ShortID)
	return note, ok, nil
}

// RemoteNote looks up the snapshot only. An empty remote note counts as absent.
func (s *Store) RemoteNote(shortID string) (string, bool) {
	h, ok := s.snapshot[shortID]
	if !ok || h.Annotation == "" {
		return "", false
	}
	return h.Annotation, true
}

// ApplyRemote replaces the remote snapshot with highlights fetched from the
// service. Unknown highlights are added as Synced. Synced annotations missing
// from the remote set were removed elsewhere, and pending deletes missing from
// it are already gone remotely; both are dropped. Pending creates and merges
// and local notes are never overwritten.
func (s *Store) ApplyRemote(highlights []*domain.HighlightResponse) (added, dropped []string, err error) {
	snapshot := make(map[string]*domain.HighlightResponse, len(highlights))
	remoteIDs := make(map[string]struct{}, len(highlights))
	var incoming []*domain.Annotation

	for _, h := range highlights {
		if h == nil {
			continue
		}
		remoteIDs[h.ID] = struct{}{}
		if h.ShortID != "" {
			snapshot[h.ShortID] = h
		}
		if _, known := s.annotations[h.ID]; known {
			continue
		}

		a, err := fromHighlight(h, s.articleID)
		if err != nil {
			return nil, nil, err
		}
		incoming = append(incoming, a)
	}

	for _, id := range append([]string(nil), s.order...) {
		if _, ok := remoteIDs[id]; ok {
			continue
		}
		switch s.annotations[id].Provenance {
		case domain.ProvenanceSynced, domain.ProvenancePendingDelete:
			s.erase(id)
			dropped = append(dropped, id)
		}
	}

	for _, a := range incoming {
		s.annotations[a.ID] = a
		s.order = append(s.order, a.ID)
		added = append(added, a.ID)
	}

	s.snapshot = snapshot
	return added, dropped, nil
}

// Discard erases id whatever its sync state, undoing an Add whose record never
// reached the dispatcher.
func (s *Store) Discard(id string) {
	s.erase(id)
}

func (s *Store) erase(id string) {
	delete(s.annotations, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func fromHighlight(h *domain.HighlightResponse, articleID string) (*domain.Annotation, error) {
	a := &domain.Annotation{
		ID:        h.ID,
		ShortID:   h.ShortID,
		ArticleID: h.ArticleID,
		Quote:     h.Quote,
		Rects:     append(domain.RectSet(nil), h.Rects...),
	}

	if len(a.Rects) == 0 && len(h.Patch) > 0 {
		decoded, err := DecodePatch(h.Patch)
		if err != nil {
			return nil, fmt.Errorf("highlight %s: %w", h.ID, err)
		}
		a.Rects = decoded.Rects
		a.PageIndex = decoded.PageIndex
	}

	if a.ArticleID == "" {
		a.ArticleID = articleID
	}
	a.Provenance = domain.ProvenanceSynced
	return a, nil
}
