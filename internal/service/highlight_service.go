package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"highlight-sync/internal/annotation"
	"highlight-sync/internal/domain"
	"highlight-sync/internal/repository"
)

// noteSeparator joins the notes of highlights folded into a merge.
const noteSeparator = "\n\n"

type HighlightService struct {
	repo        repository.HighlightRepository
	articleRepo repository.ArticleRepository
	syncService *SyncService
}

func NewHighlightService(
	repo repository.HighlightRepository,
	articleRepo repository.ArticleRepository,
	syncService *SyncService,
) *HighlightService {
	return &HighlightService{
		repo:        repo,
		articleRepo: articleRepo,
		syncService: syncService,
	}
}

// Create stores a new highlight. Repeating a create returns the stored
// highlight; a create for an id that was already deleted fails with
// ErrHighlightDeleted instead of bringing it back.
func (s *HighlightService) Create(deviceID string, req *domain.CreateHighlightRequest) (*domain.HighlightResponse, error) {
	if existing, err := s.findExisting(req.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing.ToResponse(), nil
	}

	if err := s.requireArticle(req.ArticleID); err != nil {
		return nil, err
	}

	rects, err := rectsFromPatch(req.ID, req.Patch)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	highlight := &domain.Highlight{
		ID:        req.ID,
		ShortID:   req.ShortID,
		ArticleID: req.ArticleID,
		Quote:     req.Quote,
		Patch:     req.Patch,
		Rects:     rects,
		CreatedBy: deviceID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Annotation != nil {
		highlight.Annotation = *req.Annotation
	}

	if err := s.repo.Create(highlight); err != nil {
		return nil, err
	}

	response := highlight.ToResponse()

	if s.syncService != nil {
		s.syncService.BroadcastHighlightUpdate(deviceID, response, nil)
	}

	return response, nil
}

// Merge folds every highlight in OverlapHighlightIDList into a new highlight
// with the request's id. Folded highlights are soft-deleted and point at the
// new one. Without a note in the request, the non-empty notes of the folded
// highlights are carried over.
//
// The new highlight is stored before anything is folded, so a failed merge
// leaves the overlaps live and a retry folds whatever is still live into the
// stored highlight.
func (s *HighlightService) Merge(deviceID string, req *domain.MergeHighlightRequest) (*domain.HighlightResponse, error) {
	existing, err := s.findExisting(req.ID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		if err := s.requireArticle(req.ArticleID); err != nil {
			return nil, err
		}
	}

	overlaps, err := s.liveOverlaps(req)
	if err != nil {
		return nil, err
	}

	highlight := existing
	if highlight == nil {
		rects, err := rectsFromPatch(req.ID, req.Patch)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		highlight = &domain.Highlight{
			ID:        req.ID,
			ShortID:   req.ShortID,
			ArticleID: req.ArticleID,
			Quote:     req.Quote,
			Patch:     req.Patch,
			Rects:     rects,
			CreatedBy: deviceID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if req.Annotation != nil {
			highlight.Annotation = *req.Annotation
		} else {
			var notes []string
			for _, overlap := range overlaps {
				if overlap.Annotation != "" {
					notes = append(notes, overlap.Annotation)
				}
			}
			highlight.Annotation = strings.Join(notes, noteSeparator)
		}

		if err := s.repo.Create(highlight); err != nil {
			return nil, err
		}
	}

	merged := make([]string, 0, len(overlaps))
	for _, overlap := range overlaps {
		overlap.IsDeleted = true
		overlap.MergedInto = highlight.ID
		overlap.UpdatedAt = time.Now()
		if err := s.repo.Update(overlap); err != nil {
			return nil, err
		}
		merged = append(merged, overlap.ID)
	}

	if existing != nil && len(merged) == 0 {
		return existing.ToResponse(), nil
	}

	log.Printf("[Highlight] merged %d highlights into %s", len(merged), highlight.ID)

	response := highlight.ToResponse()

	if s.syncService != nil {
		s.syncService.BroadcastHighlightUpdate(deviceID, response, merged)
	}

	return response, nil
}

// liveOverlaps loads the highlights a merge folds, in request order. Unknown
// and already deleted ids are skipped.
func (s *HighlightService) liveOverlaps(req *domain.MergeHighlightRequest) ([]*domain.Highlight, error) {
	var overlaps []*domain.Highlight
	for _, id := range req.OverlapHighlightIDList {
		if id == req.ID {
			continue
		}

		overlap, err := s.repo.FindByID(id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if overlap.ArticleID != req.ArticleID {
			return nil, fmt.Errorf("merge %s into %s: %w", id, req.ID, ErrArticleMismatch)
		}
		if overlap.IsDeleted {
			continue
		}
		overlaps = append(overlaps, overlap)
	}
	return overlaps, nil
}

// Delete soft-deletes every id. Ids the service has never seen are recorded
// as tombstones so a create arriving later stays deleted.
func (s *HighlightService) Delete(deviceID string, req *domain.DeleteHighlightsRequest) (*domain.DeleteHighlightsResponse, error) {
	byArticle := make(map[string][]string)
	deleted := make([]string, 0, len(req.HighlightIDs))

	for _, id := range req.HighlightIDs {
		highlight, err := s.repo.FindByID(id)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			now := time.Now()
			tombstone := &domain.Highlight{
				ID:        id,
				CreatedBy: deviceID,
				CreatedAt: now,
				UpdatedAt: now,
				IsDeleted: true,
			}
			if err := s.repo.Create(tombstone); err != nil {
				return nil, err
			}
			deleted = append(deleted, id)
			continue
		}

		if !highlight.IsDeleted {
			if err := s.repo.Delete(id); err != nil {
				return nil, err
			}
			byArticle[highlight.ArticleID] = append(byArticle[highlight.ArticleID], id)
		}
		deleted = append(deleted, id)
	}

	if s.syncService != nil {
		for articleID, ids := range byArticle {
			s.syncService.BroadcastHighlightDelete(deviceID, articleID, ids)
		}
	}

	return &domain.DeleteHighlightsResponse{Deleted: deleted}, nil
}

func (s *HighlightService) UpdateNote(deviceID, id string, req *domain.UpdateNoteRequest) (*domain.HighlightResponse, error) {
	highlight, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrHighlightNotFound
		}
		return nil, err
	}
	if highlight.IsDeleted {
		return nil, ErrHighlightDeleted
	}
	if req.ArticleID != "" && req.ArticleID != highlight.ArticleID {
		return nil, ErrArticleMismatch
	}

	highlight.Annotation = req.Annotation
	highlight.UpdatedAt = time.Now()

	if err := s.repo.Update(highlight); err != nil {
		return nil, err
	}

	response := highlight.ToResponse()

	if s.syncService != nil {
		s.syncService.BroadcastHighlightUpdate(deviceID, response, nil)
	}

	return response, nil
}

// ListByArticle returns the live highlights of an article.
func (s *HighlightService) ListByArticle(articleID string) ([]*domain.HighlightResponse, error) {
	highlights, err := s.repo.ListByArticle(articleID)
	if err != nil {
		return nil, err
	}

	responses := make([]*domain.HighlightResponse, 0, len(highlights))
	for _, h := range highlights {
		if h.IsDeleted {
			continue
		}
		responses = append(responses, h.ToResponse())
	}

	return responses, nil
}

// findExisting returns the stored highlight for id, nil when there is none,
// or ErrHighlightDeleted for a tombstone.
func (s *HighlightService) findExisting(id string) (*domain.Highlight, error) {
	existing, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if existing.IsDeleted {
		return nil, ErrHighlightDeleted
	}
	return existing, nil
}

func (s *HighlightService) requireArticle(articleID string) error {
	if _, err := s.articleRepo.FindByID(articleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrArticleNotFound
		}
		return err
	}
	return nil
}

// rectsFromPatch validates the patch and returns the rects it carries.
func rectsFromPatch(id string, patch json.RawMessage) (domain.RectSet, error) {
	if len(patch) == 0 {
		return nil, nil
	}

	decoded, err := annotation.DecodePatch(patch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	if decoded.ID != id {
		return nil, fmt.Errorf("%w: metadata id %q does not match %q", ErrInvalidPatch, decoded.ID, id)
	}

	return decoded.Rects, nil
}
