package service

import (
	"log"
	"time"

	"highlight-sync/internal/domain"
	"highlight-sync/internal/repository"
	"highlight-sync/internal/websocket"
	"highlight-sync/pkg/hash"
)

// SyncService fans highlight and progress changes out to the other devices
// reading the same article, and builds manifests for cheap comparison.
type SyncService struct {
	highlightRepo repository.HighlightRepository
	wsManager     *websocket.Manager
}

func NewSyncService(highlightRepo repository.HighlightRepository, wsManager *websocket.Manager) *SyncService {
	return &SyncService{
		highlightRepo: highlightRepo,
		wsManager:     wsManager,
	}
}

func (s *SyncService) BroadcastHighlightUpdate(deviceID string, h *domain.HighlightResponse, mergedIDs []string) error {
	msg, err := websocket.NewMessage(websocket.TypeHighlightUpdate, &websocket.HighlightUpdatePayload{
		HighlightID: h.ID,
		ShortID:     h.ShortID,
		ArticleID:   h.ArticleID,
		Quote:       h.Quote,
		Patch:       h.Patch,
		Annotation:  h.Annotation,
		MergedIDs:   mergedIDs,
		UpdatedAt:   h.UpdatedAt,
		DeviceID:    deviceID,
	})
	if err != nil {
		return err
	}

	return s.broadcast(h.ArticleID, msg, deviceID)
}

func (s *SyncService) BroadcastHighlightDelete(deviceID, articleID string, ids []string) error {
	msg, err := websocket.NewMessage(websocket.TypeHighlightDelete, &websocket.HighlightDeletePayload{
		HighlightIDs: ids,
		ArticleID:    articleID,
		DeviceID:     deviceID,
	})
	if err != nil {
		return err
	}

	return s.broadcast(articleID, msg, deviceID)
}

func (s *SyncService) BroadcastProgress(deviceID string, progress *domain.ProgressResponse) error {
	msg, err := websocket.NewMessage(websocket.TypeProgressUpdate, &websocket.ProgressUpdatePayload{
		ArticleID:                  progress.ArticleID,
		ReadingProgressPercent:     progress.ReadingProgressPercent,
		ReadingProgressAnchorIndex: progress.ReadingProgressAnchorIndex,
		DeviceID:                   deviceID,
	})
	if err != nil {
		return err
	}

	return s.broadcast(progress.ArticleID, msg, deviceID)
}

func (s *SyncService) broadcast(articleID string, msg *websocket.Message, deviceID string) error {
	if s.wsManager == nil {
		return nil
	}
	if err := s.wsManager.BroadcastToArticle(articleID, msg, deviceID); err != nil {
		log.Printf("[Sync] broadcast %s to article %s failed: %v", msg.Type, articleID, err)
		return err
	}
	return nil
}

// GetManifest returns one entry per live highlight of the article so a device
// can tell which of its highlights differ from the server's.
func (s *SyncService) GetManifest(articleID string) (*domain.ManifestResponse, error) {
	highlights, err := s.highlightRepo.ListByArticle(articleID)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.ManifestEntry, 0, len(highlights))
	for _, h := range highlights {
		if h.IsDeleted {
			continue
		}
		entries = append(entries, domain.ManifestEntry{
			ID:          h.ID,
			ShortID:     h.ShortID,
			ContentHash: ContentHash(h),
			UpdatedAt:   h.UpdatedAt,
		})
	}

	return &domain.ManifestResponse{
		ArticleID:  articleID,
		Highlights: entries,
		SyncTime:   time.Now(),
	}, nil
}

func ContentHash(h *domain.Highlight) string {
	return hash.Content([]byte(h.Quote), h.Patch, []byte(h.Annotation))
}
