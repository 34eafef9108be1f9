package service

import (
	"errors"
	"time"

	"highlight-sync/internal/domain"
	"highlight-sync/internal/repository"

	"github.com/google/uuid"
)

type ArticleService struct {
	repo             repository.ArticleRepository
	highlightService *HighlightService
	syncService      *SyncService
}

func NewArticleService(
	repo repository.ArticleRepository,
	highlightService *HighlightService,
	syncService *SyncService,
) *ArticleService {
	return &ArticleService{
		repo:             repo,
		highlightService: highlightService,
		syncService:      syncService,
	}
}

func (s *ArticleService) Create(req *domain.CreateArticleRequest) (*domain.Article, error) {
	if _, err := s.repo.FindBySlug(req.Slug); err == nil {
		return nil, ErrSlugTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	article := &domain.Article{
		ID:        uuid.New().String(),
		Slug:      req.Slug,
		Title:     req.Title,
		Content:   req.Content,
		URL:       req.URL,
		Labels:    req.Labels,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if article.Labels == nil {
		article.Labels = []domain.Label{}
	}

	if err := s.repo.Create(article); err != nil {
		return nil, err
	}

	return article, nil
}

// Load returns the article with its live highlights, as a device opens it.
func (s *ArticleService) Load(slug string) (*domain.Document, error) {
	article, err := s.repo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	highlights, err := s.highlightService.ListByArticle(article.ID)
	if err != nil {
		return nil, err
	}

	return &domain.Document{
		ID:                         article.ID,
		Slug:                       article.Slug,
		Title:                      article.Title,
		Content:                    article.Content,
		URL:                        article.URL,
		Highlights:                 highlights,
		Labels:                     article.Labels,
		ReadingProgressPercent:     article.ReadingProgressPercent,
		ReadingProgressAnchorIndex: article.ReadingProgressAnchorIndex,
	}, nil
}

// UpdateProgress only moves reading progress forward. A lower or equal
// percentage leaves the stored position untouched and reports Advanced false.
func (s *ArticleService) UpdateProgress(deviceID, articleID string, req *domain.UpdateProgressRequest) (*domain.ProgressResponse, error) {
	article, err := s.repo.FindByID(articleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	response := &domain.ProgressResponse{
		ArticleID:                  article.ID,
		ReadingProgressPercent:     article.ReadingProgressPercent,
		ReadingProgressAnchorIndex: article.ReadingProgressAnchorIndex,
	}

	if req.ReadingProgressPercent <= article.ReadingProgressPercent {
		return response, nil
	}

	article.ReadingProgressPercent = req.ReadingProgressPercent
	article.ReadingProgressAnchorIndex = req.ReadingProgressAnchorIndex
	article.UpdatedAt = time.Now()

	if err := s.repo.UpdateProgress(article); err != nil {
		return nil, err
	}

	response.ReadingProgressPercent = article.ReadingProgressPercent
	response.ReadingProgressAnchorIndex = article.ReadingProgressAnchorIndex
	response.Advanced = true

	if s.syncService != nil {
		s.syncService.BroadcastProgress(deviceID, response)
	}

	return response, nil
}
