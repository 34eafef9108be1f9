package service

import (
	"fmt"

	"highlight-sync/internal/domain"
	"highlight-sync/internal/repository"
)

type mockHighlightRepo struct {
	highlights map[string]*domain.Highlight
	// failCreate fails the next Create of an id once
	failCreate map[string]error
}

func newMockHighlightRepo() *mockHighlightRepo {
	return &mockHighlightRepo{
		highlights: make(map[string]*domain.Highlight),
		failCreate: make(map[string]error),
	}
}

func (m *mockHighlightRepo) Create(highlight *domain.Highlight) error {
	if err, ok := m.failCreate[highlight.ID]; ok {
		delete(m.failCreate, highlight.ID)
		return err
	}
	if _, exists := m.highlights[highlight.ID]; exists {
		return fmt.Errorf("highlight %s already exists", highlight.ID)
	}
	copied := *highlight
	m.highlights[highlight.ID] = &copied
	return nil
}

func (m *mockHighlightRepo) FindByID(id string) (*domain.Highlight, error) {
	if h, exists := m.highlights[id]; exists {
		copied := *h
		return &copied, nil
	}
	return nil, fmt.Errorf("highlight %s: %w", id, repository.ErrNotFound)
}

func (m *mockHighlightRepo) ListByArticle(articleID string) ([]*domain.Highlight, error) {
	var highlights []*domain.Highlight
	for _, h := range m.highlights {
		if h.ArticleID == articleID {
			copied := *h
			highlights = append(highlights, &copied)
		}
	}
	return highlights, nil
}

func (m *mockHighlightRepo) Update(highlight *domain.Highlight) error {
	if _, exists := m.highlights[highlight.ID]; !exists {
		return fmt.Errorf("highlight %s: %w", highlight.ID, repository.ErrNotFound)
	}
	copied := *highlight
	m.highlights[highlight.ID] = &copied
	return nil
}

func (m *mockHighlightRepo) Delete(id string) error {
	if h, exists := m.highlights[id]; exists {
		h.IsDeleted = true
		return nil
	}
	return fmt.Errorf("highlight %s: %w", id, repository.ErrNotFound)
}

type mockArticleRepo struct {
	articles map[string]*domain.Article
}

func newMockArticleRepo() *mockArticleRepo {
	return &mockArticleRepo{
		articles: make(map[string]*domain.Article),
	}
}

func (m *mockArticleRepo) Create(article *domain.Article) error {
	copied := *article
	m.articles[article.ID] = &copied
	return nil
}

func (m *mockArticleRepo) FindByID(id string) (*domain.Article, error) {
	if a, exists := m.articles[id]; exists {
		copied := *a
		return &copied, nil
	}
	return nil, fmt.Errorf("article %s: %w", id, repository.ErrNotFound)
}

func (m *mockArticleRepo) FindBySlug(slug string) (*domain.Article, error) {
	for _, a := range m.articles {
		if a.Slug == slug {
			copied := *a
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("article %s: %w", slug, repository.ErrNotFound)
}

func (m *mockArticleRepo) UpdateProgress(article *domain.Article) error {
	a, exists := m.articles[article.ID]
	if !exists {
		return fmt.Errorf("article %s: %w", article.ID, repository.ErrNotFound)
	}
	a.ReadingProgressPercent = article.ReadingProgressPercent
	a.ReadingProgressAnchorIndex = article.ReadingProgressAnchorIndex
	return nil
}
