package service

import (
	"errors"
	"testing"

	"highlight-sync/internal/domain"
)

func setupArticleService(t *testing.T) (*ArticleService, *HighlightService, *mockArticleRepo) {
	t.Helper()
	articles := newMockArticleRepo()
	highlights := NewHighlightService(newMockHighlightRepo(), articles, nil)
	return NewArticleService(articles, highlights, nil), highlights, articles
}

func TestArticleService_CreateAndLoad(t *testing.T) {
	service, highlights, _ := setupArticleService(t)

	article, err := service.Create(&domain.CreateArticleRequest{Slug: "my-article", Title: "My Article"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if article.ID == "" {
		t.Fatal("expected article id to be assigned")
	}

	if _, err := service.Create(&domain.CreateArticleRequest{Slug: "my-article", Title: "Again"}); !errors.Is(err, ErrSlugTaken) {
		t.Errorf("expected ErrSlugTaken, got %v", err)
	}

	highlights.Create("device-1", &domain.CreateHighlightRequest{ID: "h1", ShortID: "aaaa1111", ArticleID: article.ID})
	highlights.Create("device-1", &domain.CreateHighlightRequest{ID: "h2", ShortID: "bbbb2222", ArticleID: article.ID})
	highlights.Delete("device-1", &domain.DeleteHighlightsRequest{HighlightIDs: []string{"h2"}})

	doc, err := service.Load("my-article")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if doc.ID != article.ID || doc.Title != "My Article" {
		t.Errorf("unexpected document %+v", doc)
	}
	if len(doc.Highlights) != 1 || doc.Highlights[0].ID != "h1" {
		t.Errorf("expected only live highlight h1, got %+v", doc.Highlights)
	}
	if doc.Labels == nil {
		t.Error("expected labels to be an empty list")
	}

	if _, err := service.Load("missing"); !errors.Is(err, ErrArticleNotFound) {
		t.Errorf("expected ErrArticleNotFound, got %v", err)
	}
}

func TestArticleService_UpdateProgressIsMonotonic(t *testing.T) {
	service, _, repo := setupArticleService(t)
	repo.Create(&domain.Article{ID: "article-1", Slug: "a", ReadingProgressPercent: 30, ReadingProgressAnchorIndex: 2})

	tests := []struct {
		percent  float64
		anchor   int
		advanced bool
		want     float64
	}{
		{10, 0, false, 30},
		{30, 2, false, 30},
		{60, 5, true, 60},
		{50, 4, false, 60},
	}

	for _, tt := range tests {
		resp, err := service.UpdateProgress("device-1", "article-1", &domain.UpdateProgressRequest{
			ReadingProgressPercent:     tt.percent,
			ReadingProgressAnchorIndex: tt.anchor,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Advanced != tt.advanced || resp.ReadingProgressPercent != tt.want {
			t.Errorf("report %.0f: expected advanced=%v at %.0f, got %+v", tt.percent, tt.advanced, tt.want, resp)
		}
	}

	if repo.articles["article-1"].ReadingProgressAnchorIndex != 5 {
		t.Errorf("expected anchor 5 stored, got %d", repo.articles["article-1"].ReadingProgressAnchorIndex)
	}

	if _, err := service.UpdateProgress("device-1", "missing", &domain.UpdateProgressRequest{}); !errors.Is(err, ErrArticleNotFound) {
		t.Errorf("expected ErrArticleNotFound, got %v", err)
	}
}
