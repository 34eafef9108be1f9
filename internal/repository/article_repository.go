package repository

import (
	"context"
	"fmt"
	"time"

	"highlight-sync/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type ArticleRepository interface {
	Create(article *domain.Article) error
	FindByID(id string) (*domain.Article, error)
	FindBySlug(slug string) (*domain.Article, error)
	UpdateProgress(article *domain.Article) error
}

type articleRepository struct {
	client *kivik.Client
	dbName string
}

func NewArticleRepository(client *kivik.Client, dbName string) ArticleRepository {
	return &articleRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *articleRepository) Create(article *domain.Article) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("article:%s", article.ID)
	_, err := db.Put(context.Background(), docID, article)
	if err != nil {
		return fmt.Errorf("failed to create article: %w", err)
	}

	return nil
}

func (r *articleRepository) FindByID(id string) (*domain.Article, error) {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("article:%s", id)
	row := db.Get(context.Background(), docID)

	var article domain.Article
	if err := row.ScanDoc(&article); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("article %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find article: %w", err)
	}

	return &article, nil
}

func (r *articleRepository) FindBySlug(slug string) (*domain.Article, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"slug": slug,
		},
		"limit": 1,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to find article by slug: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("article %s: %w", slug, ErrNotFound)
	}

	var article domain.Article
	if err := rows.ScanDoc(&article); err != nil {
		return nil, fmt.Errorf("failed to decode article: %w", err)
	}

	return &article, nil
}

func (r *articleRepository) UpdateProgress(article *domain.Article) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("article:%s", article.ID)

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("article %s: %w", article.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to fetch existing article for update: %w", err)
	}

	existingDoc["reading_progress_percent"] = article.ReadingProgressPercent
	existingDoc["reading_progress_anchor_index"] = article.ReadingProgressAnchorIndex
	existingDoc["updated_at"] = time.Now()

	_, err := db.Put(context.Background(), docID, existingDoc)
	if err != nil {
		return fmt.Errorf("failed to update article progress: %w", err)
	}

	return nil
}
