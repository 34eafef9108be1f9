package repository

import (
	"context"
	"fmt"
	"time"

	"highlight-sync/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type HighlightRepository interface {
	Create(highlight *domain.Highlight) error
	FindByID(id string) (*domain.Highlight, error)
	// ListByArticle includes soft-deleted highlights.
	ListByArticle(articleID string) ([]*domain.Highlight, error)
	Update(highlight *domain.Highlight) error
	Delete(id string) error
}

type highlightRepository struct {
	client *kivik.Client
	dbName string
}

func NewHighlightRepository(client *kivik.Client, dbName string) HighlightRepository {
	return &highlightRepository{
		client: client,
		dbName: dbName,
	}
}

func highlightDocID(id string) string {
	return fmt.Sprintf("highlight:%s", id)
}

func (r *highlightRepository) Create(highlight *domain.Highlight) error {
	db := r.client.DB(r.dbName)

	_, err := db.Put(context.Background(), highlightDocID(highlight.ID), highlight)
	if err != nil {
		return fmt.Errorf("failed to create highlight: %w", err)
	}

	return nil
}

func (r *highlightRepository) FindByID(id string) (*domain.Highlight, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(context.Background(), highlightDocID(id))

	var highlight domain.Highlight
	if err := row.ScanDoc(&highlight); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("highlight %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find highlight: %w", err)
	}

	return &highlight, nil
}

func (r *highlightRepository) ListByArticle(articleID string) ([]*domain.Highlight, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"article_id": articleID,
			"short_id":   map[string]interface{}{"$exists": true},
		},
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list highlights: %w", err)
	}
	defer rows.Close()

	var highlights []*domain.Highlight
	for rows.Next() {
		var highlight domain.Highlight
		if err := rows.ScanDoc(&highlight); err != nil {
			continue
		}
		highlights = append(highlights, &highlight)
	}

	return highlights, nil
}

func (r *highlightRepository) Update(highlight *domain.Highlight) error {
	db := r.client.DB(r.dbName)
	docID := highlightDocID(highlight.ID)

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("highlight %s: %w", highlight.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to fetch existing highlight for update: %w", err)
	}

	existingDoc["annotation"] = highlight.Annotation
	existingDoc["is_deleted"] = highlight.IsDeleted
	existingDoc["merged_into"] = highlight.MergedInto
	existingDoc["updated_at"] = time.Now()

	_, err := db.Put(context.Background(), docID, existingDoc)
	if err != nil {
		return fmt.Errorf("failed to update highlight: %w", err)
	}

	return nil
}

func (r *highlightRepository) Delete(id string) error {
	db := r.client.DB(r.dbName)
	docID := highlightDocID(id)

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("highlight %s: %w", id, ErrNotFound)
		}
		return err
	}

	existingDoc["is_deleted"] = true
	existingDoc["updated_at"] = time.Now()

	_, err := db.Put(context.Background(), docID, existingDoc)
	if err != nil {
		return fmt.Errorf("failed to delete highlight: %w", err)
	}

	return nil
}
