package domain

import "time"

type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Article struct {
	ID                         string    `json:"id"`
	Slug                       string    `json:"slug"`
	Title                      string    `json:"title"`
	Content                    string    `json:"content"`
	URL                        string    `json:"url"`
	Labels                     []Label   `json:"labels"`
	ReadingProgressPercent     float64   `json:"reading_progress_percent"`
	ReadingProgressAnchorIndex int       `json:"reading_progress_anchor_index"`
	CreatedAt                  time.Time `json:"created_at"`
	UpdatedAt                  time.Time `json:"updated_at"`
}

type CreateArticleRequest struct {
	Slug    string  `json:"slug" validate:"required,min=1,max=200"`
	Title   string  `json:"title" validate:"required"`
	Content string  `json:"content"`
	URL     string  `json:"url" validate:"omitempty,url"`
	Labels  []Label `json:"labels"`
}

type UpdateProgressRequest struct {
	ReadingProgressPercent     float64 `json:"reading_progress_percent" validate:"gte=0,lte=100"`
	ReadingProgressAnchorIndex int     `json:"reading_progress_anchor_index" validate:"gte=0"`
}

type ProgressResponse struct {
	ArticleID                  string  `json:"article_id"`
	ReadingProgressPercent     float64 `json:"reading_progress_percent"`
	ReadingProgressAnchorIndex int     `json:"reading_progress_anchor_index"`
	Advanced                   bool    `json:"advanced"`
}

// Document is what a device receives when it opens an article.
type Document struct {
	ID                         string               `json:"id"`
	Slug                       string               `json:"slug"`
	Title                      string               `json:"title"`
	Content                    string               `json:"content"`
	URL                        string               `json:"url"`
	Highlights                 []*HighlightResponse `json:"highlights"`
	Labels                     []Label              `json:"labels"`
	ReadingProgressPercent     float64              `json:"reading_progress_percent"`
	ReadingProgressAnchorIndex int                  `json:"reading_progress_anchor_index"`
}

type ManifestEntry struct {
	ID          string    `json:"id"`
	ShortID     string    `json:"short_id"`
	ContentHash string    `json:"content_hash"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ManifestResponse struct {
	ArticleID  string          `json:"article_id"`
	Highlights []ManifestEntry `json:"highlights"`
	SyncTime   time.Time       `json:"sync_time"`
}
