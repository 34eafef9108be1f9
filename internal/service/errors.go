package service

import "errors"

var (
	ErrHighlightNotFound = errors.New("highlight not found")
	ErrHighlightDeleted  = errors.New("highlight was deleted")
	ErrArticleNotFound   = errors.New("article not found")
	ErrArticleMismatch   = errors.New("highlight belongs to another article")
	ErrSlugTaken         = errors.New("article slug already exists")
	ErrInvalidPatch      = errors.New("invalid highlight patch")
)
