package handler

import (
	"errors"
	"log"
	"net/http"

	"highlight-sync/internal/service"
	"highlight-sync/pkg/response"
)

// writeServiceError maps service errors to HTTP statuses. Anything unknown is
// logged and reported as a 500 so the device retries it.
func writeServiceError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, service.ErrHighlightNotFound), errors.Is(err, service.ErrArticleNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, service.ErrHighlightDeleted):
		response.Gone(w, err.Error())
	case errors.Is(err, service.ErrSlugTaken):
		response.Conflict(w, err.Error())
	case errors.Is(err, service.ErrArticleMismatch), errors.Is(err, service.ErrInvalidPatch):
		response.BadRequest(w, err.Error())
	default:
		log.Printf("[Handler] failed to %s: %v", action, err)
		response.InternalError(w, "Failed to "+action)
	}
}
