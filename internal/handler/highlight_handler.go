package handler

import (
	"encoding/json"
	"net/http"

	"highlight-sync/internal/domain"
	"highlight-sync/internal/middleware"
	"highlight-sync/internal/service"
	"highlight-sync/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type HighlightHandler struct {
	service  *service.HighlightService
	validate *validator.Validate
}

func NewHighlightHandler(service *service.HighlightService) *HighlightHandler {
	return &HighlightHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *HighlightHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateHighlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	highlight, err := h.service.Create(middleware.GetDeviceID(r), &req)
	if err != nil {
		writeServiceError(w, "create highlight", err)
		return
	}

	response.Created(w, highlight)
}

func (h *HighlightHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req domain.MergeHighlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	highlight, err := h.service.Merge(middleware.GetDeviceID(r), &req)
	if err != nil {
		writeServiceError(w, "merge highlights", err)
		return
	}

	response.Created(w, highlight)
}

func (h *HighlightHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req domain.DeleteHighlightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	res, err := h.service.Delete(middleware.GetDeviceID(r), &req)
	if err != nil {
		writeServiceError(w, "delete highlights", err)
		return
	}

	response.Success(w, res)
}

func (h *HighlightHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	highlightID := mux.Vars(r)["id"]
	if highlightID == "" {
		response.BadRequest(w, "Highlight ID is required")
		return
	}

	var req domain.UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	highlight, err := h.service.UpdateNote(middleware.GetDeviceID(r), highlightID, &req)
	if err != nil {
		writeServiceError(w, "update note", err)
		return
	}

	response.Success(w, highlight)
}
