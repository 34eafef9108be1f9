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

type ArticleHandler struct {
	service     *service.ArticleService
	syncService *service.SyncService
	validate    *validator.Validate
}

func NewArticleHandler(service *service.ArticleService, syncService *service.SyncService) *ArticleHandler {
	return &ArticleHandler{
		service:     service,
		syncService: syncService,
		validate:    validator.New(),
	}
}

func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	article, err := h.service.Create(&req)
	if err != nil {
		writeServiceError(w, "create article", err)
		return
	}

	response.Created(w, article)
}

func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	if slug == "" {
		response.BadRequest(w, "Article slug is required")
		return
	}

	doc, err := h.service.Load(slug)
	if err != nil {
		writeServiceError(w, "load article", err)
		return
	}

	response.Success(w, doc)
}

func (h *ArticleHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	articleID := mux.Vars(r)["id"]
	if articleID == "" {
		response.BadRequest(w, "Article ID is required")
		return
	}

	var req domain.UpdateProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	progress, err := h.service.UpdateProgress(middleware.GetDeviceID(r), articleID, &req)
	if err != nil {
		writeServiceError(w, "update progress", err)
		return
	}

	response.Success(w, progress)
}

func (h *ArticleHandler) GetManifest(w http.ResponseWriter, r *http.Request) {
	articleID := mux.Vars(r)["id"]
	if articleID == "" {
		response.BadRequest(w, "Article ID is required")
		return
	}

	manifest, err := h.syncService.GetManifest(articleID)
	if err != nil {
		writeServiceError(w, "build manifest", err)
		return
	}

	response.Success(w, manifest)
}
