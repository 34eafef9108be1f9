package handler

import (
	"net/http"

	"highlight-sync/internal/config"
	"highlight-sync/internal/middleware"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Articles   *ArticleHandler
	Highlights *HighlightHandler
	// WebSocket is optional; /ws is not mounted without it.
	WebSocket *WebSocketHandler
}

func NewRouter(h Handlers, cors config.CORSConfig) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(
		cors.AllowedOrigins,
		cors.AllowedMethods,
		cors.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.DeviceMiddleware())

	api.HandleFunc("/articles", h.Articles.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/articles/{slug}", h.Articles.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/articles/{id}/progress", h.Articles.UpdateProgress).Methods("PUT", "OPTIONS")
	api.HandleFunc("/articles/{id}/manifest", h.Articles.GetManifest).Methods("GET", "OPTIONS")

	api.HandleFunc("/highlights", h.Highlights.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/highlights/merge", h.Highlights.Merge).Methods("POST", "OPTIONS")
	api.HandleFunc("/highlights/delete", h.Highlights.Delete).Methods("POST", "OPTIONS")
	api.HandleFunc("/highlights/{id}/note", h.Highlights.UpdateNote).Methods("PUT", "OPTIONS")

	if h.WebSocket != nil {
		r.HandleFunc("/ws", h.WebSocket.HandleConnection)
	}

	r.HandleFunc("/health", healthHandler).Methods("GET")

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"highlight-sync"}`))
}
