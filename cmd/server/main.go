package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"highlight-sync/internal/config"
	"highlight-sync/internal/handler"
	"highlight-sync/internal/repository"
	"highlight-sync/internal/service"
	"highlight-sync/internal/websocket"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Logging.Level == "debug" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		log.Fatalf("Failed to connect to CouchDB: %v", err)
	}

	exists, err := client.DBExists(context.Background(), cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to check database existence: %v", err)
	}

	if !exists {
		if err := client.CreateDB(context.Background(), cfg.Database.Name); err != nil {
			log.Fatalf("Failed to create database: %v", err)
		}
		log.Printf("Created database: %s", cfg.Database.Name)
	}

	if err := ensureIndexes(client.DB(cfg.Database.Name)); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	highlightRepo := repository.NewHighlightRepository(client, cfg.Database.Name)
	articleRepo := repository.NewArticleRepository(client, cfg.Database.Name)

	var wsManager *websocket.Manager
	if cfg.WebSocket.Enabled {
		wsManager = websocket.NewManager(
			cfg.WebSocket.MaxConnPerArticle,
			cfg.WebSocket.WriteWait,
			cfg.WebSocket.PongWait,
			cfg.WebSocket.PingPeriod,
		)
		go wsManager.Run()
	}

	syncService := service.NewSyncService(highlightRepo, wsManager)
	highlightService := service.NewHighlightService(highlightRepo, articleRepo, syncService)
	articleService := service.NewArticleService(articleRepo, highlightService, syncService)

	handlers := handler.Handlers{
		Articles:   handler.NewArticleHandler(articleService, syncService),
		Highlights: handler.NewHighlightHandler(highlightService),
	}
	if wsManager != nil {
		wsManager.SetMessageHandler(handler.NewWebSocketMessageHandler(syncService))
		handlers.WebSocket = handler.NewWebSocketHandler(
			wsManager,
			cfg.WebSocket.ReadBufferSize,
			cfg.WebSocket.WriteBufferSize,
			cfg.WebSocket.MaxMessageSize,
		)
	}

	r := handler.NewRouter(handlers, cfg.CORS)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting highlight sync server on %s (env: %s)", addr, cfg.Server.Env)
		log.Printf("Connected to CouchDB at %s:%s", cfg.Database.Host, cfg.Database.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

// ensureIndexes creates the Mango indexes behind the article and slug lookups.
func ensureIndexes(db *kivik.DB) error {
	indexes := map[string]interface{}{
		"highlights-by-article": map[string]interface{}{"fields": []string{"article_id", "short_id"}},
		"articles-by-slug":      map[string]interface{}{"fields": []string{"slug"}},
	}

	for name, index := range indexes {
		if err := db.CreateIndex(context.Background(), "", name, index); err != nil {
			return fmt.Errorf("index %s: %w", name, err)
		}
	}
	return nil
}
