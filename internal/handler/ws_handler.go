package handler

import (
	"log"
	"net/http"

	"highlight-sync/internal/service"
	"highlight-sync/internal/websocket"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	manager        *websocket.Manager
	maxMessageSize int64
	upgrader       ws.Upgrader
}

func NewWebSocketHandler(manager *websocket.Manager, readBufferSize, writeBufferSize int, maxMessageSize int64) *WebSocketHandler {
	return &WebSocketHandler{
		manager:        manager,
		maxMessageSize: maxMessageSize,
		upgrader: ws.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleConnection subscribes a device to the changes of one article.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	articleID := r.URL.Query().Get("article_id")
	if articleID == "" {
		log.Printf("[WebSocket] Missing article_id")
		http.Error(w, "missing article_id", http.StatusBadRequest)
		return
	}

	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		deviceID = "default"
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WebSocket] Failed to upgrade connection: %v", err)
		return
	}

	log.Printf("[WebSocket] Device %s subscribed to article %s", deviceID, articleID)

	clientID := uuid.New().String()
	client := websocket.NewClient(clientID, articleID, deviceID, conn, h.manager)

	h.manager.Register <- client

	go client.WritePump()
	go client.ReadPump(h.maxMessageSize)
}

type WebSocketMessageHandler struct {
	syncService *service.SyncService
}

func NewWebSocketMessageHandler(syncService *service.SyncService) *WebSocketMessageHandler {
	return &WebSocketMessageHandler{
		syncService: syncService,
	}
}

func (h *WebSocketMessageHandler) HandleWebSocketMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeManifestRequest:
		return h.handleManifestRequest(client)

	case websocket.TypePing:
		return h.reply(client, websocket.TypePong, nil)

	default:
		log.Printf("[WebSocket] unknown message type: %s", msg.Type)
	}

	return nil
}

func (h *WebSocketMessageHandler) handleManifestRequest(client *websocket.Client) error {
	manifest, err := h.syncService.GetManifest(client.ArticleID)
	if err != nil {
		h.reply(client, websocket.TypeError, &websocket.ErrorPayload{Error: "failed to build manifest"})
		return err
	}

	return h.reply(client, websocket.TypeManifestResponse, manifest)
}

func (h *WebSocketMessageHandler) reply(client *websocket.Client, msgType websocket.MessageType, payload interface{}) error {
	msg, err := websocket.NewMessage(msgType, payload)
	if err != nil {
		return err
	}

	return client.Manager.SendToClient(client.ID, msg)
}
