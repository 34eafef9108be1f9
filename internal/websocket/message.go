package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	TypeHighlightUpdate  MessageType = "highlight_update"
	TypeHighlightDelete  MessageType = "highlight_delete"
	TypeProgressUpdate   MessageType = "progress_update"
	TypeManifestRequest  MessageType = "manifest_request"
	TypeManifestResponse MessageType = "manifest_response"
	TypeError            MessageType = "error"
	TypePing             MessageType = "ping"
	TypePong             MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type HighlightUpdatePayload struct {
	HighlightID string          `json:"highlight_id"`
	ShortID     string          `json:"short_id"`
	ArticleID   string          `json:"article_id"`
	Quote       string          `json:"quote"`
	Patch       json.RawMessage `json:"patch,omitempty"`
	Annotation  string          `json:"annotation"`
	MergedIDs   []string        `json:"merged_ids,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeviceID    string          `json:"device_id"`
}

type HighlightDeletePayload struct {
	HighlightIDs []string `json:"highlight_ids"`
	ArticleID    string   `json:"article_id"`
	DeviceID     string   `json:"device_id"`
}

type ProgressUpdatePayload struct {
	ArticleID                  string  `json:"article_id"`
	ReadingProgressPercent     float64 `json:"reading_progress_percent"`
	ReadingProgressAnchorIndex int     `json:"reading_progress_anchor_index"`
	DeviceID                   string  `json:"device_id"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
