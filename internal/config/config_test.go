package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Outbox.Backend != "memory" {
		t.Errorf("expected memory outbox by default, got %s", cfg.Outbox.Backend)
	}
	if cfg.Session.RemovalPolicy != "confirm" {
		t.Errorf("expected confirm removal policy by default, got %s", cfg.Session.RemovalPolicy)
	}
	if !cfg.WebSocket.Enabled {
		t.Error("expected websocket enabled by default")
	}
	if cfg.WebSocket.PingPeriod >= cfg.WebSocket.PongWait {
		t.Errorf("expected ping period below pong wait, got %v >= %v", cfg.WebSocket.PingPeriod, cfg.WebSocket.PongWait)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("OUTBOX_BACKEND", "Redis")
	t.Setenv("OUTBOX_REDIS_URL", "rediss://cache:6380/1")
	t.Setenv("REMOTE_RETRY_WAIT_MIN", "250ms")
	t.Setenv("REMOTE_RETRY_MAX", "7")
	t.Setenv("SESSION_REMOVAL_POLICY", "immediate")
	t.Setenv("WS_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Outbox.Backend != "redis" || cfg.Outbox.RedisURL != "rediss://cache:6380/1" {
		t.Errorf("unexpected outbox config %+v", cfg.Outbox)
	}
	if cfg.Remote.RetryWaitMin != 250*time.Millisecond || cfg.Remote.RetryMax != 7 {
		t.Errorf("unexpected remote config %+v", cfg.Remote)
	}
	if cfg.Session.RemovalPolicy != "immediate" {
		t.Errorf("expected immediate policy, got %s", cfg.Session.RemovalPolicy)
	}
	if cfg.WebSocket.Enabled {
		t.Error("expected websocket disabled")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"REMOTE_TIMEOUT", "soon"},
		{"OUTBOX_BACKEND", "kafka"},
		{"SESSION_REMOVAL_POLICY", "never"},
		{"WS_PONG_WAIT", "-"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
