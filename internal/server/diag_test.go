package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTestHandler_Connected(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hub")
	t.Setenv("DATABASE_NAME", "")

	cfg, _ := newTestConfig(t)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	cfg.testHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var status diagStatus
	if err := json.NewDecoder(rr.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Backend != "running" {
		t.Errorf("backend = %q", status.Backend)
	}
	if status.Database != "connected" {
		t.Errorf("database = %q", status.Database)
	}
	if status.ConnectionStatus != "connected" {
		t.Errorf("connection_status = %q", status.ConnectionStatus)
	}
	if len(status.Tables) != 1 || status.Tables[0] != "plugins" {
		t.Errorf("tables = %v", status.Tables)
	}
	if status.DatabaseURL != "set" {
		t.Errorf("database_url flag = %q", status.DatabaseURL)
	}
	if status.DatabaseName != "not set" {
		t.Errorf("database_name flag = %q", status.DatabaseName)
	}
}

func TestTestHandler_StoreDown(t *testing.T) {
	cfg, store := newTestConfig(t)
	store.pingErr = errors.New("connection refused")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	cfg.testHandler().ServeHTTP(rr, req)

	// Diagnostics always answer 200; the body carries the failure.
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var status diagStatus
	if err := json.NewDecoder(rr.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.ConnectionStatus != "not connected" {
		t.Errorf("connection_status = %q", status.ConnectionStatus)
	}
	if status.Database == "connected" {
		t.Errorf("database should report the ping failure, got %q", status.Database)
	}
}

func TestTestHandler_OwnerKeyFlag(t *testing.T) {
	cfg, _ := newTestConfig(t)

	tests := []struct {
		key  string
		want string
	}{
		{"real-secret", "set"},
		{DefaultOwnerKey, "default"},
		{"", "default"},
	}
	for _, tt := range tests {
		cfg.OwnerKey = tt.key
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rr := httptest.NewRecorder()
		cfg.testHandler().ServeHTTP(rr, req)

		var status diagStatus
		if err := json.NewDecoder(rr.Body).Decode(&status); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if status.OwnerKey != tt.want {
			t.Errorf("owner_key flag for %q = %q, want %q", tt.key, status.OwnerKey, tt.want)
		}
	}
}
