package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func seedPlugins(t *testing.T, store *fakeStore, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p := &Plugin{
			Name:         "Plugin " + string(rune('A'+i)),
			Filename:     "20250101000000_plugin.jar",
			OriginalName: "plugin.jar",
			FileSize:     10,
		}
		id, err := store.Insert(context.Background(), p)
		if err != nil {
			t.Fatalf("seed insert: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestListHandler_InsertionOrder(t *testing.T) {
	cfg, store := newTestConfig(t)
	ids := seedPlugins(t, store, 3)

	req := httptest.NewRequest(http.MethodGet, "/api/plugins", nil)
	rr := httptest.NewRecorder()
	cfg.listHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp struct {
		Plugins []pluginSummary `json:"plugins"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Plugins) != 3 {
		t.Fatalf("expected 3 plugins, got %d", len(resp.Plugins))
	}
	for i, p := range resp.Plugins {
		if p.ID != ids[i] {
			t.Errorf("position %d: id = %s, want %s", i, p.ID, ids[i])
		}
	}
}

func TestListHandler_Limit(t *testing.T) {
	cfg, store := newTestConfig(t)
	seedPlugins(t, store, 5)

	req := httptest.NewRequest(http.MethodGet, "/api/plugins?limit=2", nil)
	rr := httptest.NewRecorder()
	cfg.listHandler().ServeHTTP(rr, req)

	var resp struct {
		Plugins []pluginSummary `json:"plugins"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Plugins) != 2 {
		t.Errorf("expected 2 plugins with limit=2, got %d", len(resp.Plugins))
	}
}

func TestListHandler_InvalidLimit(t *testing.T) {
	cfg, _ := newTestConfig(t)

	req := httptest.NewRequest(http.MethodGet, "/api/plugins?limit=abc", nil)
	rr := httptest.NewRecorder()
	cfg.listHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-integer limit, got %d", rr.Code)
	}
}

func TestListHandler_Empty(t *testing.T) {
	cfg, _ := newTestConfig(t)

	req := httptest.NewRequest(http.MethodGet, "/api/plugins", nil)
	rr := httptest.NewRecorder()
	cfg.listHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"plugins":[]`) {
		t.Errorf("expected empty array, got %s", rr.Body.String())
	}
}

func TestListHandler_NeverExposesStoredFilename(t *testing.T) {
	cfg, store := newTestConfig(t)

	p := &Plugin{
		Name:         "Secret Location",
		Filename:     "20250101000000_do-not-leak.jar",
		OriginalName: "visible.jar",
		FileSize:     42,
	}
	if _, err := store.Insert(context.Background(), p); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/plugins", nil)
	rr := httptest.NewRecorder()
	cfg.listHandler().ServeHTTP(rr, req)

	body := rr.Body.String()
	if strings.Contains(body, "do-not-leak") {
		t.Errorf("listing leaked the stored filename: %s", body)
	}
	if strings.Contains(body, `"filename"`) {
		t.Errorf("listing contains a filename field: %s", body)
	}
	if !strings.Contains(body, "visible.jar") {
		t.Errorf("listing should show original_name: %s", body)
	}
}

func TestListHandler_OptionalFieldsNull(t *testing.T) {
	cfg, store := newTestConfig(t)

	p := &Plugin{
		Name:         "Bare",
		Description:  sql.NullString{},
		Version:      sql.NullString{},
		Filename:     "20250101000000_bare.jar",
		OriginalName: "bare.jar",
	}
	if _, err := store.Insert(context.Background(), p); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/plugins", nil)
	rr := httptest.NewRecorder()
	cfg.listHandler().ServeHTTP(rr, req)

	body := rr.Body.String()
	if !strings.Contains(body, `"description":null`) {
		t.Errorf("expected null description, got %s", body)
	}
	if !strings.Contains(body, `"version":null`) {
		t.Errorf("expected null version, got %s", body)
	}
}

func TestListHandler_StoreError(t *testing.T) {
	cfg, store := newTestConfig(t)
	store.listErr = errors.New("store unavailable")

	req := httptest.NewRequest(http.MethodGet, "/api/plugins", nil)
	rr := httptest.NewRecorder()
	cfg.listHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var resp errorBody
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Detail != "store unavailable" {
		t.Errorf("detail = %q, want the store error", resp.Detail)
	}
}
