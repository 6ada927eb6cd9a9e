package server

import (
	"net/http"
	"strconv"
	"time"
)

// pluginSummary is the public projection of a Plugin record. The stored
// filename is deliberately absent: clients only ever see the original
// upload name.
type pluginSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	Version       *string   `json:"version"`
	OriginalName  string    `json:"original_name"`
	FileSize      int64     `json:"file_size"`
	DownloadCount int64     `json:"download_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func summarize(p Plugin) pluginSummary {
	s := pluginSummary{
		ID:            p.ID,
		Name:          p.Name,
		OriginalName:  p.OriginalName,
		FileSize:      p.FileSize,
		DownloadCount: p.DownloadCount,
		CreatedAt:     p.CreatedAt,
	}
	if p.Description.Valid {
		s.Description = &p.Description.String
	}
	if p.Version.Valid {
		s.Version = &p.Version.String
	}
	return s
}

// listHandler handles GET /api/plugins?limit=N. Records come back in store
// insertion order; a store failure is a 500 with no partial results.
func (cfg Config) listHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid limit")
				return
			}
			limit = n
		}

		plugins, err := cfg.Store.List(r.Context(), limit)
		if err != nil {
			rid := RequestIDFromContext(r.Context())
			Error("list plugins failed", map[string]any{"rid": rid}, err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		// Normalized shape, never nil even when the store is empty.
		out := make([]pluginSummary, 0, len(plugins))
		for _, p := range plugins {
			out = append(out, summarize(p))
		}
		writeJSON(w, http.StatusOK, map[string]any{"plugins": out})
	})
}
