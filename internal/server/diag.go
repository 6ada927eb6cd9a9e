package server

import (
	"context"
	"net/http"
	"os"
	"time"
)

// diagStatus is the GET /test response: a coarse snapshot of store
// connectivity and configuration presence, meant for eyeballing a fresh
// deployment rather than machine consumption.
type diagStatus struct {
	Backend          string   `json:"backend"`
	Database         string   `json:"database"`
	ConnectionStatus string   `json:"connection_status"`
	Tables           []string `json:"tables"`
	DatabaseURL      string   `json:"database_url"`
	DatabaseName     string   `json:"database_name"`
	OwnerKey         string   `json:"owner_key"`
}

// testHandler handles GET /test. Never fails: every probe result lands in
// the body, including the broken ones.
func (cfg Config) testHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		status := diagStatus{
			Backend:          "running",
			Database:         "not available",
			ConnectionStatus: "not connected",
			Tables:           []string{},
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if cfg.Store != nil {
			if err := cfg.Store.Ping(ctx); err != nil {
				status.Database = "error: " + truncate(err.Error(), 80)
			} else {
				status.Database = "connected"
				status.ConnectionStatus = "connected"

				tables, err := cfg.Store.TableNames(ctx)
				if err != nil {
					status.Database = "connected but error: " + truncate(err.Error(), 80)
				} else {
					if len(tables) > 10 {
						tables = tables[:10]
					}
					status.Tables = tables
				}
			}
		}

		status.DatabaseURL = presenceFlag(os.Getenv("DATABASE_URL") != "")
		status.DatabaseName = presenceFlag(os.Getenv("DATABASE_NAME") != "")
		if cfg.OwnerKey == "" || cfg.OwnerKey == DefaultOwnerKey {
			status.OwnerKey = "default"
		} else {
			status.OwnerKey = "set"
		}

		writeJSON(w, http.StatusOK, status)
	})
}

func presenceFlag(set bool) string {
	if set {
		return "set"
	}
	return "not set"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
