package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"net/http"
)

// DefaultOwnerKey is the insecure placeholder used when OWNER_KEY is unset.
// Operators must override it; main logs a warning when it is in effect.
const DefaultOwnerKey = "changeme"

// ownerKeyHeader carries the owner credential on mutating requests.
const ownerKeyHeader = "X-Owner-Key"

// ownerAuthorized compares a caller-supplied token against the configured
// owner key. Fails closed on a missing token. Both sides are hashed so the
// comparison is constant-time regardless of length.
func (cfg Config) ownerAuthorized(token string) bool {
	if token == "" {
		return false
	}
	got := sha256.Sum256([]byte(token))
	want := sha256.Sum256([]byte(cfg.OwnerKey))
	return hmac.Equal(got[:], want[:])
}

// verifyHandler handles POST /api/auth/verify. The owner key arrives in the
// JSON body; a mismatch is a 401 with the upstream-compatible detail string.
func (cfg Config) verifyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var body struct {
			Key string `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		ok := cfg.ownerAuthorized(body.Key)
		GetMetrics().RecordVerify(ok)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid key")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
}
