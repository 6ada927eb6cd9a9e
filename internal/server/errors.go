package server

import (
	"encoding/json"
	"net/http"
)

// errorBody is the JSON envelope for every non-2xx response. The detail
// string is human-readable; internal errors surface the underlying message
// since the audience is a trusted owner-operated deployment.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}
