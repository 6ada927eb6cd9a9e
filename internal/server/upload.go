package server

import (
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// archiveExtension is the only accepted upload suffix, checked
// case-insensitively against the client-supplied filename.
const archiveExtension = ".jar"

// fallbackOriginalName stands in when the multipart part carries no
// filename at all. It ends in .jar, so such uploads pass the extension
// check, matching upstream behavior.
const fallbackOriginalName = "plugin.jar"

// maxUploadBytes reads HUB_MAX_UPLOAD_BYTES and returns the request size
// cap in bytes. Returns 0 if unset (no limit) and an error if the value
// cannot be parsed.
func maxUploadBytes() (int64, error) {
	raw := os.Getenv("HUB_MAX_UPLOAD_BYTES")
	if raw == "" {
		return 0, nil // no limit configured
	}
	return strconv.ParseInt(raw, 10, 64)
}

// uploadHandler handles POST /api/plugins/upload. The transaction order is
// fixed: authorize, validate, write the blob, insert metadata, and on
// insert failure delete the just-written blob before surfacing the insert
// error. The compensating delete is best-effort; its own failure is logged
// and swallowed so it never masks the original error.
//
// Form fields: name (required), description, version, file (must end .jar).
// Authentication: X-Owner-Key header.
func (cfg Config) uploadHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		if !cfg.ownerAuthorized(r.Header.Get(ownerKeyHeader)) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		limit, err := maxUploadBytes()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server misconfigured")
			return
		}
		if limit > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, http.StatusRequestEntityTooLarge, "File too large")
				return
			}
			writeError(w, http.StatusBadRequest, "Missing file")
			return
		}
		defer func() { _ = file.Close() }()

		name := strings.TrimSpace(r.FormValue("name"))
		if name == "" {
			writeError(w, http.StatusBadRequest, "Missing plugin name")
			return
		}
		description := r.FormValue("description")
		version := r.FormValue("version")

		originalName := header.Filename
		if originalName == "" {
			originalName = fallbackOriginalName
		}
		if !strings.HasSuffix(strings.ToLower(originalName), archiveExtension) {
			writeError(w, http.StatusBadRequest, "Only .jar files are allowed")
			return
		}

		// Whole-file read: uploads are plugin archives, small enough to
		// buffer, and the blob write must be all-or-nothing.
		contents, err := io.ReadAll(file)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, http.StatusRequestEntityTooLarge, "File too large")
				return
			}
			GetMetrics().RecordUploadError()
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		storedName := storedFilename(originalName, time.Now())
		if err := cfg.Blobs.Save(storedName, contents); err != nil {
			rid := RequestIDFromContext(r.Context())
			Error("blob write failed", map[string]any{"rid": rid, "stored_name": storedName}, err)
			GetMetrics().RecordUploadError()
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		plugin := &Plugin{
			Name:         name,
			Description:  nullString(description),
			Version:      nullString(version),
			Filename:     storedName,
			OriginalName: originalName,
			FileSize:     int64(len(contents)),
		}

		id, err := cfg.Store.Insert(r.Context(), plugin)
		if err != nil {
			// Roll back the blob so a failed insert leaves no orphan file.
			if rmErr := cfg.Blobs.Remove(storedName); rmErr != nil {
				rid := RequestIDFromContext(r.Context())
				Warn("rollback delete failed", map[string]any{
					"rid":         rid,
					"stored_name": storedName,
					"error":       rmErr.Error(),
				})
			}
			GetMetrics().RecordUploadError()
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		rid := RequestIDFromContext(r.Context())
		Info("plugin uploaded", map[string]any{
			"rid":        rid,
			"id":         id,
			"name":       name,
			"size_bytes": len(contents),
		})
		GetMetrics().RecordUpload(int64(len(contents)))

		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
	})
}

// nullString maps an empty form value to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
