package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// downloadContentType is served for every archive; uploads are .jar only.
const downloadContentType = "application/java-archive"

// downloadHandler handles GET /api/plugins/{id}/download. The sequence is
// validate -> locate -> count -> stream, with an early exit at each step.
// The counter increment is issued before the first byte goes out, so a
// client that disconnects mid-transfer still counts as an attempt.
func (cfg Config) downloadHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		id, ok := downloadPathID(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		if !isPluginID(id) {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}

		plugin, err := cfg.Store.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, ErrPluginNotFound) {
				writeError(w, http.StatusNotFound, "Not found")
				return
			}
			GetMetrics().RecordDownloadError()
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		// Distinct condition: the record exists but its blob is gone.
		info, err := cfg.Blobs.Stat(plugin.Filename)
		if err != nil {
			if os.IsNotExist(err) {
				rid := RequestIDFromContext(r.Context())
				Warn("blob missing for plugin", map[string]any{
					"rid":         rid,
					"id":          id,
					"stored_name": plugin.Filename,
				})
				writeError(w, http.StatusNotFound, "File missing on server")
				return
			}
			GetMetrics().RecordDownloadError()
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		// Count-on-attempt: the increment lands before streaming starts.
		if err := cfg.Store.IncrementDownloads(r.Context(), id); err != nil {
			GetMetrics().RecordDownloadError()
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		f, err := cfg.Blobs.Open(plugin.Filename)
		if err != nil {
			GetMetrics().RecordDownloadError()
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer func() { _ = f.Close() }()

		downloadName := plugin.OriginalName
		if downloadName == "" {
			downloadName = plugin.Filename
		}

		w.Header().Set("Content-Type", downloadContentType)
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, downloadName))
		w.WriteHeader(http.StatusOK)

		n, _ := io.Copy(w, f)
		GetMetrics().RecordDownload(n)
	})
}

// downloadPathID extracts the id from /api/plugins/{id}/download.
func downloadPathID(p string) (string, bool) {
	rest, ok := strings.CutPrefix(p, "/api/plugins/")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/download")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
