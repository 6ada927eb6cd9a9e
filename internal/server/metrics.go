package server

import (
	"net/http"
	"sync"
)

// Metrics holds in-process application counters.
type Metrics struct {
	mu sync.RWMutex

	uploadsTotal      int64
	uploadBytesTotal  int64
	uploadErrorsTotal int64

	downloadsTotal      int64
	downloadBytesTotal  int64
	downloadErrorsTotal int64

	verifyAttemptsTotal int64
	verifySuccessTotal  int64

	requestsTotal    int64
	requestErrors4xx int64
	requestErrors5xx int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordUpload records a successful upload
func (m *Metrics) RecordUpload(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadsTotal++
	m.uploadBytesTotal += bytes
}

// RecordUploadError records a failed upload
func (m *Metrics) RecordUploadError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadErrorsTotal++
}

// RecordDownload records a served download
func (m *Metrics) RecordDownload(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadsTotal++
	m.downloadBytesTotal += bytes
}

// RecordDownloadError records a failed download
func (m *Metrics) RecordDownloadError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadErrorsTotal++
}

// RecordVerify records an owner-key verification attempt
func (m *Metrics) RecordVerify(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyAttemptsTotal++
	if success {
		m.verifySuccessTotal++
	}
}

// RecordRequest records an HTTP request by status class
func (m *Metrics) RecordRequest(statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsTotal++
	if statusCode >= 500 {
		m.requestErrors5xx++
	} else if statusCode >= 400 {
		m.requestErrors4xx++
	}
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	UploadsTotal      int64 `json:"uploads_total"`
	UploadBytesTotal  int64 `json:"upload_bytes_total"`
	UploadErrorsTotal int64 `json:"upload_errors_total"`

	DownloadsTotal      int64 `json:"downloads_total"`
	DownloadBytesTotal  int64 `json:"download_bytes_total"`
	DownloadErrorsTotal int64 `json:"download_errors_total"`

	VerifyAttemptsTotal int64 `json:"verify_attempts_total"`
	VerifySuccessTotal  int64 `json:"verify_success_total"`

	RequestsTotal    int64 `json:"requests_total"`
	RequestErrors4xx int64 `json:"request_errors_4xx"`
	RequestErrors5xx int64 `json:"request_errors_5xx"`
}

// Snapshot returns a copy of current metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MetricsSnapshot{
		UploadsTotal:        m.uploadsTotal,
		UploadBytesTotal:    m.uploadBytesTotal,
		UploadErrorsTotal:   m.uploadErrorsTotal,
		DownloadsTotal:      m.downloadsTotal,
		DownloadBytesTotal:  m.downloadBytesTotal,
		DownloadErrorsTotal: m.downloadErrorsTotal,
		VerifyAttemptsTotal: m.verifyAttemptsTotal,
		VerifySuccessTotal:  m.verifySuccessTotal,
		RequestsTotal:       m.requestsTotal,
		RequestErrors4xx:    m.requestErrors4xx,
		RequestErrors5xx:    m.requestErrors5xx,
	}
}

// metricsHandler serves GET /metrics as a JSON snapshot.
func metricsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, GetMetrics().Snapshot())
	})
}
