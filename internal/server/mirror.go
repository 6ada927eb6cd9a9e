// mirror.go - Scheduled off-site copy of the uploads directory.
//
// The serving path is local disk only; the mirror is an operator
// convenience that pushes each stored archive to an S3-compatible bucket
// on a timer. Failures are logged and retried on the next tick, never
// surfaced to request handling.
package server

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MirrorConfig contains configuration for the uploads mirror.
type MirrorConfig struct {
	Enabled  bool          // Enable the mirror scheduler
	Interval time.Duration // Scan interval
	Bucket   string        // Destination bucket
	Prefix   string        // Object key prefix inside the bucket
}

// MirrorManager copies stored archives to object storage on a schedule.
type MirrorManager struct {
	config   MirrorConfig
	blobs    *BlobStore
	client   *minio.Client
	stopChan chan struct{}
}

// NewMirrorManager creates a mirror over blobs using client.
func NewMirrorManager(config MirrorConfig, blobs *BlobStore, client *minio.Client) *MirrorManager {
	return &MirrorManager{
		config:   config,
		blobs:    blobs,
		client:   client,
		stopChan: make(chan struct{}),
	}
}

// Start begins the mirror scheduler.
func (mm *MirrorManager) Start() {
	if !mm.config.Enabled {
		Info("uploads mirror disabled", nil)
		return
	}

	Info("uploads mirror started", map[string]any{
		"interval": mm.config.Interval.String(),
		"bucket":   mm.config.Bucket,
		"prefix":   mm.config.Prefix,
	})

	ticker := time.NewTicker(mm.config.Interval)
	go func() {
		// Initial sync before the first tick.
		mm.syncOnce()
		for {
			select {
			case <-ticker.C:
				mm.syncOnce()
			case <-mm.stopChan:
				ticker.Stop()
				Info("uploads mirror stopped", nil)
				return
			}
		}
	}()
}

// Stop halts the mirror scheduler.
func (mm *MirrorManager) Stop() {
	close(mm.stopChan)
}

// syncOnce uploads every local archive missing from the bucket.
func (mm *MirrorManager) syncOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	entries, err := os.ReadDir(mm.blobs.Root())
	if err != nil {
		Error("mirror: read uploads dir failed", map[string]any{"dir": mm.blobs.Root()}, err)
		return
	}

	var copied int
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		key := mm.objectKey(entry.Name())
		if mm.objectExists(ctx, key) {
			continue
		}

		_, err := mm.client.FPutObject(ctx, mm.config.Bucket, key, mm.blobs.Path(entry.Name()),
			minio.PutObjectOptions{ContentType: downloadContentType})
		if err != nil {
			Error("mirror: upload failed", map[string]any{"key": key}, err)
			continue
		}
		copied++
	}

	if copied > 0 {
		Info("mirror sync complete", map[string]any{"copied": copied})
	}
}

func (mm *MirrorManager) objectKey(name string) string {
	if mm.config.Prefix == "" {
		return name
	}
	return strings.TrimSuffix(mm.config.Prefix, "/") + "/" + name
}

func (mm *MirrorManager) objectExists(ctx context.Context, key string) bool {
	_, err := mm.client.StatObject(ctx, mm.config.Bucket, key, minio.StatObjectOptions{})
	return err == nil
}

// normaliseEndpoint accepts either "minio:9000" or a http(s) URL and
// returns the host plus whether TLS should be used.
func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		secure = (u.Scheme == "https")
		return u.Host, secure, nil
	}

	// No scheme provided, treat as host:port (insecure by default for local MinIO).
	return raw, false, nil
}

// NewMirrorClient builds the object storage client from HUB_S3_* variables.
func NewMirrorClient() (*minio.Client, error) {
	rawEndpoint := os.Getenv("HUB_S3_ENDPOINT")
	accessKey := os.Getenv("HUB_S3_ACCESS_KEY")
	secretKey := os.Getenv("HUB_S3_SECRET_KEY")

	if rawEndpoint == "" || accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("mirror configuration incomplete")
	}

	endpoint, secure, err := normaliseEndpoint(rawEndpoint)
	if err != nil {
		return nil, err
	}

	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
}

// LoadMirrorConfig loads mirror configuration from environment variables.
func LoadMirrorConfig() MirrorConfig {
	interval := time.Hour
	if raw := os.Getenv("HUB_MIRROR_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			interval = d
		}
	}

	return MirrorConfig{
		Enabled:  os.Getenv("HUB_MIRROR_ENABLED") == "true",
		Interval: interval,
		Bucket:   os.Getenv("HUB_MIRROR_BUCKET"),
		Prefix:   getenvDefault("HUB_MIRROR_PREFIX", "uploads"),
	}
}

func getenvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
