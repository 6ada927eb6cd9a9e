package server

import (
	"bytes"
	"context"
	"mime/multipart"
	"sync"
	"testing"
	"time"
)

// fakeStore is an in-memory PluginStore for handler tests. Error fields
// force specific failures to exercise the rollback and 500 paths.
type fakeStore struct {
	mu      sync.Mutex
	plugins []Plugin

	insertErr error
	listErr   error
	getErr    error
	incErr    error
	pingErr   error
}

func (s *fakeStore) Insert(_ context.Context, p *Plugin) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return "", s.insertErr
	}
	p.ID = newPluginID()
	p.CreatedAt = time.Now().UTC()
	s.plugins = append(s.plugins, *p)
	return p.ID, nil
}

func (s *fakeStore) List(_ context.Context, limit int) ([]Plugin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Plugin, len(s.plugins))
	copy(out, s.plugins)
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (Plugin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return Plugin{}, s.getErr
	}
	for _, p := range s.plugins {
		if p.ID == id {
			return p, nil
		}
	}
	return Plugin{}, ErrPluginNotFound
}

func (s *fakeStore) IncrementDownloads(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incErr != nil {
		return s.incErr
	}
	for i := range s.plugins {
		if s.plugins[i].ID == id {
			s.plugins[i].DownloadCount++
			return nil
		}
	}
	return ErrPluginNotFound
}

func (s *fakeStore) Ping(_ context.Context) error {
	return s.pingErr
}

func (s *fakeStore) TableNames(_ context.Context) ([]string, error) {
	return []string{"plugins"}, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plugins)
}

// newTestConfig builds a Config with a fake store and a temp blob dir.
func newTestConfig(t *testing.T) (Config, *fakeStore) {
	t.Helper()
	blobs, err := NewBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBlobStore: %v", err)
	}
	store := &fakeStore{}
	return Config{OwnerKey: "test-owner-key", Store: store, Blobs: blobs}, store
}

// multipartUpload builds a multipart body with form fields and one file
// part, returning the body and its content type.
func multipartUpload(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s): %v", k, err)
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}
