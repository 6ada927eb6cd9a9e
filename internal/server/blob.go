package server

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// BlobStore is a flat directory of uploaded archives. Stored names are
// always server-generated (see storedFilename); any path component in an
// incoming name is discarded so a blob can never escape the root.
type BlobStore struct {
	root string
}

// NewBlobStore creates root if needed and returns a store over it.
func NewBlobStore(root string) (*BlobStore, error) {
	if root == "" {
		return nil, fmt.Errorf("blob store root is empty")
	}
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("create blob store root: %w", err)
	}
	return &BlobStore{root: root}, nil
}

// Root returns the directory backing the store.
func (b *BlobStore) Root() string {
	return b.root
}

// Path resolves a stored name to its on-disk location.
func (b *BlobStore) Path(name string) string {
	return filepath.Join(b.root, filepath.Base(name))
}

// Save writes data as a whole file under name. The write goes to a temp
// file in the same directory and is renamed into place, so a crash never
// leaves a partial blob under the final name.
func (b *BlobStore) Save(name string, data []byte) error {
	dst := b.Path(name)

	tmp, err := os.CreateTemp(b.root, ".upload-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// Open opens a stored blob for reading.
func (b *BlobStore) Open(name string) (*os.File, error) {
	return os.Open(b.Path(name))
}

// Stat returns file info for a stored blob.
func (b *BlobStore) Stat(name string) (os.FileInfo, error) {
	return os.Stat(b.Path(name))
}

// Remove deletes a stored blob.
func (b *BlobStore) Remove(name string) error {
	return os.Remove(b.Path(name))
}

// storedFilename derives the collision-resistant on-disk name for an
// upload: a sortable 14-digit UTC timestamp prefix plus the sanitized base
// of the client-supplied name. Both slash styles are treated as directory
// separators and whitespace is replaced so the name is shell-safe.
func storedFilename(originalName string, now time.Time) string {
	base := path.Base(strings.ReplaceAll(originalName, `\`, "/"))
	base = strings.Join(strings.Fields(base), "_")
	return now.UTC().Format("20060102150405") + "_" + base
}
