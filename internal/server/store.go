package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"time"
)

// ErrPluginNotFound is returned by PluginStore lookups for unknown ids.
var ErrPluginNotFound = errors.New("plugin not found")

// Plugin is the metadata record for one uploaded archive. Description and
// Version are optional and stay NULL in the store when the uploader omits
// them. Filename is the server-generated stored name and is never exposed
// through the listing projection.
type Plugin struct {
	ID            string
	Name          string
	Description   sql.NullString
	Version       sql.NullString
	Filename      string
	OriginalName  string
	FileSize      int64
	DownloadCount int64
	CreatedAt     time.Time
}

// PluginStore is the metadata store boundary. The production implementation
// is Postgres-backed; handler tests substitute an in-memory fake.
type PluginStore interface {
	// Insert persists a new record and returns its generated id.
	// The store sets ID and CreatedAt.
	Insert(ctx context.Context, p *Plugin) (string, error)

	// List returns records in insertion order. limit > 0 caps the result.
	List(ctx context.Context, limit int) ([]Plugin, error)

	// Get returns the record for id, or ErrPluginNotFound.
	Get(ctx context.Context, id string) (Plugin, error)

	// IncrementDownloads adds one to the download counter for id.
	IncrementDownloads(ctx context.Context, id string) error

	// Ping reports store connectivity.
	Ping(ctx context.Context) error

	// TableNames lists the tables visible to the connection, for diagnostics.
	TableNames(ctx context.Context) ([]string, error)
}

// newPluginID generates a 24-hex-char record id: a 4-byte big-endian unix
// timestamp followed by 8 random bytes. Sortable by creation second, and
// opaque enough that ids are not guessable.
func newPluginID() string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[:4], uint32(time.Now().Unix()))
	if _, err := rand.Read(b[4:]); err != nil {
		// Fallback: nanosecond clock (rare)
		binary.BigEndian.PutUint64(b[4:], uint64(time.Now().UnixNano()))
	}
	return hex.EncodeToString(b[:])
}

// isPluginID reports whether s looks like a store-generated id. Used to
// reject garbage before hitting the database.
func isPluginID(s string) bool {
	if len(s) != 24 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
