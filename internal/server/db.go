package server

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenDB opens a PostgreSQL connection pool using DATABASE_URL. When
// databaseName is non-empty it overrides the database path component of the
// URL, mirroring deployments that hand out a server-level URL plus a
// separate database name.
func OpenDB(databaseURL, databaseName string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}

	dsn, err := applyDatabaseName(databaseURL, databaseName)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	// Conservative pool defaults for a single-owner deployment.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Validate connectivity immediately.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// applyDatabaseName rewrites the path of databaseURL to name when name is
// set, leaving query parameters intact.
func applyDatabaseName(databaseURL, name string) (string, error) {
	if name == "" {
		return databaseURL, nil
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", err
	}
	u.Path = "/" + name
	return u.String(), nil
}
