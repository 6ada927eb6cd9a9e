package server

import (
	"context"
	"database/sql"
	"time"
)

// postgresStore implements PluginStore on top of a *sql.DB opened with the
// pgx stdlib driver. Rows that fail to scan are surfaced as errors rather
// than silently skipped; the read boundary rejects malformed records.
type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps db in a PluginStore.
func NewPostgresStore(db *sql.DB) PluginStore {
	return &postgresStore{db: db}
}

func (s *postgresStore) Insert(ctx context.Context, p *Plugin) (string, error) {
	p.ID = newPluginID()
	p.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plugins (id, name, description, version, filename, original_name, file_size, download_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.Name, p.Description, p.Version, p.Filename, p.OriginalName, p.FileSize, p.DownloadCount, p.CreatedAt)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func (s *postgresStore) List(ctx context.Context, limit int) ([]Plugin, error) {
	q := `
		SELECT id, name, description, version, filename, original_name, file_size, download_count, created_at
		FROM plugins
		ORDER BY seq`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, q+` LIMIT $1`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Plugin
	for rows.Next() {
		var p Plugin
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Version,
			&p.Filename, &p.OriginalName, &p.FileSize, &p.DownloadCount, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *postgresStore) Get(ctx context.Context, id string) (Plugin, error) {
	var p Plugin
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, version, filename, original_name, file_size, download_count, created_at
		FROM plugins
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Version,
		&p.Filename, &p.OriginalName, &p.FileSize, &p.DownloadCount, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return Plugin{}, ErrPluginNotFound
	}
	if err != nil {
		return Plugin{}, err
	}
	return p, nil
}

func (s *postgresStore) IncrementDownloads(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE plugins SET download_count = download_count + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrPluginNotFound
	}
	return nil
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *postgresStore) TableNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
