// Package postgres provides the Postgres-backed image store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/animal-images/internal/animal"
)

const defaultTable = "animal_images"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for image rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

var _ animal.Store = (*ImageStore)(nil)

// ImageStore writes and reads image rows in Postgres.
type ImageStore struct {
	pool  pool
	table string
	idGen animal.IDGenerator
}

// New creates a Postgres-backed ImageStore and ensures its table exists.
func New(ctx context.Context, cfg Config, idGen animal.IDGenerator) (*ImageStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := &ImageStore{pool: p, table: table, idGen: idGen}
	if err := store.EnsureSchema(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(p pool, table string, idGen animal.IDGenerator) (*ImageStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &ImageStore{pool: p, table: name, idGen: idGen}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureSchema creates the image table and its recency index when missing.
func (s *ImageStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	source_url TEXT NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL,
	content_type TEXT NOT NULL,
	size_bytes INTEGER NOT NULL,
	checksum TEXT NOT NULL,
	payload BYTEA NOT NULL
);
CREATE INDEX IF NOT EXISTS %[1]s_category_recency_idx ON %[1]s (category, fetched_at DESC, id DESC);`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *ImageStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// Create assigns an ID and inserts img.
func (s *ImageStore) Create(ctx context.Context, img animal.Image) (animal.Image, error) {
	if s == nil || s.pool == nil {
		return animal.Image{}, fmt.Errorf("image store is not configured")
	}
	if len(img.Payload) == 0 {
		return animal.Image{}, fmt.Errorf("image payload is required")
	}
	id, err := s.idGen.NewID()
	if err != nil {
		return animal.Image{}, fmt.Errorf("assign image id: %w", err)
	}
	img.ID = id
	img.FetchedAt = img.FetchedAt.UTC()
	if img.ContentType == "" {
		img.ContentType = animal.DefaultContentType
	}
	img.SizeBytes = len(img.Payload)

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	category,
	source_url,
	fetched_at,
	content_type,
	size_bytes,
	checksum,
	payload
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8
)`, s.table)

	args := []any{
		img.ID,
		string(img.Category),
		img.SourceURL,
		img.FetchedAt,
		img.ContentType,
		img.SizeBytes,
		img.Checksum,
		img.Payload,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return animal.Image{}, fmt.Errorf("insert image: %w", err)
	}
	return img, nil
}

// Latest returns the newest image for category, ties broken by highest ID.
func (s *ImageStore) Latest(ctx context.Context, category animal.Category) (animal.Image, error) {
	if s == nil || s.pool == nil {
		return animal.Image{}, fmt.Errorf("image store is not configured")
	}
	query := fmt.Sprintf(`
SELECT id, category, source_url, fetched_at, content_type, size_bytes, checksum, payload
FROM %s
WHERE category = $1
ORDER BY fetched_at DESC, id DESC
LIMIT 1`, s.table)

	var (
		img animal.Image
		cat string
	)
	err := s.pool.QueryRow(ctx, query, string(category)).Scan(
		&img.ID,
		&cat,
		&img.SourceURL,
		&img.FetchedAt,
		&img.ContentType,
		&img.SizeBytes,
		&img.Checksum,
		&img.Payload,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return animal.Image{}, fmt.Errorf("latest %s image: %w", category, animal.ErrNotFound)
	}
	if err != nil {
		return animal.Image{}, fmt.Errorf("query latest %s image: %w", category, err)
	}
	img.Category = animal.Category(cat)
	img.FetchedAt = img.FetchedAt.UTC()
	return img, nil
}
