package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/JakeFAU/animal-images/internal/animal"
)

var _ animal.Store = (*ImageStore)(nil)

// ImageStore is the SQLite implementation of animal.Store.
// fetched_at is stored as Unix nanoseconds so ordering is exact.
type ImageStore struct {
	db    *DB
	idGen animal.IDGenerator
}

// Open opens the database at path, applies migrations and returns a ready store.
func Open(ctx context.Context, path string, idGen animal.IDGenerator) (*ImageStore, error) {
	db, err := NewDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewImageStore(db, idGen), nil
}

// NewImageStore wraps an already-migrated DB.
func NewImageStore(db *DB, idGen animal.IDGenerator) *ImageStore {
	return &ImageStore{db: db, idGen: idGen}
}

// Create assigns an ID and inserts img.
func (s *ImageStore) Create(ctx context.Context, img animal.Image) (animal.Image, error) {
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

	const query = `
		INSERT INTO images (id, category, source_url, fetched_at, content_type, size_bytes, checksum, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := s.db.Writer.ExecContext(ctx, query,
		img.ID, string(img.Category), img.SourceURL, img.FetchedAt.UnixNano(),
		img.ContentType, img.SizeBytes, img.Checksum, img.Payload,
	); err != nil {
		return animal.Image{}, fmt.Errorf("insert image %s: %w", img.ID, err)
	}
	return img, nil
}

// Latest returns the newest image for category, ties broken by highest ID.
func (s *ImageStore) Latest(ctx context.Context, category animal.Category) (animal.Image, error) {
	const query = `
		SELECT id, category, source_url, fetched_at, content_type, size_bytes, checksum, payload
		FROM images
		WHERE category = ?
		ORDER BY fetched_at DESC, id DESC
		LIMIT 1
	`
	var (
		img       animal.Image
		cat       string
		fetchedNs int64
	)
	err := s.db.Reader.QueryRowContext(ctx, query, string(category)).Scan(
		&img.ID, &cat, &img.SourceURL, &fetchedNs,
		&img.ContentType, &img.SizeBytes, &img.Checksum, &img.Payload,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return animal.Image{}, fmt.Errorf("latest %s image: %w", category, animal.ErrNotFound)
	}
	if err != nil {
		return animal.Image{}, fmt.Errorf("query latest %s image: %w", category, err)
	}
	img.Category = animal.Category(cat)
	img.FetchedAt = time.Unix(0, fetchedNs).UTC()
	return img, nil
}

// Close closes the underlying database.
func (s *ImageStore) Close() error {
	return s.db.Close()
}
