// Package memory stores images in-memory for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/animal-images/internal/animal"
)

// ImageStore is a mutex-guarded animal.Store.
type ImageStore struct {
	mu     sync.RWMutex
	idGen  animal.IDGenerator
	images map[animal.Category][]animal.Image
}

var _ animal.Store = (*ImageStore)(nil)

// NewImageStore constructs an ImageStore that assigns IDs with idGen.
func NewImageStore(idGen animal.IDGenerator) *ImageStore {
	return &ImageStore{
		idGen:  idGen,
		images: make(map[animal.Category][]animal.Image),
	}
}

// Create assigns an ID and stores a private copy of img.
func (s *ImageStore) Create(_ context.Context, img animal.Image) (animal.Image, error) {
	if err := validate(img); err != nil {
		return animal.Image{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.idGen.NewID()
	if err != nil {
		return animal.Image{}, fmt.Errorf("assign image id: %w", err)
	}
	img.ID = id
	img.Payload = append([]byte(nil), img.Payload...)
	s.images[img.Category] = append(s.images[img.Category], img)
	return clone(img), nil
}

// Latest returns the newest image for category or animal.ErrNotFound.
func (s *ImageStore) Latest(_ context.Context, category animal.Category) (animal.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		latest animal.Image
		found  bool
	)
	for _, img := range s.images[category] {
		if !found || img.Newer(latest) {
			latest = img
			found = true
		}
	}
	if !found {
		return animal.Image{}, fmt.Errorf("latest %s image: %w", category, animal.ErrNotFound)
	}
	return clone(latest), nil
}

// Count returns the number of stored images for category.
func (s *ImageStore) Count(category animal.Category) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images[category])
}

// Close is a no-op.
func (s *ImageStore) Close() error { return nil }

func clone(img animal.Image) animal.Image {
	img.Payload = append([]byte(nil), img.Payload...)
	return img
}

func validate(img animal.Image) error {
	switch {
	case img.Category == "":
		return fmt.Errorf("image category is required")
	case img.SourceURL == "":
		return fmt.Errorf("image source url is required")
	case len(img.Payload) == 0:
		return fmt.Errorf("image payload is required")
	}
	return nil
}
