// Package service implements the fetch-and-store pipeline and the
// latest-image lookup on top of the animal collaborators.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/animal-images/internal/animal"
	"github.com/JakeFAU/animal-images/internal/metrics"
)

const defaultAttemptTimeout = 10 * time.Second

// Config controls Service behavior.
type Config struct {
	// AttemptTimeout bounds a single fetch.
	AttemptTimeout time.Duration
	// Topic receives stored-image metadata when a Publisher is configured.
	Topic string
	// MaxBatch caps count per call. Zero means unlimited.
	MaxBatch int
}

// Service fetches, persists and looks up animal images.
type Service struct {
	catalog   animal.Catalog
	fetcher   animal.Fetcher
	store     animal.Store
	publisher animal.Publisher
	hasher    animal.Hasher
	clock     animal.Clock
	dims      animal.Dimensioner
	limiter   animal.Limiter
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Service. publisher and limiter may be nil.
func New(
	catalog animal.Catalog,
	fetcher animal.Fetcher,
	store animal.Store,
	publisher animal.Publisher,
	hasher animal.Hasher,
	clock animal.Clock,
	dims animal.Dimensioner,
	limiter animal.Limiter,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dims == nil {
		dims = animal.RandomDimensions{}
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = defaultAttemptTimeout
	}
	return &Service{
		catalog:   catalog,
		fetcher:   fetcher,
		store:     store,
		publisher: publisher,
		hasher:    hasher,
		clock:     clock,
		dims:      dims,
		limiter:   limiter,
		cfg:       cfg,
		logger:    logger,
	}
}

// FetchAndStore runs count sequential fetch attempts for category and returns
// the images that were stored, in the order they succeeded. Failed attempts
// are logged and skipped.
func (s *Service) FetchAndStore(ctx context.Context, category string, count int) ([]animal.Image, error) {
	report, err := s.FetchAndStoreReport(ctx, category, count)
	if err != nil {
		return nil, err
	}
	return report.Stored(), nil
}

// FetchAndStoreReport is FetchAndStore with the full per-attempt outcome list.
func (s *Service) FetchAndStoreReport(ctx context.Context, category string, count int) (animal.BatchReport, error) {
	cat, err := animal.ParseCategory(category)
	if err != nil {
		return animal.BatchReport{}, err
	}
	src, ok := s.catalog.Lookup(cat)
	if !ok {
		return animal.BatchReport{}, fmt.Errorf("%w: no source for %s", animal.ErrUnsupportedCategory, cat)
	}
	if count < 0 || (s.cfg.MaxBatch > 0 && count > s.cfg.MaxBatch) {
		return animal.BatchReport{}, fmt.Errorf("%w: %d", animal.ErrInvalidCount, count)
	}

	report := animal.BatchReport{
		Category:  cat,
		Requested: count,
		Attempts:  make([]animal.Attempt, 0, count),
	}
	for range count {
		report.Attempts = append(report.Attempts, s.attempt(ctx, cat, src))
	}

	stored := len(report.Attempts) - report.Failed()
	metrics.ObserveBatch(cat.String(), stored)
	s.logger.Info("fetch batch finished",
		zap.String("category", cat.String()),
		zap.Int("requested", count),
		zap.Int("stored", stored),
		zap.Int("failed", report.Failed()),
	)
	return report, nil
}

func (s *Service) attempt(ctx context.Context, cat animal.Category, src animal.Source) animal.Attempt {
	var a animal.Attempt
	if src.Randomized() {
		a.Width, a.Height = s.dims.Dimensions()
	}
	a.URL = src.Resolve(a.Width, a.Height)

	resp, err := s.fetch(ctx, cat, a.URL)
	if err != nil {
		a.Err = fmt.Errorf("%w: %w", animal.ErrFetchFailed, err)
		metrics.ObserveAttempt(cat.String(), metrics.OutcomeFetchFailed)
		s.logger.Warn("image fetch failed",
			zap.String("category", cat.String()),
			zap.String("url", a.URL),
			zap.Error(err),
		)
		return a
	}
	metrics.ObserveFetch(cat.String(), a.URL, len(resp.Body), resp.Duration)

	img, err := s.persist(ctx, cat, a.URL, resp)
	if err != nil {
		a.Err = err
		metrics.ObserveAttempt(cat.String(), metrics.OutcomeStoreFailed)
		s.logger.Error("persist image failed",
			zap.String("category", cat.String()),
			zap.String("url", a.URL),
			zap.Error(err),
		)
		return a
	}
	a.Image = img
	metrics.ObserveAttempt(cat.String(), metrics.OutcomeStored)
	s.publishStored(ctx, img)
	return a
}

func (s *Service) fetch(ctx context.Context, cat animal.Category, url string) (animal.FetchResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.Wait(attemptCtx, url); err != nil {
			return animal.FetchResponse{}, err
		}
	}

	resp, err := s.fetcher.Fetch(attemptCtx, animal.FetchRequest{Category: cat, URL: url})
	if err != nil {
		return animal.FetchResponse{}, err
	}
	if resp.StatusCode != 0 && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return animal.FetchResponse{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if len(resp.Body) == 0 {
		return animal.FetchResponse{}, errors.New("empty response body")
	}
	return resp, nil
}

func (s *Service) persist(
	ctx context.Context,
	cat animal.Category,
	url string,
	resp animal.FetchResponse,
) (animal.Image, error) {
	checksum, err := s.hasher.Hash(resp.Body)
	if err != nil {
		return animal.Image{}, fmt.Errorf("hash payload: %w", err)
	}
	contentType := resp.ContentType
	if contentType == "" {
		contentType = animal.DefaultContentType
	}
	img := animal.Image{
		Category:    cat,
		SourceURL:   url,
		FetchedAt:   s.clock.Now().UTC(),
		ContentType: contentType,
		SizeBytes:   len(resp.Body),
		Checksum:    checksum,
		Payload:     resp.Body,
	}
	stored, err := s.store.Create(ctx, img)
	if err != nil {
		return animal.Image{}, fmt.Errorf("store image: %w", err)
	}
	return stored, nil
}

func (s *Service) publishStored(ctx context.Context, img animal.Image) {
	if s.publisher == nil || s.cfg.Topic == "" {
		return
	}
	id, err := s.publisher.Publish(ctx, s.cfg.Topic, img)
	if err != nil {
		s.logger.Warn("publish stored image failed",
			zap.String("image_id", img.ID),
			zap.String("topic", s.cfg.Topic),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("stored image published",
		zap.String("image_id", img.ID),
		zap.String("message_id", id),
	)
}

// GetLatest returns the most recently stored image for category. Unsupported
// categories match both animal.ErrNotFound and animal.ErrUnsupportedCategory.
func (s *Service) GetLatest(ctx context.Context, category string) (animal.Image, error) {
	cat, err := animal.ParseCategory(category)
	if err != nil {
		return animal.Image{}, fmt.Errorf("%w: %w", animal.ErrNotFound, err)
	}
	img, err := s.store.Latest(ctx, cat)
	if err != nil {
		return animal.Image{}, fmt.Errorf("latest %s: %w", cat, err)
	}
	return img, nil
}
