// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/animal-images/internal/animal"
	"github.com/JakeFAU/animal-images/internal/api"
	"github.com/JakeFAU/animal-images/internal/clock/system"
	"github.com/JakeFAU/animal-images/internal/config"
	collyfetcher "github.com/JakeFAU/animal-images/internal/fetcher/colly"
	"github.com/JakeFAU/animal-images/internal/hash/sha256"
	"github.com/JakeFAU/animal-images/internal/id/uuid"
	"github.com/JakeFAU/animal-images/internal/metrics"
	"github.com/JakeFAU/animal-images/internal/policy/ratelimit"
	pubsubpublisher "github.com/JakeFAU/animal-images/internal/publisher/pubsub"
	"github.com/JakeFAU/animal-images/internal/service"
	memorystore "github.com/JakeFAU/animal-images/internal/storage/memory"
	"github.com/JakeFAU/animal-images/internal/storage/postgres"
	"github.com/JakeFAU/animal-images/internal/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

// App holds all the shared, long-lived services for the application.
// It is initialized once at startup and closed on exit.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	store     animal.Store
	publisher animal.Publisher
	service   *service.Service
	closers   []func() error
}

// Option customizes App construction.
type Option func(*options)

type options struct {
	transport http.RoundTripper
	store     animal.Store
}

// WithFetchTransport routes provider requests through rt.
func WithFetchTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithStore uses store instead of the one selected by store.driver.
func WithStore(store animal.Store) Option {
	return func(o *options) { o.store = store }
}

// New builds the application from cfg. It fails fast if any configured
// dependency cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	metrics.Init()

	a := &App{cfg: cfg, logger: logger}

	a.store = o.store
	if a.store == nil {
		a.store, err = newStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	}
	a.closers = append(a.closers, a.store.Close)

	topic := ""
	if cfg.PubSub.Enabled() {
		pub, err := pubsubpublisher.New(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("init pubsub publisher: %w", err)
		}
		logger.Info("publishing stored images to pubsub", zap.String("topic", cfg.PubSub.TopicName))
		a.publisher = pub
		a.closers = append(a.closers, pub.Close)
		topic = cfg.PubSub.TopicName
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:    cfg.Fetch.UserAgent,
		Timeout:      cfg.FetchTimeout(),
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		Transport:    o.transport,
	})

	a.service = service.New(
		catalog,
		fetcher,
		a.store,
		a.publisher,
		sha256.New(),
		system.New(),
		animal.RandomDimensions{},
		ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.Fetch.RateLimitRPS,
			DefaultBurst: cfg.Fetch.RateLimitBurst,
		}),
		service.Config{
			AttemptTimeout: cfg.FetchTimeout(),
			Topic:          topic,
			MaxBatch:       cfg.Fetch.MaxBatch,
		},
		logger.Named("service"),
	)
	return a, nil
}

func newStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (animal.Store, error) {
	idGen := uuid.New()
	switch cfg.Store.Driver {
	case config.StoreMemory:
		logger.Info("using in-memory image store; images are lost on exit")
		return memorystore.NewImageStore(idGen), nil
	case config.StoreSQLite:
		logger.Info("using sqlite image store", zap.String("path", cfg.Store.SQLitePath))
		store, err := sqlite.Open(ctx, cfg.Store.SQLitePath, idGen)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		return store, nil
	case config.StorePostgres:
		logger.Info("using postgres image store", zap.String("table", cfg.DB.Table))
		store, err := postgres.New(ctx, postgres.Config{
			DSN:             cfg.DB.DSN,
			Table:           cfg.DB.Table,
			MaxConns:        cfg.DB.MaxConns,
			MinConns:        cfg.DB.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime(),
		}, idGen)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Service returns the image service.
func (a *App) Service() *service.Service {
	return a.service
}

// Handler builds the HTTP handler serving the image API.
func (a *App) Handler() http.Handler {
	return api.NewServer(a.service, a.logger.Named("api")).Handler()
}

// Serve runs the HTTP server until ctx is canceled, then shuts it down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(a.cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      a.cfg.WriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.logger.Info("shutdown complete")
	return nil
}

// Close releases every service in reverse construction order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("error closing application services", zap.Error(err))
		return err
	}
	return nil
}
