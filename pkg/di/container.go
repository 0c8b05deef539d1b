package di

import (
	"context"
	"errors"
	"io"
	"log/slog"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-content-controllers/bunstore"
	"github.com/goliatone/go-content-controllers/cache"
	"github.com/goliatone/go-content-controllers/content"
	"github.com/goliatone/go-content-controllers/controllercache"
	"github.com/goliatone/go-content-controllers/controllers"
)

// Config groups the configuration of every wired component.
type Config struct {
	Cache       cache.Config
	Database    bunstore.Config
	Controllers controllers.Config
}

// DefaultConfig returns the defaults of every component.
func DefaultConfig() Config {
	return Config{
		Cache:       cache.DefaultConfig(),
		Database:    bunstore.DefaultConfig(),
		Controllers: controllers.DefaultConfig(),
	}
}

// ConfigFromEnv reads the cache and database sections from the environment.
// The controllers section keeps its defaults.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	var err error
	if cfg.Cache, err = cache.ConfigFromEnv(); err != nil {
		return cfg, err
	}
	if cfg.Database, err = bunstore.ConfigFromEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Option configures a Container.
type Option func(*Container)

// WithDatastore uses store instead of opening a database.
func WithDatastore(store content.Datastore) Option {
	return func(c *Container) {
		c.store = store
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithControllerOptions forwards options to controllers.New.
func WithControllerOptions(opts ...controllers.Option) Option {
	return func(c *Container) {
		c.controllerOpts = append(c.controllerOpts, opts...)
	}
}

// WithKeySerializer replaces the default cache key serializer.
func WithKeySerializer(s cache.KeySerializer) Option {
	return func(c *Container) {
		if s != nil {
			c.keySerializer = s
		}
	}
}

// Container owns the cache service, the datastore and the controllers
// service. Each is created once and shared.
type Container struct {
	config         Config
	logger         *slog.Logger
	cacheService   cache.CacheService
	keySerializer  cache.KeySerializer
	store          content.Datastore
	closers        []io.Closer
	controllers    *controllers.Service
	controllerOpts []controllers.Option
	stopJanitor    context.CancelFunc
}

// NewContainer wires the components described by config. The database is
// only opened when no datastore was given with WithDatastore.
func NewContainer(ctx context.Context, config Config, opts ...Option) (*Container, error) {
	c := &Container{
		config:        config,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		keySerializer: cache.NewDefaultKeySerializer(),
	}
	for _, opt := range opts {
		opt(c)
	}

	cacheService, err := cache.NewCacheService(config.Cache)
	if err != nil {
		return nil, err
	}
	c.cacheService = cacheService

	if c.store == nil {
		store, err := bunstore.Open(ctx, config.Database, bunstore.WithLogger(c.logger))
		if err != nil {
			return nil, err
		}
		c.store = store
		c.closers = append(c.closers, store)
	}

	controllerOpts := append([]controllers.Option{
		controllers.WithConfig(config.Controllers),
		controllers.WithLogger(c.logger),
		controllers.WithCacheOptions(controllercache.WithKeySerializer(c.keySerializer)),
	}, c.controllerOpts...)

	svc, err := controllers.New(c.store, c.cacheService, controllerOpts...)
	if err != nil {
		c.Close()
		return nil, err
	}
	if err := svc.Warm(); err != nil {
		c.Close()
		return nil, err
	}
	c.controllers = svc

	if janitor, ok := cacheService.(cache.Janitor); ok {
		janitorCtx, cancel := context.WithCancel(context.Background())
		janitor.StartJanitor(janitorCtx)
		c.stopJanitor = cancel
	}
	return c, nil
}

// NewContainerWithDefaults wires every component with DefaultConfig.
func NewContainerWithDefaults(ctx context.Context, opts ...Option) (*Container, error) {
	return NewContainer(ctx, DefaultConfig(), opts...)
}

// CacheService returns the shared cache service.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the serializer used for controller cache keys.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() Config {
	return c.config
}

// Datastore returns the content datastore.
func (c *Container) Datastore() content.Datastore {
	return c.store
}

// Controllers returns the warmed controllers service.
func (c *Container) Controllers() *controllers.Service {
	return c.controllers
}

// Close stops the cache janitor and closes the datastore when the container
// opened it.
func (c *Container) Close() error {
	if c.stopJanitor != nil {
		c.stopJanitor()
		c.stopJanitor = nil
	}

	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	if len(errs) > 0 {
		return goerrors.Wrap(errors.Join(errs...), goerrors.CategoryExternal, "close container")
	}
	return nil
}
