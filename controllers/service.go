package controllers

import (
	"context"
	"io"
	"log/slog"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-content-controllers/cache"
	"github.com/goliatone/go-content-controllers/content"
	"github.com/goliatone/go-content-controllers/controllercache"
)

// Option configures a Service.
type Option func(*Service)

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithLinks sets the permalink builder.
func WithLinks(links content.Links) Option {
	return func(s *Service) {
		if links != nil {
			s.links = links
		}
	}
}

// WithFilters sets the host text filters.
func WithFilters(filters content.Filters) Option {
	return func(s *Service) {
		if filters != nil {
			s.filters = filters
		}
	}
}

// WithImageSizes sets the rendered image variant lookup.
func WithImageSizes(sizes content.ImageSizes) Option {
	return func(s *Service) {
		if sizes != nil {
			s.sizes = sizes
		}
	}
}

// WithLogger sets the logger shared by resolvers, caches and attribute
// accessors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPostClassifier installs a hook run after post classification.
func WithPostClassifier(fn PostClassifier) Option {
	return func(s *Service) {
		s.postClassifier = fn
	}
}

// WithTermClassifier installs a hook run after term classification.
func WithTermClassifier(fn TermClassifier) Option {
	return func(s *Service) {
		s.termClassifier = fn
	}
}

// WithUserClassifier installs a hook run after user classification.
func WithUserClassifier(fn UserClassifier) Option {
	return func(s *Service) {
		s.userClassifier = fn
	}
}

// WithCacheOptions passes options to the three controller caches.
func WithCacheOptions(opts ...controllercache.Option) Option {
	return func(s *Service) {
		s.cacheOpts = append(s.cacheOpts, opts...)
	}
}

// Service owns the post, term and user resolvers and the collaborators they
// share.
type Service struct {
	store   content.Datastore
	cache   cache.CacheService
	config  Config
	links   content.Links
	filters content.Filters
	sizes   content.ImageSizes
	logger  *slog.Logger

	postClassifier PostClassifier
	termClassifier TermClassifier
	userClassifier UserClassifier
	cacheOpts      []controllercache.Option

	posts       *Posts
	terms       *Terms
	users       *Users
	invalidator *Invalidator
}

// New builds a Service reading from store and caching in svc.
func New(store content.Datastore, svc cache.CacheService, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, goerrors.New("datastore is required", goerrors.CategoryBadInput).
			WithTextCode("DATASTORE_REQUIRED")
	}
	if svc == nil {
		return nil, goerrors.New("cache service is required", goerrors.CategoryBadInput).
			WithTextCode("CACHE_REQUIRED")
	}

	s := &Service{
		store:   store,
		cache:   svc,
		config:  DefaultConfig(),
		links:   content.PathLinks{},
		filters: content.NopFilters{},
		sizes:   noSizes{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.config.Validate(); err != nil {
		return nil, err
	}

	cacheOpts := append([]controllercache.Option{controllercache.WithLogger(s.logger)}, s.cacheOpts...)
	s.posts = newPosts(s, cacheOpts)
	s.terms = newTerms(s, cacheOpts)
	s.users = newUsers(s, cacheOpts)
	s.invalidator = &Invalidator{svc: s}
	return s, nil
}

// Posts returns the post resolver.
func (s *Service) Posts() *Posts { return s.posts }

// Terms returns the term resolver.
func (s *Service) Terms() *Terms { return s.terms }

// Users returns the user resolver.
func (s *Service) Users() *Users { return s.users }

// Invalidator returns the mutation hooks.
func (s *Service) Invalidator() *Invalidator { return s.invalidator }

// Config returns the active configuration.
func (s *Service) Config() Config { return s.config }

// Warm registers the built-in types. Registrations made before Warm take
// precedence over the built-ins. A misconfigured registry fails here rather
// than on the first request.
func (s *Service) Warm() error {
	for _, warm := range []func() error{s.posts.warm, s.terms.warm, s.users.warm} {
		if err := warm(); err != nil {
			return err
		}
	}
	return nil
}

// Flush drops every cached controller.
func (s *Service) Flush(ctx context.Context) error {
	for _, flush := range []func(context.Context) error{s.posts.cache.Flush, s.terms.cache.Flush, s.users.cache.Flush} {
		if err := flush(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) logError(ctx context.Context, err error, msg string, attrs ...any) {
	var e *goerrors.Error
	if goerrors.As(err, &e) {
		goerrors.LogBySeverity(s.logger, e)
		return
	}
	s.logger.ErrorContext(ctx, msg, append(attrs, "error", err)...)
}

type noSizes struct{}

func (noSizes) ImageSize(context.Context, int64, string) (content.ImageSize, bool) {
	return content.ImageSize{}, false
}
