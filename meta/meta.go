// Package meta provides lazy, memoized access to the auxiliary attributes of
// a post, term or user.
//
// A Meta fetches an attribute the first time it is asked for and keeps the
// raw values for the lifetime of the owning controller. Transforms turn the
// raw values into dates, groups, formatted text or other controllers without
// touching the memoized form.
package meta

import (
	"context"
	"errors"
	"io"
	"log/slog"

	goerrors "github.com/goliatone/go-errors"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-content-controllers/content"
)

// Resolver turns attribute values holding ids into controllers. Results are
// returned as any so this package stays below the controllers package.
type Resolver interface {
	ResolvePost(ctx context.Context, id int64) (any, error)
	ResolveImage(ctx context.Context, id int64) (any, error)
}

type accessor struct {
	transform string
	args      []any
}

// Option configures a Meta.
type Option func(*Meta)

// WithResolver sets the resolver used by the image and controller transforms.
func WithResolver(r Resolver) Option {
	return func(m *Meta) {
		m.resolver = r
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Meta) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithAccessor makes Lookup(name) return Transform(name, transform, args...).
func WithAccessor(name, transform string, args ...any) Option {
	return func(m *Meta) {
		m.accessors[name] = accessor{transform: transform, args: args}
	}
}

// WithTransform registers an extra transform for this Meta.
func WithTransform(id string, fn TransformFunc) Option {
	return func(m *Meta) {
		m.transforms[id] = fn
	}
}

// Meta is the attribute accessor of a single object. It is safe for
// concurrent use.
type Meta struct {
	objectType string
	objectID   int64
	source     content.AttributeSource
	resolver   Resolver
	logger     *slog.Logger

	values     *xsync.MapOf[string, Value]
	fields     *xsync.MapOf[string, any]
	flight     singleflight.Group
	accessors  map[string]accessor
	transforms map[string]TransformFunc
}

// New creates an accessor for the attributes of objectType/objectID.
func New(source content.AttributeSource, objectType string, objectID int64, opts ...Option) *Meta {
	m := &Meta{
		objectType: objectType,
		objectID:   objectID,
		source:     source,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		values:     xsync.NewMapOf[string, Value](),
		fields:     xsync.NewMapOf[string, any](),
		accessors:  map[string]accessor{},
		transforms: map[string]TransformFunc{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ObjectType returns the attribute namespace, e.g. content.ObjectPost.
func (m *Meta) ObjectType() string {
	return m.objectType
}

// ObjectID returns the owning object id.
func (m *Meta) ObjectID() int64 {
	return m.objectID
}

// Get returns the values stored for name, fetching them on first use.
// Fetch failures are logged and yield an empty Value.
func (m *Meta) Get(ctx context.Context, name string) Value {
	v, err := m.Fetch(ctx, name)
	if err != nil {
		m.logError(err, name)
	}
	return v
}

// Fetch is Get with the datastore error returned. Failed fetches are not
// memoized.
func (m *Meta) Fetch(ctx context.Context, name string) (Value, error) {
	return m.fetch(ctx, name, name)
}

func (m *Meta) fetch(ctx context.Context, key, name string) (Value, error) {
	if v, ok := m.values.Load(name); ok {
		return v, nil
	}

	if err := ctx.Err(); err != nil {
		return Value{}, err
	}

	// The fetch is shared by every caller waiting on name, so it must not
	// stop when the first one gives up.
	fetchCtx := context.WithoutCancel(ctx)
	res, err, _ := m.flight.Do(name, func() (any, error) {
		if v, ok := m.values.Load(name); ok {
			return v, nil
		}

		raw, err := m.source.FetchAttributes(fetchCtx, m.objectType, m.objectID, key)
		if errors.Is(err, content.ErrUnsupportedObjectType) {
			m.logger.DebugContext(fetchCtx, "attribute backend unsupported",
				"object_type", m.objectType, "object_id", m.objectID, "key", key)
			raw, err = nil, nil
		}
		if err != nil {
			return Value{}, goerrors.Wrap(err, goerrors.CategoryExternal, "fetch attribute").
				WithTextCode("ATTRIBUTE_FETCH_FAILED").
				WithMetadata(map[string]any{"object_type": m.objectType, "object_id": m.objectID, "key": key})
		}

		v, _ := m.values.LoadOrStore(name, NewValue(raw...))
		return v, nil
	})
	if err != nil {
		return Value{}, err
	}
	return res.(Value), nil
}

// Has reports whether name holds a non-empty value, fetching it if needed.
func (m *Meta) Has(ctx context.Context, name string) bool {
	if v, ok := m.values.Load(name); ok && !v.IsEmpty() {
		return true
	}
	return !m.Get(ctx, name).IsEmpty()
}

// Set fetches the store key and exposes it under alias. Use it for keys that
// are awkward to pass around, such as "hero-image".
func (m *Meta) Set(ctx context.Context, key, alias string) Value {
	v, err := m.fetch(ctx, key, alias)
	if err != nil {
		m.logError(err, key)
	}
	return v
}

// Unset forgets a memoized value so the next Get fetches it again.
func (m *Meta) Unset(name string) {
	m.values.Delete(name)
	m.fields.Delete(name)
}

// Transform resolves name and applies the transform registered as id. Only
// the raw values are memoized. An id with no registered transform yields
// the raw value.
func (m *Meta) Transform(ctx context.Context, name, id string, args ...any) (any, error) {
	v, err := m.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	fn, ok := m.transform(id)
	if !ok {
		m.logger.DebugContext(ctx, "unknown transform, returning raw value",
			"transform", id, "key", name, "object_type", m.objectType, "object_id", m.objectID)
		return v.Raw(), nil
	}
	return fn(ctx, m, v, args...)
}

// Lookup is name based access for templates. Names registered with
// WithAccessor go through their transform, everything else returns Raw().
func (m *Meta) Lookup(ctx context.Context, name string) (any, error) {
	if acc, ok := m.accessors[name]; ok {
		return m.Transform(ctx, name, acc.transform, acc.args...)
	}
	if v, ok := m.fields.Load(name); ok {
		return v, nil
	}
	v, err := m.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return v.Raw(), nil
}

func (m *Meta) transform(id string) (TransformFunc, bool) {
	if fn, ok := m.transforms[id]; ok {
		return fn, true
	}
	fn, ok := builtins[id]
	return fn, ok
}

func (m *Meta) logError(err error, key string) {
	var typed *goerrors.Error
	if goerrors.As(err, &typed) {
		goerrors.LogBySeverity(m.logger, typed)
		return
	}
	m.logger.Error("attribute fetch failed", "key", key, "error", err)
}
