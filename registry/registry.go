// Package registry maps discriminators (post types, templates, taxonomies) to
// values such as controller factories.
//
// Reads go through an immutable snapshot published with atomic.Pointer, so
// Lookup never takes a lock. Writes are serialized and publish a fresh copy.
// An optional loader populates the registry once, on first use.
package registry

import (
	"sort"
	"sync"
	"sync/atomic"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// TextCodeInvalidRegistration tags registration errors.
const TextCodeInvalidRegistration = "INVALID_REGISTRATION"

// Loader registers the initial entries. It runs once, before the first read.
type Loader[V any] func(r *Registry[V]) error

// Option configures a Registry.
type Option[V any] func(*Registry[V])

// WithLoader sets the warm-up loader.
func WithLoader[V any](fn Loader[V]) Option[V] {
	return func(r *Registry[V]) {
		r.loader = fn
	}
}

// WithValidator rejects values at registration time, e.g. nil factories.
func WithValidator[V any](fn func(V) error) Option[V] {
	return func(r *Registry[V]) {
		r.validate = fn
	}
}

// Registry is a discriminator to value map, safe for concurrent use.
type Registry[V any] struct {
	name     string
	mu       sync.Mutex
	snapshot atomic.Pointer[map[string]V]
	once     sync.Once
	loadErr  error
	loader   Loader[V]
	validate func(V) error
}

// New creates an empty registry. name shows up in error metadata.
func New[V any](name string, opts ...Option[V]) *Registry[V] {
	r := &Registry[V]{name: name}
	empty := map[string]V{}
	r.snapshot.Store(&empty)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the registry name.
func (r *Registry[V]) Name() string {
	return r.name
}

// Warm runs the loader once and returns its error, if any.
func (r *Registry[V]) Warm() error {
	r.once.Do(func() {
		if r.loader != nil {
			r.loadErr = r.loader(r)
		}
	})
	return r.loadErr
}

// Register binds discriminator to v unless it is already taken. It reports
// whether v was stored.
func (r *Registry[V]) Register(discriminator string, v V) (bool, error) {
	return r.put(discriminator, v, false)
}

// Override binds discriminator to v, replacing any earlier registration.
func (r *Registry[V]) Override(discriminator string, v V) error {
	_, err := r.put(discriminator, v, true)
	return err
}

// RegisterAll binds v to every discriminator. Already taken discriminators
// are skipped; the first invalid one aborts the call.
func (r *Registry[V]) RegisterAll(discriminators []string, v V) error {
	for _, d := range discriminators {
		if _, err := r.Register(d, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry[V]) check(discriminator string, v V) error {
	err := goerrors.ValidateWithOzzo(func() error {
		return validation.Validate(discriminator, validation.Required.Error("discriminator is required"))
	}, "invalid registration")
	if err != nil {
		return err.WithTextCode(TextCodeInvalidRegistration).
			WithMetadata(map[string]any{"registry": r.name})
	}

	if r.validate != nil {
		if verr := r.validate(v); verr != nil {
			return goerrors.Wrap(verr, goerrors.CategoryValidation, "invalid registration").
				WithTextCode(TextCodeInvalidRegistration).
				WithMetadata(map[string]any{"registry": r.name, "discriminator": discriminator})
		}
	}
	return nil
}

func (r *Registry[V]) put(discriminator string, v V, override bool) (bool, error) {
	if err := r.check(discriminator, v); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current := *r.snapshot.Load()
	if _, exists := current[discriminator]; exists && !override {
		return false, nil
	}

	next := make(map[string]V, len(current)+1)
	for k, val := range current {
		next[k] = val
	}
	next[discriminator] = v
	r.snapshot.Store(&next)
	return true, nil
}

// Lookup returns the value bound to discriminator.
func (r *Registry[V]) Lookup(discriminator string) (V, bool) {
	_ = r.Warm()
	v, ok := (*r.snapshot.Load())[discriminator]
	return v, ok
}

// Keys returns the registered discriminators in sorted order.
func (r *Registry[V]) Keys() []string {
	_ = r.Warm()
	current := *r.snapshot.Load()
	keys := make([]string, 0, len(current))
	for k := range current {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered discriminators.
func (r *Registry[V]) Len() int {
	_ = r.Warm()
	return len(*r.snapshot.Load())
}
