package controllers

// ResolveOption tunes a single Resolve or ResolveMany call.
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	postTypes        []string
	taxonomy         string
	field            string
	skipMeta         bool
	skipStandardMeta bool
}

func newResolveOptions(opts []ResolveOption) resolveOptions {
	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithPostType restricts slug lookups to the given post types.
func WithPostType(types ...string) ResolveOption {
	return func(o *resolveOptions) {
		o.postTypes = append(o.postTypes, types...)
	}
}

// WithTaxonomy scopes term lookups to a taxonomy.
func WithTaxonomy(taxonomy string) ResolveOption {
	return func(o *resolveOptions) {
		o.taxonomy = taxonomy
	}
}

// WithField selects the natural key a string is matched against, such as
// content.TermFieldName or content.UserFieldEmail.
func WithField(field string) ResolveOption {
	return func(o *resolveOptions) {
		o.field = field
	}
}

// WithoutMeta defers attaching the attribute accessor until Meta is first
// called.
func WithoutMeta() ResolveOption {
	return func(o *resolveOptions) {
		o.skipMeta = true
	}
}

// WithoutStandardMeta skips preloading the standard user attributes.
func WithoutStandardMeta() ResolveOption {
	return func(o *resolveOptions) {
		o.skipStandardMeta = true
	}
}
