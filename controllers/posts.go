package controllers

import (
	"context"
	"math/rand/v2"
	"slices"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-content-controllers/content"
	"github.com/goliatone/go-content-controllers/controllercache"
	"github.com/goliatone/go-content-controllers/registry"
)

// Posts resolves post controllers.
type Posts struct {
	svc        *Service
	cache      *controllercache.Cache[PostController]
	byType     *registry.Registry[*PostType]
	byTemplate *registry.Registry[*PostType]
	byMime     *registry.Registry[*PostType]
	classifier PostClassifier
}

func newPosts(svc *Service, cacheOpts []controllercache.Option) *Posts {
	return &Posts{
		svc:   svc,
		cache: controllercache.New[PostController](controllercache.FamilyPost, svc.cache, cacheOpts...),
		byType: registry.New("post_types",
			registry.WithValidator(validatePostType),
			registry.WithLoader(func(r *registry.Registry[*PostType]) error {
				for _, t := range []*PostType{PostTypeBase, PostTypePage, PostTypeAttachment} {
					if err := r.RegisterAll(t.PostTypes, t); err != nil {
						return err
					}
				}
				return nil
			}),
		),
		byTemplate: registry.New("post_templates", registry.WithValidator(validatePostType)),
		byMime: registry.New("post_mime_types",
			registry.WithValidator(validatePostType),
			registry.WithLoader(func(r *registry.Registry[*PostType]) error {
				return r.RegisterAll(PostTypePicture.MimeTypes, PostTypePicture)
			}),
		),
		classifier: svc.postClassifier,
	}
}

func (p *Posts) warm() error {
	for _, r := range []*registry.Registry[*PostType]{p.byType, p.byTemplate, p.byMime} {
		if err := r.Warm(); err != nil {
			return err
		}
	}
	return nil
}

// RegisterType binds t to each of its discriminators. Discriminators already
// taken, including by built-ins after warm-up, are left alone.
func (p *Posts) RegisterType(t PostType) error {
	return p.register(&t, false)
}

// OverrideType binds t to each of its discriminators, replacing earlier
// registrations.
func (p *Posts) OverrideType(t PostType) error {
	return p.register(&t, true)
}

func (p *Posts) register(t *PostType, override bool) error {
	bind := func(r *registry.Registry[*PostType], discriminators []string) error {
		for _, d := range discriminators {
			if override {
				if err := r.Override(d, t); err != nil {
					return err
				}
				continue
			}
			if _, err := r.Register(d, t); err != nil {
				return err
			}
		}
		return nil
	}

	templates := make([]string, 0, len(t.Templates))
	for _, name := range t.Templates {
		templates = append(templates, normalizeTemplate(name))
	}

	if err := bind(p.byType, t.PostTypes); err != nil {
		return err
	}
	if err := bind(p.byTemplate, templates); err != nil {
		return err
	}
	return bind(p.byMime, t.MimeTypes)
}

// Resolve returns the controller for key: nil (the current post of ctx), an
// id, a numeric string, a slug, or a record.
func (p *Posts) Resolve(ctx context.Context, key any, opts ...ResolveOption) (PostController, error) {
	o := newResolveOptions(opts)

	switch k := key.(type) {
	case nil:
		return p.current(ctx, o)
	case *content.PostRecord:
		if k == nil {
			return p.current(ctx, o)
		}
		return p.fromRecord(ctx, k, o)
	case content.PostRecord:
		return p.fromRecord(ctx, &k, o)
	case string:
		if id, ok := numericID(k); ok {
			return p.byID(ctx, id, o)
		}
		return p.bySlug(ctx, k, o)
	}

	if id, ok := idKey(key); ok {
		return p.byID(ctx, id, o)
	}
	return nil, invalidKeyType(key)
}

// ResolveImage resolves id and requires an image attachment.
func (p *Posts) ResolveImage(ctx context.Context, id int64, opts ...ResolveOption) (PostController, error) {
	w, err := p.Resolve(ctx, id, opts...)
	if err != nil {
		return nil, err
	}
	if !w.Base().rec.IsImage() {
		return nil, notFound(TextCodePostIDNotFound, "post is not an image", id)
	}
	return w, nil
}

// ResolveMany maps args to controllers. args may be nil, a slice of keys or
// records, or a content.PostQuery (value or pointer) to execute. Keys that
// match nothing are skipped.
func (p *Posts) ResolveMany(ctx context.Context, args any, opts ...ResolveOption) ([]PostController, error) {
	switch a := args.(type) {
	case nil:
		return []PostController{}, nil
	case *content.PostQuery:
		if a == nil {
			return []PostController{}, nil
		}
		return p.query(ctx, *a, opts)
	case content.PostQuery:
		return p.query(ctx, a, opts)
	case []*content.PostRecord:
		return resolveEach(ctx, a, opts, p.Resolve)
	case []content.PostRecord:
		return resolveEach(ctx, a, opts, p.Resolve)
	case []int64:
		return resolveEach(ctx, a, opts, p.Resolve)
	case []int:
		return resolveEach(ctx, a, opts, p.Resolve)
	case []string:
		return resolveEach(ctx, a, opts, p.Resolve)
	case []any:
		return resolveEach(ctx, a, opts, p.Resolve)
	}
	return nil, invalidKeyType(args)
}

func (p *Posts) query(ctx context.Context, q content.PostQuery, opts []ResolveOption) ([]PostController, error) {
	recs, err := p.svc.store.QueryPosts(ctx, q)
	if err != nil {
		return nil, queryError(err, "query posts")
	}
	return resolveEach(ctx, recs, opts, p.Resolve)
}

// resolveEach resolves items in order, skipping the ones not found.
func resolveEach[K any, W any](ctx context.Context, items []K, opts []ResolveOption, resolve func(context.Context, any, ...ResolveOption) (W, error)) ([]W, error) {
	out := make([]W, 0, len(items))
	for _, item := range items {
		w, err := resolve(ctx, item, opts...)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func (p *Posts) current(ctx context.Context, o resolveOptions) (PostController, error) {
	rec, ok := CurrentPost(ctx)
	if !ok {
		return nil, noCurrentRecord(controllercache.FamilyPost)
	}
	return p.fromRecord(ctx, rec, o)
}

func (p *Posts) byID(ctx context.Context, id int64, o resolveOptions) (PostController, error) {
	if id <= 0 {
		return nil, notFound(TextCodePostIDNotFound, "post not found", id)
	}
	if w, ok := p.cache.Get(ctx, id); ok {
		return p.served(w, o), nil
	}
	return p.load(ctx, id, nil, o)
}

func (p *Posts) bySlug(ctx context.Context, slug string, o resolveOptions) (PostController, error) {
	if w, ok := p.cache.GetBySecondary(ctx, postSlugKey(slug, o.postTypes)); ok {
		if len(o.postTypes) == 0 || slices.Contains(o.postTypes, w.Base().rec.Type) {
			return p.served(w, o), nil
		}
	}

	rec, err := p.svc.store.PostByName(ctx, slug, o.postTypes...)
	if err != nil {
		return nil, fetchError(err, TextCodePostSlugNotFound, "post not found", slug)
	}
	return p.fromRecord(ctx, rec, o)
}

// fromRecord serves the cached controller for rec.ID when there is one.
// Records without an id get an uncached controller.
func (p *Posts) fromRecord(ctx context.Context, rec *content.PostRecord, o resolveOptions) (PostController, error) {
	if rec.ID <= 0 {
		return p.build(ctx, rec, o)
	}
	if w, ok := p.cache.Get(ctx, rec.ID); ok {
		return p.served(w, o), nil
	}
	return p.load(ctx, rec.ID, rec, o)
}

// load fetches, builds and caches id once, however many callers miss at the
// same time. A caller whose ctx ends while waiting gets an abandoned error;
// the controller is still cached for the others.
func (p *Posts) load(ctx context.Context, id int64, rec *content.PostRecord, o resolveOptions) (PostController, error) {
	if err := ctx.Err(); err != nil {
		return nil, abandoned(err, controllercache.FamilyPost, id)
	}

	w, err := p.cache.Load(ctx, id, func(ctx context.Context) (PostController, error) {
		r := rec
		if r == nil {
			fetched, err := p.svc.store.PostByID(ctx, id)
			if err != nil {
				return nil, fetchError(err, TextCodePostIDNotFound, "post not found", id)
			}
			r = fetched
		}
		return p.build(ctx, r, o)
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, abandoned(err, controllercache.FamilyPost, id)
	}
	return p.served(w, o), nil
}

func (p *Posts) served(w PostController, o resolveOptions) PostController {
	if !o.skipMeta {
		w.Base().attachMeta()
	}
	return w
}

func (p *Posts) build(ctx context.Context, rec *content.PostRecord, o resolveOptions) (PostController, error) {
	base := newPost(p.svc, rec)
	if !o.skipMeta {
		base.attachMeta()
	}
	base.ptype = p.classify(ctx, base)

	w := base.ptype.New(base)
	if w == nil || w.Base() == nil {
		return nil, goerrors.New("post factory returned no controller", goerrors.CategoryInternal).
			WithTextCode(TextCodeBadFactory).
			WithMetadata(map[string]any{"type": base.ptype.Name, "id": rec.ID})
	}
	return w, nil
}

// classify picks the controller type: template, then image mime type, then
// post type, then the base post. The classifier hook has the last word.
func (p *Posts) classify(ctx context.Context, base *Post) *PostType {
	return p.classifyBy(ctx, base, true)
}

// classifyBy is classify with the template step optional, since it costs an
// attribute read.
func (p *Posts) classifyBy(ctx context.Context, base *Post, byTemplate bool) *PostType {
	rec := &base.rec
	var chosen *PostType

	if byTemplate && p.svc.config.templateCapable(rec.Type) {
		if tpl := p.template(ctx, base); tpl != "" {
			chosen, _ = p.byTemplate.Lookup(tpl)
		}
	}
	if chosen == nil && rec.Type == content.PostTypeAttachment && rec.MimeType != "" {
		if t, ok := p.byMime.Lookup(rec.MimeType); ok {
			chosen = t
		} else if t, ok := p.byMime.Lookup(mimeMajor(rec.MimeType)); ok {
			chosen = t
		}
	}
	if chosen == nil {
		chosen, _ = p.byType.Lookup(rec.Type)
	}
	if chosen == nil {
		chosen = PostTypeBase
	}

	if p.classifier != nil {
		if t := p.classifier(rec, chosen); t != nil && t.New != nil {
			chosen = t
		}
	}
	return chosen
}

// template reads the template attribute through Meta when attached, and
// straight from the store otherwise.
func (p *Posts) template(ctx context.Context, base *Post) string {
	attr := p.svc.config.TemplateAttribute
	if m := base.meta.Load(); m != nil {
		return normalizeTemplate(m.Get(ctx, attr).First())
	}
	values, err := p.svc.store.FetchAttributes(ctx, content.ObjectPost, base.rec.ID, attr)
	if err != nil || len(values) == 0 {
		return ""
	}
	return normalizeTemplate(values[0])
}

// Exists reports whether id is a post of one of types (any type when empty).
func (p *Posts) Exists(ctx context.Context, id int64, types ...string) (bool, error) {
	w, err := p.Resolve(ctx, id, WithoutMeta())
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(types) == 0 || slices.Contains(types, w.Base().rec.Type), nil
}

// Recent returns the newest published posts of postType.
func (p *Posts) Recent(ctx context.Context, postType string, count int, excludeIDs ...int64) ([]PostController, error) {
	return p.ResolveMany(ctx, content.PostQuery{
		Types:      []string{postType},
		Statuses:   []string{statusPublish},
		ExcludeIDs: excludeIDs,
		OrderBy:    "date",
		Order:      content.OrderDesc,
		Limit:      count,
	})
}

// Random returns count published posts of postType in random order.
func (p *Posts) Random(ctx context.Context, postType string, count int) ([]PostController, error) {
	all, err := p.ResolveMany(ctx, content.PostQuery{
		Types:    []string{postType},
		Statuses: []string{statusPublish},
	})
	if err != nil {
		return nil, err
	}
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if count > 0 && count < len(all) {
		all = all[:count]
	}
	return all, nil
}

// ByTemplates returns published posts of the template capable types using
// any of templates.
func (p *Posts) ByTemplates(ctx context.Context, templates ...string) ([]PostController, error) {
	if len(templates) == 0 {
		return []PostController{}, nil
	}
	values := make([]string, 0, len(templates)*2)
	for _, t := range templates {
		name := normalizeTemplate(t)
		values = append(values, name, name+".php")
	}
	return p.ResolveMany(ctx, content.PostQuery{
		Types:    p.svc.config.TemplatePostTypes,
		Statuses: []string{statusPublish},
		Meta:     []content.MetaClause{{Key: p.svc.config.TemplateAttribute, Values: values}},
		OrderBy:  "menu_order",
		Order:    content.OrderAsc,
	})
}

// TermPosts groups posts under one of their terms.
type TermPosts struct {
	Term  TermController
	Posts []PostController
}

// Categorized returns, for each non-empty term of taxonomy, the published
// posts of postType attached to it.
func (p *Posts) Categorized(ctx context.Context, postType, taxonomy string) ([]TermPosts, error) {
	terms, err := p.svc.terms.ResolveMany(ctx, content.TermQuery{
		Taxonomies: []string{taxonomy},
		HideEmpty:  true,
		OrderBy:    "name",
		Order:      content.OrderAsc,
	})
	if err != nil {
		return nil, err
	}

	out := make([]TermPosts, 0, len(terms))
	for _, t := range terms {
		posts, err := p.ResolveMany(ctx, content.PostQuery{
			Types:    []string{postType},
			Statuses: []string{statusPublish},
			Tax:      []content.TaxClause{{Taxonomy: taxonomy, TermIDs: []int64{t.Base().rec.ID}}},
		})
		if err != nil {
			return nil, err
		}
		if len(posts) > 0 {
			out = append(out, TermPosts{Term: t, Posts: posts})
		}
	}
	return out, nil
}

// Invalidate drops every cache entry that can reach rec, including keys the
// cached controller still holds from before a rename, then runs the flush
// hook of its type.
func (p *Posts) Invalidate(ctx context.Context, rec *content.PostRecord) error {
	if rec == nil {
		return nil
	}

	var ptype *PostType
	if w, ok := p.cache.Get(ctx, rec.ID); ok && w.Base().ptype != nil {
		ptype = w.Base().ptype
	} else {
		ptype = p.classifyBy(ctx, newPost(p.svc, rec), p.templateFlushes())
	}

	if err := p.cache.Invalidate(ctx, rec.ID, postKeys(rec)...); err != nil {
		return err
	}
	if ptype.Flush != nil {
		if err := ptype.Flush(ctx, rec); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "post flush hook failed").
				WithMetadata(map[string]any{"type": ptype.Name, "id": rec.ID})
		}
	}
	return nil
}

// templateFlushes reports whether any template type has a flush hook. Only
// then does an uncached invalidation need the template attribute.
func (p *Posts) templateFlushes() bool {
	for _, name := range p.byTemplate.Keys() {
		if t, ok := p.byTemplate.Lookup(name); ok && t.Flush != nil {
			return true
		}
	}
	return false
}

// postMetaResolver lets attribute transforms resolve post ids.
type postMetaResolver struct {
	posts *Posts
}

func (r postMetaResolver) ResolvePost(ctx context.Context, id int64) (any, error) {
	return r.posts.Resolve(ctx, id)
}

func (r postMetaResolver) ResolveImage(ctx context.Context, id int64) (any, error) {
	return r.posts.ResolveImage(ctx, id)
}
