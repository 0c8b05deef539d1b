package controllers

import (
	"context"
	"strconv"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-content-controllers/content"
	"github.com/goliatone/go-content-controllers/controllercache"
	"github.com/goliatone/go-content-controllers/registry"
)

// Terms resolves term controllers.
type Terms struct {
	svc        *Service
	cache      *controllercache.Cache[TermController]
	byTaxonomy *registry.Registry[*TermType]
	classifier TermClassifier
}

func newTerms(svc *Service, cacheOpts []controllercache.Option) *Terms {
	return &Terms{
		svc:        svc,
		cache:      controllercache.New[TermController](controllercache.FamilyTerm, svc.cache, cacheOpts...),
		byTaxonomy: registry.New("taxonomies", registry.WithValidator(validateTermType)),
		classifier: svc.termClassifier,
	}
}

func (t *Terms) warm() error {
	return t.byTaxonomy.Warm()
}

// RegisterType binds tt to each of its taxonomies. Taken taxonomies are left
// alone.
func (t *Terms) RegisterType(tt TermType) error {
	return t.byTaxonomy.RegisterAll(tt.Taxonomies, &tt)
}

// OverrideType binds tt to each of its taxonomies, replacing earlier
// registrations.
func (t *Terms) OverrideType(tt TermType) error {
	for _, taxonomy := range tt.Taxonomies {
		if err := t.byTaxonomy.Override(taxonomy, &tt); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the controller for key: nil (the current term of ctx), an
// id, a record, or a string matched against the field selected with
// WithField (slug by default) inside the WithTaxonomy taxonomy.
func (t *Terms) Resolve(ctx context.Context, key any, opts ...ResolveOption) (TermController, error) {
	o := newResolveOptions(opts)

	switch k := key.(type) {
	case nil:
		rec, ok := CurrentTerm(ctx)
		if !ok {
			return nil, noCurrentRecord(controllercache.FamilyTerm)
		}
		return t.fromRecord(ctx, rec, o)
	case *content.TermRecord:
		if k == nil {
			return t.Resolve(ctx, nil, opts...)
		}
		return t.fromRecord(ctx, k, o)
	case content.TermRecord:
		return t.fromRecord(ctx, &k, o)
	case string:
		if o.field == "" || o.field == content.TermFieldID {
			if id, ok := numericID(k); ok {
				return t.byID(ctx, id, o)
			}
		}
		return t.byField(ctx, k, o)
	}

	if id, ok := idKey(key); ok {
		if o.field == content.TermFieldTermTaxonomyID {
			return t.byField(ctx, strconv.FormatInt(id, 10), o)
		}
		return t.byID(ctx, id, o)
	}
	return nil, invalidKeyType(key)
}

// ResolveMany maps args to controllers. args may be nil, a slice of keys or
// records, or a content.TermQuery (value or pointer).
func (t *Terms) ResolveMany(ctx context.Context, args any, opts ...ResolveOption) ([]TermController, error) {
	switch a := args.(type) {
	case nil:
		return []TermController{}, nil
	case *content.TermQuery:
		if a == nil {
			return []TermController{}, nil
		}
		return t.query(ctx, *a, opts)
	case content.TermQuery:
		return t.query(ctx, a, opts)
	case []*content.TermRecord:
		return resolveEach(ctx, a, opts, t.Resolve)
	case []content.TermRecord:
		return resolveEach(ctx, a, opts, t.Resolve)
	case []int64:
		return resolveEach(ctx, a, opts, t.Resolve)
	case []int:
		return resolveEach(ctx, a, opts, t.Resolve)
	case []string:
		return resolveEach(ctx, a, opts, t.Resolve)
	case []any:
		return resolveEach(ctx, a, opts, t.Resolve)
	}
	return nil, invalidKeyType(args)
}

func (t *Terms) query(ctx context.Context, q content.TermQuery, opts []ResolveOption) ([]TermController, error) {
	recs, err := t.svc.store.QueryTerms(ctx, q)
	if err != nil {
		return nil, queryError(err, "query terms")
	}
	return resolveEach(ctx, recs, opts, t.Resolve)
}

func (t *Terms) byID(ctx context.Context, id int64, o resolveOptions) (TermController, error) {
	if id <= 0 {
		return nil, notFound(TextCodeTermNotFound, "term not found", id)
	}
	w, ok := t.cache.Get(ctx, id)
	if !ok {
		var err error
		if w, err = t.load(ctx, id, nil, o); err != nil {
			return nil, err
		}
	}
	if o.taxonomy != "" && w.Base().rec.Taxonomy != o.taxonomy {
		return nil, notFound(TextCodeTermNotFound, "term not found in taxonomy", id)
	}
	return t.served(w, o), nil
}

func (t *Terms) byField(ctx context.Context, value string, o resolveOptions) (TermController, error) {
	field := o.field
	if field == "" || field == content.TermFieldID {
		field = content.TermFieldSlug
	}

	var key controllercache.Key
	switch field {
	case content.TermFieldSlug, content.TermFieldName:
		key = controllercache.Key{Field: field, Scope: o.taxonomy, Value: value}
	case content.TermFieldTermTaxonomyID:
		key = controllercache.Key{Field: field, Value: value}
	default:
		return nil, invalidKeyType(field)
	}

	// Slugs and names are only unique inside a taxonomy.
	if key.Scope != "" || field == content.TermFieldTermTaxonomyID {
		if w, ok := t.cache.GetBySecondary(ctx, key); ok {
			return t.served(w, o), nil
		}
	}

	rec, err := t.svc.store.TermBy(ctx, field, value, o.taxonomy)
	if err != nil {
		return nil, fetchError(err, TextCodeTermNotFound, "term not found", value)
	}
	return t.fromRecord(ctx, rec, o)
}

func (t *Terms) fromRecord(ctx context.Context, rec *content.TermRecord, o resolveOptions) (TermController, error) {
	if rec.ID <= 0 {
		return t.build(rec, o)
	}
	if w, ok := t.cache.Get(ctx, rec.ID); ok {
		return t.served(w, o), nil
	}
	w, err := t.load(ctx, rec.ID, rec, o)
	if err != nil {
		return nil, err
	}
	return t.served(w, o), nil
}

func (t *Terms) load(ctx context.Context, id int64, rec *content.TermRecord, o resolveOptions) (TermController, error) {
	if err := ctx.Err(); err != nil {
		return nil, abandoned(err, controllercache.FamilyTerm, id)
	}

	w, err := t.cache.Load(ctx, id, func(ctx context.Context) (TermController, error) {
		r := rec
		if r == nil {
			fetched, err := t.svc.store.TermByID(ctx, id)
			if err != nil {
				return nil, fetchError(err, TextCodeTermNotFound, "term not found", id)
			}
			r = fetched
		}
		return t.build(r, o)
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, abandoned(err, controllercache.FamilyTerm, id)
	}
	return w, nil
}

func (t *Terms) served(w TermController, o resolveOptions) TermController {
	if !o.skipMeta {
		w.Base().attachMeta()
	}
	return w
}

func (t *Terms) build(rec *content.TermRecord, o resolveOptions) (TermController, error) {
	base := newTerm(t.svc, rec)
	if !o.skipMeta {
		base.attachMeta()
	}
	base.ttype = t.classify(rec)

	w := base.ttype.New(base)
	if w == nil || w.Base() == nil {
		return nil, goerrors.New("term factory returned no controller", goerrors.CategoryInternal).
			WithTextCode(TextCodeBadFactory).
			WithMetadata(map[string]any{"type": base.ttype.Name, "id": rec.ID})
	}
	return w, nil
}

func (t *Terms) classify(rec *content.TermRecord) *TermType {
	chosen, ok := t.byTaxonomy.Lookup(rec.Taxonomy)
	if !ok {
		chosen = TermTypeBase
	}
	if t.classifier != nil {
		if c := t.classifier(rec, chosen); c != nil && c.New != nil {
			chosen = c
		}
	}
	return chosen
}

// DistinctPostTerms returns each term attached to any of posts once. posts
// is a slice of ids, records or controllers.
func (t *Terms) DistinctPostTerms(ctx context.Context, posts any, opts ...ResolveOption) ([]TermController, error) {
	var ids []int64
	switch p := posts.(type) {
	case nil:
	case []int64:
		ids = p
	case []int:
		for _, id := range p {
			ids = append(ids, int64(id))
		}
	case []*content.PostRecord:
		for _, rec := range p {
			if rec != nil {
				ids = append(ids, rec.ID)
			}
		}
	case []PostController:
		for _, w := range p {
			ids = append(ids, w.CacheID())
		}
	default:
		return nil, invalidKeyType(posts)
	}
	if len(ids) == 0 {
		return []TermController{}, nil
	}

	recs, err := t.svc.store.QueryTerms(ctx, content.TermQuery{ObjectIDs: ids})
	if err != nil {
		return nil, queryError(err, "query post terms")
	}

	seen := make(map[int64]bool, len(recs))
	distinct := make([]*content.TermRecord, 0, len(recs))
	for _, rec := range recs {
		if !seen[rec.ID] {
			seen[rec.ID] = true
			distinct = append(distinct, rec)
		}
	}
	return t.ResolveMany(ctx, distinct, opts...)
}

// Invalidate drops every cache entry that can reach rec and runs the flush
// hook of its type.
func (t *Terms) Invalidate(ctx context.Context, rec *content.TermRecord) error {
	if rec == nil {
		return nil
	}

	var ttype *TermType
	if w, ok := t.cache.Get(ctx, rec.ID); ok && w.Base().ttype != nil {
		ttype = w.Base().ttype
	} else {
		ttype = t.classify(rec)
	}

	if err := t.cache.Invalidate(ctx, rec.ID, termKeys(rec)...); err != nil {
		return err
	}
	if ttype.Flush != nil {
		if err := ttype.Flush(ctx, rec); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "term flush hook failed").
				WithMetadata(map[string]any{"type": ttype.Name, "id": rec.ID})
		}
	}
	return nil
}
