package controllers

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-content-controllers/content"
	"github.com/goliatone/go-content-controllers/controllercache"
	"github.com/goliatone/go-content-controllers/meta"
)

// Term is the base term controller.
type Term struct {
	lifecycle

	rec   content.TermRecord
	svc   *Service
	ttype *TermType

	metaOnce sync.Once
	meta     atomic.Pointer[meta.Meta]
}

func newTerm(svc *Service, rec *content.TermRecord) *Term {
	t := &Term{rec: *rec, svc: svc}
	t.advance(StateBound)
	return t
}

// Base returns t.
func (t *Term) Base() *Term { return t }

// CacheID implements controllercache.Entry.
func (t *Term) CacheID() int64 { return t.rec.ID }

// CacheKeys implements controllercache.Entry.
func (t *Term) CacheKeys() []controllercache.Key { return termKeys(&t.rec) }

// ID returns the term id.
func (t *Term) ID() int64 { return t.rec.ID }

// Slug returns the term slug.
func (t *Term) Slug() string { return t.rec.Slug }

// Name returns the raw term name.
func (t *Term) Name() string { return t.rec.Name }

// Taxonomy returns the taxonomy of the term.
func (t *Term) Taxonomy() string { return t.rec.Taxonomy }

// TermTaxonomyID returns the id of the term/taxonomy pair.
func (t *Term) TermTaxonomyID() int64 { return t.rec.TermTaxonomyID }

// Count returns the number of objects attached to the term.
func (t *Term) Count() int { return t.rec.Count }

// Record returns a copy of the bound record.
func (t *Term) Record() content.TermRecord { return t.rec }

// Kind returns the name of the controller type the term was classified as.
func (t *Term) Kind() string {
	if t.ttype == nil {
		return ""
	}
	return t.ttype.Name
}

// Meta returns the attribute accessor, attaching it on first use.
func (t *Term) Meta() *meta.Meta {
	t.attachMeta()
	return t.meta.Load()
}

func (t *Term) attachMeta() {
	t.metaOnce.Do(func() {
		t.meta.Store(meta.New(t.svc.store, content.ObjectTerm, t.rec.ID,
			meta.WithResolver(postMetaResolver{t.svc.posts}),
			meta.WithLogger(t.svc.logger),
		))
		t.advance(StateMetaAttached)
	})
}

// URL returns the term archive link.
func (t *Term) URL(ctx context.Context) string {
	return t.svc.links.TermURL(ctx, &t.rec)
}

// Title returns the name through the title filter of its taxonomy.
func (t *Term) Title(ctx context.Context) string {
	filter := content.FilterTermTitle
	switch t.rec.Taxonomy {
	case content.TaxonomyCategory:
		filter = content.FilterCatTitle
	case content.TaxonomyTag:
		filter = content.FilterTagTitle
	}
	return t.svc.filters.Apply(ctx, filter, t.rec.Name)
}

// Description returns the description through the content filter.
func (t *Term) Description(ctx context.Context) string {
	return t.svc.filters.Apply(ctx, content.FilterContent, t.rec.Description)
}

// Parent returns the parent term, or nil.
func (t *Term) Parent(ctx context.Context) (TermController, error) {
	if t.rec.Parent <= 0 {
		return nil, nil
	}
	return t.svc.terms.Resolve(ctx, t.rec.Parent, WithTaxonomy(t.rec.Taxonomy))
}

// Children returns the descendants of t at any depth.
func (t *Term) Children(ctx context.Context) ([]TermController, error) {
	return t.svc.terms.ResolveMany(ctx, content.TermQuery{
		Taxonomies: []string{t.rec.Taxonomy},
		ChildOf:    t.rec.ID,
	})
}

func (t *Term) postQuery(postTypes []string) content.PostQuery {
	return content.PostQuery{
		Types:    postTypes,
		Statuses: []string{statusPublish},
		Tax:      []content.TaxClause{{Taxonomy: t.rec.Taxonomy, TermIDs: []int64{t.rec.ID}}},
		OrderBy:  "date",
	}
}

// Posts returns up to count published posts attached to t, newest first.
// No postTypes means any type; count <= 0 means no limit.
func (t *Term) Posts(ctx context.Context, count int, postTypes ...string) ([]PostController, error) {
	if t.rec.Count == 0 {
		return []PostController{}, nil
	}
	q := t.postQuery(postTypes)
	q.Order = content.OrderDesc
	q.Limit = count
	return t.svc.posts.ResolveMany(ctx, q)
}

// OldestPost returns the first published post attached to t, or nil.
func (t *Term) OldestPost(ctx context.Context, postTypes ...string) (PostController, error) {
	if t.rec.Count == 0 {
		return nil, nil
	}
	q := t.postQuery(postTypes)
	q.Order = content.OrderAsc
	q.Limit = 1
	posts, err := t.svc.posts.ResolveMany(ctx, q)
	if err != nil || len(posts) == 0 {
		return nil, err
	}
	return posts[0], nil
}
