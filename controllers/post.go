package controllers

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-content-controllers/content"
	"github.com/goliatone/go-content-controllers/controllercache"
	"github.com/goliatone/go-content-controllers/internal/textfmt"
	"github.com/goliatone/go-content-controllers/meta"
)

const statusPublish = "publish"

// Post is the base post controller. Its fields are copied from the record at
// bind time and never change afterwards.
type Post struct {
	lifecycle

	rec   content.PostRecord
	svc   *Service
	ptype *PostType

	metaOnce sync.Once
	meta     atomic.Pointer[meta.Meta]
}

func newPost(svc *Service, rec *content.PostRecord) *Post {
	p := &Post{rec: *rec, svc: svc}
	p.advance(StateBound)
	return p
}

// Base returns p.
func (p *Post) Base() *Post { return p }

// CacheID implements controllercache.Entry.
func (p *Post) CacheID() int64 { return p.rec.ID }

// CacheKeys implements controllercache.Entry.
func (p *Post) CacheKeys() []controllercache.Key { return postKeys(&p.rec) }

// ID returns the post id.
func (p *Post) ID() int64 { return p.rec.ID }

// Slug returns the post name.
func (p *Post) Slug() string { return p.rec.Name }

// PostType returns the stored post type.
func (p *Post) PostType() string { return p.rec.Type }

// Status returns the post status.
func (p *Post) Status() string { return p.rec.Status }

// Kind returns the name of the controller type the post was classified as.
func (p *Post) Kind() string {
	if p.ptype == nil {
		return ""
	}
	return p.ptype.Name
}

// Record returns a copy of the bound record.
func (p *Post) Record() content.PostRecord { return p.rec }

// Rebind returns a new, uncached controller for rec classified like p. The
// receiver is left untouched.
func (p *Post) Rebind(rec *content.PostRecord) *Post {
	next := newPost(p.svc, rec)
	next.ptype = p.ptype
	return next
}

// Meta returns the attribute accessor, attaching it on first use.
func (p *Post) Meta() *meta.Meta {
	p.attachMeta()
	return p.meta.Load()
}

func (p *Post) attachMeta() {
	p.metaOnce.Do(func() {
		p.meta.Store(meta.New(p.svc.store, content.ObjectPost, p.rec.ID,
			meta.WithResolver(postMetaResolver{p.svc.posts}),
			meta.WithLogger(p.svc.logger),
		))
		p.advance(StateMetaAttached)
	})
}

// URL returns the permalink.
func (p *Post) URL(ctx context.Context) string {
	return p.svc.links.PostURL(ctx, &p.rec)
}

// Title returns the filtered title.
func (p *Post) Title(ctx context.Context) string {
	return p.svc.filters.Apply(ctx, content.FilterTitle, p.rec.Title, p.rec.ID)
}

// PasswordRequired reports whether the post is protected and the context
// does not carry its password.
func (p *Post) PasswordRequired(ctx context.Context) bool {
	return p.rec.Password != "" && postPassword(ctx) != p.rec.Password
}

// Content returns the filtered content, or the password form when the post
// is protected.
func (p *Post) Content(ctx context.Context) string {
	if p.PasswordRequired(ctx) {
		return p.svc.filters.Apply(ctx, content.FilterPasswordBox, "", p.rec.ID)
	}
	return p.svc.filters.Apply(ctx, content.FilterContent, p.rec.Content, p.rec.ID)
}

// Excerpt returns the stored excerpt or one generated from the content.
//
// words 0 uses Config.ExcerptWords, a negative count disables trimming.
// An empty more uses Config.ExcerptMore. Protected posts have no excerpt.
func (p *Post) Excerpt(ctx context.Context, words int, more string, applyFilters bool) string {
	if p.PasswordRequired(ctx) {
		return ""
	}

	if strings.TrimSpace(p.rec.Excerpt) != "" {
		if applyFilters {
			return p.svc.filters.Apply(ctx, content.FilterExcerpt, p.rec.Excerpt, p.rec.ID)
		}
		return p.rec.Excerpt
	}

	if words == 0 {
		words = p.svc.config.ExcerptWords
	}
	if more == "" {
		more = p.svc.config.ExcerptMore
	}

	text := p.rec.Content
	if applyFilters {
		text = textfmt.Sanitize(text, textfmt.ExcerptTags)
		text = textfmt.StripShortcodes(text)
		text = p.svc.filters.Apply(ctx, content.FilterExcerpt, text, p.rec.ID)
	}
	if words < 0 {
		return text
	}
	return textfmt.TrimWords(textfmt.StripTags(text), words, more)
}

// Date formats the publish date with layout, time.DateTime when empty. A
// zero date formats as "".
func (p *Post) Date(layout string, gmt bool) string {
	if gmt {
		return formatTime(p.rec.DateGMT, layout)
	}
	return formatTime(p.rec.Date, layout)
}

// Modified formats the modification date like Date.
func (p *Post) Modified(layout string, gmt bool) string {
	if gmt {
		return formatTime(p.rec.ModifiedGMT, layout)
	}
	return formatTime(p.rec.Modified, layout)
}

func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	if layout == "" {
		layout = time.DateTime
	}
	return t.Format(layout)
}

// AdjacentOptions restricts Next and Previous.
type AdjacentOptions struct {
	// InSameTerm only considers posts sharing a term with this one.
	InSameTerm bool
	// ExcludedTerms skips posts attached to any of these term ids.
	ExcludedTerms []int64
	// Taxonomy of InSameTerm and ExcludedTerms, category by default.
	Taxonomy string
}

// Next returns the next published post of the same type by date, or nil.
func (p *Post) Next(ctx context.Context, opts AdjacentOptions) (PostController, error) {
	return p.adjacent(ctx, opts, false)
}

// Previous returns the previous published post of the same type by date, or
// nil.
func (p *Post) Previous(ctx context.Context, opts AdjacentOptions) (PostController, error) {
	return p.adjacent(ctx, opts, true)
}

func (p *Post) adjacent(ctx context.Context, opts AdjacentOptions, previous bool) (PostController, error) {
	taxonomy := opts.Taxonomy
	if taxonomy == "" {
		taxonomy = content.TaxonomyCategory
	}

	q := content.PostQuery{
		Types:      []string{p.rec.Type},
		Statuses:   []string{statusPublish},
		ExcludeIDs: []int64{p.rec.ID},
		OrderBy:    "date",
		Limit:      1,
	}
	if previous {
		q.Before = p.rec.Date
		q.Order = content.OrderDesc
	} else {
		q.After = p.rec.Date
		q.Order = content.OrderAsc
	}

	if opts.InSameTerm {
		ids, err := p.termIDs(ctx, taxonomy)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, nil
		}
		q.Tax = append(q.Tax, content.TaxClause{Taxonomy: taxonomy, TermIDs: ids})
	}
	if len(opts.ExcludedTerms) > 0 {
		q.Tax = append(q.Tax, content.TaxClause{Taxonomy: taxonomy, TermIDs: opts.ExcludedTerms, Exclude: true})
	}

	recs, err := p.svc.store.QueryPosts(ctx, q)
	if err != nil {
		return nil, queryError(err, "query adjacent post")
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return p.svc.posts.Resolve(ctx, recs[0])
}

func (p *Post) termIDs(ctx context.Context, taxonomy string) ([]int64, error) {
	terms, err := p.svc.store.ObjectTerms(ctx, p.rec.ID, taxonomy)
	if err != nil {
		return nil, queryError(err, "query object terms")
	}
	ids := make([]int64, 0, len(terms))
	for _, t := range terms {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// Terms returns the controllers of the terms attached to the post, limited
// to taxonomies when given.
func (p *Post) Terms(ctx context.Context, taxonomies ...string) ([]TermController, error) {
	recs, err := p.svc.store.ObjectTerms(ctx, p.rec.ID, taxonomies...)
	if err != nil {
		return nil, queryError(err, "query object terms")
	}
	return p.svc.terms.ResolveMany(ctx, recs)
}

// HasTerm reports whether the post is attached to term in taxonomy. term is
// an id, a slug or a name.
func (p *Post) HasTerm(ctx context.Context, taxonomy string, term any) (bool, error) {
	terms, err := p.svc.store.ObjectTerms(ctx, p.rec.ID, taxonomy)
	if err != nil {
		return false, queryError(err, "query object terms")
	}

	id, byID := idKey(term)
	s, isString := term.(string)
	if isString {
		id, byID = numericID(s)
	}
	if !byID && !isString {
		return false, invalidKeyType(term)
	}

	for _, t := range terms {
		if byID && t.ID == id {
			return true, nil
		}
		if !byID && (t.Slug == s || t.Name == s) {
			return true, nil
		}
	}
	return false, nil
}

// RelatedQuery configures RelatedBy.
type RelatedQuery struct {
	// Taxonomies whose terms relate posts. Any shared term is enough.
	Taxonomies []string
	// Types defaults to the post type of the receiver.
	Types []string
	// Count limits the result; zero or negative means no limit.
	Count int
	Meta  []content.MetaClause
}

// RelatedBy returns published posts sharing a term with p in any of the
// given taxonomies, newest first. It returns nil when p has no such terms.
func (p *Post) RelatedBy(ctx context.Context, rq RelatedQuery) ([]PostController, error) {
	var clauses []content.TaxClause
	for _, taxonomy := range rq.Taxonomies {
		ids, err := p.termIDs(ctx, taxonomy)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			clauses = append(clauses, content.TaxClause{Taxonomy: taxonomy, TermIDs: ids})
		}
	}
	if len(clauses) == 0 {
		return nil, nil
	}

	types := rq.Types
	if len(types) == 0 {
		types = []string{p.rec.Type}
	}
	return p.svc.posts.ResolveMany(ctx, content.PostQuery{
		Types:       types,
		Statuses:    []string{statusPublish},
		ExcludeIDs:  []int64{p.rec.ID},
		Tax:         clauses,
		TaxRelation: content.RelationOr,
		Meta:        rq.Meta,
		OrderBy:     "date",
		Order:       content.OrderDesc,
		Limit:       rq.Count,
	})
}

// FeaturedImage returns the picture referenced by the thumbnail attribute,
// or nil when there is none.
func (p *Post) FeaturedImage(ctx context.Context) (PostController, error) {
	id, ok := numericID(p.Meta().Get(ctx, p.svc.config.ThumbnailAttribute).First())
	if !ok || id <= 0 {
		return nil, nil
	}
	img, err := p.svc.posts.ResolveImage(ctx, id)
	if IsNotFound(err) {
		return nil, nil
	}
	return img, err
}

// Author returns the controller of the post author.
func (p *Post) Author(ctx context.Context) (UserController, error) {
	return p.svc.users.Resolve(ctx, p.rec.Author)
}
