package controllers

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-content-controllers/content"
	"github.com/goliatone/go-content-controllers/controllercache"
)

// Users resolves user controllers.
type Users struct {
	svc        *Service
	cache      *controllercache.Cache[UserController]
	classifier UserClassifier
}

func newUsers(svc *Service, cacheOpts []controllercache.Option) *Users {
	return &Users{
		svc:        svc,
		cache:      controllercache.New[UserController](controllercache.FamilyUser, svc.cache, cacheOpts...),
		classifier: svc.userClassifier,
	}
}

func (u *Users) warm() error {
	return validateUserType(UserTypeBase)
}

// Resolve returns the controller for key: nil (the current user of ctx), an
// id, a record, or a string matched against the field selected with
// WithField (login by default).
func (u *Users) Resolve(ctx context.Context, key any, opts ...ResolveOption) (UserController, error) {
	o := newResolveOptions(opts)

	switch k := key.(type) {
	case nil:
		rec, ok := CurrentUser(ctx)
		if !ok {
			return nil, noCurrentRecord(controllercache.FamilyUser)
		}
		return u.fromRecord(ctx, rec, o)
	case *content.UserRecord:
		if k == nil {
			return u.Resolve(ctx, nil, opts...)
		}
		return u.fromRecord(ctx, k, o)
	case content.UserRecord:
		return u.fromRecord(ctx, &k, o)
	case string:
		if o.field == "" || o.field == content.UserFieldID {
			if id, ok := numericID(k); ok {
				return u.byID(ctx, id, o)
			}
		}
		return u.byField(ctx, k, o)
	}

	if id, ok := idKey(key); ok {
		return u.byID(ctx, id, o)
	}
	return nil, invalidKeyType(key)
}

// ResolveMany maps args to controllers. args may be nil, a slice of keys or
// records, or a content.UserQuery (value or pointer).
func (u *Users) ResolveMany(ctx context.Context, args any, opts ...ResolveOption) ([]UserController, error) {
	switch a := args.(type) {
	case nil:
		return []UserController{}, nil
	case *content.UserQuery:
		if a == nil {
			return []UserController{}, nil
		}
		return u.query(ctx, *a, opts)
	case content.UserQuery:
		return u.query(ctx, a, opts)
	case []*content.UserRecord:
		return resolveEach(ctx, a, opts, u.Resolve)
	case []content.UserRecord:
		return resolveEach(ctx, a, opts, u.Resolve)
	case []int64:
		return resolveEach(ctx, a, opts, u.Resolve)
	case []int:
		return resolveEach(ctx, a, opts, u.Resolve)
	case []string:
		return resolveEach(ctx, a, opts, u.Resolve)
	case []any:
		return resolveEach(ctx, a, opts, u.Resolve)
	}
	return nil, invalidKeyType(args)
}

func (u *Users) query(ctx context.Context, q content.UserQuery, opts []ResolveOption) ([]UserController, error) {
	recs, err := u.svc.store.QueryUsers(ctx, q)
	if err != nil {
		return nil, queryError(err, "query users")
	}
	return resolveEach(ctx, recs, opts, u.Resolve)
}

func (u *Users) byID(ctx context.Context, id int64, o resolveOptions) (UserController, error) {
	if id <= 0 {
		return nil, notFound(TextCodeUserNotFound, "user not found", id)
	}
	if w, ok := u.cache.Get(ctx, id); ok {
		return u.served(ctx, w, o), nil
	}
	return u.load(ctx, id, nil, o)
}

func (u *Users) byField(ctx context.Context, value string, o resolveOptions) (UserController, error) {
	field := o.field
	if field == "" || field == content.UserFieldID {
		field = content.UserFieldLogin
	}

	keyValue := value
	switch field {
	case content.UserFieldEmail:
		keyValue = strings.ToLower(value)
	case content.UserFieldLogin, content.UserFieldSlug:
	default:
		return nil, invalidKeyType(field)
	}

	if w, ok := u.cache.GetBySecondary(ctx, controllercache.Key{Field: field, Value: keyValue}); ok {
		return u.served(ctx, w, o), nil
	}

	rec, err := u.svc.store.UserBy(ctx, field, value)
	if err != nil {
		return nil, fetchError(err, TextCodeUserNotFound, "user not found", value)
	}
	return u.fromRecord(ctx, rec, o)
}

func (u *Users) fromRecord(ctx context.Context, rec *content.UserRecord, o resolveOptions) (UserController, error) {
	if rec.ID <= 0 {
		w, err := u.build(rec, o)
		if err != nil {
			return nil, err
		}
		return u.served(ctx, w, o), nil
	}
	if w, ok := u.cache.Get(ctx, rec.ID); ok {
		return u.served(ctx, w, o), nil
	}
	return u.load(ctx, rec.ID, rec, o)
}

func (u *Users) load(ctx context.Context, id int64, rec *content.UserRecord, o resolveOptions) (UserController, error) {
	if err := ctx.Err(); err != nil {
		return nil, abandoned(err, controllercache.FamilyUser, id)
	}

	w, err := u.cache.Load(ctx, id, func(ctx context.Context) (UserController, error) {
		r := rec
		if r == nil {
			fetched, err := u.svc.store.UserByID(ctx, id)
			if err != nil {
				return nil, fetchError(err, TextCodeUserNotFound, "user not found", id)
			}
			r = fetched
		}
		return u.build(r, o)
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, abandoned(err, controllercache.FamilyUser, id)
	}
	return u.served(ctx, w, o), nil
}

// served attaches Meta and preloads the standard attributes unless the
// options opt out.
func (u *Users) served(ctx context.Context, w UserController, o resolveOptions) UserController {
	if o.skipMeta {
		return w
	}
	m := w.Base().Meta()
	if !o.skipStandardMeta {
		for _, name := range u.svc.config.UserStandardMeta {
			m.Get(ctx, name)
		}
	}
	return w
}

func (u *Users) build(rec *content.UserRecord, o resolveOptions) (UserController, error) {
	base := newUser(u.svc, rec)
	if !o.skipMeta {
		base.attachMeta()
	}
	base.utype = u.classify(rec)

	w := base.utype.New(base)
	if w == nil || w.Base() == nil {
		return nil, goerrors.New("user factory returned no controller", goerrors.CategoryInternal).
			WithTextCode(TextCodeBadFactory).
			WithMetadata(map[string]any{"type": base.utype.Name, "id": rec.ID})
	}
	return w, nil
}

func (u *Users) classify(rec *content.UserRecord) *UserType {
	chosen := UserTypeBase
	if u.classifier != nil {
		if c := u.classifier(rec, chosen); c != nil && c.New != nil {
			chosen = c
		}
	}
	return chosen
}

// Authors returns the users owning at least one published post of
// postTypes, or of any type when none are given.
func (u *Users) Authors(ctx context.Context, postTypes ...string) ([]UserController, error) {
	if postTypes == nil {
		postTypes = []string{}
	}
	return u.ResolveMany(ctx, content.UserQuery{AuthorsOf: postTypes, OrderBy: "id", Order: content.OrderAsc})
}

// PostCounts returns published post counts per user and post type. No
// userIDs means every user; no postTypes means content.PostTypePost.
func (u *Users) PostCounts(ctx context.Context, userIDs []int64, postTypes ...string) (map[int64]map[string]int, error) {
	if len(userIDs) == 0 {
		recs, err := u.svc.store.QueryUsers(ctx, content.UserQuery{})
		if err != nil {
			return nil, queryError(err, "query users")
		}
		for _, rec := range recs {
			userIDs = append(userIDs, rec.ID)
		}
	}
	if len(postTypes) == 0 {
		postTypes = []string{content.PostTypePost}
	}

	out := make(map[int64]map[string]int, len(userIDs))
	for _, id := range userIDs {
		out[id] = make(map[string]int, len(postTypes))
	}
	for _, postType := range postTypes {
		counts, err := u.svc.store.CountPosts(ctx, userIDs, postType)
		if err != nil {
			return nil, queryError(err, "count user posts")
		}
		for _, id := range userIDs {
			out[id][postType] = counts[id]
		}
	}
	return out, nil
}

// Invalidate drops every cache entry that can reach rec and runs the flush
// hook of its type.
func (u *Users) Invalidate(ctx context.Context, rec *content.UserRecord) error {
	if rec == nil {
		return nil
	}

	var utype *UserType
	if w, ok := u.cache.Get(ctx, rec.ID); ok && w.Base().utype != nil {
		utype = w.Base().utype
	} else {
		utype = u.classify(rec)
	}

	if err := u.cache.Invalidate(ctx, rec.ID, userKeys(rec)...); err != nil {
		return err
	}
	if utype.Flush != nil {
		if err := utype.Flush(ctx, rec); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "user flush hook failed").
				WithMetadata(map[string]any{"type": utype.Name, "id": rec.ID})
		}
	}
	return nil
}
