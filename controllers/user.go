package controllers

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-content-controllers/content"
	"github.com/goliatone/go-content-controllers/controllercache"
	"github.com/goliatone/go-content-controllers/meta"
)

// Standard user attributes.
const (
	UserFirstName   = "first_name"
	UserLastName    = "last_name"
	UserDescription = "description"
)

// User is the base user controller.
type User struct {
	lifecycle

	rec   content.UserRecord
	svc   *Service
	utype *UserType

	metaOnce sync.Once
	meta     atomic.Pointer[meta.Meta]
}

func newUser(svc *Service, rec *content.UserRecord) *User {
	u := &User{rec: *rec, svc: svc}
	u.rec.Roles = slices.Clone(rec.Roles)
	if rec.Capabilities != nil {
		u.rec.Capabilities = make(map[string]bool, len(rec.Capabilities))
		for k, v := range rec.Capabilities {
			u.rec.Capabilities[k] = v
		}
	}
	u.advance(StateBound)
	return u
}

// Base returns u.
func (u *User) Base() *User { return u }

// CacheID implements controllercache.Entry.
func (u *User) CacheID() int64 { return u.rec.ID }

// CacheKeys implements controllercache.Entry.
func (u *User) CacheKeys() []controllercache.Key { return userKeys(&u.rec) }

// ID returns the user id.
func (u *User) ID() int64 { return u.rec.ID }

// Login returns the login name.
func (u *User) Login() string { return u.rec.Login }

// Email returns the email address.
func (u *User) Email() string { return u.rec.Email }

// NiceName returns the URL friendly name.
func (u *User) NiceName() string { return u.rec.NiceName }

// DisplayName returns the public name.
func (u *User) DisplayName() string { return u.rec.DisplayName }

// Roles returns a copy of the user roles.
func (u *User) Roles() []string { return slices.Clone(u.rec.Roles) }

// Can reports whether the user holds capability.
func (u *User) Can(capability string) bool { return u.rec.Capabilities[capability] }

// Kind returns the name of the controller type the user was classified as.
func (u *User) Kind() string {
	if u.utype == nil {
		return ""
	}
	return u.utype.Name
}

// Record returns a copy of the bound record.
func (u *User) Record() content.UserRecord {
	rec := u.rec
	rec.Roles = slices.Clone(u.rec.Roles)
	return rec
}

// Meta returns the attribute accessor, attaching it on first use.
func (u *User) Meta() *meta.Meta {
	u.attachMeta()
	return u.meta.Load()
}

func (u *User) attachMeta() {
	u.metaOnce.Do(func() {
		u.meta.Store(meta.New(u.svc.store, content.ObjectUser, u.rec.ID,
			meta.WithResolver(postMetaResolver{u.svc.posts}),
			meta.WithLogger(u.svc.logger),
		))
		u.advance(StateMetaAttached)
	})
}

// FirstName returns the first_name attribute.
func (u *User) FirstName(ctx context.Context) string {
	return u.Meta().Get(ctx, UserFirstName).String()
}

// LastName returns the last_name attribute.
func (u *User) LastName(ctx context.Context) string {
	return u.Meta().Get(ctx, UserLastName).String()
}

// Description returns the biography attribute.
func (u *User) Description(ctx context.Context) string {
	return u.Meta().Get(ctx, UserDescription).String()
}

// Registered formats the registration date with layout, or as a unix
// timestamp when layout is "timestamp".
func (u *User) Registered(layout string) string {
	if layout == meta.DateTimestamp {
		if u.rec.Registered.IsZero() {
			return ""
		}
		return strconv.FormatInt(u.rec.Registered.Unix(), 10)
	}
	return formatTime(u.rec.Registered, layout)
}

// PostsURL returns the author archive link.
func (u *User) PostsURL(ctx context.Context) string {
	return u.svc.links.AuthorPostsURL(ctx, u.rec.ID)
}
