package controllers

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-content-controllers/content"
	"github.com/goliatone/go-content-controllers/controllercache"
)

// PostController is implemented by every post wrapper. Custom types embed
// *Post (or one of its subtypes) and return it from Base.
type PostController interface {
	controllercache.Entry
	Base() *Post
}

// TermController is implemented by every term wrapper.
type TermController interface {
	controllercache.Entry
	Base() *Term
}

// UserController is implemented by every user wrapper.
type UserController interface {
	controllercache.Entry
	Base() *User
}

// PostFactory builds a wrapper around a bound base post.
type PostFactory func(base *Post) PostController

// TermFactory builds a wrapper around a bound base term.
type TermFactory func(base *Term) TermController

// UserFactory builds a wrapper around a bound base user.
type UserFactory func(base *User) UserController

// PostType describes a post controller and the discriminators selecting it.
type PostType struct {
	Name string
	// PostTypes selects the type by post type.
	PostTypes []string
	// Templates selects the type by page template, for template capable
	// post types. A ".php" suffix is ignored.
	Templates []string
	// MimeTypes selects the type for attachments, by full mime type
	// ("image/png") or major type ("image").
	MimeTypes []string
	New       PostFactory
	// Flush runs after a post of this type is invalidated.
	Flush func(ctx context.Context, rec *content.PostRecord) error
}

// TermType describes a term controller.
type TermType struct {
	Name       string
	Taxonomies []string
	New        TermFactory
	Flush      func(ctx context.Context, rec *content.TermRecord) error
}

// UserType describes a user controller.
type UserType struct {
	Name  string
	New   UserFactory
	Flush func(ctx context.Context, rec *content.UserRecord) error
}

// PostClassifier may replace the type picked for a post. Returning nil keeps
// chosen.
type PostClassifier func(rec *content.PostRecord, chosen *PostType) *PostType

// TermClassifier may replace the type picked for a term.
type TermClassifier func(rec *content.TermRecord, chosen *TermType) *TermType

// UserClassifier may replace the type picked for a user.
type UserClassifier func(rec *content.UserRecord, chosen *UserType) *UserType

var errNilType = errors.New("type is nil")

func requireFactory(isNil bool) validation.Rule {
	return validation.By(func(any) error {
		if isNil {
			return errors.New("factory is required")
		}
		return nil
	})
}

func validatePostType(t *PostType) error {
	if t == nil {
		return errNilType
	}
	return validation.ValidateStruct(t,
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.New, requireFactory(t.New == nil)),
	)
}

func validateTermType(t *TermType) error {
	if t == nil {
		return errNilType
	}
	return validation.ValidateStruct(t,
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.New, requireFactory(t.New == nil)),
	)
}

func validateUserType(t *UserType) error {
	if t == nil {
		return errNilType
	}
	return validation.ValidateStruct(t,
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.New, requireFactory(t.New == nil)),
	)
}

func normalizeTemplate(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, ".php")
	if name == "default" {
		return ""
	}
	return name
}

func mimeMajor(mime string) string {
	major, _, _ := strings.Cut(mime, "/")
	return major
}

// Built-in types.
var (
	PostTypeBase = &PostType{
		Name:      "post",
		PostTypes: []string{content.PostTypePost},
		New:       func(base *Post) PostController { return base },
	}
	PostTypePage = &PostType{
		Name:      "page",
		PostTypes: []string{content.PostTypePage},
		New:       NewPage,
	}
	PostTypeAttachment = &PostType{
		Name:      "attachment",
		PostTypes: []string{content.PostTypeAttachment},
		New:       NewAttachment,
	}
	PostTypePicture = &PostType{
		Name:      "picture",
		MimeTypes: []string{"image"},
		New:       NewPicture,
	}
	TermTypeBase = &TermType{
		Name: "term",
		New:  func(base *Term) TermController { return base },
	}
	UserTypeBase = &UserType{
		Name: "user",
		New:  func(base *User) UserController { return base },
	}
)
