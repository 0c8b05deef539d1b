package controllers

import (
	"context"

	"github.com/goliatone/go-content-controllers/content"
)

type ctxKey int

const (
	currentPostKey ctxKey = iota
	currentTermKey
	currentUserKey
	postPasswordKey
)

// WithCurrentPost sets the post a keyless Posts.Resolve returns.
func WithCurrentPost(ctx context.Context, rec *content.PostRecord) context.Context {
	return context.WithValue(ctx, currentPostKey, rec)
}

// WithCurrentTerm sets the term a keyless Terms.Resolve returns.
func WithCurrentTerm(ctx context.Context, rec *content.TermRecord) context.Context {
	return context.WithValue(ctx, currentTermKey, rec)
}

// WithCurrentUser sets the user a keyless Users.Resolve returns.
func WithCurrentUser(ctx context.Context, rec *content.UserRecord) context.Context {
	return context.WithValue(ctx, currentUserKey, rec)
}

// WithPostPassword carries the password the visitor supplied for protected posts.
func WithPostPassword(ctx context.Context, password string) context.Context {
	return context.WithValue(ctx, postPasswordKey, password)
}

// CurrentPost returns the post set with WithCurrentPost.
func CurrentPost(ctx context.Context) (*content.PostRecord, bool) {
	rec, ok := ctx.Value(currentPostKey).(*content.PostRecord)
	return rec, ok && rec != nil
}

// CurrentTerm returns the term set with WithCurrentTerm.
func CurrentTerm(ctx context.Context) (*content.TermRecord, bool) {
	rec, ok := ctx.Value(currentTermKey).(*content.TermRecord)
	return rec, ok && rec != nil
}

// CurrentUser returns the user set with WithCurrentUser.
func CurrentUser(ctx context.Context) (*content.UserRecord, bool) {
	rec, ok := ctx.Value(currentUserKey).(*content.UserRecord)
	return rec, ok && rec != nil
}

func postPassword(ctx context.Context) string {
	pw, _ := ctx.Value(postPasswordKey).(string)
	return pw
}
