package controllers

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-content-controllers/content"
)

// Text codes carried by resolver errors.
const (
	TextCodePostIDNotFound   = "POST_ID_NOT_FOUND"
	TextCodePostSlugNotFound = "POST_SLUG_NOT_FOUND"
	TextCodeTermNotFound     = "TERM_NOT_FOUND"
	TextCodeUserNotFound     = "USER_NOT_FOUND"
	TextCodeNoCurrentRecord  = "NO_CURRENT_RECORD"
	TextCodeInvalidKeyType   = "INVALID_KEY_TYPE"
	TextCodeDatastore        = "DATASTORE_ERROR"
	TextCodeAbandoned        = "RESOLUTION_ABANDONED"
	TextCodeBadFactory       = "INVALID_FACTORY_RESULT"
)

func notFound(code, message string, key any) error {
	return goerrors.New(message, goerrors.CategoryNotFound).
		WithTextCode(code).
		WithMetadata(map[string]any{"key": key})
}

func noCurrentRecord(family string) error {
	return goerrors.New("no current "+family+" in context", goerrors.CategoryBadInput).
		WithTextCode(TextCodeNoCurrentRecord).
		WithMetadata(map[string]any{"family": family})
}

func invalidKeyType(key any) error {
	return goerrors.New("unsupported key type", goerrors.CategoryBadInput).
		WithTextCode(TextCodeInvalidKeyType).
		WithMetadata(map[string]any{"key": key})
}

// fetchError maps a datastore failure. Misses become NotFound with code;
// anything else is an external error.
func fetchError(err error, code, message string, key any) error {
	if errors.Is(err, content.ErrNoRecord) || goerrors.IsNotFound(err) {
		return notFound(code, message, key)
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, "datastore lookup failed").
		WithTextCode(TextCodeDatastore).
		WithMetadata(map[string]any{"key": key})
}

func queryError(err error, op string) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, op).
		WithTextCode(TextCodeDatastore)
}

func abandoned(err error, family string, id int64) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "resolution abandoned").
		WithTextCode(TextCodeAbandoned).
		WithMetadata(map[string]any{"family": family, "id": id})
}

func hasTextCode(err error, code string) bool {
	var e *goerrors.Error
	return goerrors.As(err, &e) && e.TextCode == code
}

// IsNotFound reports whether err means no record matched the key.
func IsNotFound(err error) bool {
	return goerrors.IsNotFound(err)
}

// IsNoCurrentRecord reports whether err came from a keyless resolve without a
// current record in the context.
func IsNoCurrentRecord(err error) bool {
	return hasTextCode(err, TextCodeNoCurrentRecord)
}

// IsInvalidKeyType reports whether err came from an unsupported key.
func IsInvalidKeyType(err error) bool {
	return hasTextCode(err, TextCodeInvalidKeyType)
}
