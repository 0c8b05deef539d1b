package content

import (
	"context"
	"fmt"
	"strings"
)

// Links resolves public URLs. It is owned by the host application.
type Links interface {
	PostURL(ctx context.Context, p *PostRecord) string
	PostTypeArchiveURL(ctx context.Context, postType string) string
	TermURL(ctx context.Context, t *TermRecord) string
	AuthorPostsURL(ctx context.Context, userID int64) string
	AttachmentURL(ctx context.Context, p *PostRecord) string
}

// Filter names applied through Filters.
const (
	FilterTitle       = "the_title"
	FilterContent     = "the_content"
	FilterExcerpt     = "the_excerpt"
	FilterCatTitle    = "single_cat_title"
	FilterTagTitle    = "single_tag_title"
	FilterTermTitle   = "single_term_title"
	FilterPasswordBox = "the_password_form"
)

// Filters applies host text filters (formatting, shortcodes, etc).
type Filters interface {
	Apply(ctx context.Context, name, value string, args ...any) string
}

// ImageSize describes a rendered image variant.
type ImageSize struct {
	URL     string
	Width   int
	Height  int
	Resized bool
}

// ImageSizes resolves rendered variants for image attachments.
type ImageSizes interface {
	ImageSize(ctx context.Context, attachmentID int64, size string) (ImageSize, bool)
}

// NopFilters returns values unchanged.
type NopFilters struct{}

func (NopFilters) Apply(_ context.Context, _ string, value string, _ ...any) string { return value }

// PathLinks builds URLs from a base URL and slugs. It is a reasonable default for
// hosts without their own permalink structure.
type PathLinks struct {
	BaseURL string
}

func (l PathLinks) base() string { return strings.TrimRight(l.BaseURL, "/") }

func (l PathLinks) PostURL(_ context.Context, p *PostRecord) string {
	if p.Type == PostTypePost || p.Type == PostTypePage {
		return fmt.Sprintf("%s/%s/", l.base(), p.Name)
	}
	return fmt.Sprintf("%s/%s/%s/", l.base(), p.Type, p.Name)
}

func (l PathLinks) PostTypeArchiveURL(_ context.Context, postType string) string {
	return fmt.Sprintf("%s/%s/", l.base(), postType)
}

func (l PathLinks) TermURL(_ context.Context, t *TermRecord) string {
	return fmt.Sprintf("%s/%s/%s/", l.base(), t.Taxonomy, t.Slug)
}

func (l PathLinks) AuthorPostsURL(_ context.Context, userID int64) string {
	return fmt.Sprintf("%s/?author=%d", l.base(), userID)
}

func (l PathLinks) AttachmentURL(_ context.Context, p *PostRecord) string {
	if p.GUID != "" {
		return p.GUID
	}
	return fmt.Sprintf("%s/uploads/%s", l.base(), p.Name)
}
