package controllers

import (
	"context"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-content-controllers/content"
)

// SizeFull is the original upload.
const SizeFull = "full"

type sizeLookup struct {
	size content.ImageSize
	ok   bool
}

// Picture is the controller of image attachments.
type Picture struct {
	*Attachment
	sizes *xsync.MapOf[string, sizeLookup]
}

// NewPicture is the PostFactory of image attachments.
func NewPicture(base *Post) PostController {
	return &Picture{
		Attachment: &Attachment{Post: base},
		sizes:      xsync.NewMapOf[string, sizeLookup](),
	}
}

// Details returns the rendered variant for size. Lookups are memoized.
func (p *Picture) Details(ctx context.Context, size string) (content.ImageSize, bool) {
	if hit, ok := p.sizes.Load(size); ok {
		return hit.size, hit.ok
	}
	img, ok := p.svc.sizes.ImageSize(ctx, p.rec.ID, size)
	p.sizes.Store(size, sizeLookup{size: img, ok: ok})
	return img, ok
}

// Src returns the URL for size. When wide is set the size depends on the
// orientation of the original: landscape images use wide, square ones use
// square (or size when empty) and portrait ones use size.
func (p *Picture) Src(ctx context.Context, size, wide, square string) string {
	if wide != "" {
		w, h := p.Width(ctx, SizeFull), p.Height(ctx, SizeFull)
		switch {
		case w > h:
			size = wide
		case w == h && square != "":
			size = square
		}
	}
	img, _ := p.Details(ctx, size)
	return img.URL
}

// SrcsetEntry is one candidate of a srcset. Sizes holds the Src arguments:
// size, then optionally wide and square.
type SrcsetEntry struct {
	Qualifier string
	Sizes     []string
}

// ParseSrcset reads the compact form "200w->small|600w->medium|1200w->tall,wide".
func ParseSrcset(s string) []SrcsetEntry {
	var entries []SrcsetEntry
	for _, pair := range strings.Split(s, "|") {
		qualifier, sizes, ok := strings.Cut(pair, "->")
		if !ok {
			continue
		}
		e := SrcsetEntry{Qualifier: strings.TrimSpace(qualifier)}
		for _, size := range strings.Split(sizes, ",") {
			e.Sizes = append(e.Sizes, strings.TrimSpace(size))
		}
		entries = append(entries, e)
	}
	return entries
}

// Srcset renders a srcset attribute from its compact form.
func (p *Picture) Srcset(ctx context.Context, s string) string {
	return p.SrcsetOf(ctx, ParseSrcset(s))
}

// SrcsetOf renders a srcset attribute in entry order.
func (p *Picture) SrcsetOf(ctx context.Context, entries []SrcsetEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		var size, wide, square string
		if len(e.Sizes) > 0 {
			size = e.Sizes[0]
		}
		if len(e.Sizes) > 1 {
			wide = e.Sizes[1]
		}
		if len(e.Sizes) > 2 {
			square = e.Sizes[2]
		}
		parts = append(parts, p.Src(ctx, size, wide, square)+" "+e.Qualifier)
	}
	return strings.Join(parts, ", ")
}

// Width returns the width of size in pixels.
func (p *Picture) Width(ctx context.Context, size string) int {
	img, _ := p.Details(ctx, size)
	return img.Width
}

// Height returns the height of size in pixels.
func (p *Picture) Height(ctx context.Context, size string) int {
	img, _ := p.Details(ctx, size)
	return img.Height
}

// IsResized reports whether size is a generated variant.
func (p *Picture) IsResized(ctx context.Context, size string) bool {
	img, _ := p.Details(ctx, size)
	return img.Resized
}
