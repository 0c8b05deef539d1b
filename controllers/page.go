package controllers

import (
	"context"

	"github.com/goliatone/go-content-controllers/content"
)

// Page is the controller of hierarchical pages.
type Page struct {
	*Post
}

// NewPage is the PostFactory of pages.
func NewPage(base *Post) PostController {
	return &Page{Post: base}
}

// Template returns the template slug without its ".php" suffix, "" for the
// default template.
func (p *Page) Template(ctx context.Context) string {
	return normalizeTemplate(p.Meta().Get(ctx, p.svc.config.TemplateAttribute).First())
}

// Parent returns the parent page, or nil for top level pages.
func (p *Page) Parent(ctx context.Context) (PostController, error) {
	if p.rec.Parent <= 0 {
		return nil, nil
	}
	return p.svc.posts.Resolve(ctx, p.rec.Parent)
}

// Children returns the published child pages ordered by menu order.
func (p *Page) Children(ctx context.Context) ([]PostController, error) {
	parent := p.rec.ID
	return p.svc.posts.ResolveMany(ctx, content.PostQuery{
		Types:    []string{p.rec.Type},
		Statuses: []string{statusPublish},
		Parent:   &parent,
		OrderBy:  "menu_order",
		Order:    content.OrderAsc,
	})
}
