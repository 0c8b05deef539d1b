package controllers

import (
	"context"
	"strings"
)

// Attachment is the controller of uploaded files.
type Attachment struct {
	*Post
}

// NewAttachment is the PostFactory of attachments.
func NewAttachment(base *Post) PostController {
	return &Attachment{Post: base}
}

// Alt returns the alternative text.
func (a *Attachment) Alt(ctx context.Context) string {
	return a.Meta().Get(ctx, a.svc.config.AltAttribute).String()
}

// MimeType returns the stored mime type.
func (a *Attachment) MimeType() string {
	return a.rec.MimeType
}

// FileType returns the upper-cased mime subtype, e.g. "PDF".
func (a *Attachment) FileType() string {
	_, sub, ok := strings.Cut(a.rec.MimeType, "/")
	if !ok {
		return ""
	}
	return strings.ToUpper(sub)
}

// Link returns the URL of the file itself.
func (a *Attachment) Link(ctx context.Context) string {
	return a.svc.links.AttachmentURL(ctx, &a.rec)
}
