package controllers

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-content-controllers/content"
)

// Config holds the content conventions the resolvers rely on.
type Config struct {
	// TemplatePostTypes lists the post types whose template can pick a controller.
	TemplatePostTypes []string
	// TemplateAttribute stores the template slug of a post.
	TemplateAttribute string
	// ThumbnailAttribute stores the featured image id of a post.
	ThumbnailAttribute string
	// AltAttribute stores the alternative text of an attachment.
	AltAttribute string
	// ExcerptWords is the word limit of generated excerpts.
	ExcerptWords int
	// ExcerptMore is appended to trimmed excerpts.
	ExcerptMore string
	// UserStandardMeta is preloaded for every user unless WithoutStandardMeta is passed.
	UserStandardMeta []string
}

// DefaultConfig returns the conventions of a stock install.
func DefaultConfig() Config {
	return Config{
		TemplatePostTypes:  []string{content.PostTypePage},
		TemplateAttribute:  "_wp_page_template",
		ThumbnailAttribute: "_thumbnail_id",
		AltAttribute:       "_wp_attachment_image_alt",
		ExcerptWords:       40,
		ExcerptMore:        "...",
		UserStandardMeta:   []string{"first_name", "last_name", "description"},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	err := goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&c,
			validation.Field(&c.TemplateAttribute, validation.Required),
			validation.Field(&c.ThumbnailAttribute, validation.Required),
			validation.Field(&c.AltAttribute, validation.Required),
			validation.Field(&c.ExcerptWords, validation.Min(0)),
		)
	}, "invalid controllers config")
	if err != nil {
		return err.WithTextCode("CONTROLLERS_CONFIG_INVALID")
	}
	return nil
}

func (c Config) templateCapable(postType string) bool {
	for _, t := range c.TemplatePostTypes {
		if t == postType {
			return true
		}
	}
	return false
}
