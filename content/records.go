package content

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Object types understood by attribute sources.
const (
	ObjectPost    = "post"
	ObjectTerm    = "term"
	ObjectUser    = "user"
	ObjectComment = "comment"
)

// Well known discriminators.
const (
	PostTypePost       = "post"
	PostTypePage       = "page"
	PostTypeAttachment = "attachment"
	PostTypeRevision   = "revision"

	TaxonomyCategory = "category"
	TaxonomyTag      = "post_tag"
)

// PostRecord is a raw post row as stored by the datastore.
type PostRecord struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID              int64     `bun:"id,pk,autoincrement" json:"id"`
	Name            string    `bun:"post_name" json:"post_name"`
	Title           string    `bun:"post_title" json:"post_title"`
	Excerpt         string    `bun:"post_excerpt" json:"post_excerpt"`
	Content         string    `bun:"post_content" json:"post_content"`
	ContentFiltered string    `bun:"post_content_filtered" json:"post_content_filtered"`
	Status          string    `bun:"post_status" json:"post_status"`
	Type            string    `bun:"post_type" json:"post_type"`
	Author          int64     `bun:"post_author" json:"post_author"`
	Parent          int64     `bun:"post_parent" json:"post_parent"`
	MenuOrder       int       `bun:"menu_order" json:"menu_order"`
	Password        string    `bun:"post_password" json:"post_password"`
	GUID            string    `bun:"guid" json:"guid"`
	MimeType        string    `bun:"post_mime_type" json:"post_mime_type"`
	CommentCount    int       `bun:"comment_count" json:"comment_count"`
	CommentStatus   string    `bun:"comment_status" json:"comment_status"`
	PingStatus      string    `bun:"ping_status" json:"ping_status"`
	Date            time.Time `bun:"post_date" json:"post_date"`
	DateGMT         time.Time `bun:"post_date_gmt" json:"post_date_gmt"`
	Modified        time.Time `bun:"post_modified" json:"post_modified"`
	ModifiedGMT     time.Time `bun:"post_modified_gmt" json:"post_modified_gmt"`
}

// IsImage reports whether the record is an attachment carrying an image mime type.
func (p *PostRecord) IsImage() bool {
	return p.Type == PostTypeAttachment && strings.HasPrefix(p.MimeType, "image/")
}

// TermRecord is a raw taxonomy term. Terms are stored denormalised: one row per
// term/taxonomy pair.
type TermRecord struct {
	bun.BaseModel `bun:"table:terms,alias:t"`

	ID             int64  `bun:"term_id,pk,autoincrement" json:"term_id"`
	Name           string `bun:"name" json:"name"`
	Slug           string `bun:"slug" json:"slug"`
	Group          int64  `bun:"term_group" json:"term_group"`
	TermTaxonomyID int64  `bun:"term_taxonomy_id" json:"term_taxonomy_id"`
	Taxonomy       string `bun:"taxonomy" json:"taxonomy"`
	Description    string `bun:"description" json:"description"`
	Parent         int64  `bun:"parent" json:"parent"`
	Count          int    `bun:"count" json:"count"`
}

// UserRecord is a raw user row.
type UserRecord struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Login       string    `bun:"user_login" json:"user_login"`
	NiceName    string    `bun:"user_nicename" json:"user_nicename"`
	Email       string    `bun:"user_email" json:"user_email"`
	URL         string    `bun:"user_url" json:"user_url"`
	Registered  time.Time `bun:"user_registered" json:"user_registered"`
	Status      int       `bun:"user_status" json:"user_status"`
	DisplayName string    `bun:"display_name" json:"display_name"`

	Roles        []string        `bun:"-" json:"roles,omitempty"`
	Capabilities map[string]bool `bun:"-" json:"capabilities,omitempty"`
}

// Relationship links an object to a term taxonomy row.
type Relationship struct {
	bun.BaseModel `bun:"table:term_relationships,alias:tr"`

	ObjectID       int64 `bun:"object_id,pk" json:"object_id"`
	TermTaxonomyID int64 `bun:"term_taxonomy_id,pk" json:"term_taxonomy_id"`
}

// Attribute is a single key/value attribute row. Attributes for every object type
// share one table and are told apart by ObjectType.
type Attribute struct {
	bun.BaseModel `bun:"table:attributes,alias:a"`

	ID         int64  `bun:"meta_id,pk,autoincrement" json:"meta_id"`
	ObjectType string `bun:"object_type" json:"object_type"`
	ObjectID   int64  `bun:"object_id" json:"object_id"`
	Key        string `bun:"meta_key" json:"meta_key"`
	Value      string `bun:"meta_value" json:"meta_value"`
}

// Dataset is a bulk set of rows, used to seed datastores.
type Dataset struct {
	Posts         []PostRecord   `json:"posts"`
	Terms         []TermRecord   `json:"terms"`
	Users         []UserRecord   `json:"users"`
	Relationships []Relationship `json:"relationships"`
	Attributes    []Attribute    `json:"attributes"`
}
