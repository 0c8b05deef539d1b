package content

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoRecord is returned by sources when a lookup has no match.
	ErrNoRecord = errors.New("content: no record")
	// ErrUnsupportedObjectType is returned by attribute sources for unknown object types.
	ErrUnsupportedObjectType = errors.New("content: unsupported object type")
)

// Order directions.
const (
	OrderAsc  = "ASC"
	OrderDesc = "DESC"
)

// Relations between tax clauses.
const (
	RelationAnd = "AND"
	RelationOr  = "OR"
)

// TaxClause restricts a post query to objects attached to any of TermIDs in Taxonomy.
// With Exclude set it instead drops objects attached to any of them.
type TaxClause struct {
	Taxonomy string
	TermIDs  []int64
	Exclude  bool
}

// MetaClause restricts a post query to objects with attribute Key set to one of Values.
// An empty Values only requires the key to exist.
type MetaClause struct {
	Key    string
	Values []string
}

// PostQuery describes a post listing. The zero value lists every published post of
// any type, newest first.
type PostQuery struct {
	Types       []string
	Statuses    []string
	Name        string
	IDs         []int64
	ExcludeIDs  []int64
	Parent      *int64
	Author      *int64
	Before      time.Time
	After       time.Time
	Tax         []TaxClause
	TaxRelation string
	Meta        []MetaClause
	OrderBy     string // date, menu_order, id, title
	Order       string
	Limit       int // zero or negative means no limit
	Offset      int
}

// TermQuery describes a term listing.
type TermQuery struct {
	Taxonomies []string
	IDs        []int64
	ExcludeIDs []int64
	Parent     *int64
	ChildOf    int64 // any depth
	Slug       string
	Name       string
	ObjectIDs  []int64
	HideEmpty  bool
	OrderBy    string // name, id, count
	Order      string
	Limit      int
}

// UserQuery describes a user listing.
type UserQuery struct {
	IDs    []int64
	Logins []string
	// AuthorsOf restricts to users owning at least one published post of these types.
	// A non-nil empty slice means any post type.
	AuthorsOf []string
	OrderBy   string // id, login, display_name
	Order     string
	Limit     int
}

// PostSource is the datastore contract for posts.
type PostSource interface {
	PostByID(ctx context.Context, id int64) (*PostRecord, error)
	// PostByName returns the first post with the given slug, restricted to postTypes
	// when given, among published or private posts.
	PostByName(ctx context.Context, name string, postTypes ...string) (*PostRecord, error)
	QueryPosts(ctx context.Context, q PostQuery) ([]*PostRecord, error)
	// ObjectTerms returns the terms attached to a post in the given taxonomies.
	ObjectTerms(ctx context.Context, objectID int64, taxonomies ...string) ([]*TermRecord, error)
}

// Term lookup fields.
const (
	TermFieldID             = "id"
	TermFieldSlug           = "slug"
	TermFieldName           = "name"
	TermFieldTermTaxonomyID = "term_taxonomy_id"
)

// TermSource is the datastore contract for terms.
type TermSource interface {
	TermByID(ctx context.Context, id int64) (*TermRecord, error)
	// TermBy looks a term up by field; taxonomy may be empty to match any.
	TermBy(ctx context.Context, field, value, taxonomy string) (*TermRecord, error)
	QueryTerms(ctx context.Context, q TermQuery) ([]*TermRecord, error)
}

// User lookup fields.
const (
	UserFieldID    = "id"
	UserFieldLogin = "login"
	UserFieldEmail = "email"
	UserFieldSlug  = "slug"
)

// UserSource is the datastore contract for users.
type UserSource interface {
	UserByID(ctx context.Context, id int64) (*UserRecord, error)
	UserBy(ctx context.Context, field, value string) (*UserRecord, error)
	QueryUsers(ctx context.Context, q UserQuery) ([]*UserRecord, error)
	// CountPosts returns published post counts per user for a post type.
	CountPosts(ctx context.Context, userIDs []int64, postType string) (map[int64]int, error)
}

// AttributeSource is the datastore contract for auxiliary attributes.
type AttributeSource interface {
	// FetchAttributes returns every raw value stored for name, in insertion order.
	FetchAttributes(ctx context.Context, objectType string, objectID int64, name string) ([]string, error)
	// FetchAllAttributes returns every attribute of an object keyed by name.
	FetchAllAttributes(ctx context.Context, objectType string, objectID int64) (map[string][]string, error)
}

// Datastore bundles every source.
type Datastore interface {
	PostSource
	TermSource
	UserSource
	AttributeSource
}
