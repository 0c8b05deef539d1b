package controllers

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-content-controllers/content"
	"github.com/goliatone/go-content-controllers/controllercache"
)

const fieldSlug = "slug"

// postKeys indexes a post by slug, once unscoped and once scoped by post type.
func postKeys(rec *content.PostRecord) []controllercache.Key {
	if rec.Name == "" {
		return nil
	}
	return []controllercache.Key{
		{Field: fieldSlug, Value: rec.Name},
		{Field: fieldSlug, Scope: rec.Type, Value: rec.Name},
	}
}

func postSlugKey(slug string, types []string) controllercache.Key {
	if len(types) == 1 {
		return controllercache.Key{Field: fieldSlug, Scope: types[0], Value: slug}
	}
	return controllercache.Key{Field: fieldSlug, Value: slug}
}

// termKeys indexes a term by slug and name within its taxonomy, and by its
// term_taxonomy_id.
func termKeys(rec *content.TermRecord) []controllercache.Key {
	keys := make([]controllercache.Key, 0, 3)
	if rec.Slug != "" {
		keys = append(keys, controllercache.Key{Field: content.TermFieldSlug, Scope: rec.Taxonomy, Value: rec.Slug})
	}
	if rec.Name != "" {
		keys = append(keys, controllercache.Key{Field: content.TermFieldName, Scope: rec.Taxonomy, Value: rec.Name})
	}
	if rec.TermTaxonomyID > 0 {
		keys = append(keys, controllercache.Key{
			Field: content.TermFieldTermTaxonomyID,
			Value: strconv.FormatInt(rec.TermTaxonomyID, 10),
		})
	}
	return keys
}

func userKeys(rec *content.UserRecord) []controllercache.Key {
	keys := make([]controllercache.Key, 0, 3)
	if rec.Email != "" {
		keys = append(keys, controllercache.Key{Field: content.UserFieldEmail, Value: strings.ToLower(rec.Email)})
	}
	if rec.NiceName != "" {
		keys = append(keys, controllercache.Key{Field: content.UserFieldSlug, Value: rec.NiceName})
	}
	if rec.Login != "" {
		keys = append(keys, controllercache.Key{Field: content.UserFieldLogin, Value: rec.Login})
	}
	return keys
}

// idKey converts integer kinds to an id.
func idKey(key any) (int64, bool) {
	switch k := key.(type) {
	case int:
		return int64(k), true
	case int8:
		return int64(k), true
	case int16:
		return int64(k), true
	case int32:
		return int64(k), true
	case int64:
		return k, true
	case uint:
		return int64(k), true
	case uint8:
		return int64(k), true
	case uint16:
		return int64(k), true
	case uint32:
		return int64(k), true
	case uint64:
		return int64(k), true
	}
	return 0, false
}

// numericID parses strings made only of digits.
func numericID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
