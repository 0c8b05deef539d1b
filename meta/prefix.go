package meta

import (
	"context"
	"regexp"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-content-controllers/content"
)

// Key prefixes understood by Load, e.g. "{array}gallery-ids".
const (
	PrefixArray    = "array"
	PrefixAutop    = "autop"
	PrefixAntispam = "antispam"
	PrefixGroup    = "group"
	PrefixGroups   = "groups"
	// legacy spellings
	PrefixPG  = "pg"
	PrefixPAG = "pag"
)

// The prefix runs to the last closing brace.
var prefixedKey = regexp.MustCompile(`^(?:\{(.*)\})?(.*)$`)

// ParseKey splits a stored key into its {prefix} and a field name with
// hyphens replaced by underscores.
func ParseKey(key string) (prefix, name string) {
	if !strings.HasPrefix(key, "{") {
		return "", strings.ReplaceAll(key, "-", "_")
	}
	m := prefixedKey.FindStringSubmatch(key)
	return m[1], strings.ReplaceAll(m[2], "-", "_")
}

// applyPrefix converts raw values as selected by prefix. Unknown prefixes
// behave like no prefix: one value collapses to itself, several stay a list.
func applyPrefix(prefix string, v Value) any {
	switch prefix {
	case PrefixArray:
		return v.Values()
	case PrefixGroup, PrefixPG:
		rows := decodeGroups(v.First())
		if len(rows) == 0 {
			return nil
		}
		return rows[0]
	case PrefixGroups, PrefixPAG:
		return decodeGroups(v.First())
	case PrefixAutop:
		return autopValue(v)
	case PrefixAntispam:
		return antispamValue(v)
	default:
		return v.Raw()
	}
}

// Load fetches every attribute of the object at once and applies the key
// prefix convention. Fields become available through Field and Lookup under
// their cleaned names; the raw values are memoized for Get as well.
func (m *Meta) Load(ctx context.Context) error {
	all, err := m.source.FetchAllAttributes(ctx, m.objectType, m.objectID)
	if goerrors.Is(err, content.ErrUnsupportedObjectType) {
		m.logger.DebugContext(ctx, "attribute backend unsupported",
			"object_type", m.objectType, "object_id", m.objectID)
		return nil
	}
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "fetch attributes").
			WithTextCode("ATTRIBUTE_FETCH_FAILED").
			WithMetadata(map[string]any{"object_type": m.objectType, "object_id": m.objectID})
	}

	for key, raw := range all {
		prefix, name := ParseKey(key)
		v := NewValue(raw...)
		m.values.Store(name, v)
		m.fields.Store(name, applyPrefix(prefix, v))
	}
	return nil
}

// Field returns a value stored by Load.
func (m *Meta) Field(name string) (any, bool) {
	return m.fields.Load(name)
}

// Fields returns a copy of everything stored by Load.
func (m *Meta) Fields() map[string]any {
	out := make(map[string]any, m.fields.Size())
	m.fields.Range(func(k string, v any) bool {
		out[k] = v
		return true
	})
	return out
}
