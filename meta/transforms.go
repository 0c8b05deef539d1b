package meta

import (
	"context"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/tidwall/gjson"

	"github.com/goliatone/go-content-controllers/internal/textfmt"
)

// TransformFunc converts raw values. args are the extra Transform arguments.
type TransformFunc func(ctx context.Context, m *Meta, v Value, args ...any) (any, error)

// Built-in transform ids.
const (
	TransformSingle      = "single"
	TransformAll         = "all"
	TransformImage       = "image"
	TransformImages      = "images"
	TransformController  = "controller"
	TransformControllers = "controllers"
	TransformDate        = "date"
	TransformGroup       = "group"
	TransformGroups      = "groups"
	TransformAutop       = "autop"
	TransformAntispam    = "antispam"
	TransformInt         = "int"
)

// DateTimestamp makes the date transform return a unix timestamp.
const DateTimestamp = "timestamp"

var builtins = map[string]TransformFunc{
	TransformSingle:      single,
	TransformAll:         all,
	TransformImage:       image,
	TransformImages:      images,
	TransformController:  controller,
	TransformControllers: controllers,
	TransformDate:        date,
	TransformGroup:       group,
	TransformGroups:      groups,
	TransformAutop:       autopTransform,
	TransformAntispam:    antispamTransform,
	TransformInt:         toInt,
}

// Transforms returns the ids of the built-in transforms.
func Transforms() []string {
	ids := make([]string, 0, len(builtins))
	for id := range builtins {
		ids = append(ids, id)
	}
	return ids
}

func single(_ context.Context, _ *Meta, v Value, _ ...any) (any, error) {
	if v.Len() == 0 {
		return nil, nil
	}
	return v.First(), nil
}

func all(_ context.Context, _ *Meta, v Value, _ ...any) (any, error) {
	return v.Values(), nil
}

func parseIDs(v Value) []int64 {
	ids := make([]int64, 0, v.Len())
	for _, s := range v.values {
		for _, part := range strings.Split(s, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err == nil && id > 0 {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (m *Meta) requireResolver(transform string) error {
	if m.resolver == nil {
		return goerrors.New("no resolver configured", goerrors.CategoryInternal).
			WithTextCode("RESOLVER_MISSING").
			WithMetadata(map[string]any{"transform": transform})
	}
	return nil
}

func resolveOne(ctx context.Context, m *Meta, v Value, transform string, fn func(context.Context, int64) (any, error)) (any, error) {
	ids := parseIDs(v)
	if len(ids) == 0 {
		return nil, nil
	}
	if err := m.requireResolver(transform); err != nil {
		return nil, err
	}
	out, err := fn(ctx, ids[0])
	if goerrors.IsNotFound(err) {
		return nil, nil
	}
	return out, err
}

func resolveEach(ctx context.Context, m *Meta, v Value, transform string, fn func(context.Context, int64) (any, error)) (any, error) {
	ids := parseIDs(v)
	out := make([]any, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	if err := m.requireResolver(transform); err != nil {
		return nil, err
	}
	for _, id := range ids {
		item, err := fn(ctx, id)
		if goerrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func image(ctx context.Context, m *Meta, v Value, _ ...any) (any, error) {
	return resolveOne(ctx, m, v, TransformImage, func(ctx context.Context, id int64) (any, error) {
		return m.resolver.ResolveImage(ctx, id)
	})
}

func images(ctx context.Context, m *Meta, v Value, _ ...any) (any, error) {
	return resolveEach(ctx, m, v, TransformImages, func(ctx context.Context, id int64) (any, error) {
		return m.resolver.ResolveImage(ctx, id)
	})
}

func controller(ctx context.Context, m *Meta, v Value, _ ...any) (any, error) {
	return resolveOne(ctx, m, v, TransformController, func(ctx context.Context, id int64) (any, error) {
		return m.resolver.ResolvePost(ctx, id)
	})
}

func controllers(ctx context.Context, m *Meta, v Value, _ ...any) (any, error) {
	return resolveEach(ctx, m, v, TransformControllers, func(ctx context.Context, id int64) (any, error) {
		return m.resolver.ResolvePost(ctx, id)
	})
}

// storedDateLayouts are tried in order when parsing date attributes.
var storedDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"20060102",
	"01/02/2006",
}

// ParseStoredDate parses the date formats commonly found in attribute values,
// including unix timestamps.
func ParseStoredDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range storedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// date formats the first value with the layout in args[0] (time.RFC3339 when
// omitted). DateTimestamp yields unix seconds. Unparsable input gives "".
func date(_ context.Context, _ *Meta, v Value, args ...any) (any, error) {
	layout := time.RFC3339
	if len(args) > 0 {
		s, ok := args[0].(string)
		if !ok {
			return nil, goerrors.New("date layout must be a string", goerrors.CategoryBadInput).
				WithTextCode("INVALID_TRANSFORM_ARGS")
		}
		layout = s
	}

	t, ok := ParseStoredDate(v.First())
	if !ok {
		return "", nil
	}
	if layout == DateTimestamp {
		return strconv.FormatInt(t.Unix(), 10), nil
	}
	return t.Format(layout), nil
}

// group decodes a JSON attribute holding one group of fields.
func group(_ context.Context, _ *Meta, v Value, _ ...any) (any, error) {
	rows := decodeGroups(v.First())
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// groups decodes a JSON attribute holding repeated groups of fields.
func groups(_ context.Context, _ *Meta, v Value, _ ...any) (any, error) {
	return decodeGroups(v.First()), nil
}

// decodeGroups accepts a list of objects, a single object, or the column
// form {"field":[a,b],"other":[c,d]} which is pivoted into rows.
func decodeGroups(raw string) []map[string]any {
	rows := []map[string]any{}
	if !gjson.Valid(raw) {
		return rows
	}

	doc := gjson.Parse(raw)
	switch {
	case doc.IsArray():
		doc.ForEach(func(_, item gjson.Result) bool {
			if obj, ok := item.Value().(map[string]any); ok {
				rows = append(rows, obj)
			}
			return true
		})
	case doc.IsObject():
		columnar := true
		width := 0
		doc.ForEach(func(_, col gjson.Result) bool {
			if !col.IsArray() {
				columnar = false
				return false
			}
			if n := len(col.Array()); n > width {
				width = n
			}
			return true
		})
		if !columnar {
			rows = append(rows, doc.Value().(map[string]any))
			return rows
		}
		for i := 0; i < width; i++ {
			rows = append(rows, map[string]any{})
		}
		doc.ForEach(func(field, col gjson.Result) bool {
			for i, cell := range col.Array() {
				rows[i][field.String()] = cell.Value()
			}
			return true
		})
	}
	return rows
}

func autopTransform(_ context.Context, _ *Meta, v Value, _ ...any) (any, error) {
	return autopValue(v), nil
}

func antispamTransform(_ context.Context, _ *Meta, v Value, _ ...any) (any, error) {
	return antispamValue(v), nil
}

func toInt(_ context.Context, _ *Meta, v Value, _ ...any) (any, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(v.First()), 10, 64)
	if err != nil {
		return int64(0), nil
	}
	return n, nil
}

func autopValue(v Value) string {
	return textfmt.Autop(v.First())
}

func antispamValue(v Value) string {
	return textfmt.Antispam(v.First())
}
