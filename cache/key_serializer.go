package cache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// DefaultMaxKeyLength keeps keys under the memcached key limit.
const DefaultMaxKeyLength = 200

// segmentSerializer implements KeySerializer for controller keys. Segments are
// rendered as plain strings, separators inside a segment are escaped so a natural
// key can never forge another key space, and keys longer than maxLen are shortened
// to a prefix plus an xxhash digest of the full key.
type segmentSerializer struct {
	prefix string
	maxLen int
}

// KeySerializerOption customises the default serializer.
type KeySerializerOption func(*segmentSerializer)

// WithKeyPrefix prepends a namespace to every key (e.g. a site id).
func WithKeyPrefix(prefix string) KeySerializerOption {
	return func(s *segmentSerializer) {
		s.prefix = prefix
	}
}

// WithMaxKeyLength sets the length above which keys are digested. Zero disables it.
func WithMaxKeyLength(n int) KeySerializerOption {
	return func(s *segmentSerializer) {
		s.maxLen = n
	}
}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer(opts ...KeySerializerOption) KeySerializer {
	s := &segmentSerializer{maxLen: DefaultMaxKeyLength}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SerializeKey joins the namespace and every argument with KeySeparator.
func (s *segmentSerializer) SerializeKey(namespace string, args ...any) string {
	parts := make([]string, 0, len(args)+2)
	if s.prefix != "" {
		parts = append(parts, escapeSegment(s.prefix))
	}
	parts = append(parts, escapeSegment(namespace))

	for _, arg := range args {
		parts = append(parts, s.serializeValue(arg))
	}

	key := strings.Join(parts, KeySeparator)
	if s.maxLen > 0 && len(key) > s.maxLen {
		return s.digest(key)
	}
	return key
}

// serializeValue renders a single segment. Only the value kinds used by controller
// keys are supported; anything else falls back to %v.
func (s *segmentSerializer) serializeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return escapeSegment(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case []string:
		escaped := make([]string, len(val))
		for i, item := range val {
			escaped[i] = escapeSegment(item)
		}
		return fmt.Sprintf("[%s]", strings.Join(escaped, ","))
	case []int64:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = strconv.FormatInt(item, 10)
		}
		return fmt.Sprintf("[%s]", strings.Join(items, ","))
	case fmt.Stringer:
		return escapeSegment(val.String())
	default:
		return escapeSegment(fmt.Sprintf("%v", val))
	}
}

// digest keeps the leading namespace segments readable so prefix invalidation
// still matches, and replaces the remainder with its hash.
func (s *segmentSerializer) digest(key string) string {
	head := key
	if idx := strings.LastIndex(key[:s.maxLen/2], KeySeparator); idx > 0 {
		head = key[:idx]
	} else {
		head = key[:s.maxLen/2]
	}
	return fmt.Sprintf("%s%s#%016x", head, KeySeparator, xxhash.Sum64String(key))
}

var segmentEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

func escapeSegment(s string) string {
	if !strings.ContainsAny(s, "%:") {
		return s
	}
	return segmentEscaper.Replace(s)
}
