package cache

import (
	"strings"
	"testing"
)

func joinWithSeparator(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

func TestDefaultKeySerializer_BasicTypes(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	tests := []struct {
		name      string
		namespace string
		args      []any
		want      string
	}{
		{
			name:      "no args",
			namespace: "post",
			args:      []any{},
			want:      "post",
		},
		{
			name:      "primary id",
			namespace: "post",
			args:      []any{"id", int64(42)},
			want:      joinWithSeparator("post", "id", "42"),
		},
		{
			name:      "int and bool",
			namespace: "term",
			args:      []any{7, true},
			want:      joinWithSeparator("term", "7", "true"),
		},
		{
			name:      "taxonomy qualified slug",
			namespace: "term",
			args:      []any{"slug", "category", "news"},
			want:      joinWithSeparator("term", "slug", "category", "news"),
		},
		{
			name:      "nil segment",
			namespace: "user",
			args:      []any{nil},
			want:      joinWithSeparator("user", "nil"),
		},
		{
			name:      "string slice",
			namespace: "post",
			args:      []any{[]string{"a", "b"}},
			want:      joinWithSeparator("post", "[a,b]"),
		},
		{
			name:      "int64 slice",
			namespace: "post",
			args:      []any{[]int64{1, 2, 3}},
			want:      joinWithSeparator("post", "[1,2,3]"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey(tt.namespace, tt.args...)
			if got != tt.want {
				t.Errorf("SerializeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultKeySerializer_EscapesSeparator(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	forged := serializer.SerializeKey("post", "slug", "x::id::1")
	if strings.Count(forged, KeySeparator) != 2 {
		t.Errorf("expected separator inside segment to be escaped, got %q", forged)
	}

	a := serializer.SerializeKey("post", "slug", "a%3Ab")
	b := serializer.SerializeKey("post", "slug", "a:b")
	if a == b {
		t.Errorf("expected distinct keys for %q and %q", "a%3Ab", "a:b")
	}
}

func TestDefaultKeySerializer_Prefix(t *testing.T) {
	serializer := NewDefaultKeySerializer(WithKeyPrefix("site-2"))

	got := serializer.SerializeKey("post", "id", 1)
	want := joinWithSeparator("site-2", "post", "id", "1")
	if got != want {
		t.Errorf("SerializeKey() = %v, want %v", got, want)
	}
}

func TestDefaultKeySerializer_LongKeysAreDigested(t *testing.T) {
	serializer := NewDefaultKeySerializer(WithMaxKeyLength(64))

	long := strings.Repeat("very-long-slug-", 20)
	key := serializer.SerializeKey("post", "slug", long)

	if len(key) > 64 {
		t.Errorf("expected digested key to be short, got %d chars: %q", len(key), key)
	}
	if !strings.HasPrefix(key, joinWithSeparator("post", "slug")) {
		t.Errorf("expected digested key to keep its namespace, got %q", key)
	}

	again := serializer.SerializeKey("post", "slug", long)
	if key != again {
		t.Errorf("expected stable digest, got %q and %q", key, again)
	}

	other := serializer.SerializeKey("post", "slug", long+"x")
	if key == other {
		t.Errorf("expected different digests for different keys")
	}
}

func TestDefaultKeySerializer_Unlimited(t *testing.T) {
	serializer := NewDefaultKeySerializer(WithMaxKeyLength(0))

	long := strings.Repeat("a", 500)
	key := serializer.SerializeKey("post", long)
	if key != joinWithSeparator("post", long) {
		t.Errorf("expected undigested key when limit disabled")
	}
}

type stringerKey struct{ v string }

func (s stringerKey) String() string { return s.v }

func TestDefaultKeySerializer_Stringer(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	got := serializer.SerializeKey("event", stringerKey{"insert"})
	if got != joinWithSeparator("event", "insert") {
		t.Errorf("SerializeKey() = %v", got)
	}
}

func TestDefaultKeySerializer_Stability(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	for i := 0; i < 10; i++ {
		a := serializer.SerializeKey("user", "email", "jane@example.com")
		b := serializer.SerializeKey("user", "email", "jane@example.com")
		if a != b {
			t.Fatalf("expected stable keys, got %q and %q", a, b)
		}
	}
}
