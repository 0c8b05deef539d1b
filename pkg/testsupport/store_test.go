package testsupport

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-content-controllers/content"
)

func postIDs(recs []*content.PostRecord) []int64 {
	ids := make([]int64, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStore_PostLookups(t *testing.T) {
	ctx := context.Background()
	s := ContentStore(t)

	if _, err := s.PostByID(ctx, 999); !errors.Is(err, content.ErrNoRecord) {
		t.Errorf("expected ErrNoRecord, got %v", err)
	}

	rec, err := s.PostByName(ctx, "hello-world", "event")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != 61 {
		t.Errorf("expected event 61, got %d", rec.ID)
	}

	if _, err := s.PostByName(ctx, "draft-post"); !errors.Is(err, content.ErrNoRecord) {
		t.Errorf("drafts must not match slug lookups, got %v", err)
	}

	if s.Calls("PostByID") != 1 || s.Calls("PostByName") != 2 {
		t.Errorf("unexpected call counts: PostByID=%d PostByName=%d", s.Calls("PostByID"), s.Calls("PostByName"))
	}
}

func TestStore_QueryPosts(t *testing.T) {
	ctx := context.Background()
	s := ContentStore(t)

	tests := []struct {
		name     string
		query    content.PostQuery
		expected []int64
	}{
		{
			name:     "newest first by default",
			query:    content.PostQuery{Types: []string{"post"}},
			expected: []int64{43, 42, 41, 50},
		},
		{
			name:     "ascending with limit",
			query:    content.PostQuery{Types: []string{"post"}, Order: content.OrderAsc, Limit: 2},
			expected: []int64{50, 41},
		},
		{
			name: "tax include",
			query: content.PostQuery{
				Tax: []content.TaxClause{{Taxonomy: "category", TermIDs: []int64{3}}},
			},
			expected: []int64{43, 42},
		},
		{
			name: "tax exclude",
			query: content.PostQuery{
				Types: []string{"post"},
				Tax:   []content.TaxClause{{Taxonomy: "post_tag", TermIDs: []int64{5}, Exclude: true}},
			},
			expected: []int64{42, 41, 50},
		},
		{
			name: "tax or relation",
			query: content.PostQuery{
				Tax: []content.TaxClause{
					{Taxonomy: "post_tag", TermIDs: []int64{5}},
					{Taxonomy: "category", TermIDs: []int64{4}},
				},
				TaxRelation: content.RelationOr,
			},
			expected: []int64{43, 41},
		},
		{
			name: "meta clause",
			query: content.PostQuery{
				Types: []string{"page"},
				Meta:  []content.MetaClause{{Key: "_wp_page_template", Values: []string{"about.php"}}},
			},
			expected: []int64{10},
		},
		{
			name:     "children by menu order",
			query:    content.PostQuery{Parent: ptr(int64(10)), OrderBy: "menu_order", Order: content.OrderAsc},
			expected: []int64{12, 11},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := s.QueryPosts(ctx, tt.query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := postIDs(recs); !equalIDs(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestStore_Terms(t *testing.T) {
	ctx := context.Background()
	s := ContentStore(t)

	children, err := s.QueryTerms(ctx, content.TermQuery{ChildOf: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(children) != 1 || children[0].ID != 4 {
		t.Errorf("expected child term 4, got %+v", children)
	}

	terms, err := s.ObjectTerms(ctx, 43)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(terms) != 2 {
		t.Errorf("expected 2 terms on post 43, got %d", len(terms))
	}

	rec, err := s.TermBy(ctx, content.TermFieldTermTaxonomyID, "50", "")
	if err != nil || rec.ID != 5 {
		t.Errorf("expected term 5 by term_taxonomy_id, got %+v, %v", rec, err)
	}
}

func TestStore_Attributes(t *testing.T) {
	ctx := context.Background()
	s := ContentStore(t)

	values, err := s.FetchAttributes(ctx, content.ObjectPost, 42, "related")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 2 || values[0] != "43" || values[1] != "41" {
		t.Errorf("expected insertion order [43 41], got %v", values)
	}

	if _, err := s.FetchAttributes(ctx, content.ObjectComment, 1, "x"); !errors.Is(err, content.ErrUnsupportedObjectType) {
		t.Errorf("expected ErrUnsupportedObjectType, got %v", err)
	}
}

func TestStore_UsersAndCounts(t *testing.T) {
	ctx := context.Background()
	s := ContentStore(t)

	rec, err := s.UserBy(ctx, content.UserFieldEmail, "admin@example.com")
	if err != nil || rec.ID != 1 {
		t.Errorf("expected case-insensitive email match, got %+v, %v", rec, err)
	}

	authors, err := s.QueryUsers(ctx, content.UserQuery{AuthorsOf: []string{"event"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(authors) != 1 || authors[0].ID != 2 {
		t.Errorf("expected author 2, got %+v", authors)
	}

	counts, err := s.CountPosts(ctx, []int64{1, 2}, "post")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts[1] != 3 || counts[2] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestStore_FailWith(t *testing.T) {
	ctx := context.Background()
	s := ContentStore(t)
	boom := errors.New("boom")

	s.FailWith("PostByID", boom)
	if _, err := s.PostByID(ctx, 42); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}

	s.FailWith("PostByID", nil)
	if _, err := s.PostByID(ctx, 42); err != nil {
		t.Errorf("expected recovery, got %v", err)
	}

	if s.Calls("PostByID") != 2 {
		t.Errorf("expected 2 calls, got %d", s.Calls("PostByID"))
	}
	s.ResetCalls()
	if s.TotalCalls() != 0 {
		t.Errorf("expected counters reset")
	}
}
