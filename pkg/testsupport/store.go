package testsupport

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-content-controllers/content"
)

// Dataset is the JSON layout of store fixtures.
type Dataset = content.Dataset

// Store is an in-memory content.Datastore that counts calls per method.
// Records are copied on the way in and on the way out.
type Store struct {
	mu    sync.Mutex
	posts map[int64]content.PostRecord
	terms map[int64]content.TermRecord
	users map[int64]content.UserRecord
	rels  []content.Relationship
	attrs []content.Attribute
	calls map[string]int
	fail  map[string]error
}

var _ content.Datastore = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		posts: map[int64]content.PostRecord{},
		terms: map[int64]content.TermRecord{},
		users: map[int64]content.UserRecord{},
		calls: map[string]int{},
		fail:  map[string]error{},
	}
}

// NewStoreFromDataset fills a store with d.
func NewStoreFromDataset(d Dataset) *Store {
	s := NewStore()
	for i := range d.Posts {
		s.PutPost(&d.Posts[i])
	}
	for i := range d.Terms {
		s.PutTerm(&d.Terms[i])
	}
	for i := range d.Users {
		s.PutUser(&d.Users[i])
	}
	for _, rel := range d.Relationships {
		s.Relate(rel.ObjectID, rel.TermTaxonomyID)
	}
	for _, a := range d.Attributes {
		s.AddAttribute(a.ObjectType, a.ObjectID, a.Key, a.Value)
	}
	return s
}

// LoadStore builds a store from a JSON fixture.
func LoadStore(t *testing.T, path string) *Store {
	t.Helper()

	var d Dataset
	LoadFixtureJSON(t, path, &d)
	return NewStoreFromDataset(d)
}

// PutPost inserts or replaces a post.
func (s *Store) PutPost(rec *content.PostRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[rec.ID] = *rec
}

// DeletePost removes a post and its relationships.
func (s *Store) DeletePost(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.posts, id)
	s.rels = slices.DeleteFunc(s.rels, func(r content.Relationship) bool { return r.ObjectID == id })
}

// PutTerm inserts or replaces a term.
func (s *Store) PutTerm(rec *content.TermRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms[rec.ID] = *rec
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(rec *content.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *rec
	u.Roles = slices.Clone(rec.Roles)
	s.users[rec.ID] = u
}

// Relate attaches an object to a term/taxonomy pair.
func (s *Store) Relate(objectID, termTaxonomyID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rels = append(s.rels, content.Relationship{ObjectID: objectID, TermTaxonomyID: termTaxonomyID})
}

// AddAttribute appends an attribute value.
func (s *Store) AddAttribute(objectType string, objectID int64, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, content.Attribute{
		ID:         int64(len(s.attrs) + 1),
		ObjectType: objectType,
		ObjectID:   objectID,
		Key:        key,
		Value:      value,
	})
}

// FailWith makes method return err until cleared with a nil err.
func (s *Store) FailWith(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, method)
		return
	}
	s.fail[method] = err
}

// Calls returns how many times method was called.
func (s *Store) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// TotalCalls returns the number of calls across every method.
func (s *Store) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// ResetCalls zeroes the counters.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = map[string]int{}
}

// enter records a call and returns the injected failure, if any. The caller
// must hold no lock.
func (s *Store) enter(ctx context.Context, method string) error {
	s.mu.Lock()
	s.calls[method]++
	err := s.fail[method]
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Store) PostByID(ctx context.Context, id int64) (*content.PostRecord, error) {
	if err := s.enter(ctx, "PostByID"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.posts[id]
	if !ok {
		return nil, content.ErrNoRecord
	}
	return &rec, nil
}

func (s *Store) PostByName(ctx context.Context, name string, postTypes ...string) (*content.PostRecord, error) {
	if err := s.enter(ctx, "PostByName"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.sortedPosts() {
		if rec.Name != name || (rec.Status != "publish" && rec.Status != "private") {
			continue
		}
		if len(postTypes) > 0 && !slices.Contains(postTypes, rec.Type) {
			continue
		}
		return &rec, nil
	}
	return nil, content.ErrNoRecord
}

func (s *Store) sortedPosts() []content.PostRecord {
	out := make([]content.PostRecord, 0, len(s.posts))
	for _, rec := range s.posts {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) termIDsOf(objectID int64, taxonomy string) []int64 {
	var ids []int64
	for _, rel := range s.rels {
		if rel.ObjectID != objectID {
			continue
		}
		for _, t := range s.terms {
			if t.TermTaxonomyID == rel.TermTaxonomyID && (taxonomy == "" || t.Taxonomy == taxonomy) {
				ids = append(ids, t.ID)
			}
		}
	}
	return ids
}

func (s *Store) attrValues(objectType string, objectID int64, key string) []string {
	var out []string
	for _, a := range s.attrs {
		if a.ObjectType == objectType && a.ObjectID == objectID && a.Key == key {
			out = append(out, a.Value)
		}
	}
	return out
}

func (s *Store) matchTax(rec content.PostRecord, q content.PostQuery) bool {
	matched, included := 0, 0
	for _, c := range q.Tax {
		attached := s.termIDsOf(rec.ID, c.Taxonomy)
		hit := slices.ContainsFunc(c.TermIDs, func(id int64) bool { return slices.Contains(attached, id) })
		if c.Exclude {
			if hit {
				return false
			}
			continue
		}
		included++
		if hit {
			matched++
		}
	}
	if included == 0 {
		return true
	}
	if strings.EqualFold(q.TaxRelation, content.RelationOr) {
		return matched > 0
	}
	return matched == included
}

func (s *Store) matchMeta(rec content.PostRecord, clauses []content.MetaClause) bool {
	for _, c := range clauses {
		values := s.attrValues(content.ObjectPost, rec.ID, c.Key)
		if len(values) == 0 {
			return false
		}
		if len(c.Values) > 0 && !slices.ContainsFunc(values, func(v string) bool { return slices.Contains(c.Values, v) }) {
			return false
		}
	}
	return true
}

func (s *Store) QueryPosts(ctx context.Context, q content.PostQuery) ([]*content.PostRecord, error) {
	if err := s.enter(ctx, "QueryPosts"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := q.Statuses
	if len(statuses) == 0 {
		statuses = []string{"publish"}
	}

	var matched []content.PostRecord
	for _, rec := range s.sortedPosts() {
		switch {
		case len(q.Types) > 0 && !slices.Contains(q.Types, rec.Type),
			!slices.Contains(statuses, rec.Status),
			q.Name != "" && rec.Name != q.Name,
			len(q.IDs) > 0 && !slices.Contains(q.IDs, rec.ID),
			slices.Contains(q.ExcludeIDs, rec.ID),
			q.Parent != nil && rec.Parent != *q.Parent,
			q.Author != nil && rec.Author != *q.Author,
			!q.Before.IsZero() && !rec.Date.Before(q.Before),
			!q.After.IsZero() && !rec.Date.After(q.After),
			!s.matchTax(rec, q),
			!s.matchMeta(rec, q.Meta):
			continue
		}
		matched = append(matched, rec)
	}

	less := func(a, b content.PostRecord) bool {
		switch q.OrderBy {
		case "menu_order":
			return a.MenuOrder < b.MenuOrder
		case "id":
			return a.ID < b.ID
		case "title":
			return a.Title < b.Title
		}
		return a.Date.Before(b.Date)
	}
	sortBy(matched, less, !strings.EqualFold(q.Order, content.OrderAsc))

	return paginate(matched, q.Offset, q.Limit), nil
}

func sortBy[T any](items []T, less func(a, b T) bool, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func paginate[T any](items []T, offset, limit int) []*T {
	if offset > 0 {
		if offset >= len(items) {
			items = nil
		} else {
			items = items[offset:]
		}
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	out := make([]*T, 0, len(items))
	for i := range items {
		item := items[i]
		out = append(out, &item)
	}
	return out
}

func (s *Store) ObjectTerms(ctx context.Context, objectID int64, taxonomies ...string) ([]*content.TermRecord, error) {
	if err := s.enter(ctx, "ObjectTerms"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*content.TermRecord
	for _, t := range s.sortedTerms() {
		if len(taxonomies) > 0 && !slices.Contains(taxonomies, t.Taxonomy) {
			continue
		}
		if slices.Contains(s.termIDsOf(objectID, t.Taxonomy), t.ID) {
			out = append(out, &t)
		}
	}
	return out, nil
}

func (s *Store) sortedTerms() []content.TermRecord {
	out := make([]content.TermRecord, 0, len(s.terms))
	for _, rec := range s.terms {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) TermByID(ctx context.Context, id int64) (*content.TermRecord, error) {
	if err := s.enter(ctx, "TermByID"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.terms[id]
	if !ok {
		return nil, content.ErrNoRecord
	}
	return &rec, nil
}

func (s *Store) TermBy(ctx context.Context, field, value, taxonomy string) (*content.TermRecord, error) {
	if err := s.enter(ctx, "TermBy"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.sortedTerms() {
		if taxonomy != "" && t.Taxonomy != taxonomy {
			continue
		}
		var match bool
		switch field {
		case content.TermFieldSlug:
			match = t.Slug == value
		case content.TermFieldName:
			match = t.Name == value
		case content.TermFieldTermTaxonomyID:
			match = value == formatInt(t.TermTaxonomyID)
		case content.TermFieldID:
			match = value == formatInt(t.ID)
		}
		if match {
			return &t, nil
		}
	}
	return nil, content.ErrNoRecord
}

func (s *Store) descendsFrom(t content.TermRecord, ancestor int64) bool {
	for depth := 0; t.Parent > 0 && depth < 64; depth++ {
		if t.Parent == ancestor {
			return true
		}
		parent, ok := s.terms[t.Parent]
		if !ok {
			return false
		}
		t = parent
	}
	return false
}

func (s *Store) QueryTerms(ctx context.Context, q content.TermQuery) ([]*content.TermRecord, error) {
	if err := s.enter(ctx, "QueryTerms"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []content.TermRecord
	for _, t := range s.sortedTerms() {
		switch {
		case len(q.Taxonomies) > 0 && !slices.Contains(q.Taxonomies, t.Taxonomy),
			len(q.IDs) > 0 && !slices.Contains(q.IDs, t.ID),
			slices.Contains(q.ExcludeIDs, t.ID),
			q.Parent != nil && t.Parent != *q.Parent,
			q.ChildOf > 0 && !s.descendsFrom(t, q.ChildOf),
			q.Slug != "" && t.Slug != q.Slug,
			q.Name != "" && t.Name != q.Name,
			q.HideEmpty && t.Count == 0:
			continue
		}
		if len(q.ObjectIDs) > 0 && !slices.ContainsFunc(q.ObjectIDs, func(id int64) bool {
			return slices.Contains(s.termIDsOf(id, t.Taxonomy), t.ID)
		}) {
			continue
		}
		matched = append(matched, t)
	}

	less := func(a, b content.TermRecord) bool {
		switch q.OrderBy {
		case "name":
			return a.Name < b.Name
		case "count":
			return a.Count < b.Count
		}
		return a.ID < b.ID
	}
	sortBy(matched, less, strings.EqualFold(q.Order, content.OrderDesc))
	return paginate(matched, 0, q.Limit), nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*content.UserRecord, error) {
	if err := s.enter(ctx, "UserByID"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return nil, content.ErrNoRecord
	}
	return &rec, nil
}

func (s *Store) UserBy(ctx context.Context, field, value string) (*content.UserRecord, error) {
	if err := s.enter(ctx, "UserBy"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.sortedUsers() {
		var match bool
		switch field {
		case content.UserFieldLogin:
			match = u.Login == value
		case content.UserFieldEmail:
			match = strings.EqualFold(u.Email, value)
		case content.UserFieldSlug:
			match = u.NiceName == value
		case content.UserFieldID:
			match = value == formatInt(u.ID)
		}
		if match {
			return &u, nil
		}
	}
	return nil, content.ErrNoRecord
}

func (s *Store) sortedUsers() []content.UserRecord {
	out := make([]content.UserRecord, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) isAuthor(userID int64, postTypes []string) bool {
	for _, p := range s.posts {
		if p.Author == userID && p.Status == "publish" && (len(postTypes) == 0 || slices.Contains(postTypes, p.Type)) {
			return true
		}
	}
	return false
}

func (s *Store) QueryUsers(ctx context.Context, q content.UserQuery) ([]*content.UserRecord, error) {
	if err := s.enter(ctx, "QueryUsers"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []content.UserRecord
	for _, u := range s.sortedUsers() {
		switch {
		case len(q.IDs) > 0 && !slices.Contains(q.IDs, u.ID),
			len(q.Logins) > 0 && !slices.Contains(q.Logins, u.Login),
			q.AuthorsOf != nil && !s.isAuthor(u.ID, q.AuthorsOf):
			continue
		}
		matched = append(matched, u)
	}

	less := func(a, b content.UserRecord) bool {
		switch q.OrderBy {
		case "login":
			return a.Login < b.Login
		case "display_name":
			return a.DisplayName < b.DisplayName
		}
		return a.ID < b.ID
	}
	sortBy(matched, less, strings.EqualFold(q.Order, content.OrderDesc))
	return paginate(matched, 0, q.Limit), nil
}

func (s *Store) CountPosts(ctx context.Context, userIDs []int64, postType string) (map[int64]int, error) {
	if err := s.enter(ctx, "CountPosts"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[int64]int, len(userIDs))
	for _, id := range userIDs {
		counts[id] = 0
	}
	for _, p := range s.posts {
		if p.Type != postType || p.Status != "publish" {
			continue
		}
		if _, ok := counts[p.Author]; ok {
			counts[p.Author]++
		}
	}
	return counts, nil
}

func supportedObjectType(objectType string) bool {
	switch objectType {
	case content.ObjectPost, content.ObjectTerm, content.ObjectUser:
		return true
	}
	return false
}

func (s *Store) FetchAttributes(ctx context.Context, objectType string, objectID int64, name string) ([]string, error) {
	if err := s.enter(ctx, "FetchAttributes"); err != nil {
		return nil, err
	}
	if !supportedObjectType(objectType) {
		return nil, content.ErrUnsupportedObjectType
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attrValues(objectType, objectID, name), nil
}

func (s *Store) FetchAllAttributes(ctx context.Context, objectType string, objectID int64) (map[string][]string, error) {
	if err := s.enter(ctx, "FetchAllAttributes"); err != nil {
		return nil, err
	}
	if !supportedObjectType(objectType) {
		return nil, content.ErrUnsupportedObjectType
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[string][]string{}
	for _, a := range s.attrs {
		if a.ObjectType == objectType && a.ObjectID == objectID {
			out[a.Key] = append(out[a.Key], a.Value)
		}
	}
	return out, nil
}
