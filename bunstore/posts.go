package bunstore

import (
	"context"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-content-controllers/content"
)

func (s *Store) PostByID(ctx context.Context, id int64) (*content.PostRecord, error) {
	return first(ctx, s.posts, "post by id", where("p.id = ?", id))
}

func (s *Store) PostByName(ctx context.Context, name string, postTypes ...string) (*content.PostRecord, error) {
	return first(ctx, s.posts, "post by name",
		where("p.post_name = ?", name),
		whereIn("p.post_status", []string{statusPublish, "private"}),
		whereIn("p.post_type", postTypes),
		orderBy("p.id", false),
	)
}

func (s *Store) QueryPosts(ctx context.Context, q content.PostQuery) ([]*content.PostRecord, error) {
	statuses := q.Statuses
	if len(statuses) == 0 {
		statuses = []string{statusPublish}
	}

	criteria := []repository.SelectCriteria{
		whereIn("p.post_type", q.Types),
		whereIn("p.post_status", statuses),
		whereIn("p.id", q.IDs),
		whereNotIn("p.id", q.ExcludeIDs),
	}
	if q.Name != "" {
		criteria = append(criteria, where("p.post_name = ?", q.Name))
	}
	if q.Parent != nil {
		criteria = append(criteria, where("p.post_parent = ?", *q.Parent))
	}
	if q.Author != nil {
		criteria = append(criteria, where("p.post_author = ?", *q.Author))
	}
	if !q.Before.IsZero() {
		criteria = append(criteria, where("p.post_date < ?", q.Before))
	}
	if !q.After.IsZero() {
		criteria = append(criteria, where("p.post_date > ?", q.After))
	}
	criteria = append(criteria, s.taxCriteria(q)...)
	for _, c := range q.Meta {
		criteria = append(criteria, where("p.id IN (?)", s.metaSubquery(c)))
	}

	column := "p.post_date"
	switch q.OrderBy {
	case "menu_order":
		column = "p.menu_order"
	case "id":
		column = "p.id"
	case "title":
		column = "p.post_title"
	}
	desc := !strings.EqualFold(q.Order, content.OrderAsc)
	criteria = append(criteria, orderBy(column, desc), orderBy("p.id", false), page(q.Offset, q.Limit))

	recs, _, err := s.posts.List(ctx, criteria...)
	if err != nil {
		return nil, wrapQuery(err, "query posts")
	}
	return recs, nil
}

// taxCriteria turns tax clauses into object id subqueries. Include clauses
// are joined by q.TaxRelation; exclude clauses always apply.
func (s *Store) taxCriteria(q content.PostQuery) []repository.SelectCriteria {
	var out []repository.SelectCriteria
	var include []*bun.SelectQuery
	for _, c := range q.Tax {
		if c.Exclude {
			if len(c.TermIDs) > 0 {
				out = append(out, where("p.id NOT IN (?)", s.termObjects(c)))
			}
			continue
		}
		if len(c.TermIDs) == 0 {
			include = append(include, nil)
			continue
		}
		include = append(include, s.termObjects(c))
	}
	if len(include) == 0 {
		return out
	}

	if strings.EqualFold(q.TaxRelation, content.RelationOr) {
		return append(out, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.WhereGroup(" AND ", func(g *bun.SelectQuery) *bun.SelectQuery {
				for _, sub := range include {
					if sub == nil {
						g = g.WhereOr("1 = 0")
						continue
					}
					g = g.WhereOr("p.id IN (?)", sub)
				}
				return g
			})
		})
	}

	for _, sub := range include {
		if sub == nil {
			out = append(out, matchNone())
			continue
		}
		out = append(out, where("p.id IN (?)", sub))
	}
	return out
}

// termObjects selects the ids of objects attached to any term of c.
func (s *Store) termObjects(c content.TaxClause) *bun.SelectQuery {
	return s.db.NewSelect().
		Model((*content.Relationship)(nil)).
		ColumnExpr("tr.object_id").
		Join("JOIN terms AS t ON t.term_taxonomy_id = tr.term_taxonomy_id").
		Where("t.taxonomy = ?", c.Taxonomy).
		Where("t.term_id IN (?)", bun.In(c.TermIDs))
}

func (s *Store) metaSubquery(c content.MetaClause) *bun.SelectQuery {
	q := s.db.NewSelect().
		Model((*content.Attribute)(nil)).
		ColumnExpr("a.object_id").
		Where("a.object_type = ?", content.ObjectPost).
		Where("a.meta_key = ?", c.Key)
	if len(c.Values) > 0 {
		q = q.Where("a.meta_value IN (?)", bun.In(c.Values))
	}
	return q
}

func (s *Store) ObjectTerms(ctx context.Context, objectID int64, taxonomies ...string) ([]*content.TermRecord, error) {
	return s.QueryTerms(ctx, content.TermQuery{
		Taxonomies: taxonomies,
		ObjectIDs:  []int64{objectID},
	})
}

// first returns the first row matching criteria, or content.ErrNoRecord.
func first[T any](ctx context.Context, repo repository.Repository[T], op string, criteria ...repository.SelectCriteria) (T, error) {
	var zero T
	recs, _, err := repo.List(ctx, append(criteria, page(0, 1))...)
	if err != nil {
		return zero, wrapQuery(err, op)
	}
	if len(recs) == 0 {
		return zero, content.ErrNoRecord
	}
	return recs[0], nil
}
