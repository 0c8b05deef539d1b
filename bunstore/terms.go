package bunstore

import (
	"context"
	"strconv"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-content-controllers/content"
)

// maxTermDepth bounds the ChildOf walk.
const maxTermDepth = 64

func (s *Store) TermByID(ctx context.Context, id int64) (*content.TermRecord, error) {
	return first(ctx, s.terms, "term by id", where("t.term_id = ?", id))
}

func (s *Store) TermBy(ctx context.Context, field, value, taxonomy string) (*content.TermRecord, error) {
	var criteria []repository.SelectCriteria
	switch field {
	case content.TermFieldSlug:
		criteria = append(criteria, where("t.slug = ?", value))
	case content.TermFieldName:
		criteria = append(criteria, where("t.name = ?", value))
	case content.TermFieldTermTaxonomyID, content.TermFieldID:
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, content.ErrNoRecord
		}
		column := "t.term_id"
		if field == content.TermFieldTermTaxonomyID {
			column = "t.term_taxonomy_id"
		}
		criteria = append(criteria, where("? = ?", bun.Ident(column), id))
	default:
		return nil, content.ErrNoRecord
	}
	if taxonomy != "" {
		criteria = append(criteria, where("t.taxonomy = ?", taxonomy))
	}
	return first(ctx, s.terms, "term by "+field, append(criteria, orderBy("t.term_id", false))...)
}

func (s *Store) QueryTerms(ctx context.Context, q content.TermQuery) ([]*content.TermRecord, error) {
	criteria := []repository.SelectCriteria{
		whereIn("t.taxonomy", q.Taxonomies),
		whereIn("t.term_id", q.IDs),
		whereNotIn("t.term_id", q.ExcludeIDs),
	}
	if q.Parent != nil {
		criteria = append(criteria, where("t.parent = ?", *q.Parent))
	}
	if q.ChildOf > 0 {
		descendants, err := s.descendants(ctx, q.ChildOf)
		if err != nil {
			return nil, err
		}
		if len(descendants) == 0 {
			return []*content.TermRecord{}, nil
		}
		criteria = append(criteria, whereIn("t.term_id", descendants))
	}
	if q.Slug != "" {
		criteria = append(criteria, where("t.slug = ?", q.Slug))
	}
	if q.Name != "" {
		criteria = append(criteria, where("t.name = ?", q.Name))
	}
	if q.HideEmpty {
		criteria = append(criteria, where("t.count > 0"))
	}
	if len(q.ObjectIDs) > 0 {
		attached := s.db.NewSelect().
			Model((*content.Relationship)(nil)).
			ColumnExpr("tr.term_taxonomy_id").
			Where("tr.object_id IN (?)", bun.In(q.ObjectIDs))
		criteria = append(criteria, where("t.term_taxonomy_id IN (?)", attached))
	}

	column := "t.term_id"
	switch q.OrderBy {
	case "name":
		column = "t.name"
	case "count":
		column = "t.count"
	}
	desc := strings.EqualFold(q.Order, content.OrderDesc)
	criteria = append(criteria, orderBy(column, desc), orderBy("t.term_id", false), page(0, q.Limit))

	recs, _, err := s.terms.List(ctx, criteria...)
	if err != nil {
		return nil, wrapQuery(err, "query terms")
	}
	return recs, nil
}

// descendants walks the parent links below root one level per query.
func (s *Store) descendants(ctx context.Context, root int64) ([]int64, error) {
	var out []int64
	seen := map[int64]bool{root: true}
	frontier := []int64{root}
	for depth := 0; len(frontier) > 0 && depth < maxTermDepth; depth++ {
		var ids []int64
		err := s.db.NewSelect().
			Model((*content.TermRecord)(nil)).
			Column("term_id").
			Where("t.parent IN (?)", bun.In(frontier)).
			Scan(ctx, &ids)
		if err != nil {
			return nil, wrapQuery(err, "term descendants")
		}
		frontier = frontier[:0]
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
				frontier = append(frontier, id)
			}
		}
	}
	return out, nil
}
