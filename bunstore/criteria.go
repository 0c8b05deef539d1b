package bunstore

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

func where(query string, args ...any) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where(query, args...)
	}
}

func whereIn[T any](column string, values []T) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if len(values) == 0 {
			return q
		}
		return q.Where("? IN (?)", bun.Ident(column), bun.In(values))
	}
}

func whereNotIn[T any](column string, values []T) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if len(values) == 0 {
			return q
		}
		return q.Where("? NOT IN (?)", bun.Ident(column), bun.In(values))
	}
}

func orderBy(expr string, desc bool) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if desc {
			return q.OrderExpr(expr + " DESC")
		}
		return q.OrderExpr(expr + " ASC")
	}
}

func page(offset, limit int) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if offset > 0 {
			q = q.Offset(offset)
		}
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q
	}
}

// matchNone keeps a query valid when a filter has nothing to match.
func matchNone() repository.SelectCriteria {
	return where("1 = 0")
}
