package bunstore

import (
	"context"
	"strconv"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-content-controllers/content"
)

func (s *Store) UserByID(ctx context.Context, id int64) (*content.UserRecord, error) {
	rec, err := first(ctx, s.users, "user by id", where("u.id = ?", id))
	if err != nil {
		return nil, err
	}
	return rec, s.hydrate(ctx, rec)
}

func (s *Store) UserBy(ctx context.Context, field, value string) (*content.UserRecord, error) {
	var c repository.SelectCriteria
	switch field {
	case content.UserFieldLogin:
		c = where("u.user_login = ?", value)
	case content.UserFieldEmail:
		c = where("LOWER(u.user_email) = ?", strings.ToLower(value))
	case content.UserFieldSlug:
		c = where("u.user_nicename = ?", value)
	case content.UserFieldID:
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, content.ErrNoRecord
		}
		c = where("u.id = ?", id)
	default:
		return nil, content.ErrNoRecord
	}

	rec, err := first(ctx, s.users, "user by "+field, c, orderBy("u.id", false))
	if err != nil {
		return nil, err
	}
	return rec, s.hydrate(ctx, rec)
}

func (s *Store) QueryUsers(ctx context.Context, q content.UserQuery) ([]*content.UserRecord, error) {
	criteria := []repository.SelectCriteria{
		whereIn("u.id", q.IDs),
		whereIn("u.user_login", q.Logins),
	}
	if q.AuthorsOf != nil {
		authors := s.db.NewSelect().
			Model((*content.PostRecord)(nil)).
			ColumnExpr("p.post_author").
			Where("p.post_status = ?", statusPublish)
		if len(q.AuthorsOf) > 0 {
			authors = authors.Where("p.post_type IN (?)", bun.In(q.AuthorsOf))
		}
		criteria = append(criteria, where("u.id IN (?)", authors))
	}

	column := "u.id"
	switch q.OrderBy {
	case "login":
		column = "u.user_login"
	case "display_name":
		column = "u.display_name"
	}
	desc := strings.EqualFold(q.Order, content.OrderDesc)
	criteria = append(criteria, orderBy(column, desc), page(0, q.Limit))

	recs, _, err := s.users.List(ctx, criteria...)
	if err != nil {
		return nil, wrapQuery(err, "query users")
	}
	for _, rec := range recs {
		if err := s.hydrate(ctx, rec); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func (s *Store) CountPosts(ctx context.Context, userIDs []int64, postType string) (map[int64]int, error) {
	counts := make(map[int64]int, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}
	for _, id := range userIDs {
		counts[id] = 0
	}

	var rows []struct {
		Author int64 `bun:"post_author"`
		N      int   `bun:"n"`
	}
	err := s.db.NewSelect().
		Model((*content.PostRecord)(nil)).
		ColumnExpr("p.post_author").
		ColumnExpr("COUNT(*) AS n").
		Where("p.post_type = ?", postType).
		Where("p.post_status = ?", statusPublish).
		Where("p.post_author IN (?)", bun.In(userIDs)).
		GroupExpr("p.post_author").
		Scan(ctx, &rows)
	if err != nil {
		return nil, wrapQuery(err, "count posts")
	}
	for _, row := range rows {
		counts[row.Author] = row.N
	}
	return counts, nil
}

// hydrate fills the roles and capabilities of rec from its attributes.
func (s *Store) hydrate(ctx context.Context, rec *content.UserRecord) error {
	all, err := s.FetchAllAttributes(ctx, content.ObjectUser, rec.ID)
	if err != nil {
		return err
	}
	rec.Roles = all[RolesAttribute]
	if caps := all[CapabilitiesAttribute]; len(caps) > 0 {
		rec.Capabilities = make(map[string]bool, len(caps))
		for _, c := range caps {
			rec.Capabilities[c] = true
		}
	}
	return nil
}
