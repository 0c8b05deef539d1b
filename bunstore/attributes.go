package bunstore

import (
	"context"

	"github.com/goliatone/go-content-controllers/content"
)

func supportedObjectType(objectType string) bool {
	switch objectType {
	case content.ObjectPost, content.ObjectTerm, content.ObjectUser, content.ObjectComment:
		return true
	}
	return false
}

func (s *Store) FetchAttributes(ctx context.Context, objectType string, objectID int64, name string) ([]string, error) {
	if !supportedObjectType(objectType) {
		return nil, content.ErrUnsupportedObjectType
	}
	recs, _, err := s.attrs.List(ctx,
		where("a.object_type = ?", objectType),
		where("a.object_id = ?", objectID),
		where("a.meta_key = ?", name),
		orderBy("a.meta_id", false),
	)
	if err != nil {
		return nil, wrapQuery(err, "fetch attributes")
	}
	values := make([]string, 0, len(recs))
	for _, r := range recs {
		values = append(values, r.Value)
	}
	return values, nil
}

func (s *Store) FetchAllAttributes(ctx context.Context, objectType string, objectID int64) (map[string][]string, error) {
	if !supportedObjectType(objectType) {
		return nil, content.ErrUnsupportedObjectType
	}
	recs, _, err := s.attrs.List(ctx,
		where("a.object_type = ?", objectType),
		where("a.object_id = ?", objectID),
		orderBy("a.meta_id", false),
	)
	if err != nil {
		return nil, wrapQuery(err, "fetch attributes")
	}
	out := make(map[string][]string)
	for _, r := range recs {
		out[r.Key] = append(out[r.Key], r.Value)
	}
	return out, nil
}
