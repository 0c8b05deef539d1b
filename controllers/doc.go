// Package controllers wraps posts, terms and users in cached controller
// objects.
//
// A Service owns three resolvers. Each accepts an id, a natural key, a raw
// record or nothing at all (the current record carried by the context) and
// returns the controller for it, building it at most once per cache epoch:
//
//	svc, _ := controllers.New(store, cacheService)
//	post, err := svc.Posts().Resolve(ctx, 42)
//	same, _ := svc.Posts().Resolve(ctx, "hello-world")
//
// The concrete type of a controller is picked by registration, never by a
// switch in the resolver. Post types, page templates and mime types map to
// PostType values; taxonomies map to TermType values:
//
//	_ = svc.Posts().RegisterType(controllers.PostType{
//		Name:      "event",
//		PostTypes: []string{"event"},
//		New: func(base *controllers.Post) controllers.PostController {
//			return &Event{Post: base}
//		},
//	})
//
// Mutations reported through the Invalidator evict every key that can reach
// the controller.
package controllers
