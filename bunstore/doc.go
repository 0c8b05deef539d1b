// Package bunstore implements content.Datastore on top of bun and
// go-repository-bun. SQLite (mattn/go-sqlite3) and PostgreSQL (lib/pq)
// drivers are registered.
//
//	store, err := bunstore.Open(ctx, bunstore.Config{Driver: "sqlite3", DSN: "content.db", AutoMigrate: true})
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	svc, err := controllers.New(store, cacheService)
//
// Roles and capabilities of users are read from the "roles" and
// "capabilities" attributes, one value per row.
package bunstore
