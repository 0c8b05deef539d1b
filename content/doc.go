// Package content defines the records, query descriptors and datastore contracts
// consumed by the controller layer.
//
// Records are owned by the external datastore. The controller packages only read
// them: a controller copies the fields it needs at bind time and never writes back.
//
// # Sources
//
// A datastore integration implements the source interfaces in this package:
//
//   - PostSource: lookup by id or slug, listing queries, object term lookups
//   - TermSource: lookup by id or field, listing queries
//   - UserSource: lookup by id or field, listing queries
//   - AttributeSource: auxiliary key/value attributes ("meta") per object
//
// Absence is reported with ErrNoRecord so callers can branch with errors.Is.
// Attribute lookups against an object type the source does not support report
// ErrUnsupportedObjectType; the meta package treats that as an empty result.
//
// The bunstore package ships a SQL implementation and pkg/testsupport an in-memory
// one used across the test suites.
package content
