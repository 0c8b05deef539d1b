package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	"github.com/goliatone/go-content-controllers/content"
)

// Attribute names holding user roles and capabilities.
const (
	RolesAttribute        = "roles"
	CapabilitiesAttribute = "capabilities"
)

const statusPublish = "publish"

// Store reads content through one repository per table.
type Store struct {
	db     *bun.DB
	logger *slog.Logger

	posts repository.Repository[*content.PostRecord]
	terms repository.Repository[*content.TermRecord]
	users repository.Repository[*content.UserRecord]
	attrs repository.Repository[*content.Attribute]
}

var _ content.Datastore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for query debugging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open connects to the database described by cfg.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "open database").
			WithTextCode("DB_OPEN_FAILED")
	}
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	var dialect schema.Dialect = sqlitedialect.New()
	if cfg.Driver == DriverPostgres {
		dialect = pgdialect.New()
	}

	s := New(bun.NewDB(sqldb, dialect), opts...)
	if cfg.Debug {
		s.db.AddQueryHook(queryLogger{logger: s.logger})
	}

	if err := s.db.PingContext(ctx); err != nil {
		s.db.Close()
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "ping database").
			WithTextCode("DB_OPEN_FAILED")
	}
	if cfg.AutoMigrate {
		if err := s.CreateSchema(ctx); err != nil {
			s.db.Close()
			return nil, err
		}
	}
	return s, nil
}

// New wraps an existing bun database.
func New(db *bun.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		posts: repository.NewRepository[*content.PostRecord](db, repository.ModelHandlers[*content.PostRecord]{
			NewRecord:     func() *content.PostRecord { return &content.PostRecord{} },
			GetID:         func(p *content.PostRecord) uuid.UUID { return rowUUID(content.ObjectPost, p.ID) },
			SetID:         func(*content.PostRecord, uuid.UUID) {},
			GetIdentifier: func() string { return "post_name" },
		}),
		terms: repository.NewRepository[*content.TermRecord](db, repository.ModelHandlers[*content.TermRecord]{
			NewRecord:     func() *content.TermRecord { return &content.TermRecord{} },
			GetID:         func(t *content.TermRecord) uuid.UUID { return rowUUID(content.ObjectTerm, t.ID) },
			SetID:         func(*content.TermRecord, uuid.UUID) {},
			GetIdentifier: func() string { return "slug" },
		}),
		users: repository.NewRepository[*content.UserRecord](db, repository.ModelHandlers[*content.UserRecord]{
			NewRecord:     func() *content.UserRecord { return &content.UserRecord{} },
			GetID:         func(u *content.UserRecord) uuid.UUID { return rowUUID(content.ObjectUser, u.ID) },
			SetID:         func(*content.UserRecord, uuid.UUID) {},
			GetIdentifier: func() string { return "user_login" },
		}),
		attrs: repository.NewRepository[*content.Attribute](db, repository.ModelHandlers[*content.Attribute]{
			NewRecord:     func() *content.Attribute { return &content.Attribute{} },
			GetID:         func(a *content.Attribute) uuid.UUID { return rowUUID("attribute", a.ID) },
			SetID:         func(*content.Attribute, uuid.UUID) {},
			GetIdentifier: func() string { return "meta_key" },
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// rowUUID derives a stable uuid from an integer primary key.
func rowUUID(table string, id int64) uuid.UUID {
	if id == 0 {
		return uuid.Nil
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(table+":"+strconv.FormatInt(id, 10)))
}

// DB returns the underlying bun database.
func (s *Store) DB() *bun.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func models() []any {
	return []any{
		(*content.PostRecord)(nil),
		(*content.TermRecord)(nil),
		(*content.UserRecord)(nil),
		(*content.Relationship)(nil),
		(*content.Attribute)(nil),
	}
}

// CreateSchema creates every missing table.
func (s *Store) CreateSchema(ctx context.Context) error {
	for _, model := range models() {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return wrapQuery(err, "create table")
		}
	}
	return nil
}

// Import inserts every row of d in one transaction. User roles and
// capabilities are stored as attributes.
func (s *Store) Import(ctx context.Context, d content.Dataset) error {
	attrs := append([]content.Attribute(nil), d.Attributes...)
	for _, u := range d.Users {
		for _, role := range u.Roles {
			attrs = append(attrs, content.Attribute{ObjectType: content.ObjectUser, ObjectID: u.ID, Key: RolesAttribute, Value: role})
		}
		for capability, granted := range u.Capabilities {
			if granted {
				attrs = append(attrs, content.Attribute{ObjectType: content.ObjectUser, ObjectID: u.ID, Key: CapabilitiesAttribute, Value: capability})
			}
		}
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		inserts := []struct {
			n     int
			model any
		}{
			{len(d.Posts), &d.Posts},
			{len(d.Terms), &d.Terms},
			{len(d.Users), &d.Users},
			{len(d.Relationships), &d.Relationships},
			{len(attrs), &attrs},
		}
		for _, in := range inserts {
			if in.n == 0 {
				continue
			}
			if _, err := tx.NewInsert().Model(in.model).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	return wrapQuery(err, "import dataset")
}

// wrapQuery maps empty results to content.ErrNoRecord and wraps everything
// else as an external failure.
func wrapQuery(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return content.ErrNoRecord
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, "bunstore: "+op).
		WithTextCode("DB_QUERY_FAILED")
}

// queryLogger is a bun.QueryHook writing each query to the logger.
type queryLogger struct {
	logger *slog.Logger
}

func (h queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h queryLogger) AfterQuery(ctx context.Context, ev *bun.QueryEvent) {
	attrs := []any{"query", ev.Query, "duration", time.Since(ev.StartTime)}
	if ev.Err != nil && !errors.Is(ev.Err, sql.ErrNoRows) {
		attrs = append(attrs, "error", ev.Err)
	}
	h.logger.DebugContext(ctx, "bunstore query", attrs...)
}
