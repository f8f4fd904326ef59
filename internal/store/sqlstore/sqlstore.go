// Package sqlstore persists documents as JSON rows in a single table. It
// speaks postgres (lib/pq or pgx) and sqlite (modernc) through database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*/*.sql
var migrations embed.FS

type dialect int

const (
	postgres dialect = iota
	sqliteDialect
)

// DB wraps a migrated database handle.
type DB struct {
	db      *sql.DB
	dialect dialect
}

// Open connects with the named database/sql driver ("postgres", "pgx" or
// "sqlite") and applies pending migrations.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var (
		d         dialect
		gooseName goose.Dialect
		dir       string
	)
	switch driver {
	case "postgres", "pgx":
		d, gooseName, dir = postgres, goose.DialectPostgres, "migrations/postgres"
	case "sqlite":
		d, gooseName, dir = sqliteDialect, goose.DialectSQLite3, "migrations/sqlite"
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if d == sqliteDialect {
		// single writer
		db.SetMaxOpenConns(1)
	}

	s := &DB{db: db, dialect: d}
	if err := s.migrate(ctx, gooseName, dir); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DB) migrate(ctx context.Context, name goose.Dialect, dir string) error {
	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(name, s.db, fsys)
	if err != nil {
		return fmt.Errorf("could not prepare migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("could not apply database migrations with goose: %w", err)
	}
	for _, r := range results {
		slog.Debug("applied migration", slog.String("source", r.Source.Path))
	}
	return nil
}

func (s *DB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *DB) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders as $n for postgres.
func (s *DB) rebind(query string) string {
	if s.dialect != postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// jsonParam casts a text parameter into the body column type.
func (s *DB) jsonParam() string {
	if s.dialect == postgres {
		return "?::jsonb"
	}
	return "json(?)"
}

// fieldExpr selects a top-level string field of body.
func (s *DB) fieldExpr(field string) (string, any) {
	if s.dialect == postgres {
		return "body->>?", field
	}
	return "json_extract(body, ?)", "$." + field
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
