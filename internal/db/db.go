// Package db opens the record store and owns its schema.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/folio/internal/config"
)

type Db interface {
	InitDb() error

	Get() *sql.DB
	Close() error
	Driver() string

	// Rebind rewrites '?' placeholders into the driver's native form.
	Rebind(query string) string

	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var dbLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	dbLogger = l
}

// Open returns an initialized Db for the configured driver.
func Open(cfg config.DatabaseConfig) (Db, error) {
	var d Db
	switch cfg.Driver {
	case config.DriverSQLite:
		d = NewSQLite(cfg.DSN)
	case config.DriverPostgres:
		d = NewPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	if err := d.InitDb(); err != nil {
		d.Close()
		return nil, fmt.Errorf("initialize %s database: %w", cfg.Driver, err)
	}
	return d, nil
}

// conn carries the query plumbing shared by every driver.
type conn struct {
	db     *sql.DB
	driver string
	dollar bool
}

func (c *conn) Get() *sql.DB {
	return c.db
}

func (c *conn) Driver() string {
	return c.driver
}

func (c *conn) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *conn) Rebind(query string) string {
	if !c.dollar {
		return query
	}
	return rebindDollar(query)
}

func (c *conn) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	query = c.Rebind(query)
	dbLogger.Debug().Str("query", query).Msg("Query")
	return c.db.QueryContext(ctx, query, args...)
}

func (c *conn) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	query = c.Rebind(query)
	dbLogger.Debug().Str("query", query).Msg("QueryRow")
	return c.db.QueryRowContext(ctx, query, args...)
}

func (c *conn) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	query = c.Rebind(query)
	dbLogger.Debug().Str("query", query).Msg("Exec")
	return c.db.ExecContext(ctx, query, args...)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
