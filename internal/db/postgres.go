package db

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/debemdeboas/folio/internal/config"
)

// Postgres talks to the store through pgx's database/sql adapter so repositories stay
// driver-agnostic.
type Postgres struct {
	conn
	dsn string
}

func NewPostgres(dsn string) *Postgres {
	return &Postgres{
		conn: conn{driver: config.DriverPostgres, dollar: true},
		dsn:  dsn,
	}
}

func (p *Postgres) InitDb() error {
	var err error
	p.db, err = sql.Open("pgx", p.dsn)
	if err != nil {
		return err
	}

	if err := p.db.Ping(); err != nil {
		return err
	}

	_, err = p.db.Exec(`
CREATE TABLE IF NOT EXISTS records (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    fields BYTEA NOT NULL,
    fields_hash TEXT NOT NULL,
    image_url TEXT NOT NULL DEFAULT '',
    user_id TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS records_kind_created ON records (kind, created_at);`)
	if err != nil {
		return err
	}

	dbLogger.Info().Msg("Database initialized")
	return nil
}
