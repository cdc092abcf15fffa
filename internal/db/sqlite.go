package db

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/debemdeboas/folio/internal/config"
)

type SQLite struct {
	conn
	dsn string
}

func NewSQLite(dsn string) *SQLite {
	if dsn == "" {
		dsn = "./folio.db"
	}
	return &SQLite{
		conn: conn{driver: config.DriverSQLite},
		dsn:  dsn,
	}
}

func (s *SQLite) InitDb() error {
	var err error
	s.db, err = sql.Open("sqlite3", s.dsn)
	if err != nil {
		return err
	}

	// Every connection to :memory: gets its own empty database.
	if strings.Contains(s.dsn, ":memory:") {
		s.db.SetMaxOpenConns(1)
	}

	_, err = s.db.Exec(`
CREATE TABLE IF NOT EXISTS records (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    fields BLOB NOT NULL,
    fields_hash TEXT NOT NULL,
    image_url TEXT NOT NULL DEFAULT '',
    user_id TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS records_kind_created ON records (kind, created_at);`)
	if err != nil {
		return err
	}

	dbLogger.Info().Str("dsn", s.dsn).Msg("Database initialized")
	return nil
}
