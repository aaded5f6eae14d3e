// Package store persists catalogs, companies, vacancies and run records in
// PostgreSQL or SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vacancy-codes/internal/db"
	"github.com/vacancy-codes/internal/debug"
)

// reconcileLockID keys the advisory lock that serializes reconciliation runs
const reconcileLockID = 54_0001

// Options tune catalog loading
type Options struct {
	AreaQuery       string
	OccupationQuery string
}

// Store wraps a database connection with dialect-aware queries
type Store struct {
	db      *sql.DB
	driver  string
	options Options
}

// New creates a store over an open connection
func New(conn *db.Connection, opts Options) *Store {
	if opts.AreaQuery == "" {
		opts.AreaQuery = "SELECT id, name FROM mrigo ORDER BY id DESC"
	}
	if opts.OccupationQuery == "" {
		opts.OccupationQuery = "SELECT id, name FROM okpdtr ORDER BY id"
	}
	return &Store{db: conn.DB, driver: conn.Driver, options: opts}
}

func (s *Store) rebind(query string) string {
	return db.Rebind(s.driver, query)
}

func (s *Store) timestampType() string {
	if s.driver == db.Postgres {
		return "TIMESTAMPTZ"
	}
	return "TIMESTAMP"
}

func (s *Store) schema() []string {
	ts := s.timestampType()
	return []string{
		`CREATE TABLE IF NOT EXISTS mrigo (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS okpdtr (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS companies (
			ogrn                 TEXT PRIMARY KEY,
			inn                  TEXT NOT NULL DEFAULT '',
			kpp                  TEXT NOT NULL DEFAULT '',
			companycode          TEXT NOT NULL DEFAULT '',
			name                 TEXT NOT NULL DEFAULT '',
			address              TEXT NOT NULL DEFAULT '',
			hr_agency            BOOLEAN NOT NULL DEFAULT FALSE,
			url                  TEXT NOT NULL DEFAULT '',
			site                 TEXT NOT NULL DEFAULT '',
			phone                TEXT NOT NULL DEFAULT '',
			fax                  TEXT NOT NULL DEFAULT '',
			email                TEXT NOT NULL DEFAULT '',
			code_industry_branch TEXT NOT NULL DEFAULT '',
			is_closed            BOOLEAN NOT NULL DEFAULT FALSE,
			closed_at            ` + ts + `
		)`,
		`CREATE TABLE IF NOT EXISTS vacancies (
			id               TEXT PRIMARY KEY,
			ogrn             TEXT NOT NULL,
			source           TEXT NOT NULL DEFAULT '',
			region_code      TEXT NOT NULL DEFAULT '',
			region_name      TEXT NOT NULL DEFAULT '',
			address          TEXT NOT NULL DEFAULT '',
			experience       TEXT NOT NULL DEFAULT '',
			employment       TEXT NOT NULL DEFAULT '',
			schedule         TEXT NOT NULL DEFAULT '',
			job_name         TEXT NOT NULL DEFAULT '',
			specialisation   TEXT NOT NULL DEFAULT '',
			duty             TEXT NOT NULL DEFAULT '',
			education        TEXT NOT NULL DEFAULT '',
			qualification    TEXT NOT NULL DEFAULT '',
			term_text        TEXT NOT NULL DEFAULT '',
			social_protected TEXT NOT NULL DEFAULT '',
			salary_min       NUMERIC,
			salary_max       NUMERIC,
			salary           TEXT NOT NULL DEFAULT '',
			currency         TEXT NOT NULL DEFAULT '',
			vac_url          TEXT NOT NULL DEFAULT '',
			industry         TEXT NOT NULL DEFAULT '',
			creation_date    TEXT NOT NULL DEFAULT '',
			modify_date      TEXT NOT NULL DEFAULT '',
			download_time    ` + ts + ` NOT NULL,
			id_mrigo         TEXT,
			id_okpdtr        TEXT,
			is_closed        BOOLEAN NOT NULL DEFAULT FALSE,
			closed_at        ` + ts + `
		)`,
		`CREATE INDEX IF NOT EXISTS vacancies_ogrn_idx ON vacancies (ogrn)`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id               TEXT PRIMARY KEY,
			started_at           ` + ts + ` NOT NULL,
			finished_at          ` + ts + ` NOT NULL,
			source               TEXT NOT NULL DEFAULT '',
			metric               TEXT NOT NULL DEFAULT '',
			fetched              INTEGER NOT NULL DEFAULT 0,
			skipped              INTEGER NOT NULL DEFAULT 0,
			areas_accepted       INTEGER NOT NULL DEFAULT 0,
			occupations_accepted INTEGER NOT NULL DEFAULT 0,
			companies_inserted   INTEGER NOT NULL DEFAULT 0,
			companies_closed     INTEGER NOT NULL DEFAULT 0,
			vacancies_inserted   INTEGER NOT NULL DEFAULT 0,
			vacancies_closed     INTEGER NOT NULL DEFAULT 0
		)`,
	}
}

// Migrate creates any missing tables
func (s *Store) Migrate(ctx context.Context, localDebug bool) error {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	for i, stmt := range s.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	debug.DebugOutput(localDebug, "Schema ready on %s", s.driver)
	return nil
}
