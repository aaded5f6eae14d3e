package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vacancy-codes/internal/db"
	"github.com/vacancy-codes/internal/debug"
)

// ErrRunNotFound is returned when a run id is unknown
var ErrRunNotFound = errors.New("run not found")

// Tracker records one row per pipeline run in the runs table
type Tracker struct {
	db     *sql.DB
	driver string
}

// NewTracker creates a new audit tracker
func NewTracker(conn *db.Connection) *Tracker {
	return &Tracker{db: conn.DB, driver: conn.Driver}
}

// Run summarizes one pipeline execution
type Run struct {
	ID                  string    `json:"run_id"`
	StartedAt           time.Time `json:"started_at"`
	FinishedAt          time.Time `json:"finished_at"`
	Source              string    `json:"source"`
	Metric              string    `json:"metric"`
	Fetched             int       `json:"fetched"`
	Skipped             int       `json:"skipped"`
	AreasAccepted       int       `json:"areas_accepted"`
	OccupationsAccepted int       `json:"occupations_accepted"`
	CompaniesInserted   int       `json:"companies_inserted"`
	CompaniesClosed     int       `json:"companies_closed"`
	VacanciesInserted   int       `json:"vacancies_inserted"`
	VacanciesClosed     int       `json:"vacancies_closed"`
}

// Duration returns how long the run took
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

const runColumns = `run_id, started_at, finished_at, source, metric, fetched, skipped,
	areas_accepted, occupations_accepted, companies_inserted, companies_closed,
	vacancies_inserted, vacancies_closed`

// RecordRun stores run and returns its id, generating one when run.ID is empty
func (t *Tracker) RecordRun(ctx context.Context, localDebug bool, run Run) (string, error) {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	_, err := t.db.ExecContext(ctx, db.Rebind(t.driver, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), run.ID, run.StartedAt, run.FinishedAt, run.Source, run.Metric, run.Fetched, run.Skipped,
		run.AreasAccepted, run.OccupationsAccepted, run.CompaniesInserted, run.CompaniesClosed,
		run.VacanciesInserted, run.VacanciesClosed)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}

	debug.DebugOutput(localDebug, "Recorded run %s: %d inserted, %d closed vacancies in %v",
		run.ID, run.VacanciesInserted, run.VacanciesClosed, run.Duration())
	return run.ID, nil
}

// GetRun loads one run by id
func (t *Tracker) GetRun(ctx context.Context, id string) (*Run, error) {
	row := t.db.QueryRowContext(ctx, db.Rebind(t.driver, "SELECT "+runColumns+" FROM runs WHERE run_id = ?"), id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return run, nil
}

// RecentRuns returns up to limit runs, newest first
func (t *Tracker) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := t.db.QueryContext(ctx, db.Rebind(t.driver,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC LIMIT ?"), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	err := s.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Source, &r.Metric, &r.Fetched, &r.Skipped,
		&r.AreasAccepted, &r.OccupationsAccepted, &r.CompaniesInserted, &r.CompaniesClosed,
		&r.VacanciesInserted, &r.VacanciesClosed)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
