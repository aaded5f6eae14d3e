package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vacancy-codes/internal/db"
	"github.com/vacancy-codes/internal/reconcile"
	"github.com/vacancy-codes/internal/vacancy"
)

// Entity names a reconciled relation
type Entity string

const (
	Companies Entity = "companies"
	Vacancies Entity = "vacancies"
)

func (e Entity) keyColumn() (string, error) {
	switch e {
	case Companies:
		return "ogrn", nil
	case Vacancies:
		return "id", nil
	}
	return "", fmt.Errorf("unknown entity %q", e)
}

// queryer is satisfied by *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Persisted returns the reconciliation state of every stored row of entity
func (s *Store) Persisted(ctx context.Context, entity Entity) ([]reconcile.Persisted, error) {
	return persisted(ctx, s.db, entity)
}

func persisted(ctx context.Context, q queryer, entity Entity) ([]reconcile.Persisted, error) {
	key, err := entity.keyColumn()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, "SELECT "+key+", is_closed, closed_at FROM "+string(entity))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", entity, err)
	}
	defer rows.Close()

	var out []reconcile.Persisted
	for rows.Next() {
		var (
			p        reconcile.Persisted
			closedAt sql.NullTime
		)
		if err := rows.Scan(&p.Key, &p.Closed, &closedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", entity, err)
		}
		if closedAt.Valid {
			t := closedAt.Time
			p.ClosedAt = &t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Counts reports the effect of one reconciliation on one entity
type Counts struct {
	Inserted   int
	Closed     int
	Unchanged  int
	Reappeared int
}

// Outcome reports the effect of one reconciliation
type Outcome struct {
	Companies Counts
	Vacancies Counts
}

// Reconcile applies the batch to the store. The delta is derived from the
// state read inside the same transaction, and the transaction holds the
// single-writer lock for its whole length, so concurrent or repeated runs
// never insert or close twice.
func (s *Store) Reconcile(ctx context.Context, companies []vacancy.Company, vacancies []vacancy.Vacancy, now time.Time) (*Outcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if s.driver == db.Postgres {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", reconcileLockID); err != nil {
			return nil, fmt.Errorf("failed to take reconcile lock: %w", err)
		}
	}

	storedCompanies, err := persisted(ctx, tx, Companies)
	if err != nil {
		return nil, err
	}
	companyDelta, err := reconcile.Reconcile(companies, vacancy.CompanyKey, storedCompanies)
	if err != nil {
		return nil, fmt.Errorf("companies: %w", err)
	}

	storedVacancies, err := persisted(ctx, tx, Vacancies)
	if err != nil {
		return nil, err
	}
	vacancyDelta, err := reconcile.Reconcile(vacancies, vacancy.VacancyKey, storedVacancies)
	if err != nil {
		return nil, fmt.Errorf("vacancies: %w", err)
	}

	out := &Outcome{
		Companies: Counts{Unchanged: companyDelta.Unchanged, Reappeared: len(companyDelta.Reappeared)},
		Vacancies: Counts{Unchanged: vacancyDelta.Unchanged, Reappeared: len(vacancyDelta.Reappeared)},
	}
	if companyDelta.Empty() && vacancyDelta.Empty() {
		return out, tx.Commit()
	}

	if out.Companies.Inserted, err = s.insertCompanies(ctx, tx, companyDelta.Insert); err != nil {
		return nil, err
	}
	if out.Vacancies.Inserted, err = s.insertVacancies(ctx, tx, vacancyDelta.Insert); err != nil {
		return nil, err
	}
	if out.Companies.Closed, err = s.close(ctx, tx, Companies, companyDelta.Close, now); err != nil {
		return nil, err
	}
	if out.Vacancies.Closed, err = s.close(ctx, tx, Vacancies, vacancyDelta.Close, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reconciliation: %w", err)
	}
	return out, nil
}

const companyColumns = `ogrn, inn, kpp, companycode, name, address, hr_agency, url, site,
	phone, fax, email, code_industry_branch`

const vacancyColumns = `id, ogrn, source, region_code, region_name, address, experience,
	employment, schedule, job_name, specialisation, duty, education, qualification,
	term_text, social_protected, salary_min, salary_max, salary, currency, vac_url,
	industry, creation_date, modify_date, download_time, id_mrigo, id_okpdtr`

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (s *Store) insertCompanies(ctx context.Context, tx *sql.Tx, companies []vacancy.Company) (int, error) {
	if len(companies) == 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareContext(ctx, s.rebind(
		"INSERT INTO companies ("+companyColumns+") VALUES ("+placeholders(13)+") ON CONFLICT (ogrn) DO NOTHING"))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare company insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, c := range companies {
		res, err := stmt.ExecContext(ctx, c.OGRN, c.INN, c.KPP, c.CompanyCode, c.Name, c.Address,
			c.HRAgency, c.URL, c.Site, c.Phone, c.Fax, c.Email, c.IndustryBranch)
		if err != nil {
			return 0, fmt.Errorf("failed to insert company %s: %w", c.OGRN, err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}
	return inserted, nil
}

func (s *Store) insertVacancies(ctx context.Context, tx *sql.Tx, vacancies []vacancy.Vacancy) (int, error) {
	if len(vacancies) == 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareContext(ctx, s.rebind(
		"INSERT INTO vacancies ("+vacancyColumns+") VALUES ("+placeholders(27)+") ON CONFLICT (id) DO NOTHING"))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare vacancy insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, v := range vacancies {
		res, err := stmt.ExecContext(ctx, v.ID, v.OGRN, v.Source, v.RegionCode, v.RegionName, v.Address,
			v.Experience, v.Employment, v.Schedule, v.JobName, v.Specialisation, v.Duty, v.Education,
			v.Qualification, v.TermText, v.SocialProtected, v.SalaryMin, v.SalaryMax, v.Salary,
			v.Currency, v.URL, v.Industry, v.CreatedAt, v.ModifiedAt, v.DownloadedAt,
			v.MrigoID, v.OkpdtrID)
		if err != nil {
			return 0, fmt.Errorf("failed to insert vacancy %s: %w", v.ID, err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}
	return inserted, nil
}

// close flags keys as closed unless they already are, leaving an existing
// closed_at untouched
func (s *Store) close(ctx context.Context, tx *sql.Tx, entity Entity, keys []string, now time.Time) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	key, err := entity.keyColumn()
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, s.rebind(
		"UPDATE "+string(entity)+" SET is_closed = TRUE, closed_at = ? WHERE "+key+" = ? AND is_closed = FALSE"))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare %s close: %w", entity, err)
	}
	defer stmt.Close()

	closed := 0
	for _, k := range keys {
		res, err := stmt.ExecContext(ctx, now, k)
		if err != nil {
			return 0, fmt.Errorf("failed to close %s %s: %w", entity, k, err)
		}
		n, _ := res.RowsAffected()
		closed += int(n)
	}
	return closed, nil
}

// ListVacancies returns stored vacancies ordered by id, open ones only
// unless includeClosed is set
func (s *Store) ListVacancies(ctx context.Context, includeClosed bool) ([]vacancy.Vacancy, error) {
	query := "SELECT " + vacancyColumns + ", is_closed, closed_at FROM vacancies"
	if !includeClosed {
		query += " WHERE is_closed = FALSE"
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query vacancies: %w", err)
	}
	defer rows.Close()

	var out []vacancy.Vacancy
	for rows.Next() {
		var (
			v        vacancy.Vacancy
			closedAt sql.NullTime
		)
		err := rows.Scan(&v.ID, &v.OGRN, &v.Source, &v.RegionCode, &v.RegionName, &v.Address,
			&v.Experience, &v.Employment, &v.Schedule, &v.JobName, &v.Specialisation, &v.Duty,
			&v.Education, &v.Qualification, &v.TermText, &v.SocialProtected, &v.SalaryMin,
			&v.SalaryMax, &v.Salary, &v.Currency, &v.URL, &v.Industry, &v.CreatedAt, &v.ModifiedAt,
			&v.DownloadedAt, &v.MrigoID, &v.OkpdtrID, &v.IsClosed, &closedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vacancy: %w", err)
		}
		if closedAt.Valid {
			t := closedAt.Time
			v.ClosedAt = &t
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
