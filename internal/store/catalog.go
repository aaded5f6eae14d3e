package store

import (
	"context"
	"fmt"

	"github.com/vacancy-codes/internal/catalog"
	"github.com/vacancy-codes/internal/normalize"
)

func catalogTable(kind normalize.Kind) (string, error) {
	switch kind {
	case normalize.Address:
		return "mrigo", nil
	case normalize.JobTitle:
		return "okpdtr", nil
	}
	return "", fmt.Errorf("no catalog table for kind %q", kind)
}

// LoadCatalog reads the catalog rows of kind in the order the configured
// query returns them
func (s *Store) LoadCatalog(ctx context.Context, kind normalize.Kind) ([]catalog.Row, error) {
	query := s.options.AreaQuery
	if kind == normalize.JobTitle {
		query = s.options.OccupationQuery
	} else if kind != normalize.Address {
		return nil, fmt.Errorf("no catalog for kind %q", kind)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s catalog: %w", kind, err)
	}
	defer rows.Close()

	var out []catalog.Row
	for rows.Next() {
		var r catalog.Row
		if err := rows.Scan(&r.Code, &r.Name); err != nil {
			return nil, fmt.Errorf("failed to scan %s catalog row: %w", kind, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s catalog: %w", kind, err)
	}
	return out, nil
}

// ReplaceCatalog swaps the stored catalog of kind for rows in one transaction
func (s *Store) ReplaceCatalog(ctx context.Context, kind normalize.Kind, rows []catalog.Row) error {
	table, err := catalogTable(kind)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind("INSERT INTO "+table+" (id, name) VALUES (?, ?)"))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Code, r.Name); err != nil {
			return fmt.Errorf("failed to insert %s %q: %w", table, r.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
