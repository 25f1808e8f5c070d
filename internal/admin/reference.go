// Package admin provides administrative operations for the reference database.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/checkbench/internal/core"
	"github.com/JonMunkholm/checkbench/internal/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Timeout is the maximum duration for one administrative operation.
const Timeout = 30 * time.Second

// DB is the subset of *pgxpool.Pool the admin operations need.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

var _ DB = (*pgxpool.Pool)(nil)

// ReferenceDB manages the reference_customers table.
type ReferenceDB struct {
	DB DB
}

// Migrate creates the table and its indexes if they do not exist.
func (r *ReferenceDB) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	for _, stmt := range schema.Statements() {
		if _, err := r.DB.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	slog.Info("reference schema migrated", "statements", len(schema.Statements()))
	return nil
}

// Reset truncates the reference table.
// This is a destructive operation - use with caution.
func (r *ReferenceDB) Reset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	if _, err := r.DB.Exec(ctx, "TRUNCATE "+schema.ReferenceCustomersTable); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	slog.Warn("reference table truncated")
	return nil
}

// Seed bulk loads records into the reference table and returns the number
// of rows copied. Records are normalized first; optional columns are stored
// as NULL when empty.
func (r *ReferenceDB) Seed(ctx context.Context, records []core.ReferenceRecord) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	rows := make([][]any, 0, len(records))
	for i, rec := range records {
		rec = rec.Normalize()
		if rec.UqID == "" {
			return 0, fmt.Errorf("seed: record %d: uqId is required", i)
		}
		rows = append(rows, []any{
			rec.UqID,
			rec.Name,
			toPgText(rec.SearchName),
			toPgText(rec.CustomerID),
			toPgText(rec.CustomerNumber),
			string(rec.Source),
		})
	}

	n, err := r.DB.CopyFrom(ctx, pgx.Identifier{schema.ReferenceCustomersTable}, schema.Columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	slog.Info("reference table seeded", "rows", n)
	return n, nil
}

func toPgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
