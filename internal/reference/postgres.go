package reference

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/JonMunkholm/checkbench/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of *pgxpool.Pool the store needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Querier = (*pgxpool.Pool)(nil)

const recordColumns = `uq_id, name, COALESCE(search_name, ''), COALESCE(customer_id, ''), COALESCE(customer_number, ''), source`

const (
	queryByKey = `SELECT ` + recordColumns + ` FROM reference_customers
		WHERE customer_number = $1 OR customer_id = $1
		ORDER BY uq_id LIMIT 1`

	queryByName = `SELECT ` + recordColumns + ` FROM reference_customers
		WHERE upper(name) = $1 OR search_name = $1
		ORDER BY uq_id LIMIT 1`

	queryAll = `SELECT ` + recordColumns + ` FROM reference_customers ORDER BY uq_id`
)

// PostgresStore reads the reference population from the reference_customers
// table. Enumeration order is uq_id.
type PostgresStore struct {
	db Querier
}

// NewPostgresStore wraps a pool (or any Querier).
func NewPostgresStore(db Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByKey(ctx context.Context, id string) (core.ReferenceRecord, bool, error) {
	if id == "" {
		return core.ReferenceRecord{}, false, nil
	}
	return s.findOne(ctx, queryByKey, id)
}

func (s *PostgresStore) FindByExactName(ctx context.Context, name string) (core.ReferenceRecord, bool, error) {
	if name == "" {
		return core.ReferenceRecord{}, false, nil
	}
	return s.findOne(ctx, queryByName, name)
}

func (s *PostgresStore) findOne(ctx context.Context, query, arg string) (core.ReferenceRecord, bool, error) {
	rec, err := scanRecord(s.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ReferenceRecord{}, false, nil
	}
	if err != nil {
		return core.ReferenceRecord{}, false, fmt.Errorf("query reference_customers: %w", err)
	}
	return rec, true, nil
}

// All streams every record ordered by uq_id. The cursor is closed when the
// caller stops ranging.
func (s *PostgresStore) All(ctx context.Context) iter.Seq2[core.ReferenceRecord, error] {
	return func(yield func(core.ReferenceRecord, error) bool) {
		rows, err := s.db.Query(ctx, queryAll)
		if err != nil {
			yield(core.ReferenceRecord{}, fmt.Errorf("query reference_customers: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				yield(core.ReferenceRecord{}, fmt.Errorf("scan reference_customers: %w", err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(core.ReferenceRecord{}, fmt.Errorf("iterate reference_customers: %w", err))
		}
	}
}

func scanRecord(row pgx.Row) (core.ReferenceRecord, error) {
	var (
		rec    core.ReferenceRecord
		source string
	)
	if err := row.Scan(&rec.UqID, &rec.Name, &rec.SearchName, &rec.CustomerID, &rec.CustomerNumber, &source); err != nil {
		return core.ReferenceRecord{}, err
	}
	rec.Source = core.SourceType(source)
	return rec.Normalize(), nil
}
