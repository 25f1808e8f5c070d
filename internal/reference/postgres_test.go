package reference

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB serves canned rows and records the SQL it receives.
type fakeDB struct {
	rows     [][]string
	queryErr error
	scanErr  error
	queries  []string
	args     [][]any
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{data: f.rows, idx: -1, scanErr: f.scanErr}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
	if f.queryErr != nil {
		return errRow{f.queryErr}
	}
	if len(f.rows) == 0 {
		return errRow{pgx.ErrNoRows}
	}
	return &fakeRows{data: f.rows[:1], idx: 0}
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

type fakeRows struct {
	data    [][]string
	idx     int
	closed  bool
	scanErr error
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.idx]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d columns, %d destinations", len(row), len(dest))
	}
	for i, d := range dest {
		*(d.(*string)) = row[i]
	}
	return nil
}

func TestPostgresStore_FindByKey(t *testing.T) {
	db := &fakeDB{rows: [][]string{{"R1", " Ivanov Ivan ", "", "", "111", "Black List"}}}
	s := NewPostgresStore(db)

	rec, ok, err := s.FindByKey(context.Background(), "111")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ivanov Ivan", rec.Name)
	assert.Equal(t, "IVANOV IVAN", rec.SearchName)
	assert.Equal(t, "Black List", string(rec.Source))

	require.Len(t, db.queries, 1)
	assert.Contains(t, db.queries[0], "ORDER BY uq_id LIMIT 1")
	assert.Equal(t, []any{"111"}, db.args[0])
}

func TestPostgresStore_NotFound(t *testing.T) {
	db := &fakeDB{}
	s := NewPostgresStore(db)

	_, ok, err := s.FindByExactName(context.Background(), "NOBODY")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.FindByKey(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, db.queries, 1, "empty key must not hit the database")
}

func TestPostgresStore_QueryError(t *testing.T) {
	down := errors.New("connection refused")
	s := NewPostgresStore(&fakeDB{queryErr: down})

	_, _, err := s.FindByExactName(context.Background(), "X")
	assert.ErrorIs(t, err, down)

	var iterErr error
	for _, err := range s.All(context.Background()) {
		iterErr = err
	}
	assert.ErrorIs(t, iterErr, down)
}

func TestPostgresStore_All(t *testing.T) {
	db := &fakeDB{rows: [][]string{
		{"A1", "Alpha", "", "", "", "White List"},
		{"B2", "Beta", "BETA B", "", "", "White List"},
		{"C3", "Gamma", "", "", "", "White List"},
	}}
	s := NewPostgresStore(db)

	var ids []string
	for rec, err := range s.All(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, rec.UqID)
		if rec.UqID == "B2" {
			assert.Equal(t, "BETA B", rec.SearchName)
			break
		}
	}
	assert.Equal(t, []string{"A1", "B2"}, ids)
	assert.Contains(t, db.queries[0], "ORDER BY uq_id")
}

func TestPostgresStore_AllScanError(t *testing.T) {
	bad := errors.New("bad column")
	s := NewPostgresStore(&fakeDB{rows: [][]string{{"A1"}}, scanErr: bad})

	var iterErr error
	for _, err := range s.All(context.Background()) {
		iterErr = err
	}
	assert.ErrorIs(t, iterErr, bad)
}
