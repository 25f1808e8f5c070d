package reference

import (
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/checkbench/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const populationYAML = `
records:
  - uqId: R1
    name: Ivanov Ivan
    customerNumber: "111"
    source: Black List
  - uqId: R2
    name: " Petrov Aleksei "
    searchName: ALEKSEI PETROV
    customerId: C-2
    source: White List
  - uqId: R3
    name: Ivanov Ivan
    customerNumber: "111"
    source: Customer Base
`

func TestLoadYAML(t *testing.T) {
	s, err := LoadYAML(strings.NewReader(populationYAML))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	ctx := context.Background()

	rec, ok, err := s.FindByKey(ctx, "111")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "R1", rec.UqID, "first record wins on shared key")
	assert.Equal(t, "IVANOV IVAN", rec.SearchName)

	rec, ok, _ = s.FindByKey(ctx, "C-2")
	require.True(t, ok)
	assert.Equal(t, "Petrov Aleksei", rec.Name)

	rec, ok, _ = s.FindByExactName(ctx, "ALEKSEI PETROV")
	require.True(t, ok)
	assert.Equal(t, "R2", rec.UqID)

	rec, ok, _ = s.FindByExactName(ctx, "PETROV ALEKSEI")
	require.True(t, ok, "uppercased display name is indexed too")
	assert.Equal(t, "R2", rec.UqID)

	_, ok, _ = s.FindByKey(ctx, "")
	assert.False(t, ok)
	_, ok, _ = s.FindByExactName(ctx, "nobody")
	assert.False(t, ok)
}

func TestLoadYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"missing name", "records:\n  - uqId: R1\n", "name is required"},
		{"unknown source", "records:\n  - uqId: R1\n    name: X\n    source: Grey List\n", "unknown source"},
		{"unknown field", "records:\n  - uqId: R1\n    name: X\n    colour: red\n", "decode reference yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadYAML(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadYAML_Empty(t *testing.T) {
	s, err := LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_AllKeepsLoadOrder(t *testing.T) {
	s := NewMemoryStore([]core.ReferenceRecord{
		{UqID: "Z", Name: "Zed"},
		{UqID: "A", Name: "Alpha"},
		{UqID: "M", Name: "Mid"},
	})

	var ids []string
	for rec, err := range s.All(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, rec.UqID)
	}
	assert.Equal(t, []string{"Z", "A", "M"}, ids)
}

func TestMemoryStore_RecordsIsCopy(t *testing.T) {
	s := NewMemoryStore([]core.ReferenceRecord{{UqID: "A", Name: " Alpha "}})

	recs := s.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "Alpha", recs[0].Name)

	recs[0].Name = "changed"
	assert.Equal(t, "Alpha", s.Records()[0].Name)
}

func TestMemoryStore_AllStopsOnCancel(t *testing.T) {
	s := NewMemoryStore([]core.ReferenceRecord{{UqID: "A", Name: "A"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var gotErr error
	for _, err := range s.All(ctx) {
		gotErr = err
	}
	assert.ErrorIs(t, gotErr, context.Canceled)
}

func TestMemoryStore_WithMatcher(t *testing.T) {
	s, err := LoadYAML(strings.NewReader(populationYAML))
	require.NoError(t, err)

	results, err := core.NewMatcher(s).Match(context.Background(), []core.ImportedRow{
		{Name: "whoever", CustomerNo: "111"},
		{Name: "aleksei petrov"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, core.MatchExact, results[0].Type)
	assert.Equal(t, "R1", results[0].Matched.UqID)
	assert.Equal(t, core.MatchExact, results[1].Type)
	assert.Equal(t, "R2", results[1].Matched.UqID)
}
