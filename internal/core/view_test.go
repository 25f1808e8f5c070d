package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func viewFixture() []CheckEntry {
	a := entry("111", "Ivanov Ivan")
	a.CreatedDate = "2024-03-10"
	a.Source = SourceBlackList

	b := entry("222", "petrov petr")
	b.CreatedDate = "2024-03-12"
	b.TxNo = "TX-2"

	c := entry("333", "Sidorov")
	c.CreatedDate = "2024-03-11"
	c.SearchName = "SIDOROV ALEKSEI"

	return []CheckEntry{a, b, c}
}

func TestEntryFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter EntryFilter
		want   []string
	}{
		{"empty filter keeps everything", EntryFilter{}, []string{"Ivanov Ivan", "petrov petr", "Sidorov"}},
		{"search matches name case-insensitively", EntryFilter{Search: "IVAN"}, []string{"Ivanov Ivan"}},
		{"search matches customer number", EntryFilter{Search: "22"}, []string{"petrov petr"}},
		{"search matches tx number", EntryFilter{Search: "tx-2"}, []string{"petrov petr"}},
		{"search matches search name", EntryFilter{Search: "aleksei"}, []string{"Sidorov"}},
		{"name substring", EntryFilter{Name: "OV"}, []string{"Ivanov Ivan", "petrov petr", "Sidorov"}},
		{"customer number substring", EntryFilter{CustomerNo: "3"}, []string{"Sidorov"}},
		{"source is exact", EntryFilter{Source: SourceBlackList}, []string{"Ivanov Ivan"}},
		{"predicates combine", EntryFilter{Name: "ov", Source: SourceWhiteList}, []string{"petrov petr", "Sidorov"}},
		{"nothing matches", EntryFilter{Search: "nobody"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyView(viewFixture(), ViewOptions{Filter: tt.filter})
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestApplyView_Sort(t *testing.T) {
	tests := []struct {
		name string
		sort SortSpec
		want []string
	}{
		{"no sort field keeps insertion order", SortSpec{}, []string{"Ivanov Ivan", "petrov petr", "Sidorov"}},
		{"default sort is newest first", DefaultSort, []string{"petrov petr", "Sidorov", "Ivanov Ivan"}},
		{"date ascending", SortSpec{Field: SortCreatedDate}, []string{"Ivanov Ivan", "Sidorov", "petrov petr"}},
		{"name ignores case", SortSpec{Field: SortName}, []string{"Ivanov Ivan", "petrov petr", "Sidorov"}},
		{"name descending", SortSpec{Field: SortName, Desc: true}, []string{"Sidorov", "petrov petr", "Ivanov Ivan"}},
		{"customer number descending", SortSpec{Field: SortCustomerNo, Desc: true}, []string{"Sidorov", "petrov petr", "Ivanov Ivan"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyView(viewFixture(), ViewOptions{Sort: tt.sort})
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestApplyView_StableOnEqualKeys(t *testing.T) {
	entries := []CheckEntry{entry("1", "A"), entry("2", "B"), entry("3", "C")}

	got := ApplyView(entries, ViewOptions{Sort: SortSpec{Field: SortSource, Desc: true}})
	assert.Equal(t, []string{"A", "B", "C"}, names(got))

	entries[1].CreatedDate = "not a date"
	got = ApplyView(entries, ViewOptions{Sort: DefaultSort})
	assert.Equal(t, []string{"A", "B", "C"}, names(got))
}

func TestApplyView_DoesNotMutateInput(t *testing.T) {
	entries := viewFixture()
	_ = ApplyView(entries, ViewOptions{Sort: SortSpec{Field: SortName, Desc: true}})
	assert.Equal(t, []string{"Ivanov Ivan", "petrov petr", "Sidorov"}, names(entries))
}

func TestParseSortField(t *testing.T) {
	f, ok := ParseSortField("customerNo")
	assert.True(t, ok)
	assert.Equal(t, SortCustomerNo, f)

	_, ok = ParseSortField("drop table")
	assert.False(t, ok)
}
