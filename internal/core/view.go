package core

import (
	"sort"
	"strings"
	"time"
)

// SortField names a sortable CheckEntry column.
type SortField string

const (
	SortTxNo            SortField = "txNo"
	SortName            SortField = "name"
	SortCustomerNo      SortField = "customerNo"
	SortSource          SortField = "source"
	SortTransactionType SortField = "transactionType"
	SortOriginSource    SortField = "originSource"
	SortCreatedDate     SortField = "createdDate"
	SortCreatedUser     SortField = "createdUser"
)

// ParseSortField returns the field named s and whether it is known.
func ParseSortField(s string) (SortField, bool) {
	switch f := SortField(s); f {
	case SortTxNo, SortName, SortCustomerNo, SortSource, SortTransactionType,
		SortOriginSource, SortCreatedDate, SortCreatedUser:
		return f, true
	}
	return "", false
}

// SortSpec is the single active sort column and its direction.
type SortSpec struct {
	Field SortField
	Desc  bool
}

// DefaultSort shows the newest entries first.
var DefaultSort = SortSpec{Field: SortCreatedDate, Desc: true}

// EntryFilter narrows a view. All non-empty predicates are AND-combined.
type EntryFilter struct {
	Search     string     // case-insensitive over name, customer no, tx no, search name
	Name       string     // substring, case-insensitive
	CustomerNo string     // substring, case-insensitive
	Source     SourceType // exact
}

// ViewOptions combines filter and sort.
type ViewOptions struct {
	Filter EntryFilter
	Sort   SortSpec
}

// Match reports whether e passes every predicate of f.
func (f EntryFilter) Match(e CheckEntry) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !containsFold(e.Name, q) &&
			!containsFold(e.CustomerNo, q) &&
			!containsFold(e.TxNo, q) &&
			!containsFold(e.SearchName, q) {
			return false
		}
	}
	if f.Name != "" && !containsFold(e.Name, strings.ToLower(f.Name)) {
		return false
	}
	if f.CustomerNo != "" && !containsFold(e.CustomerNo, strings.ToLower(f.CustomerNo)) {
		return false
	}
	if f.Source != "" && e.Source != f.Source {
		return false
	}
	return true
}

// ApplyView filters and stable-sorts a copy of entries. An empty sort field
// keeps insertion order.
func ApplyView(entries []CheckEntry, opts ViewOptions) []CheckEntry {
	out := make([]CheckEntry, 0, len(entries))
	for _, e := range entries {
		if opts.Filter.Match(e) {
			out = append(out, e)
		}
	}

	if opts.Sort.Field == "" {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := compareEntries(out[i], out[j], opts.Sort.Field)
		if opts.Sort.Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// compareEntries orders two entries by field. Dates compare as timestamps;
// an unparseable date compares equal to anything. Strings compare
// case-insensitively.
func compareEntries(a, b CheckEntry, field SortField) int {
	if field == SortCreatedDate {
		ta, errA := time.Parse(DateLayout, a.CreatedDate)
		tb, errB := time.Parse(DateLayout, b.CreatedDate)
		if errA != nil || errB != nil {
			return 0
		}
		return ta.Compare(tb)
	}
	return strings.Compare(strings.ToLower(fieldValue(a, field)), strings.ToLower(fieldValue(b, field)))
}

func fieldValue(e CheckEntry, field SortField) string {
	switch field {
	case SortTxNo:
		return e.TxNo
	case SortName:
		return e.Name
	case SortCustomerNo:
		return e.CustomerNo
	case SortSource:
		return string(e.Source)
	case SortTransactionType:
		return string(e.TransactionType)
	case SortOriginSource:
		return e.OriginSource
	case SortCreatedUser:
		return e.CreatedUser
	default:
		return e.CreatedDate
	}
}

func containsFold(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}
