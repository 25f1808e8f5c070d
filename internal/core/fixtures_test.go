package core

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"time"
)

// sliceStore is a ReferenceStore over a fixed slice, enumerated in order.
type sliceStore struct {
	records []ReferenceRecord
	err     error
}

func newSliceStore(records ...ReferenceRecord) *sliceStore {
	s := &sliceStore{}
	for _, r := range records {
		s.records = append(s.records, r.Normalize())
	}
	return s
}

func (s *sliceStore) FindByKey(_ context.Context, id string) (ReferenceRecord, bool, error) {
	if s.err != nil {
		return ReferenceRecord{}, false, s.err
	}
	for _, r := range s.records {
		if (r.CustomerNumber != "" && r.CustomerNumber == id) || (r.CustomerID != "" && r.CustomerID == id) {
			return r, true, nil
		}
	}
	return ReferenceRecord{}, false, nil
}

func (s *sliceStore) FindByExactName(_ context.Context, name string) (ReferenceRecord, bool, error) {
	if s.err != nil {
		return ReferenceRecord{}, false, s.err
	}
	for _, r := range s.records {
		if name != "" && (strings.ToUpper(r.Name) == name || r.SearchName == name) {
			return r, true, nil
		}
	}
	return ReferenceRecord{}, false, nil
}

func (s *sliceStore) All(_ context.Context) iter.Seq2[ReferenceRecord, error] {
	return func(yield func(ReferenceRecord, error) bool) {
		if s.err != nil {
			yield(ReferenceRecord{}, s.err)
			return
		}
		for _, r := range s.records {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// recordingSink collects submissions and can be told to fail.
type recordingSink struct {
	mu   sync.Mutex
	subs []Submission
	fail error
}

func (r *recordingSink) Submit(_ context.Context, sub Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.subs = append(r.subs, sub)
	return nil
}

var errSinkDown = errors.New("sink unavailable")

var ivanov = ReferenceRecord{
	UqID:           "R1",
	Name:           "Ivanov Ivan",
	SearchName:     "IVANOV IVAN",
	CustomerNumber: "111",
	Source:         SourceBlackList,
}

var testDay = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func testDefaults() BatchDefaults {
	return BatchDefaults{
		TxNo:            "TX-1",
		Source:          SourceWhiteList,
		TransactionType: TransactionInsert,
		User:            "alice",
		Date:            testDay,
	}
}

func entry(customerNo, name string) CheckEntry {
	return CheckEntry{
		TxNo:            "TX-1",
		Name:            name,
		CustomerNo:      customerNo,
		SearchName:      strings.ToUpper(name),
		CreatedDate:     "2024-03-15",
		CreatedUser:     "alice",
		Source:          SourceWhiteList,
		TransactionType: TransactionInsert,
		OriginSource:    OriginImport,
	}
}
