package core

import (
	"context"
	"iter"
	"strings"
)

// SourceType classifies a reference record or check entry.
type SourceType string

const (
	SourceWhiteList    SourceType = "White List"
	SourceBlackList    SourceType = "Black List"
	SourceCustomerBase SourceType = "Customer Base"
)

// Valid reports whether s is one of the known classifications.
func (s SourceType) Valid() bool {
	switch s {
	case SourceWhiteList, SourceBlackList, SourceCustomerBase:
		return true
	}
	return false
}

// TransactionType is the operation a check entry requests.
type TransactionType string

const (
	TransactionInsert TransactionType = "Insert"
	TransactionDelete TransactionType = "Delete"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionInsert || t == TransactionDelete
}

// Origin sources used when the operator leaves the field blank.
const (
	OriginImport = "Import"
	OriginManual = "Manual"
)

// NotAvailable is the customer number given to entries with no identifier.
const NotAvailable = "N/A"

// DateLayout is the day-granularity layout of CheckEntry.CreatedDate.
const DateLayout = "2006-01-02"

// ImportedRow is one data line from a parsed batch.
type ImportedRow struct {
	Name        string            `json:"name"`
	CustomerNo  string            `json:"customerNo,omitempty"`
	CustomerID  string            `json:"customerId,omitempty"`
	OtherFields map[string]string `json:"otherFields,omitempty"`
}

// HasIdentifier reports whether the row carries a customer number or id.
func (r ImportedRow) HasIdentifier() bool {
	return r.CustomerNo != "" || r.CustomerID != ""
}

// ReferenceRecord is one entity of the reference population.
type ReferenceRecord struct {
	UqID           string     `json:"uqId" yaml:"uqId"`
	Name           string     `json:"name" yaml:"name"`
	SearchName     string     `json:"searchName" yaml:"searchName"`
	CustomerID     string     `json:"customerId,omitempty" yaml:"customerId"`
	CustomerNumber string     `json:"customerNumber,omitempty" yaml:"customerNumber"`
	Source         SourceType `json:"source" yaml:"source"`
}

// Normalize fills SearchName with the uppercase trim of Name when no
// canonical search form was supplied.
func (r ReferenceRecord) Normalize() ReferenceRecord {
	r.Name = strings.TrimSpace(r.Name)
	r.SearchName = strings.TrimSpace(r.SearchName)
	if r.SearchName == "" {
		r.SearchName = strings.ToUpper(r.Name)
	}
	r.CustomerID = strings.TrimSpace(r.CustomerID)
	r.CustomerNumber = strings.TrimSpace(r.CustomerNumber)
	return r
}

// MatchType classifies a MatchResult.
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchPartial MatchType = "partial"
	MatchNone    MatchType = "none"
)

// MatchResult pairs one imported row with at most one reference record.
// Matched and Score are non-nil iff Type != MatchNone.
type MatchResult struct {
	Row     ImportedRow      `json:"importedRow"`
	Matched *ReferenceRecord `json:"matchedCustomer,omitempty"`
	Type    MatchType        `json:"matchType"`
	Score   *int             `json:"matchScore,omitempty"`
}

// CheckEntry is a normalized, transaction-scoped unit of work.
type CheckEntry struct {
	TxNo            string          `json:"txNo"`
	Name            string          `json:"name"`
	CustomerNo      string          `json:"customerNo"`
	SearchName      string          `json:"searchName"`
	CreatedDate     string          `json:"createdDate"`
	CreatedUser     string          `json:"createdUser"`
	Source          SourceType      `json:"source"`
	TransactionType TransactionType `json:"transactionType"`
	OriginSource    string          `json:"originSource"`
	ListGroup       string          `json:"listGroup,omitempty"`
}

// EntryKey addresses a check entry within one ledger.
type EntryKey struct {
	TxNo        string `json:"txNo"`
	CustomerNo  string `json:"customerNo"`
	CreatedDate string `json:"createdDate"`
}

// Key returns the composite identity of e.
func (e CheckEntry) Key() EntryKey {
	return EntryKey{TxNo: e.TxNo, CustomerNo: e.CustomerNo, CreatedDate: e.CreatedDate}
}

// ReferenceStore is the read-only query surface over the reference population.
//
// All must enumerate records in a stable order; the partial-match tie-break
// depends on it.
type ReferenceStore interface {
	FindByKey(ctx context.Context, id string) (ReferenceRecord, bool, error)
	FindByExactName(ctx context.Context, name string) (ReferenceRecord, bool, error)
	All(ctx context.Context) iter.Seq2[ReferenceRecord, error]
}

// SubmissionSink receives the finalized entries of a transaction.
type SubmissionSink interface {
	Submit(ctx context.Context, sub Submission) error
}

// Submission is one finalized transaction handed to a SubmissionSink.
type Submission struct {
	TxNo        string       `json:"txNo"`
	SubmittedBy string       `json:"submittedBy"`
	Entries     []CheckEntry `json:"entries"`
}
