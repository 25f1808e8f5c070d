package core

import (
	"fmt"
	"strings"
	"time"
)

// BatchDefaults is the metadata every built entry receives.
// Date and User are explicit inputs so construction is deterministic.
type BatchDefaults struct {
	TxNo            string          `json:"txNo"`
	Source          SourceType      `json:"source"`
	TransactionType TransactionType `json:"transactionType"`
	OriginSource    string          `json:"originSource,omitempty"`
	ListGroup       string          `json:"listGroup,omitempty"`
	User            string          `json:"user"`
	Date            time.Time       `json:"date"`
}

// Validate checks the classification fields.
func (d BatchDefaults) Validate() error {
	if !d.Source.Valid() {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidDefaults, d.Source)
	}
	if !d.TransactionType.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", ErrInvalidDefaults, d.TransactionType)
	}
	return nil
}

// ManualEntry is an operator-typed single entry.
type ManualEntry struct {
	Name       string `json:"name"`
	CustomerNo string `json:"customerNo,omitempty"`
}

// Build turns the selected match results into check entries.
// Matched rows take name and search name from the reference record.
func Build(selected []MatchResult, d BatchDefaults) []CheckEntry {
	entries := make([]CheckEntry, 0, len(selected))
	for _, res := range selected {
		if res.Matched != nil {
			entries = append(entries, fromRecord(*res.Matched, d))
			continue
		}
		entries = append(entries, fromRow(res.Row.Name, firstNonEmpty(res.Row.CustomerNo, res.Row.CustomerID), d, OriginImport))
	}
	return entries
}

// BuildManual constructs one entry from operator input, following the
// unmatched-row rules. An empty name is rejected.
func BuildManual(in ManualEntry, d BatchDefaults) (CheckEntry, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return CheckEntry{}, ErrEmptyName
	}
	return fromRow(name, strings.TrimSpace(in.CustomerNo), d, OriginManual), nil
}

func fromRecord(rec ReferenceRecord, d BatchDefaults) CheckEntry {
	e := base(d, OriginImport)
	e.Name = rec.Name
	e.SearchName = rec.SearchName
	e.CustomerNo = firstNonEmpty(rec.CustomerNumber, rec.CustomerID)
	return e
}

func fromRow(name, customerNo string, d BatchDefaults, origin string) CheckEntry {
	e := base(d, origin)
	e.Name = name
	e.SearchName = strings.ToUpper(name)
	e.CustomerNo = firstNonEmpty(customerNo)
	return e
}

// base applies the defaults shared by every entry. ListGroup is carried only
// for blacklist entries.
func base(d BatchDefaults, fallbackOrigin string) CheckEntry {
	e := CheckEntry{
		TxNo:            d.TxNo,
		CreatedDate:     d.Date.Format(DateLayout),
		CreatedUser:     d.User,
		Source:          d.Source,
		TransactionType: d.TransactionType,
		OriginSource:    firstNonEmptyOr(fallbackOrigin, d.OriginSource),
	}
	if d.Source == SourceBlackList {
		e.ListGroup = d.ListGroup
	}
	return e
}

// firstNonEmpty returns the first non-empty value, or NotAvailable.
func firstNonEmpty(values ...string) string {
	return firstNonEmptyOr(NotAvailable, values...)
}

func firstNonEmptyOr(fallback string, values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return fallback
}
