package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Classification is the operator-chosen metadata applied to a batch.
type Classification struct {
	Source          SourceType      `json:"source"`
	TransactionType TransactionType `json:"transactionType"`
	OriginSource    string          `json:"originSource,omitempty"`
	ListGroup       string          `json:"listGroup,omitempty"`
}

// Defaults expands c into BatchDefaults for one transaction.
func (c Classification) Defaults(txNo, user string, date time.Time) BatchDefaults {
	return BatchDefaults{
		TxNo:            txNo,
		Source:          c.Source,
		TransactionType: c.TransactionType,
		OriginSource:    c.OriginSource,
		ListGroup:       c.ListGroup,
		User:            user,
		Date:            date,
	}
}

func (c Classification) validate() error {
	return c.Defaults("", "", time.Time{}).Validate()
}

// ImportRequest is one uploaded file for a session.
type ImportRequest struct {
	FileName       string
	Body           io.Reader
	Delimiter      string // empty means detect
	Classification Classification
}

// ImportPreview holds parse and match results until the operator accepts rows.
type ImportPreview struct {
	ID             string         `json:"id"`
	FileName       string         `json:"fileName"`
	Format         string         `json:"format"`
	Delimiter      string         `json:"delimiter"`
	Header         []string       `json:"header"`
	Dropped        int            `json:"dropped"`
	Classification Classification `json:"classification"`
	Results        []MatchResult  `json:"results"`
	Summary        MatchSummary   `json:"summary"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// Import reads, parses and scores an uploaded file and stores the result as a
// preview in the session. Nothing enters the ledger until AcceptImport.
func (w *Workbench) Import(ctx context.Context, sessionID string, req ImportRequest) (*ImportPreview, error) {
	if err := req.Classification.validate(); err != nil {
		return nil, err
	}
	if _, err := w.Session(sessionID); err != nil {
		return nil, err
	}

	if err := w.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer w.limiter.Release()

	start := time.Now()
	text, err := ReadImportText(req.Body, TextOptions{
		FileName:       req.FileName,
		MaxBytes:       w.cfg.MaxImportBytes,
		LegacyFallback: w.cfg.LegacyFallback,
	})
	if err != nil {
		return nil, err
	}

	delim := req.Delimiter
	if delim == "" {
		delim = text.Delimiter
	}
	parsed := ParseTable(text.Text, ParseOptions{Delimiter: delim})
	w.obs.RowsParsed(len(parsed.Rows), parsed.Dropped)
	if len(parsed.Rows) == 0 {
		return nil, ErrNothingToImport
	}

	results, err := w.matcher.Match(ctx, parsed.Rows)
	if err != nil {
		return nil, fmt.Errorf("reference store: %w", err)
	}
	summary := Summarize(results)
	w.obs.RowsMatched(summary)

	preview := &ImportPreview{
		ID:             uuid.NewString(),
		FileName:       req.FileName,
		Format:         text.Format,
		Delimiter:      parsed.Delimiter,
		Header:         parsed.Header,
		Dropped:        parsed.Dropped,
		Classification: req.Classification,
		Results:        results,
		Summary:        summary,
		CreatedAt:      w.now(),
	}

	err = w.withSession(sessionID, nil, func(s *session) error {
		s.imports[preview.ID] = preview
		e := newAuditEntry(ctx, preview.CreatedAt, s, ActionImport)
		e.ImportID = preview.ID
		e.RowsAffected = len(results)
		e.Reason = req.FileName
		s.record(e)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("import previewed",
		"session_id", sessionID,
		"import_id", preview.ID,
		"file", req.FileName,
		"rows", summary.Total,
		"exact", summary.Exact,
		"partial", summary.Partial,
		"none", summary.None,
		"dropped", parsed.Dropped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return preview, nil
}

// Preview returns a stored import preview.
func (w *Workbench) Preview(sessionID, importID string) (*ImportPreview, error) {
	var out *ImportPreview
	err := w.withSession(sessionID, nil, func(s *session) error {
		p, ok := s.imports[importID]
		if !ok {
			return ErrImportNotFound
		}
		out = p
		return nil
	})
	return out, err
}

// DiscardImport drops a preview without touching the ledger.
func (w *Workbench) DiscardImport(sessionID, importID string) error {
	return w.withSession(sessionID, nil, func(s *session) error {
		if _, ok := s.imports[importID]; !ok {
			return ErrImportNotFound
		}
		delete(s.imports, importID)
		return nil
	})
}

// LedgerChange reports a mutation and the resulting ledger version.
type LedgerChange struct {
	MergeResult
	Removed int    `json:"removed,omitempty"`
	Version uint64 `json:"version"`
	Entries int    `json:"entries"`
}

// AcceptImport builds entries from the chosen preview rows and merges them
// into the ledger. Nil rows accepts every row. The preview is consumed.
func (w *Workbench) AcceptImport(ctx context.Context, sessionID, importID string, rows []int, ifVersion *uint64) (LedgerChange, error) {
	var change LedgerChange
	err := w.withSession(sessionID, ifVersion, func(s *session) error {
		p, ok := s.imports[importID]
		if !ok {
			return ErrImportNotFound
		}

		selected, err := pickRows(p.Results, rows)
		if err != nil {
			return err
		}

		now := w.now()
		entries := Build(selected, p.Classification.Defaults(s.txNo, s.user, now))
		res := s.ledger.Merge(entries)
		delete(s.imports, importID)

		e := newAuditEntry(ctx, now, s, ActionImportAccept)
		e.ImportID = importID
		e.RowsAffected = res.Added
		s.record(e)

		change = LedgerChange{MergeResult: res, Version: s.ledger.Version(), Entries: s.ledger.Len()}
		return nil
	})
	if err != nil {
		return LedgerChange{}, err
	}
	w.obs.EntriesMerged(change.MergeResult)
	return change, nil
}

func pickRows(results []MatchResult, rows []int) ([]MatchResult, error) {
	if rows == nil {
		return results, nil
	}
	seen := make(map[int]struct{}, len(rows))
	out := make([]MatchResult, 0, len(rows))
	for _, i := range rows {
		if i < 0 || i >= len(results) {
			return nil, fmt.Errorf("%w: row %d of %d", ErrInvalidSelection, i, len(results))
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, results[i])
	}
	return out, nil
}

// AddManual builds one operator-typed entry and merges it. A customer number
// already in the ledger is reported as a duplicate.
func (w *Workbench) AddManual(ctx context.Context, sessionID string, in ManualEntry, class Classification, ifVersion *uint64) (CheckEntry, LedgerChange, error) {
	if err := class.validate(); err != nil {
		return CheckEntry{}, LedgerChange{}, err
	}

	var (
		entry  CheckEntry
		change LedgerChange
	)
	err := w.withSession(sessionID, ifVersion, func(s *session) error {
		now := w.now()
		var err error
		entry, err = BuildManual(in, class.Defaults(s.txNo, s.user, now))
		if err != nil {
			return err
		}
		res := s.ledger.Merge([]CheckEntry{entry})

		e := newAuditEntry(ctx, now, s, ActionManualAdd)
		e.RowsAffected = res.Added
		s.record(e)

		change = LedgerChange{MergeResult: res, Version: s.ledger.Version(), Entries: s.ledger.Len()}
		return nil
	})
	if err != nil {
		return CheckEntry{}, LedgerChange{}, err
	}
	w.obs.EntriesMerged(change.MergeResult)
	return entry, change, nil
}

// RemoveEntries deletes the given keys from the ledger.
func (w *Workbench) RemoveEntries(ctx context.Context, sessionID string, keys []EntryKey, ifVersion *uint64) (LedgerChange, error) {
	var change LedgerChange
	err := w.withSession(sessionID, ifVersion, func(s *session) error {
		n := s.ledger.RemoveMany(keys)
		if n == 0 && len(keys) > 0 {
			return ErrEntryNotFound
		}
		e := newAuditEntry(ctx, w.now(), s, ActionEntryRemove)
		e.RowsAffected = n
		s.record(e)

		change = LedgerChange{Removed: n, Version: s.ledger.Version(), Entries: s.ledger.Len()}
		return nil
	})
	return change, err
}

// SelectionState is the selection after a selection operation.
type SelectionState struct {
	Selected []EntryKey `json:"selected"`
	Count    int        `json:"count"`
	Version  uint64     `json:"version"`
}

func selectionOf(l *Ledger) SelectionState {
	keys := l.Selected()
	return SelectionState{Selected: keys, Count: len(keys), Version: l.Version()}
}

// ToggleSelect flips the selection of one entry.
func (w *Workbench) ToggleSelect(sessionID string, key EntryKey, ifVersion *uint64) (SelectionState, error) {
	var st SelectionState
	err := w.withSession(sessionID, ifVersion, func(s *session) error {
		if !s.ledger.Contains(key) && !s.ledger.IsSelected(key) {
			return ErrEntryNotFound
		}
		s.ledger.ToggleSelect(key)
		st = selectionOf(s.ledger)
		return nil
	})
	return st, err
}

// SelectAll toggles selection over the entries visible under opts.
func (w *Workbench) SelectAll(sessionID string, opts ViewOptions, ifVersion *uint64) (SelectionState, error) {
	var st SelectionState
	err := w.withSession(sessionID, ifVersion, func(s *session) error {
		s.ledger.SelectAll(opts)
		st = selectionOf(s.ledger)
		return nil
	})
	return st, err
}

// ClearSelection deselects every entry.
func (w *Workbench) ClearSelection(sessionID string, ifVersion *uint64) (SelectionState, error) {
	var st SelectionState
	err := w.withSession(sessionID, ifVersion, func(s *session) error {
		s.ledger.ClearSelection()
		st = selectionOf(s.ledger)
		return nil
	})
	return st, err
}

// LedgerView is one filtered, sorted page of the ledger.
type LedgerView struct {
	TxNo     string       `json:"txNo"`
	Entries  []CheckEntry `json:"entries"`
	Selected []EntryKey   `json:"selected"`
	Visible  int          `json:"visible"`
	Total    int          `json:"total"`
	Version  uint64       `json:"version"`
}

// View projects the ledger through opts without changing it.
func (w *Workbench) View(sessionID string, opts ViewOptions) (LedgerView, error) {
	var v LedgerView
	err := w.withSession(sessionID, nil, func(s *session) error {
		entries := s.ledger.View(opts)
		v = LedgerView{
			TxNo:     s.txNo,
			Entries:  entries,
			Selected: s.ledger.Selected(),
			Visible:  len(entries),
			Total:    s.ledger.Len(),
			Version:  s.ledger.Version(),
		}
		return nil
	})
	return v, err
}

// ExportFile is a rendered export ready to download.
type ExportFile struct {
	Name    string
	Format  ExportFormat
	Data    []byte
	Entries int
}

// Export renders the selected entries of the view, or the whole view when
// nothing is selected.
func (w *Workbench) Export(sessionID string, opts ViewOptions, format ExportFormat) (ExportFile, error) {
	var (
		entries []CheckEntry
		txNo    string
	)
	err := w.withSession(sessionID, nil, func(s *session) error {
		entries = s.ledger.ExportSet(opts)
		txNo = s.txNo
		return nil
	})
	if err != nil {
		return ExportFile{}, err
	}

	var buf bytes.Buffer
	switch format {
	case FormatCSV:
		err = WriteCSV(&buf, entries)
	case FormatXLSX:
		err = WriteXLSX(&buf, entries)
	default:
		return ExportFile{}, fmt.Errorf("%w: export as %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return ExportFile{}, fmt.Errorf("export: %w", err)
	}

	return ExportFile{
		Name:    ExportFileName(txNo, w.now(), format),
		Format:  format,
		Data:    buf.Bytes(),
		Entries: len(entries),
	}, nil
}

// SubmitResult reports a finished submit.
type SubmitResult struct {
	TxNo      string `json:"txNo"`
	Submitted int    `json:"submitted"`
	Remaining int    `json:"remaining"`
	NextTxNo  string `json:"nextTxNo"`
	Version   uint64 `json:"version"`
}

// Submit hands the selected entries of the view (or the whole view) to the
// submission sink and removes them from the ledger. If the sink fails the
// ledger is restored. A successful submit starts a new transaction number.
func (w *Workbench) Submit(ctx context.Context, sessionID string, opts ViewOptions, ifVersion *uint64) (SubmitResult, error) {
	var res SubmitResult
	err := w.withSession(sessionID, ifVersion, func(s *session) error {
		before := s.ledger.snapshot()
		consumed, err := s.ledger.Submit(opts)
		if err != nil {
			return err
		}

		sub := Submission{TxNo: s.txNo, SubmittedBy: s.user, Entries: consumed}
		if err := w.sink.Submit(ctx, sub); err != nil {
			s.ledger.restore(before)
			e := newAuditEntry(ctx, w.now(), s, ActionSubmitRollback)
			e.Reason = err.Error()
			s.record(e)
			return fmt.Errorf("submit %s: %w", s.txNo, err)
		}

		e := newAuditEntry(ctx, w.now(), s, ActionSubmit)
		e.RowsAffected = len(consumed)
		s.record(e)

		res = SubmitResult{
			TxNo:      s.txNo,
			Submitted: len(consumed),
			Remaining: s.ledger.Len(),
			Version:   s.ledger.Version(),
		}
		s.txNo = NewTxNo(w.now())
		res.NextTxNo = s.txNo
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	w.obs.EntriesSubmitted(res.Submitted)
	slog.Info("transaction submitted",
		"session_id", sessionID,
		"tx_no", res.TxNo,
		"entries", res.Submitted,
		"remaining", res.Remaining,
	)
	return res, nil
}

// AuditLog returns a copy of the session's activity log, oldest first.
func (w *Workbench) AuditLog(sessionID string) ([]AuditEntry, error) {
	var out []AuditEntry
	err := w.withSession(sessionID, nil, func(s *session) error {
		out = append([]AuditEntry(nil), s.audit...)
		return nil
	})
	return out, err
}
