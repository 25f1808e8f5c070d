package core

// ledger.go holds the working set of check entries for one transaction.
//
// Invariants:
//   - Entries keep insertion order; views never reorder the ledger itself
//   - A merge never adds an entry whose customer number is already in the
//     ledger; entries arriving together in one batch are all kept
//   - selected only holds keys of entries still present
//
// A Ledger is not safe for concurrent use. Callers sharing one across
// goroutines must serialize access (see Workbench).

// MergeResult reports the outcome of Ledger.Merge.
type MergeResult struct {
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
}

// Ledger is the in-memory entry set of the active transaction.
type Ledger struct {
	entries  []CheckEntry
	selected map[EntryKey]struct{}
	version  uint64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{selected: make(map[EntryKey]struct{})}
}

// Version increases on every mutation.
func (l *Ledger) Version() uint64 { return l.version }

// Len returns the number of entries.
func (l *Ledger) Len() int { return len(l.entries) }

// Entries returns a copy of the entries in insertion order.
func (l *Ledger) Entries() []CheckEntry {
	return append([]CheckEntry(nil), l.entries...)
}

// Merge appends entries whose customer number is not already present in the
// ledger. Collisions with existing entries are dropped and counted; rows of
// the same batch are not compared with each other, so a names-only list
// (every customer number "N/A") is added in full.
func (l *Ledger) Merge(incoming []CheckEntry) MergeResult {
	seen := make(map[string]struct{}, len(l.entries))
	for _, e := range l.entries {
		seen[e.CustomerNo] = struct{}{}
	}

	var res MergeResult
	for _, e := range incoming {
		if _, dup := seen[e.CustomerNo]; dup {
			res.Duplicates++
			continue
		}
		l.entries = append(l.entries, e)
		res.Added++
	}

	if res.Added > 0 {
		l.version++
	}
	return res
}

// Remove deletes the entry with the given key. Returns false if absent.
func (l *Ledger) Remove(key EntryKey) bool {
	return l.RemoveMany([]EntryKey{key}) > 0
}

// RemoveMany deletes every entry matching one of keys and returns the number
// removed.
func (l *Ledger) RemoveMany(keys []EntryKey) int {
	if len(keys) == 0 {
		return 0
	}
	drop := make(map[EntryKey]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	return l.removeWhere(func(e CheckEntry) bool {
		_, ok := drop[e.Key()]
		return ok
	})
}

// Contains reports whether an entry with key exists.
func (l *Ledger) Contains(key EntryKey) bool {
	for _, e := range l.entries {
		if e.Key() == key {
			return true
		}
	}
	return false
}

// IsSelected reports whether key is selected.
func (l *Ledger) IsSelected(key EntryKey) bool {
	_, ok := l.selected[key]
	return ok
}

// Selected returns the selected keys in ledger order.
func (l *Ledger) Selected() []EntryKey {
	keys := make([]EntryKey, 0, len(l.selected))
	for _, e := range l.entries {
		if _, ok := l.selected[e.Key()]; ok {
			keys = append(keys, e.Key())
		}
	}
	return keys
}

// SelectedCount returns the number of selected keys.
func (l *Ledger) SelectedCount() int { return len(l.selected) }

// ToggleSelect flips the selection of key and returns the new state.
// Keys of absent entries are never selected.
func (l *Ledger) ToggleSelect(key EntryKey) bool {
	if _, ok := l.selected[key]; ok {
		delete(l.selected, key)
		l.version++
		return false
	}
	if !l.Contains(key) {
		return false
	}
	l.selected[key] = struct{}{}
	l.version++
	return true
}

// SelectAll toggles selection over the visible entries of opts. If exactly
// the visible entries are already selected the selection is cleared;
// otherwise it becomes the visible set. Returns the selected count.
func (l *Ledger) SelectAll(opts ViewOptions) int {
	visible := l.View(opts)

	all := len(l.selected) == len(visible)
	for _, e := range visible {
		if _, ok := l.selected[e.Key()]; !ok {
			all = false
			break
		}
	}

	l.selected = make(map[EntryKey]struct{}, len(visible))
	if !all {
		for _, e := range visible {
			l.selected[e.Key()] = struct{}{}
		}
	}
	l.version++
	return len(l.selected)
}

// ClearSelection deselects everything.
func (l *Ledger) ClearSelection() {
	if len(l.selected) == 0 {
		return
	}
	l.selected = make(map[EntryKey]struct{})
	l.version++
}

// View returns the filtered, sorted projection of the entries. The ledger is
// not modified.
func (l *Ledger) View(opts ViewOptions) []CheckEntry {
	return ApplyView(l.entries, opts)
}

// ExportSet returns the selected entries of the view when a selection exists,
// otherwise the whole view.
func (l *Ledger) ExportSet(opts ViewOptions) []CheckEntry {
	view := l.View(opts)
	if len(l.selected) == 0 {
		return view
	}
	out := make([]CheckEntry, 0, len(l.selected))
	for _, e := range view {
		if _, ok := l.selected[e.Key()]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Submit consumes the selected entries of the view, or the whole view when
// nothing is selected, and returns them in view order.
//
// With a selection only the consumed entries leave the ledger. Without one
// the ledger is cleared entirely. An empty consumption returns
// ErrNothingToSubmit and changes nothing.
func (l *Ledger) Submit(opts ViewOptions) ([]CheckEntry, error) {
	consumed := l.ExportSet(opts)
	if len(consumed) == 0 {
		return nil, ErrNothingToSubmit
	}

	if len(l.selected) == 0 {
		l.entries = nil
		l.version++
		return consumed, nil
	}

	done := make(map[EntryKey]struct{}, len(consumed))
	for _, e := range consumed {
		done[e.Key()] = struct{}{}
	}
	l.removeWhere(func(e CheckEntry) bool {
		_, ok := done[e.Key()]
		return ok
	})
	return consumed, nil
}

// removeWhere drops matching entries and prunes the selection accordingly.
func (l *Ledger) removeWhere(match func(CheckEntry) bool) int {
	kept := l.entries[:0]
	removed := 0
	for _, e := range l.entries {
		if match(e) {
			delete(l.selected, e.Key())
			removed++
			continue
		}
		kept = append(kept, e)
	}
	// clear the tail so dropped entries are not retained by the backing array
	for i := len(kept); i < len(l.entries); i++ {
		l.entries[i] = CheckEntry{}
	}
	l.entries = kept

	if removed > 0 {
		l.version++
	}
	return removed
}

// ledgerState is a point-in-time copy used to undo a failed submit.
type ledgerState struct {
	entries  []CheckEntry
	selected map[EntryKey]struct{}
	version  uint64
}

func (l *Ledger) snapshot() ledgerState {
	sel := make(map[EntryKey]struct{}, len(l.selected))
	for k := range l.selected {
		sel[k] = struct{}{}
	}
	return ledgerState{entries: l.Entries(), selected: sel, version: l.version}
}

// restore reinstates s. The version still advances so callers holding the
// intermediate version observe a change.
func (l *Ledger) restore(s ledgerState) {
	l.entries = s.entries
	l.selected = s.selected
	l.version = max(l.version, s.version) + 1
}
