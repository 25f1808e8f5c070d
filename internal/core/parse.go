package core

// parse.go turns raw delimited text into ImportedRows.
//
// Uploaded lists come from many places (bank exports, spreadsheets, hand-made
// files), so nothing about the layout is guaranteed:
//   - The first non-blank line is always the header
//   - Column roles are inferred from header text, in English or Russian
//   - The delimiter is detected from the header unless the caller fixes it
//   - Rows without a name are skipped, never fatal
//
// Each line is tokenized as one CSV record with the detected delimiter, so a
// quoted cell may contain the delimiter or doubled quotes (as WriteCSV emits
// them). Stray quotes are tolerated. Cells are then passed through CleanCell.

import (
	"encoding/csv"
	"strings"
	"unicode/utf8"
)

// Role vocabularies matched case-insensitively as substrings of header text.
var (
	nameVocabulary     = []string{"name", "имя"}
	customerVocabulary = []string{"customer", "number", "id", "клиент", "номер"}
)

// candidateDelimiters are tried, in order, when no delimiter is configured.
var candidateDelimiters = []string{",", ";", "\t"}

// DefaultDelimiter is used when detection finds nothing better.
const DefaultDelimiter = ","

// ParseOptions controls the Tabular Parser.
type ParseOptions struct {
	// Delimiter splits fields. Empty means detect from the header line.
	Delimiter string
}

// ColumnRoles holds the header positions of recognized columns.
// A negative value means the role was not found.
type ColumnRoles struct {
	Name       int
	CustomerNo int
}

// ParseResult is the full outcome of parsing one batch.
type ParseResult struct {
	Header    []string
	Delimiter string
	Roles     ColumnRoles
	Rows      []ImportedRow
	Dropped   int // data lines skipped because the name was empty
}

// Parse parses text with delimiter detection and returns the rows only.
// Degenerate input yields an empty slice.
func Parse(text string) []ImportedRow {
	return ParseTable(text, ParseOptions{}).Rows
}

// ParseTable parses text into structured rows with best-effort header and
// column inference.
func ParseTable(text string, opts ParseOptions) ParseResult {
	lines := nonBlankLines(text)
	if len(lines) == 0 {
		return ParseResult{Roles: ColumnRoles{Name: -1, CustomerNo: -1}}
	}

	delim := opts.Delimiter
	if delim == "" {
		delim = DetectDelimiter(lines[0])
	}

	header := splitCells(lines[0], delim)
	roles := InferColumnRoles(header)

	result := ParseResult{
		Header:    header,
		Delimiter: delim,
		Roles:     roles,
		Rows:      make([]ImportedRow, 0, len(lines)-1),
	}

	for _, line := range lines[1:] {
		values := splitCells(line, delim)

		row, ok := buildRow(header, values, roles)
		if !ok {
			result.Dropped++
			continue
		}
		result.Rows = append(result.Rows, row)
	}

	return result
}

// InferColumnRoles finds the name and customer-number columns of a header.
// The first matching column wins each role. Without a name column, column 0
// is the name. A column already holding the name role is not considered for
// the customer number.
func InferColumnRoles(header []string) ColumnRoles {
	roles := ColumnRoles{Name: -1, CustomerNo: -1}

	lower := make([]string, len(header))
	for i, h := range header {
		lower[i] = strings.ToLower(h)
	}

	for i, h := range lower {
		if containsAny(h, nameVocabulary) {
			roles.Name = i
			break
		}
	}
	if roles.Name < 0 && len(header) > 0 {
		roles.Name = 0
	}

	for i, h := range lower {
		if i == roles.Name {
			continue
		}
		if containsAny(h, customerVocabulary) {
			roles.CustomerNo = i
			break
		}
	}

	return roles
}

// DetectDelimiter picks the candidate delimiter occurring most often in the
// header line. Ties resolve to the earlier candidate; no occurrence at all
// resolves to DefaultDelimiter.
func DetectDelimiter(headerLine string) string {
	best, bestCount := DefaultDelimiter, 0
	for _, d := range candidateDelimiters {
		if n := strings.Count(headerLine, d); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// CleanCell trims a cell, unwraps an Excel text formula (="0012") and removes
// one pair of matching surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}

	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}

	return s
}

// buildRow maps split values onto an ImportedRow. Returns false when the
// resolved name is empty.
func buildRow(header, values []string, roles ColumnRoles) (ImportedRow, bool) {
	name := cellAt(values, roles.Name)
	if name == "" {
		return ImportedRow{}, false
	}

	row := ImportedRow{
		Name:       name,
		CustomerNo: cellAt(values, roles.CustomerNo),
	}

	for idx, h := range header {
		if idx == roles.Name || idx == roles.CustomerNo || idx >= len(values) {
			continue
		}
		if row.OtherFields == nil {
			row.OtherFields = make(map[string]string)
		}
		row.OtherFields[h] = values[idx]
	}

	return row, true
}

// nonBlankLines splits text into lines, dropping blank ones and trailing CRs.
func nonBlankLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// splitCells tokenizes one line. A malformed record, or a delimiter that is
// not a single rune, falls back to a plain split.
func splitCells(line, delim string) []string {
	parts, ok := readRecord(line, delim)
	if !ok {
		parts = strings.Split(line, delim)
	}
	for i, p := range parts {
		parts[i] = CleanCell(p)
	}
	return parts
}

func readRecord(line, delim string) ([]string, bool) {
	comma, size := utf8.DecodeRuneInString(delim)
	if size == 0 || size != len(delim) {
		return nil, false
	}
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if err != nil {
		return nil, false
	}
	return record, true
}

func cellAt(values []string, idx int) string {
	if idx < 0 || idx >= len(values) {
		return ""
	}
	return values[idx]
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
