package core

import "errors"

var (
	// ErrNothingToImport means the uploaded content produced no data rows.
	ErrNothingToImport = errors.New("nothing to import")

	// ErrEmptyName rejects a manual entry without a customer name.
	ErrEmptyName = errors.New("required field is empty: name")

	// ErrNothingToSubmit means the ledger view was empty at submit time.
	ErrNothingToSubmit = errors.New("nothing to submit")

	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")

	// ErrImportNotFound is returned for unknown import previews.
	ErrImportNotFound = errors.New("import not found")

	// ErrEntryNotFound is returned when a removal or toggle names an entry
	// that is no longer in the ledger.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrVersionConflict is returned when a caller's expected ledger version
	// no longer matches.
	ErrVersionConflict = errors.New("ledger version conflict")

	// ErrUnsupportedFormat is returned for files that are neither delimited
	// text nor xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge is returned when an upload exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidSelection is returned when accepted row indexes fall outside
	// the preview.
	ErrInvalidSelection = errors.New("invalid row selection")

	// ErrInvalidDefaults is returned when batch defaults carry an unknown
	// source or transaction type.
	ErrInvalidDefaults = errors.New("invalid batch defaults")

	// ErrInvalidRequest marks malformed input at the transport boundary.
	ErrInvalidRequest = errors.New("invalid request")
)
