// Package core provides the business logic for candidate reconciliation.
//
// It turns an uploaded list of names and customer numbers into a ledger of
// check entries for one screening transaction. The package has no transport
// dependencies; the web server, the screenctl CLI and tests all drive it
// directly.
//
// # Pipeline
//
//  1. [ReadImportText] bounds, converts (xlsx) and decodes the upload
//  2. [ParseTable] infers the header layout and yields [ImportedRow] values
//  3. [Matcher] scores each row against a [ReferenceStore]: exact key, then
//     exact name, then the best partial name at or above
//     [PartialMatchThreshold]
//  4. [Build] turns the operator's chosen rows into [CheckEntry] values
//  5. [Ledger.Merge] adds them, dropping customer numbers already present
//
// The ledger is viewed through [ViewOptions] (filter then stable sort),
// exported with [WriteCSV] or [WriteXLSX], and submitted to a
// [SubmissionSink].
//
// # Workbench
//
// [Workbench] holds one session per operator. A session owns a ledger, its
// pending [ImportPreview] values and an activity log. Mutations run under the
// session lock and may carry the ledger version the caller last saw; a stale
// version fails with [ErrVersionConflict]. Idle sessions are closed by
// [Workbench.StartSweeper].
//
// # Error Handling
//
// Sentinel errors live in errors.go. [MapError] turns any error into a
// [UserMessage] with a support code:
//
//   - IMP: import problems (empty file, expired preview, busy)
//   - VAL: invalid operator input
//   - LED: ledger state (empty submit, version conflict)
//   - FILE: size, format and encoding
//   - SES, APP, REF, AUTH, RATE, REQ: sessions, applications, reference
//     data, access and request lifecycle
package core
