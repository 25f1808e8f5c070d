package core

// error_messages.go maps technical errors to operator-facing messages with a
// short code support staff can look up.
//
// Codes by category:
//
//	IMP001  nothing to import         the file had no data rows
//	IMP002  import not found          preview expired or was already accepted
//	IMP003  too many imports          all import slots busy
//	VAL001  required field is empty   manual entry without a name
//	VAL002  invalid batch defaults    unknown source or transaction type
//	VAL003  invalid row selection     accepted row index outside the preview
//	VAL004  invalid application status unknown status filter
//	VAL005  invalid request           malformed request body or parameter
//	LED001  nothing to submit         the current view is empty
//	LED002  ledger version conflict   someone else changed the ledger
//	LED003  entry not found           the entry was removed meanwhile
//	SES001  session not found         session expired or never existed
//	APP001  application not found     unknown submitted application
//	APP002  not pending               application already decided
//	FILE001 file too large            upload exceeds the size limit
//	FILE002 unsupported file format   .xls or a corrupt workbook
//	FILE003 encoding error            undecodable text
//	FILE004 no file provided          multipart form without a file
//	REF001  reference store           reference data unavailable
//	AUTH001 unauthorized              missing or wrong API key
//	AUTH002 forbidden                 role may not perform the action
//	RATE001 rate limit                too many requests
//	REQ001  context canceled          client went away
//	REQ002  context deadline exceeded request timed out
//	ERR000  fallback
//
// Patterns match case-insensitively by substring; the first match wins, so
// specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage is what an operator sees for an error.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Import
	{"nothing to import", UserMessage{"The file contains no rows to import", "Check that the file has a header and at least one row with a name", "IMP001"}},
	{"import not found", UserMessage{"Import preview not found", "The preview may have expired. Upload the file again", "IMP002"}},
	{"too many imports", UserMessage{"The system is busy processing other imports", "Please wait a moment and try again", "IMP003"}},

	// Validation
	{"required field", UserMessage{"Required field is empty", "Enter a customer name", "VAL001"}},
	{"invalid batch defaults", UserMessage{"Unknown source or transaction type", "Choose a source and a transaction type from the list", "VAL002"}},
	{"invalid row selection", UserMessage{"Selected rows are not part of the import", "Reload the preview and select rows again", "VAL003"}},
	{"invalid application status", UserMessage{"Unknown application status", "Filter by pending, approved or rejected", "VAL004"}},
	{"invalid request", UserMessage{"The request could not be read", "Check the request body and parameters", "VAL005"}},

	// Ledger
	{"nothing to submit", UserMessage{"There are no entries to submit", "Import or add entries first, or clear the filters", "LED001"}},
	{"version conflict", UserMessage{"The entry list was changed by another action", "Reload the list and try again", "LED002"}},
	{"entry not found", UserMessage{"Entry not found", "Reload the list; it may already be removed", "LED003"}},

	// Sessions and applications
	{"session not found", UserMessage{"Workbench session not found", "The session may have expired. Start a new one", "SES001"}},
	{"application not found", UserMessage{"Application not found", "Check the application id", "APP001"}},
	{"not pending", UserMessage{"The application has already been decided", "Refresh the applications list", "APP002"}},

	// Files
	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller parts", "FILE001"}},
	{"unsupported file format", UserMessage{"File format is not supported", "Upload a .csv, .txt or .xlsx file", "FILE002"}},
	{"encoding error", UserMessage{"File contains characters that could not be read", "Save the file as UTF-8", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a file to upload", "FILE004"}},

	// Reference data
	{"reference store", UserMessage{"Reference data is unavailable", "Please try again in a few moments", "REF001"}},
	{"connection refused", UserMessage{"Reference data is unavailable", "Please try again in a few moments", "REF001"}},

	// Access
	{"unauthorized", UserMessage{"Authentication required", "Provide a valid API key", "AUTH001"}},
	{"forbidden", UserMessage{"You are not allowed to perform this action", "Ask an approver to do it", "AUTH002"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},

	// Request lifecycle
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "REQ001"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or try again later", "REQ002"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts err to a UserMessage. Nil maps to the zero value.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
