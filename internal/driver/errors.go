package driver

// # Failure Codes Reference
//
// A failed table is logged with a short code and a hint so an operator can
// tell a missing export from a bad DSN without reading the wrapped error.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Source missing: the export file or collection was not found
//	         Patterns: "no such file", "cannot find the file", "no such collection"
//	SRC002 - Empty source: the export has no header row
//	         Patterns: "no header row"
//	SRC003 - Malformed CSV: the export is not valid CSV
//	         Patterns: "parse error", "bare \"", "extraneous or missing \"", "header has"
//	SRC004 - Unknown encoding: SOURCE_ENCODING is not a recognised charset
//	         Patterns: "unknown encoding"
//
// # Destination Errors (DST001-DST099)
//
//	DST001 - Permission denied writing the destination
//	         Patterns: "permission denied", "access is denied"
//	DST002 - Disk full
//	         Patterns: "no space left"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Connection refused
//	DB002 - Authentication failed
//	DB003 - Destination table or column could not be created
//	DB004 - Deadlock
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Table timed out (RUN_TABLE_TIMEOUT)
//	RUN002 - Run interrupted
//	RUN003 - A row panicked during conversion
//
// # Default (ERR000)
//
// Fallback when no pattern matches; the logged error carries the detail.
//
// Patterns are matched case-insensitively with strings.Contains, first match
// wins.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPanic marks a row whose conversion panicked.
var ErrPanic = errors.New("panic during conversion")

// Stage names the phase of a table conversion that failed.
type Stage string

const (
	StageRead      Stage = "read"
	StageTransform Stage = "transform"
	StageWrite     Stage = "write"
)

// TableError records which table failed and where.
type TableError struct {
	Table string
	Stage Stage
	Row   int // 1-based data row for transform failures, 0 otherwise
	Err   error
}

func (e *TableError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("table %s: %s row %d: %v", e.Table, e.Stage, e.Row, e.Err)
	}
	return fmt.Sprintf("table %s: %s: %v", e.Table, e.Stage, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

// FailureMessage describes a failure for operators.
type FailureMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Code for reference in logs and runbooks
}

type failurePattern struct {
	pattern string
	msg     FailureMessage
}

// failurePatterns maps technical error text (lowercased) to messages.
// Specific patterns come before general ones.
var failurePatterns = []failurePattern{
	// Run control
	{"panic during conversion", FailureMessage{"A row could not be converted", "Check the logged row number in the source export", "RUN003"}},
	{"context deadline exceeded", FailureMessage{"Table conversion timed out", "Raise RUN_TABLE_TIMEOUT or convert the table on its own", "RUN001"}},
	{"context canceled", FailureMessage{"Run was interrupted", "Re-run the affected tables", "RUN002"}},

	// Source
	{"no such file", FailureMessage{"Source export not found", "Check SOURCE_DIR, SOURCE_PATTERN and SOURCE_PREFIX", "SRC001"}},
	{"cannot find the file", FailureMessage{"Source export not found", "Check SOURCE_DIR, SOURCE_PATTERN and SOURCE_PREFIX", "SRC001"}},
	{"no such collection", FailureMessage{"Source collection not found", "Check MONGO_DATABASE and the table name", "SRC001"}},
	{"no header row", FailureMessage{"Source export is empty", "Re-export the collection with a header row", "SRC002"}},
	{"unknown encoding", FailureMessage{"Source encoding is not recognised", "Set SOURCE_ENCODING to a charset label such as utf-8 or gbk", "SRC004"}},
	{"parse error", FailureMessage{"Source export is not valid CSV", "Enable SOURCE_LAZY_QUOTES or re-export the collection", "SRC003"}},
	{"bare \"", FailureMessage{"Source export is not valid CSV", "Enable SOURCE_LAZY_QUOTES or re-export the collection", "SRC003"}},
	{"extraneous or missing \"", FailureMessage{"Source export is not valid CSV", "Enable SOURCE_LAZY_QUOTES or re-export the collection", "SRC003"}},
	{"header has", FailureMessage{"Source row is wider than its header", "Re-export the collection", "SRC003"}},

	// Database
	{"connection refused", FailureMessage{"Unable to connect to the destination database", "Check DATABASE_URL and that the server is running", "DB001"}},
	{"password authentication failed", FailureMessage{"Destination database rejected the credentials", "Check the user and password in DATABASE_URL", "DB002"}},
	{"login failed", FailureMessage{"Destination database rejected the credentials", "Check the user and password in DATABASE_URL", "DB002"}},
	{"create table", FailureMessage{"Destination table could not be prepared", "Check that the database user may create and alter tables", "DB003"}},
	{"add column", FailureMessage{"Destination table could not be prepared", "Check that the database user may create and alter tables", "DB003"}},
	{"deadlock", FailureMessage{"Destination database was busy with conflicting operations", "Re-run the table", "DB004"}},

	// Destination files
	{"permission denied", FailureMessage{"Destination is not writable", "Check permissions on DEST_DIR", "DST001"}},
	{"access is denied", FailureMessage{"Destination is not writable", "Check permissions on DEST_DIR", "DST001"}},
	{"no space left", FailureMessage{"Destination disk is full", "Free space in DEST_DIR", "DST002"}},
}

var defaultFailure = FailureMessage{
	Message: "An unexpected error occurred",
	Action:  "See the logged error for details",
	Code:    "ERR000",
}

// MapError converts a technical error to a coded failure message.
// A nil error maps to the zero message.
func MapError(err error) FailureMessage {
	if err == nil {
		return FailureMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, fp := range failurePatterns {
		if strings.Contains(errStr, fp.pattern) {
			return fp.msg
		}
	}
	return defaultFailure
}

// FormatError renders a failure as "Message (Code: XXX). Action".
func FormatError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
