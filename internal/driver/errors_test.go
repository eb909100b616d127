package driver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/docrow/internal/tabular"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error", nil, ""},
		{"missing file", errors.New("open ./mongo/Rote.User.csv: no such file or directory"), "SRC001"},
		{"no header", fmt.Errorf("open x: %w", tabular.ErrNoHeader), "SRC002"},
		{"bare quote", errors.New(`parse error on line 3, column 5: bare " in non-quoted-field`), "SRC003"},
		{"wide row", errors.New("line 4: row has 3 fields, header has 2"), "SRC003"},
		{"unknown encoding", fmt.Errorf("%w: %q", tabular.ErrUnknownEncoding, "x"), "SRC004"},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), "DB001"},
		{"pg auth", errors.New("FATAL: password authentication failed for user \"app\""), "DB002"},
		{"mssql auth", errors.New("mssql: login error: Login failed for user 'sa'."), "DB002"},
		{"create table", errors.New("create table \"User\": syntax error"), "DB003"},
		{"permission denied", errors.New("open out.csv: permission denied"), "DST001"},
		{"disk full", errors.New("write: no space left on device"), "DST002"},
		{"timeout", context.DeadlineExceeded, "RUN001"},
		{"interrupted", context.Canceled, "RUN002"},
		{"panic", fmt.Errorf("%w: boom", ErrPanic), "RUN003"},
		{"unknown", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err).Code; got != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got, tt.wantCode)
			}
		})
	}
}

func TestMapError_CaseInsensitive(t *testing.T) {
	if got := MapError(errors.New("CONNECTION REFUSED")).Code; got != "DB001" {
		t.Errorf("Code = %q, want DB001", got)
	}
}

func TestFormatError(t *testing.T) {
	got := FormatError(errors.New("no such file"))
	want := "Source export not found (Code: SRC001). Check SOURCE_DIR, SOURCE_PATTERN and SOURCE_PREFIX"
	if got != want {
		t.Errorf("FormatError() = %q, want %q", got, want)
	}
	if FormatError(nil) != "" {
		t.Error("FormatError(nil) should be empty")
	}
}

func TestTableError(t *testing.T) {
	cause := errors.New("bad row")

	te := &TableError{Table: "User", Stage: StageTransform, Row: 7, Err: cause}
	if got := te.Error(); got != "table User: transform row 7: bad row" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(te, cause) {
		t.Error("TableError should unwrap to its cause")
	}

	te = &TableError{Table: "Rote", Stage: StageWrite, Err: cause}
	if got := te.Error(); got != "table Rote: write: bad row" {
		t.Errorf("Error() = %q", got)
	}
}
