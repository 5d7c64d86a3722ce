package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// DiagnosticKind classifies why a line or resource was skipped.
type DiagnosticKind string

const (
	DiagSyntaxError        DiagnosticKind = "syntax_error"
	DiagMissingIdentifier  DiagnosticKind = "missing_identifier"
	DiagMissingReference   DiagnosticKind = "missing_reference"
	DiagMalformedReference DiagnosticKind = "malformed_reference"
)

// Diagnostic records one skipped line with enough context to find it again.
type Diagnostic struct {
	Line   int            `json:"line"`
	Kind   DiagnosticKind `json:"kind"`
	Detail string         `json:"detail"`
}

// ReadStats accounts for every non-blank line of one stream:
// Records + Diagnostics == Lines always holds.
type ReadStats struct {
	Lines       int
	Records     int
	Diagnostics int
}

// maxLineBytes bounds a single NDJSON line. DocumentReference lines carry
// base64 note attachments and routinely exceed the bufio default.
const maxLineBytes = 16 << 20

// readError marks a stream-level failure (I/O error, line over the size
// cap), as opposed to an error returned by the caller's emit callback. The
// pipeline skips the file on a readError but treats emit errors as fatal.
type readError struct {
	line int
	err  error
}

func (e *readError) Error() string {
	return fmt.Sprintf("failed to read stream at line %d: %v", e.line, e.err)
}

func (e *readError) Unwrap() error { return e.err }

// decodeNDJSON streams r one line at a time, decoding each non-blank line
// into T. A line that fails to parse, or whose resource has no id, yields a
// Diagnostic and is skipped; the stream continues. The emit callback receives
// the decoded record together with the verbatim line. An error returned by
// emit is fatal and aborts the stream; a read failure from r aborts the
// stream with a *readError.
func decodeNDJSON[T any](r io.Reader, id func(*T) string, emit func(rec *T, raw []byte) error) (ReadStats, []Diagnostic, error) {
	var (
		stats ReadStats
		diags []Diagnostic
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), maxLineBytes)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.Lines++

		rec := new(T)
		if err := json.Unmarshal(line, rec); err != nil {
			stats.Diagnostics++
			diags = append(diags, Diagnostic{
				Line:   lineNum,
				Kind:   DiagSyntaxError,
				Detail: err.Error(),
			})
			continue
		}
		if id(rec) == "" {
			stats.Diagnostics++
			diags = append(diags, Diagnostic{
				Line:   lineNum,
				Kind:   DiagMissingIdentifier,
				Detail: "resource has no id",
			})
			continue
		}

		raw := make([]byte, len(line))
		copy(raw, line)
		if err := emit(rec, raw); err != nil {
			return stats, diags, err
		}
		stats.Records++
	}
	if err := scanner.Err(); err != nil {
		return stats, diags, &readError{line: lineNum, err: err}
	}

	return stats, diags, nil
}
