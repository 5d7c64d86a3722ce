package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testResource struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id"`
	Name         string `json:"name"`
}

func decodeAll(t *testing.T, input string) (ReadStats, []Diagnostic, []testResource) {
	t.Helper()
	var got []testResource
	stats, diags, err := decodeNDJSON(strings.NewReader(input),
		func(r *testResource) string { return r.ID },
		func(rec *testResource, _ []byte) error {
			got = append(got, *rec)
			return nil
		})
	require.NoError(t, err)
	return stats, diags, got
}

func TestDecodeNDJSON(t *testing.T) {
	input := `{"resourceType":"Patient","id":"p1","name":"one"}
{"resourceType":"Patient","id":"p2","name":"two"}
`
	stats, diags, got := decodeAll(t, input)

	assert.Empty(t, diags)
	assert.Equal(t, 2, stats.Lines)
	assert.Equal(t, 2, stats.Records)
	assert.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)
}

func TestDecodeNDJSONSkipsBadLines(t *testing.T) {
	input := `{"resourceType":"Patient","id":"p1"}
{not json at all
{"resourceType":"Patient","name":"no id"}

{"resourceType":"Patient","id":"p2"}
`
	stats, diags, got := decodeAll(t, input)

	assert.Equal(t, 4, stats.Lines)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 2, stats.Diagnostics)

	require.Len(t, diags, 2)
	assert.Equal(t, DiagSyntaxError, diags[0].Kind)
	assert.Equal(t, 2, diags[0].Line)
	assert.Equal(t, DiagMissingIdentifier, diags[1].Kind)
	assert.Equal(t, 3, diags[1].Line)

	assert.Len(t, got, 2)
	assert.Equal(t, "p2", got[1].ID)
}

// Every non-blank line is accounted for exactly once.
func TestDecodeNDJSONAccounting(t *testing.T) {
	input := `{"id":"a"}
garbage

{"id":""}
{"id":"b"}
`
	stats, diags, _ := decodeAll(t, input)

	assert.Equal(t, 4, stats.Lines)
	assert.Equal(t, stats.Lines, stats.Records+stats.Diagnostics)
	assert.Equal(t, len(diags), stats.Diagnostics)
}

func TestDecodeNDJSONEmitErrorIsFatal(t *testing.T) {
	input := `{"id":"a"}
{"id":"b"}
`
	boom := errors.New("flush failed")
	calls := 0
	_, _, err := decodeNDJSON(strings.NewReader(input),
		func(r *testResource) string { return r.ID },
		func(rec *testResource, _ []byte) error {
			calls++
			return boom
		})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

// A line over the size cap surfaces as a readError so the pipeline can skip
// the file; records decoded before the failure are kept.
func TestDecodeNDJSONOversizedLine(t *testing.T) {
	input := `{"id":"a"}` + "\n" +
		`{"id":"b","name":"` + strings.Repeat("x", maxLineBytes) + `"}` + "\n"
	var got []testResource
	_, _, err := decodeNDJSON(strings.NewReader(input),
		func(r *testResource) string { return r.ID },
		func(rec *testResource, _ []byte) error {
			got = append(got, *rec)
			return nil
		})
	require.Error(t, err)
	var re *readError
	assert.ErrorAs(t, err, &re)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestDecodeNDJSONRawLineIsVerbatim(t *testing.T) {
	line := `{"resourceType":"Patient","id":"p1","name":"one"}`
	var raw []byte
	_, _, err := decodeNDJSON(strings.NewReader(line+"\n"),
		func(r *testResource) string { return r.ID },
		func(rec *testResource, b []byte) error {
			raw = b
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, line, string(raw))
}
