package format

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/pyfront/python/parser"
)

func TestDiagnosticPrinter_Print(t *testing.T) {
	src := "def f():\n    return 1 +* 2\n"
	_, sink := parse(t, src)
	diags := sink.Diagnostics()
	require.Len(t, diags, 1)

	var buf bytes.Buffer
	require.NoError(t, NewDiagnosticPrinter(&buf, "test.py", []byte(src)).Print(diags[0]))
	lines := strings.Split(buf.String(), "\n")

	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "test.py:2:15:")
	assert.Contains(t, lines[0], "error")
	assert.Contains(t, lines[0], "unexpected token '*'")
	assert.Equal(t, "        return 1 +* 2", lines[1])
	assert.Equal(t, strings.Repeat(" ", 4+14)+"^", lines[2])
}

func TestDiagnosticPrinter_Tabs(t *testing.T) {
	src := "if x:\n\ty = )\n"
	d := parser.Diagnostic{
		Message:  "unexpected token ')'",
		Span:     parser.Span{Start: parser.Position{Line: 2, Column: 6}, End: parser.Position{Line: 2, Column: 7}},
		Severity: parser.SeverityError,
	}

	var buf bytes.Buffer
	require.NoError(t, NewDiagnosticPrinter(&buf, "tabs.py", []byte(src)).Print(d))
	lines := strings.Split(buf.String(), "\n")

	assert.Contains(t, lines[0], "tabs.py:2:6:")
	assert.Equal(t, "    \t    ^", lines[2])
}

func TestDiagnosticPrinter_PrintAll(t *testing.T) {
	src := "x = (1,\ny = 2 2\n"
	diags := []parser.Diagnostic{
		{Message: "first", Span: parser.Span{Start: parser.Position{Line: 1, Column: 5}}, Severity: parser.SeverityError},
		{Message: "second", Span: parser.Span{Start: parser.Position{Line: 2, Column: 7}}, Severity: parser.SeverityWarning},
		{Message: "third", Span: parser.Span{Start: parser.Position{Line: 9, Column: 1}}, Severity: parser.SeverityError},
	}

	var buf bytes.Buffer
	errors, err := NewDiagnosticPrinter(&buf, "multi.py", []byte(src)).PrintAll(diags)
	require.NoError(t, err)
	assert.Equal(t, 2, errors)

	out := buf.String()
	assert.Contains(t, out, "multi.py:1:5:")
	assert.Contains(t, out, "warning")
	assert.Contains(t, out, "multi.py:9:1:")
	assert.True(t, strings.HasSuffix(out, "2 errors, 1 warning\n"))
}

func TestDiagnosticPrinter_NothingToReport(t *testing.T) {
	var buf bytes.Buffer
	errors, err := NewDiagnosticPrinter(&buf, "ok.py", nil).PrintAll(nil)
	require.NoError(t, err)
	assert.Zero(t, errors)
	assert.Empty(t, buf.String())
}
