package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(orig) })
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the CLI and returns stdout, stderr and the command error.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestParse_Line(t *testing.T) {
	dir := inTempDir(t)
	file := writeFile(t, dir, "a.py", "x = 1\n")

	out, _, err := run(t, "", "parse", "--format", "line", file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "0\tModule\t"))
	assert.Contains(t, out, "\tAssign\t")
}

func TestParse_JSONFromStdin(t *testing.T) {
	inTempDir(t)

	out, _, err := run(t, "def f(:\n    pass\n", "parse")
	require.NoError(t, err)
	assert.Contains(t, out, `"kind": "Module"`)
	assert.Contains(t, out, `"diagnostics"`)
}

func TestParse_UnknownFormat(t *testing.T) {
	inTempDir(t)

	_, _, err := run(t, "x\n", "parse", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestParse_PythonFlag(t *testing.T) {
	dir := inTempDir(t)
	file := writeFile(t, dir, "legacy.py", "print 'hello'\n")

	_, stderr, err := run(t, "", "parse", "--format", "tree", file)
	require.NoError(t, err)
	assert.Contains(t, stderr, "not supported in Python 3")

	out, stderr, err := run(t, "", "parse", "--format", "tree", "--python", "2.7", file)
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Contains(t, out, "Print")
}

func TestParse_ConfigFile(t *testing.T) {
	dir := inTempDir(t)
	writeFile(t, dir, "pyfront.toml", "version = \"2.7\"\n")
	file := writeFile(t, dir, "src/legacy.py", "exec 'x = 1'\n")

	_, stderr, err := run(t, "", "parse", "--format", "tree", file)
	require.NoError(t, err)
	assert.Empty(t, stderr)

	_, _, err = run(t, "", "parse", "--python", "4.1", file)
	require.Error(t, err)
}

func TestExpr(t *testing.T) {
	inTempDir(t)

	out, _, err := run(t, "", "expr", "a", "+", "b * c")
	require.NoError(t, err)
	assert.Contains(t, out, "Return [1:1-1:10]")
	assert.Contains(t, out, "value: Binary [1:1-1:10] +")
	assert.Contains(t, out, "right: Name [1:9-1:10] c")

	out, _, err = run(t, "", "expr", "--format", "line", "x")
	require.NoError(t, err)
	assert.Contains(t, out, "1\tReturn\t-\t1:1\t1:2")
}

func TestInteractive(t *testing.T) {
	inTempDir(t)

	out, stderr, err := run(t, "x = 1\nif x:\n    pass\n\nx = = 1\n", "interactive", "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "Assign")
	assert.Contains(t, out, "If")
	assert.Contains(t, stderr, "<stdin>:1:5:")
	assert.NotContains(t, stderr, ">>> ")
}

func TestInteractive_ClosesBlockAtEOF(t *testing.T) {
	inTempDir(t)

	out, stderr, err := run(t, "while x:\n    y()\n", "interactive")
	require.NoError(t, err)
	assert.Contains(t, out, "While")
	assert.Contains(t, stderr, ">>> ")
	assert.Contains(t, stderr, "... ")
}

func TestTokens(t *testing.T) {
	dir := inTempDir(t)
	file := writeFile(t, dir, "a.py", "x = 1  # note\n")

	out, _, err := run(t, "", "tokens", "--prefix", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, `"  # note"`)
}

func TestCheck(t *testing.T) {
	dir := inTempDir(t)
	writeFile(t, dir, "pkg/good.py", "x = 1\n")
	bad := writeFile(t, dir, "pkg/bad.py", "x = = 1\n")
	writeFile(t, dir, "pkg/.hidden/skipped.py", "x = = 1\n")

	out, _, err := run(t, "", "check", filepath.Join(dir, "pkg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files have errors")
	assert.Contains(t, out, bad+":1:5:")
	assert.NotContains(t, out, "skipped.py")

	_, _, err = run(t, "", "check", filepath.Join(dir, "pkg", "good.py"))
	require.NoError(t, err)
}

func TestRoundTrip(t *testing.T) {
	dir := inTempDir(t)
	src := "def f(a,  b):  # comment\n\treturn a+b\n\n\n# trailing\n"
	file := writeFile(t, dir, "a.py", src)

	out, _, err := run(t, "", "roundtrip", file)
	require.NoError(t, err)
	assert.Equal(t, file+": ok\n", out)

	out, _, err = run(t, "", "roundtrip", "--print", file)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestFirstDifference(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"abc", "abc", -1},
		{"abc", "abd", 2},
		{"abc", "ab", 2},
		{"", "x", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, firstDifference([]byte(tt.a), []byte(tt.b)), "%q vs %q", tt.a, tt.b)
	}
}
