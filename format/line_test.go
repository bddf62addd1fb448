package format

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/pyfront/python/parser"
)

func TestLineEncoder(t *testing.T) {
	ast, _ := parse(t, "class _C:\n    __x = a + 1\n")

	var buf bytes.Buffer
	require.NoError(t, NewLineEncoder(&buf).Encode(ast))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")

	assert.Equal(t, "0\tModule\t-\t1:1\t3:1\t", lines[0])
	assert.Equal(t, "1\tClassDef\t-\t1:1\t2:16\t_C", lines[1])
	assert.Contains(t, buf.String(), "\tName\ttarget\t2:5\t2:8\t__x=_C__x\n")
	assert.Contains(t, buf.String(), "\tBinary\tvalue\t2:11\t2:16\t+\n")
	assert.Contains(t, buf.String(), "\tConstant\tright\t2:15\t2:16\t1\n")
}

func TestLineEncoder_Errors(t *testing.T) {
	ast, _ := parse(t, "x = = 1\n")

	text, err := (&LineEncoder{ast: ast}).MarshalText()
	require.NoError(t, err)
	assert.Contains(t, string(text), "error: ")
}

func TestCodeEncoder(t *testing.T) {
	src := "if x:  # c\n\ty = [1,\n\t     2]\n"
	ast, _ := parse(t, src, parser.WithVerbatim())

	var buf bytes.Buffer
	require.NoError(t, NewCodeEncoder(&buf).Encode(ast))
	assert.Equal(t, src, buf.String())

	plain, _ := parse(t, src)
	_, err := (&CodeEncoder{ast: plain}).MarshalText()
	assert.ErrorIs(t, err, ErrNoFidelity)
}
