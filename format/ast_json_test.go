package format

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/pyfront/python/parser"
)

func parse(t *testing.T, src string, opts ...parser.Option) (*parser.Ast, *parser.CollectingSink) {
	t.Helper()
	sink := parser.NewCollectingSink()
	opts = append([]parser.Option{parser.WithFile("test.py"), parser.WithErrorSink(sink)}, opts...)
	ast, err := parser.Parse([]byte(src), opts...)
	require.NoError(t, err)
	return ast, sink
}

func TestASTJSONEncoder_Document(t *testing.T) {
	ast, _ := parse(t, "x = 1  # one\n", parser.WithVerbatim())

	var buf bytes.Buffer
	require.NoError(t, NewASTJSONEncoder(&buf).Encode(ast))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "test.py", doc["file"])
	assert.Equal(t, "3.13", doc["version"])
	assert.Len(t, doc["comments"], 1)

	root := doc["root"].(map[string]any)
	assert.Equal(t, "Module", root["kind"])
	children := root["children"].([]any)
	require.Len(t, children, 1)
	assign := children[0].(map[string]any)
	assert.Equal(t, "Assign", assign["kind"])

	parts := assign["children"].([]any)
	require.Len(t, parts, 2)
	target := parts[0].(map[string]any)
	assert.Equal(t, "target", target["role"])
	assert.Equal(t, "x", target["name"])
	value := parts[1].(map[string]any)
	assert.Equal(t, "value", value["role"])
	assert.Equal(t, "1", value["value"])
	assert.Equal(t, " ", value["leading"])
}

func TestASTJSONEncoder_ErrorsAndDiagnostics(t *testing.T) {
	ast, sink := parse(t, "def f(,): pass\n")

	enc := NewASTJSONEncoder(nil).WithDiagnostics(sink.Diagnostics())
	enc.ast = ast
	doc := enc.document()

	require.Len(t, doc.Diagnostics, 1)
	assert.Equal(t, "error", doc.Diagnostics[0].Severity)
	assert.Equal(t, 1, doc.Diagnostics[0].Span.Start.Line)
	assert.NotZero(t, doc.ErrorCode)

	fn := doc.Root.Children[0]
	assert.Equal(t, "f", fn.Name)
	params := fn.Children[0]
	require.Equal(t, "Parameters", params.Kind)
	require.Len(t, params.Children, 1)
	require.NotNil(t, params.Children[0].Error)
	assert.Equal(t, "expected parameter name", params.Children[0].Error.Message)
	assert.Equal(t, []string{"Name"}, params.Children[0].Error.Expected)
	assert.Equal(t, ",", params.Children[0].Error.Got)
}

func TestASTJSONEncoder_Empty(t *testing.T) {
	text, err := NewASTJSONEncoder(nil).MarshalText()
	require.NoError(t, err)
	assert.Contains(t, string(text), `"root": null`)
}

func TestASTJSONEncoder_Flags(t *testing.T) {
	ast, _ := parse(t, "async def f(*args): pass\n")
	text, err := (&ASTJSONEncoder{ast: ast}).MarshalText()
	require.NoError(t, err)
	assert.Contains(t, string(text), `"async"`)
	assert.Contains(t, string(text), `"star"`)
}
