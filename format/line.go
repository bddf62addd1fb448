package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/pyfront/python/parser"
)

// LineEncoder writes one tab-separated line per node:
//
//	depth  kind  role  start  end  detail
//
// Positions are line:column. The format is meant for grep and diff.
type LineEncoder struct {
	w   io.Writer
	ast *parser.Ast
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(ast *parser.Ast) error {
	e.ast = ast
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	if e.ast != nil && e.ast.Root != nil {
		e.writeNode(&sb, e.ast.Root, 0)
	}
	return []byte(sb.String()), nil
}

func (e *LineEncoder) writeNode(sb *strings.Builder, n *parser.Node, depth int) {
	role := n.Role.String()
	if role == "" {
		role = "-"
	}
	fmt.Fprintf(sb, "%d\t%s\t%s\t%s\t%s\t%s\n",
		depth,
		n.Kind.String(),
		role,
		e.position(n.Span.Start),
		e.position(n.Span.End),
		e.detail(n),
	)
	for _, child := range n.Children {
		e.writeNode(sb, child, depth+1)
	}
}

func (e *LineEncoder) position(p parser.Position) string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

func (e *LineEncoder) detail(n *parser.Node) string {
	var parts []string
	if n.Name != nil {
		if n.Name.Real != n.Name.Verbatim {
			parts = append(parts, n.Name.Verbatim+"="+n.Name.Real)
		} else {
			parts = append(parts, n.Name.Real)
		}
	}
	if op := n.Op.String(); op != "" {
		parts = append(parts, op)
	}
	if n.Kind == parser.KindConstant {
		parts = append(parts, parser.FormatValue(n.Value))
	}
	if flags := n.Flags.String(); flags != "" {
		parts = append(parts, "["+flags+"]")
	}
	if n.Error != nil {
		parts = append(parts, "error: "+n.Error.Message)
	}
	return strings.Join(parts, " ")
}
