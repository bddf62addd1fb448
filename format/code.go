package format

import (
	"io"

	"github.com/dhamidi/pyfront/python/parser"
)

// CodeEncoder writes the source text reconstructed from a tree parsed with
// parser.WithVerbatim.
type CodeEncoder struct {
	w   io.Writer
	ast *parser.Ast
}

func NewCodeEncoder(w io.Writer) *CodeEncoder {
	return &CodeEncoder{w: w}
}

func (e *CodeEncoder) Encode(ast *parser.Ast) error {
	e.ast = ast
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *CodeEncoder) MarshalText() ([]byte, error) {
	if e.ast == nil || e.ast.Attributes == nil {
		return nil, ErrNoFidelity
	}
	return []byte(e.ast.ToCode()), nil
}
