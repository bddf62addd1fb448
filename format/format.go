package format

import (
	"encoding"
	"errors"

	"github.com/dhamidi/pyfront/python/parser"
)

// ErrNoFidelity is returned by encoders that need the fidelity side table
// when the tree was parsed without parser.WithVerbatim.
var ErrNoFidelity = errors.New("tree was parsed without fidelity tracking")

type Encoder interface {
	encoding.TextMarshaler
	Encode(ast *parser.Ast) error
}
