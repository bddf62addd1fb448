package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/pyfront/python/parser"
)

type ASTJSONEncoder struct {
	w           io.Writer
	ast         *parser.Ast
	diagnostics []parser.Diagnostic
}

func NewASTJSONEncoder(w io.Writer) *ASTJSONEncoder {
	return &ASTJSONEncoder{w: w}
}

// WithDiagnostics includes diags in the encoded document.
func (e *ASTJSONEncoder) WithDiagnostics(diags []parser.Diagnostic) *ASTJSONEncoder {
	e.diagnostics = diags
	return e
}

func (e *ASTJSONEncoder) Encode(ast *parser.Ast) error {
	e.ast = ast
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *ASTJSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(e.document(), "", "  ")
}

type astJSONDocument struct {
	File        string               `json:"file,omitempty"`
	Version     string               `json:"version"`
	ErrorCode   int                  `json:"errorCode,omitempty"`
	Comments    []parser.JSONSpan    `json:"comments,omitempty"`
	Diagnostics []*astJSONDiagnostic `json:"diagnostics,omitempty"`
	Root        *parser.JSONNode     `json:"root"`
}

type astJSONDiagnostic struct {
	Message  string          `json:"message"`
	Severity string          `json:"severity"`
	Code     int             `json:"code"`
	Span     parser.JSONSpan `json:"span"`
}

func (e *ASTJSONEncoder) document() *astJSONDocument {
	doc := &astJSONDocument{}
	if e.ast == nil {
		return doc
	}
	doc.File = e.ast.File
	doc.Version = e.ast.Version.String()
	doc.ErrorCode = e.ast.ErrorCode
	for _, c := range e.ast.Comments {
		doc.Comments = append(doc.Comments, parser.NewJSONSpan(c))
	}
	for _, d := range e.diagnostics {
		doc.Diagnostics = append(doc.Diagnostics, &astJSONDiagnostic{
			Message:  d.Message,
			Severity: d.Severity.String(),
			Code:     d.Code,
			Span:     parser.NewJSONSpan(d.Span),
		})
	}
	if e.ast.Root != nil {
		doc.Root = e.ast.Root.ToJSON(e.ast.Attributes)
	}
	return doc
}
