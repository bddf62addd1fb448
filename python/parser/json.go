package parser

import (
	"encoding/json"
	"strings"
)

// JSONNode is the JSON form of a node. It is shared by Node.MarshalJSON and
// the encoders in the format package.
type JSONNode struct {
	Kind     string      `json:"kind"`
	Role     string      `json:"role,omitempty"`
	Span     *JSONSpan   `json:"span,omitempty"`
	Name     string      `json:"name,omitempty"`
	Op       string      `json:"op,omitempty"`
	Value    string      `json:"value,omitempty"`
	Flags    []string    `json:"flags,omitempty"`
	Leading  string      `json:"leading,omitempty"`
	Error    *JSONError  `json:"error,omitempty"`
	Children []*JSONNode `json:"children,omitempty"`
}

type JSONSpan struct {
	Start JSONPosition `json:"start"`
	End   JSONPosition `json:"end"`
}

type JSONPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type JSONError struct {
	Message  string   `json:"message"`
	Expected []string `json:"expected,omitempty"`
	Got      string   `json:"got,omitempty"`
}

func NewJSONSpan(s Span) JSONSpan {
	return JSONSpan{
		Start: JSONPosition{Line: s.Start.Line, Column: s.Start.Column},
		End:   JSONPosition{Line: s.End.Line, Column: s.End.Column},
	}
}

var flagNames = []struct {
	flag NodeFlags
	name string
}{
	{FlagAsync, "async"},
	{FlagGenerator, "generator"},
	{FlagCoroutine, "coroutine"},
	{FlagStar, "star"},
	{FlagDoubleStar, "double_star"},
	{FlagKeywordOnly, "keyword_only"},
	{FlagPositionalOnly, "positional_only"},
	{FlagMarker, "marker"},
	{FlagSelfDocumenting, "self_documenting"},
	{FlagTrailingComma, "trailing_comma"},
	{FlagRedirect, "redirect"},
	{FlagFuture, "future"},
	{FlagImplicitConcat, "implicit_concat"},
	{FlagBytes, "bytes"},
	{FlagEllipsis, "ellipsis"},
}

// Names returns the names of the flags set in f.
func (f NodeFlags) Names() []string {
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return names
}

func (f NodeFlags) String() string {
	return strings.Join(f.Names(), "|")
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.ToJSON(nil))
}

// ToJSON converts the tree rooted at n. With attrs set each node also
// carries its leading whitespace.
func (n *Node) ToJSON(attrs *Attributes) *JSONNode {
	jn := &JSONNode{
		Kind:  n.Kind.String(),
		Role:  n.Role.String(),
		Op:    n.Op.String(),
		Flags: n.Flags.Names(),
	}

	if n.Span.Start.Line != 0 || n.Span.End.Line != 0 {
		span := NewJSONSpan(n.Span)
		jn.Span = &span
	}

	if n.Name != nil {
		jn.Name = n.Name.Real
	}
	switch n.Kind {
	case KindConstant:
		jn.Value = FormatValue(n.Value)
	case KindFormattedValue:
		if r, ok := n.Value.(rune); ok {
			jn.Value = "!" + string(r)
		}
	case KindErrorStmt, KindSuite:
		if s, ok := n.Value.(string); ok {
			jn.Value = s
		}
	}
	if attrs != nil {
		jn.Leading = attrs.Leading(n)
	}

	if n.Error != nil {
		jn.Error = &JSONError{
			Message: n.Error.Message,
		}
		for _, exp := range n.Error.Expected {
			jn.Error.Expected = append(jn.Error.Expected, exp.String())
		}
		if n.Error.Got != nil {
			jn.Error.Got = n.Error.Got.Literal
		}
	}

	if len(n.Children) > 0 {
		jn.Children = make([]*JSONNode, len(n.Children))
		for i, child := range n.Children {
			jn.Children[i] = child.ToJSON(attrs)
		}
	}

	return jn
}
