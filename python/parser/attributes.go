package parser

import (
	"io"
	"sort"
	"strings"
)

// Whitespace slots. PrecedingWhitespace is the text in front of the node
// itself; the later slots count the tokens a node owns directly that do
// not start it.
const (
	PrecedingWhitespace = iota
	SecondWhitespace
	ThirdWhitespace
	FourthWhitespace
	FifthWhitespace
)

type AttrFlags uint8

const (
	// AttrMissingCloser marks a bracketed construct that ended before its
	// closing delimiter.
	AttrMissingCloser AttrFlags = 1 << iota
	// AttrAltForm marks a construct written in an alternate surface
	// syntax, e.g. `<>` for `!=` or a legacy `except E, e:` clause.
	AttrAltForm
	// AttrIncomplete marks a node cut short by the end of input.
	AttrIncomplete
	// AttrErrorRecovered marks a node built on the error-recovery path.
	AttrErrorRecovered
	// AttrVerbatim marks a node reconstructed from its own tokens only.
	AttrVerbatim
)

// Piece is a token owned by a node: the whitespace in front of it and its
// exact image.
type Piece struct {
	Offset     int
	Whitespace string
	Text       string
}

type NodeAttributes struct {
	Pieces   []Piece
	Flags    AttrFlags
	Verbatim *string
}

// Attributes is the fidelity side-table, keyed by node ID.
type Attributes struct {
	nodes map[int]*NodeAttributes
}

func NewAttributes() *Attributes {
	return &Attributes{nodes: make(map[int]*NodeAttributes)}
}

func (a *Attributes) Get(n *Node) *NodeAttributes {
	if a == nil || n == nil {
		return nil
	}
	return a.nodes[n.ID]
}

func (a *Attributes) ensure(n *Node) *NodeAttributes {
	attrs, ok := a.nodes[n.ID]
	if !ok {
		attrs = &NodeAttributes{}
		a.nodes[n.ID] = attrs
	}
	return attrs
}

func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.nodes)
}

func (a *Attributes) SetFlag(n *Node, flag AttrFlags) {
	if a == nil || n == nil {
		return
	}
	a.ensure(n).Flags |= flag
}

func (a *Attributes) HasFlag(n *Node, flag AttrFlags) bool {
	attrs := a.Get(n)
	return attrs != nil && attrs.Flags&flag != 0
}

// SetVerbatim overrides the reconstructed text of n.
func (a *Attributes) SetVerbatim(n *Node, text string) {
	if a == nil || n == nil {
		return
	}
	a.ensure(n).Verbatim = &text
}

func (a *Attributes) addPieces(n *Node, pieces []Piece) {
	if len(pieces) == 0 {
		return
	}
	attrs := a.ensure(n)
	attrs.Pieces = append(attrs.Pieces, pieces...)
}

// Whitespace returns the text in front of the slot-th token owned by n.
// PrecedingWhitespace resolves through leading children. When n begins
// with its own token that token supplies PrecedingWhitespace, and
// SecondWhitespace is the next token n owns.
func (a *Attributes) Whitespace(n *Node, slot int) string {
	if slot == PrecedingWhitespace {
		return a.Leading(n)
	}
	attrs := a.Get(n)
	if attrs == nil {
		return ""
	}
	pieces := attrs.Pieces
	if parts := a.parts(n); len(parts) > 0 && parts[0].piece != nil {
		pieces = pieces[1:]
	}
	if slot < 1 || slot > len(pieces) {
		return ""
	}
	return pieces[slot-1].Whitespace
}

// Leading returns the whitespace and comments that precede n.
func (a *Attributes) Leading(n *Node) string {
	for n != nil {
		parts := a.parts(n)
		if len(parts) == 0 {
			return ""
		}
		if parts[0].piece != nil {
			return parts[0].piece.Whitespace
		}
		n = parts[0].node
	}
	return ""
}

// ListWhitespace returns the whitespace in front of each comma owned by n.
func (a *Attributes) ListWhitespace(n *Node) []string {
	attrs := a.Get(n)
	if attrs == nil {
		return nil
	}
	var result []string
	for _, p := range attrs.Pieces {
		if p.Text == "," {
			result = append(result, p.Whitespace)
		}
	}
	return result
}

type codePart struct {
	offset int
	piece  *Piece
	node   *Node
}

func (a *Attributes) parts(n *Node) []codePart {
	attrs := a.Get(n)
	var parts []codePart
	if attrs != nil {
		for i := range attrs.Pieces {
			parts = append(parts, codePart{offset: attrs.Pieces[i].Offset, piece: &attrs.Pieces[i]})
		}
		if attrs.Flags&AttrVerbatim != 0 {
			return parts
		}
	}
	children := n.Children
	if n.Preceding != nil && !containsNode(children, n.Preceding) {
		children = append([]*Node{n.Preceding}, children...)
	}
	for _, child := range children {
		parts = append(parts, codePart{offset: child.Span.Start.Offset, node: child})
	}
	sort.SliceStable(parts, func(i, j int) bool {
		if parts[i].offset != parts[j].offset {
			return parts[i].offset < parts[j].offset
		}
		return parts[i].piece != nil && parts[j].piece == nil
	})
	return parts
}

func containsNode(nodes []*Node, n *Node) bool {
	for _, c := range nodes {
		if c == n {
			return true
		}
	}
	return false
}

// WriteCode reconstructs the source text of n.
func (a *Attributes) WriteCode(w io.StringWriter, n *Node) {
	if n == nil {
		return
	}
	if attrs := a.Get(n); attrs != nil && attrs.Verbatim != nil {
		w.WriteString(*attrs.Verbatim)
		return
	}
	for _, part := range a.parts(n) {
		if part.piece != nil {
			w.WriteString(part.piece.Whitespace)
			w.WriteString(part.piece.Text)
			continue
		}
		a.WriteCode(w, part.node)
	}
}

func (a *Attributes) Code(n *Node) string {
	var sb strings.Builder
	a.WriteCode(&sb, n)
	return sb.String()
}

// pieceBuffer holds consumed tokens until the node that owns them is
// finished.
type pieceBuffer struct {
	pending []Piece
}

func (b *pieceBuffer) add(tok Token) {
	b.pending = append(b.pending, Piece{
		Offset:     tok.Span.Start.Offset,
		Whitespace: tok.Prefix,
		Text:       tok.Literal,
	})
}

// claim removes and returns the pending pieces starting at or after start.
func (b *pieceBuffer) claim(start int) []Piece {
	i := len(b.pending)
	for i > 0 && b.pending[i-1].Offset >= start {
		i--
	}
	if i == len(b.pending) {
		return nil
	}
	claimed := make([]Piece, len(b.pending)-i)
	copy(claimed, b.pending[i:])
	b.pending = b.pending[:i]
	return claimed
}
