package lsp

import (
	"sort"
	"unicode/utf8"

	"github.com/dhamidi/pyfront/python/parser"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// lineIndex maps byte offsets of a document to LSP positions. starts
// holds the offset of every line; "\r\n" and a lone "\r" end a line like
// "\n" does.
type lineIndex struct {
	text   []byte
	starts []int
}

// newLineIndex indexes text. starts may come from the lexer that read
// text; it is recomputed when missing.
func newLineIndex(text []byte, starts []int) *lineIndex {
	if len(starts) == 0 || starts[0] != 0 {
		starts = []int{0}
		for i := 0; i < len(text); i++ {
			switch text[i] {
			case '\n':
				starts = append(starts, i+1)
			case '\r':
				if i+1 >= len(text) || text[i+1] != '\n' {
					starts = append(starts, i+1)
				}
			}
		}
	}
	return &lineIndex{text: text, starts: starts}
}

// position converts a byte offset, counting the character in UTF-16 code
// units.
func (li *lineIndex) position(offset int) protocol.Position {
	if offset > len(li.text) {
		offset = len(li.text)
	}
	if offset < 0 {
		offset = 0
	}
	line := sort.SearchInts(li.starts, offset+1) - 1
	var char protocol.UInteger
	for i := li.starts[line]; i < offset; {
		r, size := utf8.DecodeRune(li.text[i:])
		switch {
		case r == '\r':
		case r >= 0x10000:
			char += 2
		default:
			char++
		}
		i += size
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: char}
}

func (li *lineIndex) rangeOf(span parser.Span) protocol.Range {
	return protocol.Range{
		Start: li.position(span.Start.Offset),
		End:   li.position(span.End.Offset),
	}
}
