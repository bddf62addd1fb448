package parser

import "strings"

// fstringParser splits the body of one f-string token into literal parts
// and replacement fields. Field expressions are handed to a fresh Parser.
type fstringParser struct {
	p     *Parser
	text  string
	pos   int
	flags StringFlags
	start Position

	// cursor caches the last computed position so positionAt is linear
	// over a forward scan.
	cursorIndex int
	cursorPos   Position
}

func (p *Parser) parseFString(tok Token) []*Node {
	f := &fstringParser{
		p:     p,
		text:  tok.Body,
		flags: tok.StringFlags,
		start: tok.BodyStart,
	}
	f.cursorPos = f.start
	return f.parse(false)
}

func (f *fstringParser) positionAt(i int) Position {
	if i < f.cursorIndex {
		f.cursorIndex, f.cursorPos = 0, f.start
	}
	pos := f.cursorPos
	for j := f.cursorIndex; j < i && j < len(f.text); j++ {
		ch := f.text[j]
		pos.Offset++
		if ch == '\n' || (ch == '\r' && (j+1 >= len(f.text) || f.text[j+1] != '\n')) {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}
	f.cursorIndex, f.cursorPos = i, pos
	return pos
}

func (f *fstringParser) span(from, to int) Span {
	return Span{Start: f.positionAt(from), End: f.positionAt(to)}
}

func (f *fstringParser) report(msg string, from, to int) {
	f.p.report(msg, f.span(from, to), ErrSyntax, SeverityError)
}

// parse reads literal runs and replacement fields until the end of the
// text. inSpec is set while parsing a format specifier.
func (f *fstringParser) parse(inSpec bool) []*Node {
	var parts []*Node
	for f.pos < len(f.text) {
		if lit := f.readLiteral(inSpec); lit != nil {
			parts = append(parts, lit)
		}
		if f.pos >= len(f.text) {
			break
		}
		parts = append(parts, f.parseField()...)
	}
	return parts
}

// readLiteral consumes text up to the next replacement field. Doubled
// braces stand for themselves.
func (f *fstringParser) readLiteral(inSpec bool) *Node {
	from := f.pos
	var raw strings.Builder
	for f.pos < len(f.text) {
		ch := f.text[f.pos]
		switch {
		case ch == '{' && f.pos+1 < len(f.text) && f.text[f.pos+1] == '{' && !inSpec:
			raw.WriteByte('{')
			f.pos += 2
			continue
		case ch == '{':
			return f.literalNode(from, raw.String())
		case ch == '}' && f.pos+1 < len(f.text) && f.text[f.pos+1] == '}' && !inSpec:
			raw.WriteByte('}')
			f.pos += 2
			continue
		case ch == '}':
			f.report("f-string: single '}' is not allowed", f.pos, f.pos+1)
			raw.WriteByte('}')
			f.pos++
			continue
		case ch == '\\' && !f.flags.Has(StringRaw) && f.pos+2 < len(f.text) && f.text[f.pos+1] == 'N' && f.text[f.pos+2] == '{':
			end := strings.IndexByte(f.text[f.pos:], '}')
			if end < 0 {
				end = len(f.text) - f.pos - 1
			}
			raw.WriteString(f.text[f.pos : f.pos+end+1])
			f.pos += end + 1
			continue
		case ch == '\\' && !f.flags.Has(StringRaw) && f.pos+1 < len(f.text):
			raw.WriteString(f.text[f.pos : f.pos+2])
			f.pos += 2
			continue
		}
		raw.WriteByte(ch)
		f.pos++
	}
	return f.literalNode(from, raw.String())
}

func (f *fstringParser) literalNode(from int, raw string) *Node {
	if f.pos == from {
		return nil
	}
	n := f.p.newNode(KindConstant, f.positionAt(from))
	n.Span.End = f.positionAt(f.pos)
	n.Value = DecodeString(raw, f.flags&^StringFormatted, f.p.opts.Version)
	return n
}

func (f *fstringParser) errorNode(msg string, from, to int) *Node {
	n := f.p.newNode(KindError, f.positionAt(from))
	n.Span.End = f.positionAt(to)
	n.Error = &Error{Message: msg}
	f.p.setFlag(n, AttrErrorRecovered)
	return n
}

// scanExpression finds the end of a field expression: the first top-level
// '}', '!', ':' or self-documenting '='. Brackets and string literals nest.
func (f *fstringParser) scanExpression() (end int, selfDoc bool) {
	var stack []byte
	var quote byte
	triple := false
	i := f.pos
	for i < len(f.text) {
		ch := f.text[i]
		if quote != 0 {
			switch {
			case ch == '\\':
				i += 2
				continue
			case triple && strings.HasPrefix(f.text[i:], strings.Repeat(string(quote), 3)):
				quote = 0
				i += 3
				continue
			case !triple && ch == quote:
				quote = 0
			}
			i++
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
			triple = strings.HasPrefix(f.text[i:], strings.Repeat(string(ch), 3))
			if triple {
				i += 3
				continue
			}
		case '(', '[', '{':
			stack = append(stack, ch)
		case ')', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case '}':
			if len(stack) == 0 {
				return i, false
			}
			stack = stack[:len(stack)-1]
		case '!':
			if len(stack) == 0 && (i+1 >= len(f.text) || f.text[i+1] != '=') {
				return i, false
			}
			if i+1 < len(f.text) && f.text[i+1] == '=' {
				i++
			}
		case ':':
			if len(stack) == 0 {
				return i, false
			}
		case '=', '<', '>':
			if i+1 < len(f.text) && f.text[i+1] == '=' {
				i += 2
				continue
			}
			if ch == '=' && len(stack) == 0 && selfDocumentingEnd(f.text[i+1:]) {
				return i, true
			}
		}
		i++
	}
	return len(f.text), false
}

func selfDocumentingEnd(rest string) bool {
	rest = strings.TrimLeft(rest, " \t\r\n\f")
	return rest == "" || rest[0] == '}' || rest[0] == '!' || rest[0] == ':'
}

// parseField parses a replacement field starting at '{'. A self-documenting
// field yields its expression text as a zero-width literal part ahead of
// the formatted value.
func (f *fstringParser) parseField() []*Node {
	open := f.pos
	f.pos++
	exprStart := f.pos
	exprEnd, selfDoc := f.scanExpression()
	if exprEnd >= len(f.text) {
		f.report("f-string: expecting '}'", open, open+1)
		f.pos = len(f.text)
		return []*Node{f.errorNode("f-string: expecting '}'", open, f.pos)}
	}
	exprText := f.text[exprStart:exprEnd]
	if strings.TrimSpace(exprText) == "" {
		f.report("f-string: empty expression not allowed", open, exprEnd+1)
		f.pos = exprEnd
		f.skipField()
		return []*Node{f.errorNode("f-string: empty expression not allowed", open, f.pos)}
	}

	n := f.p.newNode(KindFormattedValue, f.positionAt(open))
	n.AddRole(RoleValue, f.parseExpression(exprText, f.positionAt(exprStart)))
	f.pos = exprEnd

	var parts []*Node
	if selfDoc {
		f.p.requireVersion(Version38, f.span(open, f.pos+1), "'=' specifier in f-strings")
		f.pos++
		for f.pos < len(f.text) && strings.IndexByte(" \t\r\n\f", f.text[f.pos]) >= 0 {
			f.pos++
		}
		// The text is also covered by the field, so the constant is an
		// empty span at '{' to keep sibling spans ordered.
		debug := f.p.newNode(KindConstant, f.positionAt(open))
		debug.Value = f.text[exprStart:f.pos]
		parts = append(parts, debug)
		n.Flags |= FlagSelfDocumenting
	}

	if f.pos < len(f.text) && f.text[f.pos] == '!' {
		f.pos++
		if f.pos < len(f.text) && strings.IndexByte("sra", f.text[f.pos]) >= 0 {
			n.Value = rune(f.text[f.pos])
			f.pos++
		} else {
			f.report("f-string: invalid conversion character: expected 's', 'r', or 'a'", f.pos-1, f.pos)
			if f.pos < len(f.text) && f.text[f.pos] != '}' && f.text[f.pos] != ':' {
				f.pos++
			}
		}
	}
	if f.pos < len(f.text) && f.text[f.pos] == ':' {
		f.pos++
		n.AddRole(RoleFormatSpec, f.parseFormatSpec())
	}
	if f.pos < len(f.text) && f.text[f.pos] == '}' {
		f.pos++
	} else {
		f.report("f-string: expecting '}'", open, open+1)
		f.skipField()
		f.p.setFlag(n, AttrMissingCloser)
	}
	if selfDoc && n.Value == nil && n.Child(RoleFormatSpec) == nil {
		n.Value = 'r'
	}
	n.Span.End = f.positionAt(f.pos)
	return append(parts, n)
}

// skipField advances past the '}' that closes the current field.
func (f *fstringParser) skipField() {
	depth := 0
	for f.pos < len(f.text) {
		switch f.text[f.pos] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				f.pos++
				return
			}
			depth--
		}
		f.pos++
	}
}

// parseFormatSpec parses the specifier after ':' up to the closing '}' of
// the field. Nested fields are allowed.
func (f *fstringParser) parseFormatSpec() *Node {
	specStart := f.pos
	depth := 0
	end := f.pos
	for end < len(f.text) {
		ch := f.text[end]
		if ch == '{' {
			depth++
		} else if ch == '}' {
			if depth == 0 {
				break
			}
			depth--
		}
		end++
	}
	spec := f.p.newNode(KindFormatSpec, f.positionAt(specStart))
	sub := &fstringParser{
		p:     f.p,
		text:  f.text[:end],
		pos:   specStart,
		flags: f.flags,
		start: f.start,
	}
	sub.cursorPos = sub.start
	for _, part := range sub.parse(true) {
		spec.AddRole(RoleItem, part)
	}
	f.pos = end
	spec.Span.End = f.positionAt(end)
	return spec
}

// parseExpression parses a field expression with a new parser instance
// that shares only the error sink and the language version.
func (f *fstringParser) parseExpression(text string, at Position) *Node {
	opts := f.p.opts.Clone()
	opts.Sink = f.p.sink
	opts.Verbatim = false
	opts.Binder = nil
	opts.FStringSubExpression = true
	opts.InitialLocation = at
	opts.PrivatePrefix = f.p.privatePrefix

	sub := New([]byte(text), WithOptions(opts))
	sub.nextID = f.p.nextID
	expr, _ := sub.ParseFStringSubExpression()
	f.p.nextID = sub.nextID
	if expr == nil {
		n := f.p.newNode(KindError, at)
		n.Error = &Error{Message: "invalid f-string expression"}
		return n
	}
	return expr
}
