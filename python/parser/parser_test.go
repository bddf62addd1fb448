package parser

import (
	"errors"
	"strings"
	"testing"
)

// sexpr renders an expression tree compactly for comparisons.
func sexpr(n *Node) string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case KindName:
		return n.Name.Real
	case KindConstant:
		return FormatValue(n.Value)
	case KindParen:
		return sexpr(n.Child(RoleValue))
	case KindBinary:
		return "(" + n.Op.String() + " " + sexpr(n.Child(RoleLeft)) + " " + sexpr(n.Child(RoleRight)) + ")"
	case KindUnary:
		return "(" + n.Op.String() + " " + sexpr(n.Child(RoleOperand)) + ")"
	}
	parts := []string{n.Kind.String()}
	for _, child := range n.Children {
		parts = append(parts, sexpr(child))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func parseExpression(t *testing.T, input string, opts ...Option) *Node {
	t.Helper()
	ast, err := New([]byte(input), opts...).ParseTopExpression()
	if err != nil {
		t.Fatalf("ParseTopExpression: %v", err)
	}
	if len(ast.Root.Children) != 1 || ast.Root.Children[0].Kind != KindReturn {
		t.Fatalf("got body %v, want a single Return", ast.Root.Children)
	}
	return ast.Root.Children[0].Child(RoleValue)
}

func parseModule(t *testing.T, input string, opts ...Option) (*Ast, *CollectingSink) {
	t.Helper()
	sink := NewCollectingSink()
	opts = append(opts, WithErrorSink(sink))
	ast, err := Parse([]byte(input), opts...)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return ast, sink
}

func TestParseExpressionPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"1 - 2 - 3", "(- (- 1 2) 3)"},
		{"(1 + 2) * 3", "(* (+ 1 2) 3)"},
		{"2 ** 3 ** 4", "(** 2 (** 3 4))"},
		{"-2 ** 2", "(- (** 2 2))"},
		{"a | b ^ c & d", "(| a (^ b (& c d)))"},
		{"a << 1 + 2", "(<< a (+ 1 2))"},
		{"a // b % c", "(% (// a b) c)"},
		{"a @ b", "(@ a b)"},
		{"~a + b", "(+ (~ a) b)"},
		{"not a and b or c", "(or (and (not a) b) c)"},
		{"a or b or c", "(or (or a b) c)"},
		{"a < b < c", "(< a (< b c))"},
		{"a not in b", "(not in a b)"},
		{"a is not b", "(is not a b)"},
		{"not a == b", "(not (== a b))"},
		{"x if c else y", "(Conditional x c y)"},
		{"True and None", "(and True None)"},
		{"f(x).y[0]", "(Index (Member (Call f (Argument x))) 0)"},
		{"lambda: 1", "(Lambda (Parameters) 1)"},
		{"1, 2", "(Tuple 1 2)"},
		{"[x for x in y if x]", "(ListComp x (CompFor x y) (CompIf x))"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := sexpr(parseExpression(t, tt.input))
			if got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestParseStatements(t *testing.T) {
	tests := []struct {
		input string
		kind  NodeKind
	}{
		{"pass", KindPass},
		{"x = 1", KindAssign},
		{"x = y = 1", KindAssign},
		{"x += 1", KindAugAssign},
		{"x: int", KindAnnAssign},
		{"f()", KindExprStmt},
		{"del x, y", KindDel},
		{"assert x, 'msg'", KindAssert},
		{"import os.path as p", KindImport},
		{"from . import x", KindFromImport},
		{"from __future__ import annotations", KindFromImport},
		{"global x", KindGlobal},
		{"if x:\n    pass\nelif y:\n    pass\nelse:\n    pass\n", KindIf},
		{"while x:\n    break\n", KindWhile},
		{"for x in y:\n    continue\n", KindFor},
		{"try:\n    pass\nexcept E as e:\n    pass\nfinally:\n    pass\n", KindTry},
		{"with a as b, c:\n    pass\n", KindWith},
		{"def f(a, b=1, *args, c, **kw) -> int:\n    return a\n", KindFunctionDef},
		{"async def f():\n    await x\n", KindFunctionDef},
		{"@dec\ndef f(): pass\n", KindFunctionDef},
		{"class C(B, metaclass=M):\n    pass\n", KindClassDef},
		{"x = 1; y = 2", KindSuite},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ast, sink := parseModule(t, tt.input)
			if errs := sink.Errors(); len(errs) != 0 {
				t.Fatalf("unexpected errors: %v", errs)
			}
			if len(ast.Root.Children) != 1 {
				t.Fatalf("got %d statements, want 1", len(ast.Root.Children))
			}
			if got := ast.Root.Children[0].Kind; got != tt.kind {
				t.Errorf("got %v, want %v", got, tt.kind)
			}
		})
	}
}

func TestVersionGating(t *testing.T) {
	tests := []struct {
		input   string
		version LanguageVersion
		kind    NodeKind
		errors  int
	}{
		{"x: int = 1", Version35, KindAnnAssign, 1},
		{"x: int = 1", Version36, KindAnnAssign, 0},
		{"print 'hi'", Version27, KindPrint, 0},
		{"print 'hi'", Version313, KindPrint, 1},
		{"print('hi')", Version313, KindExprStmt, 0},
		{"exec code in ns", Version27, KindExec, 0},
		{"if (n := 10) > 5: pass", Version37, KindIf, 1},
		{"if (n := 10) > 5: pass", Version38, KindIf, 0},
		{"def f(a, /, b): pass", Version37, KindFunctionDef, 1},
		{"def f(a, /, b): pass", Version38, KindFunctionDef, 0},
		{"def f(a, *, b): pass", Version27, KindFunctionDef, 1},
		{"def f((a, b)): pass", Version27, KindFunctionDef, 0},
		{"def f((a, b)): pass", Version313, KindFunctionDef, 1},
		{"x = a @ b", Version34, KindAssign, 1},
		{"x = a <> b", Version27, KindAssign, 0},
		{"x = a <> b", Version313, KindAssign, 1},
		{"x = f'{a}'", Version35, KindAssign, 1},
		{"x = f'{a=}'", Version37, KindAssign, 1},
		{"x = f'{a=}'", Version38, KindAssign, 0},
		{"x = [*a]", Version27, KindAssign, 1},
		{"def g():\n    x = yield from y\n", Version32, KindFunctionDef, 1},
	}
	for _, tt := range tests {
		t.Run(tt.version.String()+"/"+tt.input, func(t *testing.T) {
			ast, sink := parseModule(t, tt.input, WithVersion(tt.version))
			if got := ast.Root.Children[0].Kind; got != tt.kind {
				t.Errorf("got %v, want %v", got, tt.kind)
			}
			errs := sink.Errors()
			if len(errs) != tt.errors {
				t.Fatalf("got %d errors, want %d: %v", len(errs), tt.errors, errs)
			}
			for _, d := range errs {
				if d.Code&ErrVersion != ErrVersion {
					t.Errorf("error %q has code %#x, want a version error", d.Message, d.Code)
				}
			}
		})
	}
}

func TestStubFileRelaxesVersions(t *testing.T) {
	_, sink := parseModule(t, "x: int\ndef f(a, /): ...\n", WithVersion(Version27), WithStubFile())
	if errs := sink.Errors(); len(errs) != 0 {
		t.Errorf("got %v, want no errors", errs)
	}
}

func TestErrorRecovery(t *testing.T) {
	tests := []struct {
		input  string
		errors int
		check  func(t *testing.T, ast *Ast)
	}{
		{"def f(,): pass", 1, func(t *testing.T, ast *Ast) {
			fn := ast.Root.Children[0]
			if fn.Kind != KindFunctionDef || fn.Name.Real != "f" {
				t.Fatalf("got %v %v, want FunctionDef f", fn.Kind, fn.Name)
			}
			params := fn.Child(RoleParameters).Children
			if len(params) != 1 || params[0].Error == nil || !params[0].Name.IsEmpty() {
				t.Errorf("got %v, want one error parameter", params)
			}
			if fn.Child(RoleBody) == nil {
				t.Error("function body missing")
			}
		}},
		{"x = = 1\ny = 2\n", 1, func(t *testing.T, ast *Ast) {
			if len(ast.Root.Children) != 2 {
				t.Fatalf("got %d statements, want 2", len(ast.Root.Children))
			}
			if ast.Root.Children[1].Kind != KindAssign {
				t.Errorf("second statement: got %v, want Assign", ast.Root.Children[1].Kind)
			}
		}},
		{"x = 1 2\n", 1, func(t *testing.T, ast *Ast) {
			stmt := ast.Root.Children[0]
			if stmt.Kind != KindErrorStmt || stmt.Preceding == nil || stmt.Preceding.Kind != KindAssign {
				t.Errorf("got %v, want ErrorStmt after Assign", stmt.Kind)
			}
		}},
		{"if x\n    pass\n", 1, nil},
		{"def f():\nreturn 1\n", 1, nil},
		{"f(a for a in b, c)", 1, nil},
		{"f(a=1, b)", 1, nil},
		{"def f(a=1, b): pass", 1, nil},
		{"def f(a, a): pass", 1, nil},
		{"break", 1, nil},
		{"1 = x", 1, nil},
		{"x = (1,\n", 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ast, sink := parseModule(t, tt.input)
			if errs := sink.Errors(); len(errs) != tt.errors {
				t.Fatalf("got %d errors, want %d: %v", len(errs), tt.errors, errs)
			}
			if !ast.HasErrors() {
				t.Error("HasErrors() = false")
			}
			if tt.check != nil {
				tt.check(t, ast)
			}
		})
	}
}

func TestTerminatesOnGarbage(t *testing.T) {
	inputs := []string{
		")))",
		"]]}}",
		"def def def",
		"class",
		"@",
		"lambda",
		"[x for",
		"if:\n\telse",
		"\t\t  )\n  x",
		"{**}",
		"f'{'",
		"f'{x!z}'",
		"try:\nexcept:\nfinally",
		"with (a as b",
		"yield = yield",
		"import",
		"from . import (",
		"x[::",
		"'''",
		"$ % ^ & *",
		"def f(*, **): pass",
		"class C:\n  def f(self\n",
		"    indented\n  dedented\nnot at all\n",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			ast, err := Parse([]byte(input), WithVerbatim())
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if ast.Root == nil {
				t.Fatal("no tree")
			}
			if !ast.HasErrors() {
				t.Error("no errors reported")
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"x = 1+2  # note",
		"x = 1+2  # note\n",
		"",
		"# only a comment\n",
		"\n\n\nx\n\n\n",
		"import os, sys as system\nfrom .pkg import (a,\n    b as c,)\n",
		"def f(a, b=1, *args, c: int = 2, **kw) -> 'r':\n    '''doc'''\n    return a  \\\n        + b\n",
		"class C(Base):\n    x = 1\n\n    @property\n    def y(self):\n        return self.x\n",
		"if a:\n    pass\nelif b:  # why\n    pass\nelse:\n    pass\n",
		"try:\n    x()\nexcept (A, B) as e:\n    raise\nelse:\n    pass\nfinally:\n    y()\n",
		"with open(p) as f, lock:\n    data = f.read()\n",
		"with (open(p) as f,\n      lock):\n    pass\n",
		"for i, (a, b) in enumerate(x):\n    print(i, a, b, sep='')\nelse:\n    pass\n",
		"x = [i * 2 for i in range(10) if i % 2]\ny = {k: v for k, v in d.items()}\nz = (a for a in b)\n",
		"s = 'a' \"b\" '''c'''\nb = b'\\x00'\n",
		"f = f'{x!r:>{width}} {y=} {{literal}}'\n",
		"f\"{f'{x:{width}}'}\"\n",
		"x = lambda a, *b, **c: (a, b, c)\n",
		"a[1:2, ::3, ...] = b[:]\n",
		"async def f():\n    async with a as b:\n        async for x in y:\n            await z\n",
		"x = 1 if y else 2\nn = (m := 3)\n",
		"del a[0], b.c\nglobal g\nassert x, 'why'\n",
		"x = 1\r\ny = 2\r\n",
		"\ufeffx = 1\n",
		"def f(,): pass\n",
		"x = = 1\n",
		"x = 1 2 3\ny\n",
		"if x\n    pass\n",
		"f'{x'\n",
		"print >>sys.stderr, 'a',\n",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			ast, err := Parse([]byte(input), WithVerbatim(), WithVersion(Version313))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := ast.ToCode(); got != input {
				t.Errorf("got %q, want %q", got, input)
			}
		})
	}
}

func TestToCodeWithoutVerbatim(t *testing.T) {
	ast, err := Parse([]byte("x = 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if ast.Attributes != nil || ast.ToCode() != "" {
		t.Error("fidelity data recorded without WithVerbatim")
	}
}

func TestSpansNest(t *testing.T) {
	inputs := []string{
		"x = 1 + 2 * f(a, b=c)\n",
		"@dec\nclass C:\n    def m(self, *a):\n        return [x for x in a if x]\n",
		"try:\n    pass\nexcept E:\n    pass\n",
		"s = f'{a!r:{b}} and {c}'\n",
		"with (a as b, c as d):\n    pass\n",
		"print(f\"{x!r:>{w}} and {y=}\")\n",
		"s = f'{value = }' f'{other=!s:>4}'\n",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			ast, sink := parseModule(t, input)
			if errs := sink.Errors(); len(errs) != 0 {
				t.Fatalf("unexpected errors: %v", errs)
			}
			var check func(n *Node)
			check = func(n *Node) {
				prevEnd := n.Span.Start.Offset
				for _, child := range n.Children {
					if child.Span.Start.Offset < prevEnd {
						t.Errorf("%v %v starts before the end of its previous sibling in %v (%d)", child.Kind, child.Span, n.Kind, prevEnd)
					}
					prevEnd = child.Span.End.Offset
					if !n.Span.Contains(child.Span) {
						t.Errorf("%v %v does not contain %v %v", n.Kind, n.Span, child.Kind, child.Span)
					}
					if child.Span.End.Offset < child.Span.Start.Offset {
						t.Errorf("%v ends before it starts", child.Kind)
					}
					check(child)
				}
			}
			check(ast.Root)
		})
	}
}

func TestParseTopExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		errors   int
	}{
		{"a + b", "(+ a b)", 0},
		{"a, *b", "(Tuple a (Starred b))", 0},
		{"a b", "a", 1},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			sink := NewCollectingSink()
			ast, err := New([]byte(tt.input), WithErrorSink(sink)).ParseTopExpression()
			if err != nil {
				t.Fatalf("ParseTopExpression: %v", err)
			}
			if errs := sink.Errors(); len(errs) != tt.errors {
				t.Fatalf("got %d errors, want %d: %v", len(errs), tt.errors, errs)
			}
			body := ast.Root.Children
			if len(body) != 1 || body[0].Kind != KindReturn {
				t.Fatalf("got body %v, want a single Return", body)
			}
			if got := sexpr(body[0].Child(RoleValue)); got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestIDsAreUnique(t *testing.T) {
	ast, _ := parseModule(t, "x = f'{a} {b:{c}}'\ny = [i for i in z]\n")
	seen := make(map[int]bool)
	ast.Root.Walk(func(n *Node) bool {
		if seen[n.ID] {
			t.Errorf("duplicate ID %d on %v", n.ID, n.Kind)
		}
		seen[n.ID] = true
		return true
	})
}

func TestFStrings(t *testing.T) {
	t.Run("nested", func(t *testing.T) {
		expr := parseExpression(t, `f"{f'{x:{width}}'}"`)
		if expr.Kind != KindFString {
			t.Fatalf("got %v, want FString", expr.Kind)
		}
		outer := expr.ChildrenWithRole(RoleItem)
		if len(outer) != 1 || outer[0].Kind != KindFormattedValue {
			t.Fatalf("got %s, want one formatted value", sexpr(expr))
		}
		inner := outer[0].Child(RoleValue)
		if inner == nil || inner.Kind != KindFString {
			t.Fatalf("got %s, want a nested FString", sexpr(outer[0]))
		}
		field := inner.ChildrenWithRole(RoleItem)[0]
		if got := field.Child(RoleValue).Name.Real; got != "x" {
			t.Errorf("got %q, want x", got)
		}
		spec := field.Child(RoleFormatSpec)
		if spec == nil {
			t.Fatal("format spec missing")
		}
		width := spec.ChildrenWithRole(RoleItem)
		if len(width) != 1 || width[0].Child(RoleValue).Name.Real != "width" {
			t.Errorf("got %s, want a width field", sexpr(spec))
		}
	})

	t.Run("unterminated field", func(t *testing.T) {
		sink := NewCollectingSink()
		expr := parseExpression(t, `f"{x"`, WithErrorSink(sink))
		errs := sink.Errors()
		if len(errs) != 1 || errs[0].Message != "f-string: expecting '}'" {
			t.Fatalf("got %v, want one missing brace error", errs)
		}
		parts := expr.ChildrenWithRole(RoleItem)
		if len(parts) != 1 || !parts[0].IsError() {
			t.Errorf("got %s, want one error part", sexpr(expr))
		}
	})

	t.Run("self documenting", func(t *testing.T) {
		expr := parseExpression(t, `f"{a + b = }"`)
		parts := expr.ChildrenWithRole(RoleItem)
		if len(parts) != 2 {
			t.Fatalf("got %s, want debug text and value", sexpr(expr))
		}
		if got := parts[0].Value; got != "a + b = " {
			t.Errorf("debug text: got %q, want %q", got, "a + b = ")
		}
		if parts[0].Span.Start != parts[0].Span.End || parts[0].Span.Start != parts[1].Span.Start {
			t.Errorf("debug text span %v, want empty at %v", parts[0].Span, parts[1].Span.Start)
		}
		if parts[1].Value != 'r' || !parts[1].Flags.Has(FlagSelfDocumenting) {
			t.Errorf("got conversion %v flags %v, want 'r' and self_documenting", parts[1].Value, parts[1].Flags)
		}
	})

	t.Run("literal braces and conversion", func(t *testing.T) {
		expr := parseExpression(t, `f"{{x}} {y!s}"`)
		parts := expr.ChildrenWithRole(RoleItem)
		if len(parts) != 2 {
			t.Fatalf("got %s, want literal and field", sexpr(expr))
		}
		if parts[0].Value != "{x} " {
			t.Errorf("literal: got %v, want %q", parts[0].Value, "{x} ")
		}
		if parts[1].Value != 's' {
			t.Errorf("conversion: got %v, want 's'", parts[1].Value)
		}
	})

	t.Run("expression positions", func(t *testing.T) {
		ast, _ := parseModule(t, "s = f'ab{cd}'\n")
		fstr := ast.Root.Children[0].Child(RoleValue)
		name := fstr.ChildrenWithRole(RoleItem)[1].Child(RoleValue)
		if name.Span.Start.Offset != 9 || name.Span.Start.Column != 10 {
			t.Errorf("got offset %d column %d, want 9 and 10", name.Span.Start.Offset, name.Span.Start.Column)
		}
	})

	t.Run("errors", func(t *testing.T) {
		for _, input := range []string{`f"{}"`, `f"}"`, `f"{x!z}"`} {
			sink := NewCollectingSink()
			parseExpression(t, input, WithErrorSink(sink))
			if len(sink.Errors()) != 1 {
				t.Errorf("%s: got %v, want one error", input, sink.Errors())
			}
		}
	})
}

func TestPrivateNameMangling(t *testing.T) {
	src := "class _Foo:\n    __y = 1\n    __z__ = 2\n    def m(self):\n        return self.__x\n__w = 3\n"
	ast, sink := parseModule(t, src)
	if errs := sink.Errors(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	var names []*Name
	ast.Root.Walk(func(n *Node) bool {
		if n.Name != nil && strings.Contains(n.Name.Verbatim, "__") {
			names = append(names, n.Name)
		}
		return true
	})
	want := map[string]string{
		"__y":   "_Foo__y",
		"__z__": "__z__",
		"__x":   "_Foo__x",
		"__w":   "__w",
	}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for _, name := range names {
		if want[name.Verbatim] != name.Real {
			t.Errorf("%s: got %s, want %s", name.Verbatim, name.Real, want[name.Verbatim])
		}
	}
}

func TestPrivatePrefixOption(t *testing.T) {
	expr := parseExpression(t, "self.__x", WithPrivatePrefix("Foo"))
	if got := expr.Name.Real; got != "_Foo__x" {
		t.Errorf("got %s, want _Foo__x", got)
	}
}

func TestParseInteractiveCode(t *testing.T) {
	tests := []struct {
		input    string
		expected ParseResult
		kind     NodeKind
	}{
		{"", ParseEmpty, 0},
		{"# comment\n", ParseEmpty, 0},
		{"x = 1\n", ParseComplete, KindAssign},
		{"x = 1", ParseComplete, KindAssign},
		{"x = 1; y = 2\n", ParseComplete, KindSuite},
		{"if x:", ParseIncompleteStatement, 0},
		{"if x:\n    y\n", ParseIncompleteStatement, 0},
		{"if x:\n    y\n\n", ParseComplete, KindIf},
		{"x = (1,", ParseIncompleteStatement, 0},
		{"x = ", ParseIncompleteStatement, 0},
		{"s = '''abc", ParseIncompleteToken, 0},
		{"x = = 1\n", ParseInvalid, 0},
		{"def f(:\n", ParseInvalid, 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			stmt, result, err := New([]byte(tt.input)).ParseInteractiveCode()
			if err != nil {
				t.Fatalf("ParseInteractiveCode: %v", err)
			}
			if result != tt.expected {
				t.Fatalf("got %v, want %v", result, tt.expected)
			}
			if result != ParseComplete {
				if stmt != nil {
					t.Errorf("got %v, want no statement", stmt.Kind)
				}
				return
			}
			if stmt == nil || stmt.Kind != tt.kind {
				t.Errorf("got %v, want %v", stmt, tt.kind)
			}
		})
	}
}

func TestParseFStringSubExpression(t *testing.T) {
	start := Position{Offset: 20, Line: 2, Column: 5}
	sink := NewCollectingSink()
	expr, err := New([]byte("a + b"),
		WithFStringSubExpression(),
		WithInitialLocation(start),
		WithErrorSink(sink),
	).ParseFStringSubExpression()
	if err != nil {
		t.Fatalf("ParseFStringSubExpression: %v", err)
	}
	if got := sexpr(expr); got != "(+ a b)" {
		t.Errorf("got %s, want (+ a b)", got)
	}
	if expr.Span.Start.Offset != 20 || expr.Span.End.Offset != 25 {
		t.Errorf("got span %d-%d, want 20-25", expr.Span.Start.Offset, expr.Span.End.Offset)
	}
	if sink.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", sink.Diagnostics())
	}
}

func TestParserMisuse(t *testing.T) {
	p := New([]byte("x\n"))
	if _, err := p.ParseFile(); err != nil {
		t.Fatalf("first parse: %v", err)
	}
	if _, err := p.ParseFile(); !errors.Is(err, ErrParserReused) {
		t.Errorf("second ParseFile: got %v, want ErrParserReused", err)
	}
	if _, _, err := p.ParseInteractiveCode(); !errors.Is(err, ErrParserReused) {
		t.Errorf("ParseInteractiveCode after ParseFile: got %v, want ErrParserReused", err)
	}

	if _, err := New([]byte("x")).ParseFStringSubExpression(); !errors.Is(err, ErrFeatureMismatch) {
		t.Errorf("sub-expression without option: got %v, want ErrFeatureMismatch", err)
	}
	if _, err := New([]byte("x"), WithFStringSubExpression()).ParseFile(); !errors.Is(err, ErrFeatureMismatch) {
		t.Errorf("ParseFile in sub-expression mode: got %v, want ErrFeatureMismatch", err)
	}
	if _, err := New([]byte("x"), WithFStringSubExpression()).ParseTopExpression(); !errors.Is(err, ErrFeatureMismatch) {
		t.Errorf("ParseTopExpression in sub-expression mode: got %v, want ErrFeatureMismatch", err)
	}
}

func TestBinder(t *testing.T) {
	var calls int
	var gotRefs bool
	binder := BinderFunc(func(version LanguageVersion, ast *Ast, sink ErrorSink, bindReferences bool) {
		calls++
		gotRefs = bindReferences
		if version != Version312 {
			t.Errorf("binder version: got %v, want 3.12", version)
		}
		sink.Add("bound", ast.Root.Span, ErrSyntax, SeverityError)
	})
	ast, sink := parseModule(t, "x = 1\n", WithBinder(binder), WithBindReferences(), WithVersion(Version312))
	if calls != 1 || !gotRefs {
		t.Fatalf("binder called %d times with references=%v", calls, gotRefs)
	}
	if sink.Len() != 1 || ast.ErrorCode != ErrSyntax {
		t.Errorf("binder diagnostics not recorded: %v, code %#x", sink.Diagnostics(), ast.ErrorCode)
	}
}

func TestAstPositionOf(t *testing.T) {
	ast, _ := parseModule(t, "x = 1\nyy = 2\n")
	pos := ast.PositionOf(8)
	if pos.Line != 2 || pos.Column != 3 {
		t.Errorf("got %d:%d, want 2:3", pos.Line, pos.Column)
	}
	if len(ast.LineStarts) < 2 {
		t.Errorf("got line starts %v", ast.LineStarts)
	}
}

func TestParseWithTokens(t *testing.T) {
	lexer := NewLexer([]byte("a = b\n"), "test.py")
	ast, err := NewWithTokens(lexer, WithVerbatim()).ParseFile()
	if err != nil {
		t.Fatal(err)
	}
	if ast.Root.Children[0].Kind != KindAssign {
		t.Errorf("got %v, want Assign", ast.Root.Children[0].Kind)
	}
	if got := ast.ToCode(); got != "a = b\n" {
		t.Errorf("got %q", got)
	}
}
