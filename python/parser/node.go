package parser

import (
	"fmt"
	"strings"
)

type NodeKind int

const (
	KindError NodeKind = iota
	KindErrorStmt

	// Module and suites
	KindModule
	KindSuite

	// Simple statements
	KindExprStmt
	KindAssign
	KindAugAssign
	KindAnnAssign
	KindPass
	KindBreak
	KindContinue
	KindReturn
	KindRaise
	KindGlobal
	KindNonlocal
	KindDel
	KindAssert
	KindImport
	KindFromImport
	KindImportAlias
	KindDottedName
	KindPrint
	KindExec
	KindEmptyStmt

	// Compound statements
	KindIf
	KindIfTest
	KindWhile
	KindFor
	KindTry
	KindExceptHandler
	KindWith
	KindWithItem
	KindFunctionDef
	KindClassDef
	KindDecorators

	// Parameters and arguments
	KindParameters
	KindParameter
	KindSublist
	KindArgument

	// Expressions
	KindName
	KindConstant
	KindFString
	KindFormattedValue
	KindFormatSpec
	KindBinary
	KindUnary
	KindConditional
	KindLambda
	KindNamedExpr
	KindCall
	KindMember
	KindIndex
	KindSlice
	KindTuple
	KindList
	KindSet
	KindDict
	KindDictItem
	KindParen
	KindStarred
	KindGenerator
	KindListComp
	KindSetComp
	KindDictComp
	KindCompFor
	KindCompIf
	KindYield
	KindYieldFrom
	KindAwait
	KindBackQuote
)

var nodeKindNames = map[NodeKind]string{
	KindError:          "Error",
	KindErrorStmt:      "ErrorStmt",
	KindModule:         "Module",
	KindSuite:          "Suite",
	KindExprStmt:       "ExprStmt",
	KindAssign:         "Assign",
	KindAugAssign:      "AugAssign",
	KindAnnAssign:      "AnnAssign",
	KindPass:           "Pass",
	KindBreak:          "Break",
	KindContinue:       "Continue",
	KindReturn:         "Return",
	KindRaise:          "Raise",
	KindGlobal:         "Global",
	KindNonlocal:       "Nonlocal",
	KindDel:            "Del",
	KindAssert:         "Assert",
	KindImport:         "Import",
	KindFromImport:     "FromImport",
	KindImportAlias:    "ImportAlias",
	KindDottedName:     "DottedName",
	KindPrint:          "Print",
	KindExec:           "Exec",
	KindEmptyStmt:      "EmptyStmt",
	KindIf:             "If",
	KindIfTest:         "IfTest",
	KindWhile:          "While",
	KindFor:            "For",
	KindTry:            "Try",
	KindExceptHandler:  "ExceptHandler",
	KindWith:           "With",
	KindWithItem:       "WithItem",
	KindFunctionDef:    "FunctionDef",
	KindClassDef:       "ClassDef",
	KindDecorators:     "Decorators",
	KindParameters:     "Parameters",
	KindParameter:      "Parameter",
	KindSublist:        "Sublist",
	KindArgument:       "Argument",
	KindName:           "Name",
	KindConstant:       "Constant",
	KindFString:        "FString",
	KindFormattedValue: "FormattedValue",
	KindFormatSpec:     "FormatSpec",
	KindBinary:         "Binary",
	KindUnary:          "Unary",
	KindConditional:    "Conditional",
	KindLambda:         "Lambda",
	KindNamedExpr:      "NamedExpr",
	KindCall:           "Call",
	KindMember:         "Member",
	KindIndex:          "Index",
	KindSlice:          "Slice",
	KindTuple:          "Tuple",
	KindList:           "List",
	KindSet:            "Set",
	KindDict:           "Dict",
	KindDictItem:       "DictItem",
	KindParen:          "Paren",
	KindStarred:        "Starred",
	KindGenerator:      "Generator",
	KindListComp:       "ListComp",
	KindSetComp:        "SetComp",
	KindDictComp:       "DictComp",
	KindCompFor:        "CompFor",
	KindCompIf:         "CompIf",
	KindYield:          "Yield",
	KindYieldFrom:      "YieldFrom",
	KindAwait:          "Await",
	KindBackQuote:      "BackQuote",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsStatement reports whether nodes of this kind appear in suites.
func (k NodeKind) IsStatement() bool {
	switch k {
	case KindErrorStmt, KindExprStmt, KindAssign, KindAugAssign, KindAnnAssign,
		KindPass, KindBreak, KindContinue, KindReturn, KindRaise, KindGlobal,
		KindNonlocal, KindDel, KindAssert, KindImport, KindFromImport, KindPrint,
		KindExec, KindEmptyStmt, KindIf, KindWhile, KindFor, KindTry, KindWith,
		KindFunctionDef, KindClassDef, KindSuite:
		return true
	}
	return false
}

// Role names the relation of a child to its parent.
type Role int

const (
	RoleNone Role = iota
	RoleTarget
	RoleValue
	RoleTest
	RoleBody
	RoleElse
	RoleFinally
	RoleHandler
	RoleAnnotation
	RoleReturns
	RoleDefault
	RoleParameters
	RoleDecorators
	RoleBase
	RoleFunction
	RoleArgument
	RoleIndex
	RoleLower
	RoleUpper
	RoleStep
	RoleKey
	RoleIterator
	RoleCondition
	RoleTrue
	RoleFalse
	RoleLeft
	RoleRight
	RoleOperand
	RoleItem
	RoleCause
	RoleTraceback
	RoleType
	RoleName
	RoleMessage
	RoleDest
	RoleGlobals
	RoleLocals
	RoleFormatSpec
	RoleElement
	RoleClause
	RoleContext
	RoleModule
	RolePreceding
)

var roleNames = map[Role]string{
	RoleNone:       "",
	RoleTarget:     "target",
	RoleValue:      "value",
	RoleTest:       "test",
	RoleBody:       "body",
	RoleElse:       "else",
	RoleFinally:    "finally",
	RoleHandler:    "handler",
	RoleAnnotation: "annotation",
	RoleReturns:    "returns",
	RoleDefault:    "default",
	RoleParameters: "parameters",
	RoleDecorators: "decorators",
	RoleBase:       "base",
	RoleFunction:   "function",
	RoleArgument:   "argument",
	RoleIndex:      "index",
	RoleLower:      "lower",
	RoleUpper:      "upper",
	RoleStep:       "step",
	RoleKey:        "key",
	RoleIterator:   "iterator",
	RoleCondition:  "condition",
	RoleTrue:       "true",
	RoleFalse:      "false",
	RoleLeft:       "left",
	RoleRight:      "right",
	RoleOperand:    "operand",
	RoleItem:       "item",
	RoleCause:      "cause",
	RoleTraceback:  "traceback",
	RoleType:       "type",
	RoleName:       "name",
	RoleMessage:    "message",
	RoleDest:       "dest",
	RoleGlobals:    "globals",
	RoleLocals:     "locals",
	RoleFormatSpec: "format_spec",
	RoleElement:    "element",
	RoleClause:     "clause",
	RoleContext:    "context",
	RoleModule:     "module",
	RolePreceding:  "preceding",
}

func (r Role) String() string {
	return roleNames[r]
}

type Operator int

const (
	OpNone Operator = iota
	OpAdd
	OpSub
	OpMul
	OpMatMul
	OpDiv
	OpFloorDiv
	OpMod
	OpPow
	OpLShift
	OpRShift
	OpBitAnd
	OpBitOr
	OpBitXor
	OpAnd
	OpOr
	OpNot
	OpPos
	OpNeg
	OpInvert
	OpLT
	OpGT
	OpLE
	OpGE
	OpEq
	OpNotEq
	OpIn
	OpNotIn
	OpIs
	OpIsNot
)

var operatorNames = map[Operator]string{
	OpNone:     "",
	OpAdd:      "+",
	OpSub:      "-",
	OpMul:      "*",
	OpMatMul:   "@",
	OpDiv:      "/",
	OpFloorDiv: "//",
	OpMod:      "%",
	OpPow:      "**",
	OpLShift:   "<<",
	OpRShift:   ">>",
	OpBitAnd:   "&",
	OpBitOr:    "|",
	OpBitXor:   "^",
	OpAnd:      "and",
	OpOr:       "or",
	OpNot:      "not",
	OpPos:      "+",
	OpNeg:      "-",
	OpInvert:   "~",
	OpLT:       "<",
	OpGT:       ">",
	OpLE:       "<=",
	OpGE:       ">=",
	OpEq:       "==",
	OpNotEq:    "!=",
	OpIn:       "in",
	OpNotIn:    "not in",
	OpIs:       "is",
	OpIsNot:    "is not",
}

func (o Operator) String() string {
	return operatorNames[o]
}

// IsComparison reports whether o is a comparison operator.
func (o Operator) IsComparison() bool {
	return o >= OpLT && o <= OpIsNot
}

type NodeFlags uint32

const (
	FlagAsync NodeFlags = 1 << iota
	FlagGenerator
	FlagCoroutine
	FlagStar
	FlagDoubleStar
	FlagKeywordOnly
	FlagPositionalOnly
	FlagMarker
	FlagSelfDocumenting
	FlagTrailingComma
	FlagRedirect
	FlagFuture
	FlagImplicitConcat
	FlagBytes
	FlagEllipsis
)

func (f NodeFlags) Has(flag NodeFlags) bool {
	return f&flag != 0
}

// Name is an identifier with its mangled and as-typed spellings.
type Name struct {
	Real     string
	Verbatim string
}

// EmptyName marks a position where an identifier was required but could not
// be read.
var EmptyName = &Name{}

func NewName(s string) *Name {
	return &Name{Real: s, Verbatim: s}
}

func (n *Name) IsEmpty() bool {
	return n == nil || n.Real == ""
}

func (n *Name) String() string {
	if n == nil {
		return ""
	}
	return n.Real
}

type Error struct {
	Message  string
	Expected []TokenKind
	Got      *Token
}

// Ellipsis is the value of the `...` constant.
type Ellipsis struct{}

func (Ellipsis) String() string { return "..." }

type Node struct {
	ID       int
	Kind     NodeKind
	Role     Role
	Span     Span
	Children []*Node
	Op       Operator
	Name     *Name
	Value    any
	Flags    NodeFlags
	Error    *Error
	// Preceding links an error node to the partially built node it
	// replaced.
	Preceding *Node
}

func (n *Node) AddChild(child *Node) {
	if child != nil {
		n.Children = append(n.Children, child)
	}
}

// AddRole appends child with the given role.
func (n *Node) AddRole(role Role, child *Node) {
	if child != nil {
		child.Role = role
		n.Children = append(n.Children, child)
	}
}

func (n *Node) IsError() bool {
	return n.Kind == KindError || n.Kind == KindErrorStmt
}

func (n *Node) FirstChildOfKind(kind NodeKind) *Node {
	for _, child := range n.Children {
		if child.Kind == kind {
			return child
		}
	}
	return nil
}

func (n *Node) ChildrenOfKind(kind NodeKind) []*Node {
	var result []*Node
	for _, child := range n.Children {
		if child.Kind == kind {
			result = append(result, child)
		}
	}
	return result
}

// Child returns the first child with the given role.
func (n *Node) Child(role Role) *Node {
	for _, child := range n.Children {
		if child.Role == role {
			return child
		}
	}
	return nil
}

func (n *Node) ChildrenWithRole(role Role) []*Node {
	var result []*Node
	for _, child := range n.Children {
		if child.Role == role {
			result = append(result, child)
		}
	}
	return result
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

func (n *Node) String() string {
	return n.stringIndent(0, false)
}

func (n *Node) StringWithPositions() string {
	return n.stringIndent(0, true)
}

func (n *Node) stringIndent(indent int, showPositions bool) string {
	var sb strings.Builder
	n.writeIndent(&sb, indent, showPositions)
	return sb.String()
}

func (n *Node) writeIndent(sb *strings.Builder, indent int, showPositions bool) {
	sb.WriteString(strings.Repeat("  ", indent))
	if n.Role != RoleNone {
		sb.WriteString(n.Role.String())
		sb.WriteString(": ")
	}
	sb.WriteString(n.Kind.String())
	if showPositions {
		sb.WriteString(" [" + n.Span.Start.String() + "-" + n.Span.End.String() + "]")
	}
	if n.Op != OpNone {
		sb.WriteString(" " + n.Op.String())
	}
	if n.Name != nil {
		sb.WriteString(" " + n.Name.Real)
	}
	if n.Kind == KindConstant {
		sb.WriteString(" " + FormatValue(n.Value))
	}
	if n.Error != nil {
		sb.WriteString(" ERROR: " + n.Error.Message)
	}
	sb.WriteString("\n")
	for _, child := range n.Children {
		child.writeIndent(sb, indent+1, showPositions)
	}
}

// FormatValue renders a constant value the way it would be written in
// Python source.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "None"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case string:
		return fmt.Sprintf("%q", v)
	case []byte:
		return fmt.Sprintf("b%q", string(v))
	case complex128:
		return fmt.Sprintf("%gj", imag(v))
	default:
		return fmt.Sprint(v)
	}
}
