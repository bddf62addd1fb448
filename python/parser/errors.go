package parser

import (
	"errors"
	"sort"
	"sync"
)

type Severity int

const (
	SeverityIgnore Severity = iota
	SeverityInformation
	SeverityWarning
	SeverityError
	SeverityFatal
)

var severityNames = map[Severity]string{
	SeverityIgnore:      "ignore",
	SeverityInformation: "information",
	SeverityWarning:     "warning",
	SeverityError:       "error",
	SeverityFatal:       "fatal",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseSeverity maps a severity name back to its value.
func ParseSeverity(name string) (Severity, bool) {
	for s, n := range severityNames {
		if n == name {
			return s, true
		}
	}
	return SeverityIgnore, false
}

// Error codes. The low nibble carries the incomplete-input flags, the rest
// classifies the error.
const (
	ErrIncompleteStatement = 0x0001
	ErrIncompleteToken     = 0x0002
	ErrIncompleteMask      = 0x000F

	ErrSyntax      = 0x0010
	ErrIndentation = 0x0020
	ErrTab         = 0x0030
	ErrNoCaret     = 0x0040
	ErrVersion     = 0x0050
	ErrKindMask    = 0x7FFFFFF0
)

// IsIncomplete reports whether code marks an error caused by running out of
// input rather than by malformed input.
func IsIncomplete(code int) bool {
	return code&ErrIncompleteMask != 0
}

var (
	// ErrParserReused is returned when an entry point is invoked on a parser
	// that has already started parsing.
	ErrParserReused = errors.New("parser instance already used")
	// ErrFeatureMismatch is returned when an entry point is inconsistent
	// with the parser's options.
	ErrFeatureMismatch = errors.New("entry point not allowed with these options")
)

// ErrorSink receives diagnostics. Implementations must not unwind the
// parser's call stack.
type ErrorSink interface {
	Add(message string, span Span, code int, severity Severity)
}

type Diagnostic struct {
	Message  string
	Span     Span
	Code     int
	Severity Severity
}

// CollectingSink records diagnostics. It is safe for concurrent use.
type CollectingSink struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

func NewCollectingSink() *CollectingSink {
	return &CollectingSink{}
}

func (s *CollectingSink) Add(message string, span Span, code int, severity Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagnostics = append(s.diagnostics, Diagnostic{
		Message:  message,
		Span:     span,
		Code:     code,
		Severity: severity,
	})
}

// Diagnostics returns a copy of the recorded diagnostics ordered by start
// offset.
func (s *CollectingSink) Diagnostics() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Diagnostic, len(s.diagnostics))
	copy(result, s.diagnostics)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Span.Start.Offset < result[j].Span.Start.Offset
	})
	return result
}

func (s *CollectingSink) Errors() []Diagnostic {
	var result []Diagnostic
	for _, d := range s.Diagnostics() {
		if d.Severity >= SeverityError {
			result = append(result, d)
		}
	}
	return result
}

func (s *CollectingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.diagnostics)
}

func (s *CollectingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagnostics = nil
}

type discardSink struct{}

func (discardSink) Add(string, Span, int, Severity) {}

// DiscardSink drops every diagnostic.
var DiscardSink ErrorSink = discardSink{}
