package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dhamidi/pyfront/python/parser"
)

// DiagnosticPrinter renders diagnostics the way compilers print them: a
// location line, the offending source line and a caret marker. Colors are
// used only when w is a terminal.
type DiagnosticPrinter struct {
	w      io.Writer
	file   string
	lines  []string
	styles diagnosticStyles
}

type diagnosticStyles struct {
	location lipgloss.Style
	caret    lipgloss.Style
	severity map[parser.Severity]lipgloss.Style
}

func newDiagnosticStyles(r *lipgloss.Renderer) diagnosticStyles {
	return diagnosticStyles{
		location: r.NewStyle().Bold(true),
		caret:    r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		severity: map[parser.Severity]lipgloss.Style{
			parser.SeverityInformation: r.NewStyle().Foreground(lipgloss.Color("4")),
			parser.SeverityWarning:     r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
			parser.SeverityError:       r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
			parser.SeverityFatal:       r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true).Underline(true),
		},
	}
}

func NewDiagnosticPrinter(w io.Writer, file string, source []byte) *DiagnosticPrinter {
	text := strings.ReplaceAll(string(source), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return &DiagnosticPrinter{
		w:      w,
		file:   file,
		lines:  strings.Split(text, "\n"),
		styles: newDiagnosticStyles(lipgloss.NewRenderer(w)),
	}
}

func (p *DiagnosticPrinter) Print(d parser.Diagnostic) error {
	var sb strings.Builder
	file := d.Span.Start.File
	if file == "" {
		file = p.file
	}
	location := fmt.Sprintf("%s:%d:%d:", file, d.Span.Start.Line, d.Span.Start.Column)
	severity := d.Severity.String()
	if style, ok := p.styles.severity[d.Severity]; ok {
		severity = style.Render(severity)
	}
	fmt.Fprintf(&sb, "%s %s: %s\n", p.styles.location.Render(location), severity, d.Message)

	if line := d.Span.Start.Line; line >= 1 && line <= len(p.lines) {
		text := p.lines[line-1]
		sb.WriteString("    " + text + "\n")
		sb.WriteString("    " + indentFor(text, d.Span.Start.Column) + p.styles.caret.Render(caretFor(text, d.Span)) + "\n")
	}
	_, err := io.WriteString(p.w, sb.String())
	return err
}

// PrintAll prints every diagnostic followed by a summary line. It returns
// the number of errors.
func (p *DiagnosticPrinter) PrintAll(diags []parser.Diagnostic) (int, error) {
	errors, warnings := 0, 0
	for _, d := range diags {
		if err := p.Print(d); err != nil {
			return errors, err
		}
		switch {
		case d.Severity >= parser.SeverityError:
			errors++
		case d.Severity == parser.SeverityWarning:
			warnings++
		}
	}
	if len(diags) > 0 {
		if _, err := fmt.Fprintf(p.w, "%s, %s\n", plural(errors, "error"), plural(warnings, "warning")); err != nil {
			return errors, err
		}
	}
	return errors, nil
}

// indentFor keeps tabs so the caret lines up under the column.
func indentFor(line string, column int) string {
	var sb strings.Builder
	for i := 0; i < column-1 && i < len(line); i++ {
		if line[i] == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

func caretFor(line string, span parser.Span) string {
	width := 1
	if span.End.Line == span.Start.Line && span.End.Column > span.Start.Column {
		width = span.End.Column - span.Start.Column
	}
	if rest := len(line) - (span.Start.Column - 1); rest > 0 && width > rest {
		width = rest
	}
	return strings.Repeat("^", width)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
