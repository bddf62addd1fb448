package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dhamidi/pyfront/format"
	"github.com/dhamidi/pyfront/python/parser"
	"github.com/spf13/cobra"
)

const (
	primaryPrompt   = ">>> "
	secondaryPrompt = "... "
)

func newInteractiveCmd(g *globalOptions) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Read statements from stdin the way the Python console does",
		Long: `Read lines from stdin and print the tree of every complete statement.

Input is buffered until it forms a complete statement. A compound
statement ends with a blank line. Invalid input is reported and
discarded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session := &interactiveSession{
				g:      g,
				out:    cmd.OutOrStdout(),
				errOut: cmd.ErrOrStderr(),
				quiet:  quiet,
			}
			return session.run(cmd.InOrStdin())
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print prompts")

	return cmd
}

type interactiveSession struct {
	g      *globalOptions
	out    io.Writer
	errOut io.Writer
	quiet  bool
	buffer []byte
}

func (s *interactiveSession) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	s.prompt(primaryPrompt)
	for scanner.Scan() {
		s.buffer = append(s.buffer, scanner.Bytes()...)
		s.buffer = append(s.buffer, '\n')
		result, err := s.step()
		if err != nil {
			return err
		}
		if result == parser.ParseIncompleteStatement || result == parser.ParseIncompleteToken {
			s.prompt(secondaryPrompt)
		} else {
			s.buffer = s.buffer[:0]
			s.prompt(primaryPrompt)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if len(s.buffer) > 0 {
		// End of input closes any open block.
		s.buffer = append(s.buffer, '\n')
		if _, err := s.step(); err != nil {
			return err
		}
	}
	return nil
}

// step parses the buffered input and prints its tree when complete.
func (s *interactiveSession) step() (parser.ParseResult, error) {
	sink := parser.NewCollectingSink()
	opts, err := s.g.parserOptions("<stdin>", sink)
	if err != nil {
		return parser.ParseInvalid, err
	}
	node, result, err := parser.New(s.buffer, opts...).ParseInteractiveCode()
	if err != nil {
		return result, fmt.Errorf("parse: %w", err)
	}
	log.Debugf("interactive input is %s", result)

	switch result {
	case parser.ParseComplete:
		_, err = fmt.Fprintln(s.out, node.String())
	case parser.ParseInvalid:
		printer := format.NewDiagnosticPrinter(s.errOut, "<stdin>", s.buffer)
		_, err = printer.PrintAll(sink.Diagnostics())
	}
	return result, err
}

func (s *interactiveSession) prompt(p string) {
	if !s.quiet {
		fmt.Fprint(s.errOut, p)
	}
}
