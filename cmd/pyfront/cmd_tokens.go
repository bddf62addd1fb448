package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dhamidi/pyfront/format"
	"github.com/dhamidi/pyfront/python/parser"
	"github.com/spf13/cobra"
)

func newTokensCmd(g *globalOptions) *cobra.Command {
	var showPrefix bool

	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the token stream of a Python file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename, source, err := readSource(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			severity, _ := parser.ParseSeverity(g.cfg.IndentationSeverity)
			sink := parser.NewCollectingSink()
			tokens := parser.Tokenize(source, filename,
				parser.LexerVersion(g.languageVersion()),
				parser.LexerErrorSink(sink),
				parser.LexerIndentationSeverity(severity),
			)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, tok := range tokens {
				fmt.Fprintf(tw, "%s-%s\t%s\t%q", tok.Span.Start, tok.Span.End, tok.Kind, tok.Literal)
				if showPrefix {
					fmt.Fprintf(tw, "\t%q", tok.Prefix)
				}
				fmt.Fprintln(tw)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			printer := format.NewDiagnosticPrinter(cmd.ErrOrStderr(), filename, source)
			_, err = printer.PrintAll(sink.Diagnostics())
			return err
		},
	}

	cmd.Flags().BoolVar(&showPrefix, "prefix", false, "also print the whitespace and comments before each token")

	return cmd
}
