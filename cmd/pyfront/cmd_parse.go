package main

import (
	"fmt"
	"io"

	"github.com/dhamidi/pyfront/format"
	"github.com/dhamidi/pyfront/python/parser"
	"github.com/spf13/cobra"
)

func newParseCmd(g *globalOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a Python file and dump the tree",
		Long: `Parse a Python file and dump the tree to stdout.

If no file is provided, reads Python source from stdin. Diagnostics are
included in the json output and printed to stderr otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename, source, err := readSource(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			sink := parser.NewCollectingSink()
			opts, err := g.parserOptions(filename, sink)
			if err != nil {
				return err
			}
			ast, err := parser.Parse(source, opts...)
			if err != nil {
				return fmt.Errorf("parse: %w", err)
			}

			out := cmd.OutOrStdout()
			if outputFormat == "json" {
				enc := format.NewASTJSONEncoder(out).WithDiagnostics(sink.Diagnostics())
				if err := enc.Encode(ast); err != nil {
					return fmt.Errorf("encode json: %w", err)
				}
				return nil
			}
			if err := writeTree(out, ast, outputFormat); err != nil {
				return err
			}
			printer := format.NewDiagnosticPrinter(cmd.ErrOrStderr(), filename, source)
			_, err = printer.PrintAll(sink.Diagnostics())
			return err
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "output format (json, line, tree)")

	return cmd
}

// writeTree writes ast in one of the non-json formats.
func writeTree(w io.Writer, ast *parser.Ast, outputFormat string) error {
	switch outputFormat {
	case "line":
		if err := format.NewLineEncoder(w).Encode(ast); err != nil {
			return fmt.Errorf("encode line: %w", err)
		}
	case "tree":
		if _, err := fmt.Fprintln(w, ast.Root.StringWithPositions()); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format: %s (expected json, line, or tree)", outputFormat)
	}
	return nil
}
