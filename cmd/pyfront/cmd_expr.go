package main

import (
	"fmt"
	"strings"

	"github.com/dhamidi/pyfront/format"
	"github.com/dhamidi/pyfront/python/parser"
	"github.com/spf13/cobra"
)

func newExprCmd(g *globalOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "expr <expression>...",
		Short: "Parse a single Python expression",
		Args:  cobra.MinimumNArgs(1),
		// The arguments are source text, not paths.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd, nil)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			source := []byte(strings.Join(args, " "))
			sink := parser.NewCollectingSink()
			opts, err := g.parserOptions("<expr>", sink)
			if err != nil {
				return err
			}
			ast, err := parser.New(source, opts...).ParseTopExpression()
			if err != nil {
				return fmt.Errorf("parse expression: %w", err)
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
			printer := format.NewDiagnosticPrinter(cmd.ErrOrStderr(), "<expr>", source)
			_, err = printer.PrintAll(sink.Diagnostics())
			return err
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "tree", "output format (json, line, tree)")

	return cmd
}
