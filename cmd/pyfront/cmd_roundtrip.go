package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dhamidi/pyfront/format"
	"github.com/dhamidi/pyfront/python/parser"
	"github.com/spf13/cobra"
)

func newRoundTripCmd(g *globalOptions) *cobra.Command {
	var printCode bool

	cmd := &cobra.Command{
		Use:   "roundtrip <file>...",
		Short: "Verify that parsing and reprinting reproduces each file",
		Long: `Parse each file with fidelity tracking and compare the reconstructed
source to the original byte for byte.

Use --print to write the reconstructed source of a single file to stdout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if printCode && len(args) != 1 {
				return fmt.Errorf("--print requires exactly one file")
			}
			g.cfg.Verbatim = true

			mismatched := 0
			for _, file := range args {
				source, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read file: %w", err)
				}
				opts, err := g.parserOptions(file, parser.DiscardSink)
				if err != nil {
					return err
				}
				ast, err := parser.Parse(source, opts...)
				if err != nil {
					return fmt.Errorf("parse %s: %w", file, err)
				}

				var buf bytes.Buffer
				if err := format.NewCodeEncoder(&buf).Encode(ast); err != nil {
					return fmt.Errorf("encode %s: %w", file, err)
				}
				if printCode {
					_, err := cmd.OutOrStdout().Write(buf.Bytes())
					return err
				}

				if offset := firstDifference(source, buf.Bytes()); offset >= 0 {
					mismatched++
					pos := ast.PositionOf(offset)
					fmt.Fprintf(cmd.OutOrStdout(), "%s:%d:%d: reconstructed source differs\n", file, pos.Line, pos.Column)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", file)
			}

			if mismatched > 0 {
				return fmt.Errorf("%d of %d files did not round-trip", mismatched, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&printCode, "print", false, "print the reconstructed source")

	return cmd
}

// firstDifference returns the first offset at which a and b differ, or -1.
func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
