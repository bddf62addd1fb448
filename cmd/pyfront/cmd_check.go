package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dhamidi/pyfront/format"
	"github.com/dhamidi/pyfront/python/parser"
	"github.com/spf13/cobra"
)

func newCheckCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file or directory>...",
		Short: "Report syntax errors in Python files",
		Long: `Parse every given file, and every .py and .pyi file below the given
directories, and print their diagnostics.

Exits with a non-zero status when any file has errors.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectPythonFiles(args)
			if err != nil {
				return err
			}

			failed := 0
			for _, file := range files {
				source, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read file: %w", err)
				}
				sink := parser.NewCollectingSink()
				opts, err := g.parserOptions(file, sink)
				if err != nil {
					return err
				}
				if _, err := parser.Parse(source, opts...); err != nil {
					return fmt.Errorf("parse %s: %w", file, err)
				}

				printer := format.NewDiagnosticPrinter(cmd.OutOrStdout(), file, source)
				errors, err := printer.PrintAll(sink.Diagnostics())
				if err != nil {
					return err
				}
				if errors > 0 {
					failed++
				}
			}
			log.Infof("checked %d files", len(files))

			if failed > 0 {
				return fmt.Errorf("%d of %d files have errors", failed, len(files))
			}
			return nil
		},
	}
}

// collectPythonFiles expands directories into the Python files below them.
func collectPythonFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && (d.Name()[0] == '.' || d.Name() == "__pycache__") {
					return filepath.SkipDir
				}
				return nil
			}
			switch filepath.Ext(path) {
			case ".py", ".pyi":
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	return files, nil
}
