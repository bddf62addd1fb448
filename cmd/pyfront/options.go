package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhamidi/pyfront/config"
	"github.com/dhamidi/pyfront/python/parser"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
)

// globalOptions holds the persistent flags and the config they resolve to.
type globalOptions struct {
	configPath string
	python     string
	verbatim   bool
	stub       bool
	verbose    int
	logPath    string

	cfg *config.Config
}

// setup loads the config next to the first file argument (or the working
// directory), applies flag overrides and configures logging.
func (g *globalOptions) setup(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 && args[0] != "-" {
		if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
			dir = args[0]
		} else {
			dir = filepath.Dir(args[0])
		}
	}

	var err error
	if g.configPath != "" {
		g.cfg, err = config.Load(g.configPath)
	} else {
		g.cfg, err = config.LoadFrom(dir)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("python") {
		g.cfg.Version = g.python
	}
	if flags.Changed("verbatim") {
		g.cfg.Verbatim = g.verbatim
	}
	if flags.Changed("stub") {
		g.cfg.StubFile = g.stub
	}
	if err := g.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	verbosity := g.cfg.Verbosity()
	if g.verbose > 0 {
		verbosity = g.verbose
	}
	if g.logPath != "" {
		commonlog.Configure(verbosity, &g.logPath)
	} else {
		commonlog.Configure(verbosity, nil)
	}
	if g.cfg.Path != "" {
		log.Debugf("using config %s", g.cfg.Path)
	}
	return nil
}

// parserOptions builds the options for parsing file with diagnostics going
// to sink.
func (g *globalOptions) parserOptions(file string, sink parser.ErrorSink) ([]parser.Option, error) {
	opts, err := g.cfg.ToOptions()
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(file, ".pyi") {
		opts = append(opts, parser.WithStubFile())
	}
	return append(opts, parser.WithFile(file), parser.WithErrorSink(sink)), nil
}

func (g *globalOptions) languageVersion() parser.LanguageVersion {
	v, err := parser.ParseVersion(g.cfg.Version)
	if err != nil {
		return parser.LatestVersion
	}
	return v
}

// readSource reads the named file, or stdin when the name is "-" or
// missing.
func readSource(in io.Reader, args []string) (string, []byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", nil, fmt.Errorf("read stdin: %w", err)
		}
		return "<stdin>", data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", nil, fmt.Errorf("read file: %w", err)
	}
	return args[0], data, nil
}
