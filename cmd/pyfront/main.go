package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

var log = commonlog.GetLogger("pyfront.cli")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:          "pyfront",
		Short:        "An error-tolerant Python parser",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd, args)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "config file (default: pyfront.toml or pyfront.yaml found upward)")
	flags.StringVar(&g.python, "python", "", "Python language version, e.g. 2.7 or 3.12")
	flags.BoolVar(&g.verbatim, "verbatim", false, "track source fidelity")
	flags.BoolVar(&g.stub, "stub", false, "treat input as a stub file")
	flags.CountVarP(&g.verbose, "verbose", "v", "increase log verbosity")
	flags.StringVar(&g.logPath, "log", "", "log to file instead of stderr")

	rootCmd.AddCommand(newParseCmd(g))
	rootCmd.AddCommand(newExprCmd(g))
	rootCmd.AddCommand(newInteractiveCmd(g))
	rootCmd.AddCommand(newTokensCmd(g))
	rootCmd.AddCommand(newCheckCmd(g))
	rootCmd.AddCommand(newRoundTripCmd(g))
	rootCmd.AddCommand(newLSPCmd(g))

	return rootCmd
}
