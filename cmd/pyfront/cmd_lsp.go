package main

import (
	"github.com/dhamidi/pyfront/lsp"
	"github.com/spf13/cobra"
)

func newLSPCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.cfg
			flags := cmd.Flags()
			if cfg.Path == "" && !flags.Changed("python") && !flags.Changed("stub") && !flags.Changed("verbatim") {
				// The workspace root decides.
				cfg = nil
			}
			log.Infof("starting language server %s", version)
			server := lsp.NewServer(version, cfg)
			return server.RunStdio()
		},
	}
}
