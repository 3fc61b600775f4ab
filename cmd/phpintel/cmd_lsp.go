package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/phpintel/php/lsp"
	"github.com/dhamidi/phpintel/project"
)

func newLSPCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(project.LogConfig{})
			server := lsp.NewLSPServer(version, lsp.Options{
				ConfigPath: flags.configPath,
				Watch:      watch,
			})
			return server.RunStdio()
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "rescan files changed outside the editor")

	return cmd
}
