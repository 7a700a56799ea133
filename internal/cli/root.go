// Package cli defines the devbook command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devbook/devbook/internal/config"
	"github.com/devbook/devbook/internal/entrypoint"
	"github.com/devbook/devbook/internal/logging"
)

// BuildInfo is set at build time via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
}

// NewRootCommand returns the devbook command. Without a subcommand it
// serves HTTP.
func NewRootCommand(info BuildInfo) *cobra.Command {
	serve := newServeCommand(info)

	root := &cobra.Command{
		Use:           "devbook",
		Short:         "Book lending service for a developer library",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	root.AddCommand(
		serve,
		NewCreateAdminCommand().Command(),
		newVersionCommand(info),
	)
	return root
}

func newServeCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.NewConfig()
			return entrypoint.Run(cfg, logging.New(cfg.Log), info.Version)
		},
	}
}

func newVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "devbook %s (%s)\n", info.Version, info.Commit)
		},
	}
}
