// Package cli defines the fieldops-api command line: the serve command that
// runs the HTTP API and its workers, and version.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X fieldops/api-gateway/internal/cli.Version=...".
var Version = "dev"

// BuildCLI creates the root command.
func BuildCLI() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "fieldops-api",
		Short: "Field operations job lifecycle API",
		Long: `fieldops-api serves the job lifecycle of dispatched field service work:
status transitions, job completion with client signature, engineer
availability, payment initiation and realtime notifications.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "optional config file (yaml, json or toml); environment variables take precedence")

	rootCmd.AddCommand(buildServeCommand(&configFile))
	rootCmd.AddCommand(buildVersionCommand())

	return rootCmd
}

func buildServeCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, gRPC health server and notification workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configFile)
		},
	}
}

func buildVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}
