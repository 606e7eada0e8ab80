// Package cmd provides the querychat CLI commands.
//
// Commands:
//   - serve: HTTP API server for conversational database analytics
//   - version: version and configuration information
//
// Signal handling and graceful shutdown are implemented via context
// cancellation.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "querychat",
	Short: "Conversational analytics for your database",
	Long: `querychat answers natural-language questions about a relational
database: it generates SQL with a language model, executes it against the
session's registered connection, repairs failing statements, and returns the
rows with an explanation and a chart recommendation.

Run "querychat serve" to start the HTTP API server.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
