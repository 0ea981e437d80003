// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tabledeck",
	Short: "tabledeck is a permission-gated tabular data service",
	Long: `tabledeck serves spreadsheet-like tables over a JSON API.
Group membership decides which tables and columns a user can see and
which rows they may create or delete.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
