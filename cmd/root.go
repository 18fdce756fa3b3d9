package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "comptadoc",
	Short: "Accounting document search and access control service",
	Long: `comptadoc stores accounting documents, classifies them through the
insight service and exposes text, semantic, hybrid and smart search with
per-user access control.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
