// Package cmd holds the flowstudio command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var flagConfPath string

var rootCmd = &cobra.Command{
	Use:          "flowstudio",
	Short:        "Backend for building and running PDF question-answering workflows",
	SilenceUsage: true,
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.AddCommand(newServerCmd())
	rootCmd.AddCommand(newExtractCmd())
}
