package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	config    string
	logLevel  string
	logFormat string
}

// buildRootCmd constructs the command tree.
func buildRootCmd() *cobra.Command {
	rf := &rootFlags{}
	root := &cobra.Command{
		Use:           "handlerd",
		Short:         "Host a batch handler over HTTP and package handler manifests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&rf.config, "config", os.Getenv("HANDLERD_CONFIG"), "Config file (.yaml, .json or .toml; defaults HANDLERD_CONFIG)")
	root.PersistentFlags().StringVar(&rf.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")
	root.PersistentFlags().StringVar(&rf.logFormat, "log-format", "", "Log format: json|console (overrides config)")

	root.AddCommand(buildServeCmd(rf), buildManifestCmd())
	return root
}

// splitCSV splits a comma separated list, trimming blanks and dropping empties.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
