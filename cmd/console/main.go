// Package main provides the console binary: a command line front end for the
// client, project and outreach tracker.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "console"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Client and project tracking console",
		Long: `Console tracks clients, their projects, requirements and kanban subtasks,
client documents and an outreach ledger of prospective leads.

State is loaded from the configured backend (file, redis, postgres or memory)
before every command and saved again after commands that change it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Output results as JSON")
	cmd.PersistentFlags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the command")

	cmd.AddCommand(
		seedCmd(opts),
		dashboardCmd(opts),
		clientCmd(opts),
		projectCmd(opts),
		requirementCmd(opts),
		taskCmd(opts),
		documentCmd(opts),
		outreachCmd(opts),
		reportCmd(opts),
		searchCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}
