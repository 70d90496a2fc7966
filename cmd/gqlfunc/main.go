// Command gqlfunc serves a GraphQL endpoint as a serverless function.
//
// In http mode the function route is served directly, which is what an
// Azure Functions custom handler with enableForwardingHttpRequest, a
// container platform, or local development expects. In invocation mode
// the Azure Functions custom handler protocol is spoken instead.
//
// Configuration is read from a YAML file and GQLFUNC_* environment
// variables; see package config. A .env file in the working directory is
// loaded first.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gqlfunc",
		Short: "GraphQL endpoint for serverless function hosts",
		Long: `gqlfunc executes GraphQL requests behind a function host.

Example:
  gqlfunc --mode invocation --log-level debug
  gqlfunc --config ./gqlfunc.yaml`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			opts, err := parseFlags(cmd)
			if err != nil {
				return err
			}
			return run(opts)
		},
	}

	cmd.Flags().StringP("config", "c", "", "Path to configuration file (YAML)")
	cmd.Flags().StringP("log-level", "l", "", "Log level (debug, info, warn, error); overrides the config file")
	cmd.Flags().StringP("mode", "m", "", "Serving mode (http, invocation); overrides the config file")
	return cmd
}

// options are the command line overrides.
type options struct {
	ConfigPath string
	LogLevel   string
	Mode       string
}

func parseFlags(cmd *cobra.Command) (options, error) {
	var opts options
	var err error
	if opts.ConfigPath, err = cmd.Flags().GetString("config"); err != nil {
		return opts, fmt.Errorf("failed to get config flag: %w", err)
	}
	if opts.LogLevel, err = cmd.Flags().GetString("log-level"); err != nil {
		return opts, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	if opts.Mode, err = cmd.Flags().GetString("mode"); err != nil {
		return opts, fmt.Errorf("failed to get mode flag: %w", err)
	}
	return opts, nil
}
