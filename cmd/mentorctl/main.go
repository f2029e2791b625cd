// Package main is the entrypoint for mentorctl, the Mentor Response
// Core's CLI and MCP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "mentorctl",
		Short: "Run and inspect the Mentor Response Core",
		Long: `mentorctl runs the Mentor Response Core — a hybrid static/generative
advisory server that answers developer questions from a small canned
response bank when it can, and falls through to a local generative model
when it can't.

  mentorctl serve    Start the MCP stdio server
  mentorctl config   Inspect and validate configuration
  mentorctl bench    Load-test an in-process core`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.AddCommand(versionCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(configCmd())
	root.AddCommand(benchCmd())

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file (defaults to built-in defaults)")
	root.PersistentFlags().StringVar(&ollamaURL, "ollama-url", "http://localhost:11434", "Base URL of the Ollama-compatible generative backend")
	root.PersistentFlags().StringVar(&ollamaModel, "ollama-model", "llama3.1", "Model name to request from the generative backend")
	root.PersistentFlags().BoolVar(&devLogging, "dev", false, "Use development (console) logging instead of JSON")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Shared persistent flags, read by each subcommand's buildCore.
var (
	configPath  string
	ollamaURL   string
	ollamaModel string
	devLogging  bool
)

// newLogger mirrors the core's own zap.NewProduction-by-default idiom so
// the CLI's logger matches whatever a Core built in-process would use.
func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mentorctl version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("mentorctl %s\n", Version)
			return nil
		},
	}
}
