package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/argonaut-labs/mentorcore/internal/mentor"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate Mentor Response Core configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mentor.LoadConfigFile(configPath)
			if err != nil {
				return err
			}
			return toml.NewEncoder(os.Stdout).Encode(cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path passed via --config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("no --config path set, running on built-in defaults")
			}
			fmt.Println(configPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load the config file and report whether it parses and a Core can be built from it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mentor.LoadConfigFile(configPath)
			if err != nil {
				return err
			}
			logger, err := newLogger(devLogging)
			if err != nil {
				return err
			}
			defer logger.Sync()
			if _, err := mentor.NewCore(cfg, nil, logger); err != nil {
				return fmt.Errorf("config loads but core construction failed: %w", err)
			}
			fmt.Println("config OK")
			return nil
		},
	})

	return cmd
}
