/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/tabula/pkg/config"
	"github.com/ssargent/tabula/pkg/di"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with a generated API key",
	Long: `Write a default tabula configuration file.

This command will:
- Create the configuration directory
- Generate an API key for the REST server
- Record the data directory for the catalog and indexes

Examples:
  tabula init
  tabula init --config ./tabula.yaml --data-dir ./data --force`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The config file may not exist yet
		cfg := config.DefaultConfig()
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
		}
		if container == nil {
			container = di.NewContainer()
		}
		container.Configure(cfg, nil)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		path := configPath
		if path == "" {
			path = config.GetDefaultConfigPath()
		}
		if config.ConfigExists(path) && !force {
			return fmt.Errorf("config already exists at %s, use --force to overwrite", path)
		}

		cfg, err := config.BootstrapConfig(path, container.Config().DataDir)
		if err != nil {
			return err
		}

		cmd.Printf("Configuration written to %s\n", path)
		cmd.Printf("Data directory: %s\n", cfg.DataDir)
		cmd.Printf("API key: %s\n", cfg.Security.APIKey)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
}
