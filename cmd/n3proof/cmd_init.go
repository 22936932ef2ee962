package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"n3proof/internal/config"
)

var initForce bool

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a default config file",
	Long:  `Writes the default configuration to --config (n3proof.yaml by default).`,
	Args:  cobra.NoArgs,
	RunE:  runInitConfig,
}

func init() {
	initConfigCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}
	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
	return nil
}
