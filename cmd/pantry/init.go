// Init command for the pantry CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/paths"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize pantry storage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Config dir and default config.yaml were created by
		// PersistentPreRunE; constructing the store creates the data dir.
		if _, err := noteStore(); err != nil {
			return err
		}
		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return err
		}
		dataDir, err := paths.ResolveDataDir(flagDataDir, configDataDir)
		if err != nil {
			return err
		}
		fmt.Println("Pantry initialized successfully")
		fmt.Println("  config:", configDir)
		fmt.Println("  data:  ", dataDir)
		fmt.Println("  backend:", configBackend)
		return nil
	},
}
