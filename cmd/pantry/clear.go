// Clear command empties the note store.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := noteStore()
		if err != nil {
			return err
		}
		if err := st.Clear(); err != nil {
			return fmt.Errorf("clear notes: %w", err)
		}
		fmt.Println("Cleared all notes")
		return nil
	},
}
