// Pin command toggles a note's pinned flag in place. The store's change
// tracking persists the edit; no explicit save happens here.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var pinOff bool

var pinCmd = &cobra.Command{
	Use:   "pin <key>",
	Short: "Pin or unpin a note",
	Long: `Pin marks the note with the given key as pinned. The edit is made
on the in-memory record and reaches the backend through change tracking.

Example:
  pantry pin 3
  pantry pin 3 --off`,
	Args: cobra.ExactArgs(1),
	RunE: runPin,
}

func init() {
	pinCmd.Flags().BoolVar(&pinOff, "off", false, "unpin instead")
}

func runPin(cmd *cobra.Command, args []string) error {
	key, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid key %q", args[0])
	}
	st, err := noteStore()
	if err != nil {
		return err
	}
	for _, note := range st.Items() {
		if note.ID == key {
			note.SetPinned(!pinOff)
			fmt.Printf("Note %d pinned=%v\n", key, !pinOff)
			return nil
		}
	}
	return fmt.Errorf("no note with key %d", key)
}
