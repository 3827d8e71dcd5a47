// Remove command deletes a note by key.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/notes"
)

var removeCmd = &cobra.Command{
	Use:   "remove <key>",
	Short: "Delete a note",
	Long: `Remove deletes the note with the given key from memory and the
backend.

Example:
  pantry remove 3`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	key, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid key %q", args[0])
	}
	st, err := noteStore()
	if err != nil {
		return err
	}
	n, err := st.RemoveWhere(func(note *notes.Note) bool { return note.ID == key })
	if err != nil {
		return fmt.Errorf("remove note: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no note with key %d", key)
	}
	fmt.Printf("Removed note %d\n", key)
	return nil
}
