// Add command creates a new note.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/notes"
)

var addPinned bool

var addCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Create a new note",
	Long: `Add creates a note and persists it write-through to the configured
backend, which assigns the note's key.

Example:
  pantry add "restock the flour"
  pantry add "call the plumber" --pinned
  pantry add "weekly review" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().BoolVar(&addPinned, "pinned", false, "create the note pinned")
}

func runAdd(cmd *cobra.Command, args []string) error {
	st, err := noteStore()
	if err != nil {
		return err
	}
	note, err := notes.New(args[0])
	if err != nil {
		return err
	}
	note.Pinned = addPinned

	added, err := st.Add(note)
	if err != nil {
		return fmt.Errorf("add note: %w", err)
	}
	if !added {
		return fmt.Errorf("note already present")
	}

	if flagJSON {
		out, err := json.Marshal(note)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	fmt.Printf("Added note %d\n", note.ID)
	return nil
}
