// List command prints stored notes.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var listPinned bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Long: `List prints every stored note in insertion order.

Example:
  pantry list
  pantry list --pinned
  pantry list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listPinned, "pinned", false, "only pinned notes")
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := noteStore()
	if err != nil {
		return err
	}

	items := st.Items()
	if listPinned {
		filtered := items[:0]
		for _, n := range items {
			if n.Pinned {
				filtered = append(filtered, n)
			}
		}
		items = filtered
	}

	if flagJSON {
		out, err := json.Marshal(items)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	for _, n := range items {
		pin := " "
		if n.Pinned {
			pin = "*"
		}
		fmt.Printf("%4d %s %s\n", n.ID, pin, n.Text)
	}
	return nil
}
