// Package main provides the pantry CLI: a small note keeper built on the
// pantry store registry, demonstrating write-through persistence over the
// jsonfile and sqlite backends.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}
