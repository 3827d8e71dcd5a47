// Package pantry carries project-level metadata for the pantry module.
package pantry

// Version is the module version reported by the CLI.
const Version = "0.1.0"
