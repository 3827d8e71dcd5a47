// Package types defines the entity identity contract, the repository
// capability tiers, the change-notification capability, the backend Config,
// and the standard error values for the pantry storage system.
package types
