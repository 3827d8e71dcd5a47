// Store access shared by pantry CLI commands.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/pantry/internal/notes"
	"github.com/mesh-intelligence/pantry/internal/paths"
	"github.com/mesh-intelligence/pantry/pkg/jsonfile"
	"github.com/mesh-intelligence/pantry/pkg/registry"
	"github.com/mesh-intelligence/pantry/pkg/sqlite"
	"github.com/mesh-intelligence/pantry/pkg/store"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// reg hands out the process-wide singleton note store and disposes it in
// PersistentPostRunE.
var reg = registry.New(nil)

// noteStore returns the singleton persistent note store, constructing and
// loading it on first use. Change tracking is on, so in-place edits (pin,
// unpin) persist without an explicit store call.
func noteStore() (*store.Persistent[*notes.Note], error) {
	provider, err := noteRepository()
	if err != nil {
		return nil, err
	}
	return registry.GetPersistent(reg, provider, registry.PersistentOptions{
		Singleton:    true,
		TrackChanges: true,
		AutoLoad:     true,
		OnPersistError: func(err error) {
			fmt.Fprintln(os.Stderr, "warning:", err)
		},
	})
}

// noteRepository builds the repository provider selected by config.
func noteRepository() (func() (types.Snapshot[*notes.Note], error), error) {
	dataDir, err := paths.ResolveDataDir(flagDataDir, configDataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{Backend: configBackend, DataDir: dataDir}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fresh := func() *notes.Note { return &notes.Note{} }
	switch cfg.Backend {
	case types.BackendSQLite:
		return func() (types.Snapshot[*notes.Note], error) {
			if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			return sqlite.Open(filepath.Join(cfg.DataDir, "pantry.db"), "notes", fresh)
		}, nil
	default:
		return func() (types.Snapshot[*notes.Note], error) {
			return jsonfile.NewRepository(filepath.Join(cfg.DataDir, "notes.jsonl"), fresh)
		}, nil
	}
}

// closeStores disposes every store the registry handed out.
func closeStores() error {
	return reg.Close()
}
