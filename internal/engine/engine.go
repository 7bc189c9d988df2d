// Package engine provides the core operations of modslayer.
//
// The engine is the single surface the CLI talks to. It owns one registry,
// one path catalog and the session lock for the lifetime of a process, and
// coordinates the installer and the launch resolver on top of them.
//
// Key components:
//   - Mods: install, uninstall, enable/disable and reorder
//   - Paths: game path, mods folder, recent and favorite paths
//   - Launch: resolve and start the configured game
//   - Verify/Export: payload integrity and load-order export
package engine

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/modslayer/internal/catalog"
	"github.com/danieljhkim/modslayer/internal/clock"
	"github.com/danieljhkim/modslayer/internal/config"
	"github.com/danieljhkim/modslayer/internal/fsops"
	"github.com/danieljhkim/modslayer/internal/hash"
	"github.com/danieljhkim/modslayer/internal/installer"
	"github.com/danieljhkim/modslayer/internal/launch"
	"github.com/danieljhkim/modslayer/internal/moderr"
	"github.com/danieljhkim/modslayer/internal/registry"
	"github.com/danieljhkim/modslayer/internal/session"
)

// Engine orchestrates all modslayer operations.
// It is the main API surface called by the CLI.
type Engine struct {
	fs          fsops.FS
	registry    *registry.Registry
	catalog     *catalog.Catalog
	installer   *installer.Installer
	resolver    *launch.Resolver
	launcher    *launch.Launcher
	configPaths config.Paths
	lock        *session.Lock
}

// New creates a new Engine, loading the registry and catalog from their
// stores.
func New(
	fs fsops.FS,
	registryStore registry.Store,
	catalogStore catalog.Store,
	hasher hash.Hasher,
	clk clock.Clock,
	spawner launch.Spawner,
	paths config.Paths,
) (*Engine, error) {
	reg, err := registry.Load(registryStore)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load(fs, catalogStore)
	if err != nil {
		return nil, err
	}

	return &Engine{
		fs:          fs,
		registry:    reg,
		catalog:     cat,
		installer:   installer.New(fs, reg, hasher, clk),
		resolver:    launch.NewResolver(fs),
		launcher:    launch.NewLauncher(fs, spawner),
		configPaths: paths,
	}, nil
}

// Open creates the data directory if needed, takes the session lock and
// builds an Engine backed by the files under paths.
// Close must be called to release the lock.
func Open(paths *config.Paths) (*Engine, error) {
	if err := paths.EnsureDirectories(); err != nil {
		return nil, moderr.New(moderr.ErrConfiguration, "open", paths.Root, err)
	}

	lock, err := session.Acquire(paths.Lock)
	if err != nil {
		return nil, err
	}

	fs := fsops.NewRealFS()
	eng, err := New(
		fs,
		registry.NewFileStore(fs, paths.Registry),
		catalog.NewFileStore(fs, paths.Config),
		hash.NewSHA256Hasher(),
		&clock.RealClock{},
		launch.ExecSpawner{},
		*paths,
	)
	if err != nil {
		return nil, errors.Join(err, lock.Release())
	}

	eng.lock = lock
	return eng, nil
}

// Close releases the session lock.
func (e *Engine) Close() error {
	if err := e.lock.Release(); err != nil {
		return fmt.Errorf("failed to release session lock: %w", err)
	}
	return nil
}

// Paths returns the data paths the engine was opened with.
func (e *Engine) Paths() config.Paths {
	return e.configPaths
}

// Warnings returns the problems repaired while loading the registry and
// the catalog.
func (e *Engine) Warnings() []string {
	warnings := e.registry.Warnings()
	for _, w := range e.catalog.Warnings() {
		warnings = append(warnings, "config: "+w)
	}
	return warnings
}
