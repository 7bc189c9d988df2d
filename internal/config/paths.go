// Package config manages modslayer's data directory layout.
//
// The data directory holds the mod registry (mods.json), the path catalog
// (config.toml) and the session lock. Its location follows platform
// conventions and can be overridden with the MODSLAYER_ROOT environment
// variable or the --root flag.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppName is the application name used for the default data directory.
const AppName = "modslayer"

// RootEnv is the environment variable that overrides the data directory.
const RootEnv = "MODSLAYER_ROOT"

// Paths contains all the filesystem paths used by modslayer.
type Paths struct {
	// Root is the base directory for all modslayer data
	Root string

	// Registry is the JSON file holding the installed mod records
	Registry string

	// Config is the TOML file holding the path catalog
	Config string

	// Lock is the file locked for the lifetime of a session
	Lock string
}

// DefaultPaths returns the default paths for modslayer.
// MODSLAYER_ROOT, when set, replaces the platform config directory.
func DefaultPaths() (*Paths, error) {
	if root := os.Getenv(RootEnv); root != "" {
		return PathsAt(root), nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return PathsAt(filepath.Join(dir, AppName)), nil
}

// PathsAt returns the paths rooted at root.
func PathsAt(root string) *Paths {
	return &Paths{
		Root:     root,
		Registry: filepath.Join(root, "mods.json"),
		Config:   filepath.Join(root, "config.toml"),
		Lock:     filepath.Join(root, ".lock"),
	}
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.Root, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.Root, err)
	}
	return nil
}
