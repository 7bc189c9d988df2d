package engine

import (
	"github.com/danieljhkim/modslayer/internal/installer"
	"github.com/danieljhkim/modslayer/internal/launch"
	"github.com/danieljhkim/modslayer/internal/registry"
)

// AddModRequest represents a request to install a mod.
type AddModRequest struct {
	// Path is the source file or folder to install
	Path string

	// Folder installs Path as a directory tree instead of a single file
	Folder bool
}

// AddModResult represents the result of installing a mod.
type AddModResult struct {
	// Record is the new registry entry
	Record registry.ModRecord

	// Warnings lists non-fatal problems that followed the install
	Warnings []string
}

// RemoveModResult represents the result of uninstalling a mod.
type RemoveModResult struct {
	// Record is the removed registry entry
	Record registry.ModRecord `json:"mod"`

	// PayloadMissing is true if the payload had already been deleted
	PayloadMissing bool `json:"payload_missing"`
}

// LaunchRequest represents a request to start the game.
type LaunchRequest struct {
	// Chooser answers indirect-launch and executable questions
	Chooser launch.Chooser

	// DryRun resolves the launch without starting anything
	DryRun bool
}

// LaunchResult represents a resolved, and unless DryRun started, launch.
type LaunchResult struct {
	// Plan is how the game was (or would be) started
	Plan *launch.Plan `json:"plan"`

	// Started is false for dry runs
	Started bool `json:"started"`
}

// VerifyResult represents the outcome of checking every installed payload.
type VerifyResult struct {
	// Checks holds one entry per record in load order
	Checks []installer.Check `json:"checks"`

	// Problems counts checks that are not ok
	Problems int `json:"problems"`

	// Updated counts checksums re-recorded by UpdateChecksums
	Updated int `json:"updated,omitempty"`
}

// LoadOrder is an exportable snapshot of the configured paths and the
// installed mods.
type LoadOrder struct {
	GamePath   string        `json:"game_path,omitempty" yaml:"game_path,omitempty"`
	ModsFolder string        `json:"mods_folder,omitempty" yaml:"mods_folder,omitempty"`
	Mods       []ExportedMod `json:"mods" yaml:"mods"`
}

// ExportedMod is one entry of a LoadOrder.
type ExportedMod struct {
	Priority int    `json:"priority" yaml:"priority"`
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Path     string `json:"path" yaml:"path"`
	Kind     string `json:"type" yaml:"type"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Checksum string `json:"checksum,omitempty" yaml:"checksum,omitempty"`
}
