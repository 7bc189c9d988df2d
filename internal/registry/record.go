package registry

import (
	"path/filepath"
	"strings"
	"time"
)

// Kind determines whether a mod's payload is a single file or a directory tree.
type Kind string

const (
	// KindFile is a single-file payload (archive, plugin, pak).
	KindFile Kind = "file"
	// KindFolder is a directory-tree payload.
	KindFolder Kind = "folder"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindFile || k == KindFolder
}

// ModRecord is one managed mod.
type ModRecord struct {
	// ID is the stable identifier used by every mutating operation
	ID int `json:"id"`

	// Name is the display name derived from the source file or folder
	Name string `json:"name"`

	// RelativePath locates the payload inside the mods folder
	RelativePath string `json:"file_path"`

	// OriginalPath is where the payload was installed from (informational)
	OriginalPath string `json:"original_path,omitempty"`

	// Enabled reports whether the mod takes part in the load order
	Enabled bool `json:"enabled"`

	// Priority is the dense zero-based load position (lower loads first)
	Priority int `json:"priority"`

	// Kind is "file" or "folder"
	Kind Kind `json:"type"`

	// InstalledAt is when the payload was copied into the mods folder
	InstalledAt time.Time `json:"installed_at"`

	// Checksum is the payload digest taken at install time
	Checksum string `json:"checksum,omitempty"`
}

// DisplayName derives a mod name from a source path: the base name, with
// the extension stripped for file payloads.
func DisplayName(path string, kind Kind) string {
	base := filepath.Base(path)
	if kind == KindFolder {
		return base
	}
	if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" {
		return name
	}
	return base
}
