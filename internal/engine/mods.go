package engine

import (
	"fmt"

	"github.com/danieljhkim/modslayer/internal/catalog"
	"github.com/danieljhkim/modslayer/internal/installer"
	"github.com/danieljhkim/modslayer/internal/registry"
)

// ListMods returns every installed mod in load order.
func (e *Engine) ListMods() []registry.ModRecord {
	return e.registry.List()
}

// EnabledMods returns the enabled mods in load order.
func (e *Engine) EnabledMods() []registry.ModRecord {
	return e.registry.Enabled()
}

// GetMod returns the mod with the given id.
func (e *Engine) GetMod(id int) (registry.ModRecord, error) {
	return e.registry.Get(id)
}

// AddModFromFile installs a single-file mod.
func (e *Engine) AddModFromFile(path string) (*AddModResult, error) {
	return e.AddMod(&AddModRequest{Path: path})
}

// AddModFromFolder installs a folder mod.
func (e *Engine) AddModFromFolder(path string) (*AddModResult, error) {
	return e.AddMod(&AddModRequest{Path: path, Folder: true})
}

// AddMod installs the payload at req.Path into the mods folder, registers
// it at the end of the load order and records the source as a recent file.
func (e *Engine) AddMod(req *AddModRequest) (*AddModResult, error) {
	src, err := resolvePath("add mod", req.Path)
	if err != nil {
		return nil, err
	}

	var rec registry.ModRecord
	if req.Folder {
		rec, err = e.installer.InstallFolder(e.catalog.ModsFolder(), src)
	} else {
		rec, err = e.installer.InstallFile(e.catalog.ModsFolder(), src)
	}
	if err != nil {
		return nil, err
	}

	result := &AddModResult{Record: rec}
	// The mod is installed at this point; a failed history update is reported
	// but does not undo it.
	if err := e.catalog.RecordRecent(catalog.KindFiles, src); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("recent files not updated: %v", err))
	}
	return result, nil
}

// RemoveMod deletes the payload of the mod with the given id and removes it
// from the registry.
func (e *Engine) RemoveMod(id int) (*RemoveModResult, error) {
	res, err := e.installer.Uninstall(e.catalog.ModsFolder(), id)
	if err != nil {
		return nil, err
	}
	return &RemoveModResult{Record: res.Record, PayloadMissing: res.PayloadMissing}, nil
}

// ToggleMod flips the enabled state of a mod and returns the updated record.
func (e *Engine) ToggleMod(id int) (registry.ModRecord, error) {
	return e.registry.Toggle(id)
}

// SetModEnabled sets the enabled state of a mod.
func (e *Engine) SetModEnabled(id int, enabled bool) error {
	return e.registry.SetEnabled(id, enabled)
}

// MoveMod moves a mod one step up or down the load order.
func (e *Engine) MoveMod(id int, dir registry.Direction) error {
	return e.registry.Move(id, dir)
}

// Verify checks every installed payload against its install-time checksum.
func (e *Engine) Verify() (*VerifyResult, error) {
	checks, err := e.installer.Verify(e.catalog.ModsFolder())
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{Checks: checks}
	for _, c := range checks {
		if c.Status != installer.StatusOK {
			result.Problems++
		}
	}
	return result, nil
}

// UpdateChecksums verifies every payload and records the current digest of
// each modified or unverified one, so later checks treat it as ok. Missing
// payloads are left alone and still count as problems.
func (e *Engine) UpdateChecksums() (*VerifyResult, error) {
	result, err := e.Verify()
	if err != nil {
		return nil, err
	}

	for i, c := range result.Checks {
		if c.Status != installer.StatusModified && c.Status != installer.StatusUnverified {
			continue
		}
		rec, err := e.installer.Rehash(e.catalog.ModsFolder(), c.Record.ID)
		if err != nil {
			return nil, err
		}
		result.Checks[i] = installer.Check{Record: rec, Status: installer.StatusOK}
		result.Problems--
		result.Updated++
	}
	return result, nil
}

// Export returns a snapshot of the configured paths and the load order.
func (e *Engine) Export() *LoadOrder {
	records := e.registry.List()
	order := &LoadOrder{
		GamePath:   e.catalog.GamePath(),
		ModsFolder: e.catalog.ModsFolder(),
		Mods:       make([]ExportedMod, 0, len(records)),
	}
	for _, rec := range records {
		order.Mods = append(order.Mods, ExportedMod{
			Priority: rec.Priority,
			ID:       rec.ID,
			Name:     rec.Name,
			Path:     rec.RelativePath,
			Kind:     string(rec.Kind),
			Enabled:  rec.Enabled,
			Checksum: rec.Checksum,
		})
	}
	return order
}
