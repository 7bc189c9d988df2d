// Package installer moves mod payloads in and out of the mods folder and
// keeps the registry in step with what is on disk.
//
// Install copies the payload first and registers it second; if either step
// fails, the partial payload is removed so no orphan is left behind.
// Uninstall deletes the payload first and deregisters it second; if deletion
// fails the record is kept so the user can retry.
package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danieljhkim/modslayer/internal/clock"
	"github.com/danieljhkim/modslayer/internal/fsops"
	"github.com/danieljhkim/modslayer/internal/hash"
	"github.com/danieljhkim/modslayer/internal/moderr"
	"github.com/danieljhkim/modslayer/internal/registry"
)

// Installer performs install and uninstall transactions against one
// registry and mods folder.
type Installer struct {
	fs     fsops.FS
	reg    *registry.Registry
	hasher hash.Hasher
	clock  clock.Clock
}

// New creates a new Installer with the given dependencies.
func New(fs fsops.FS, reg *registry.Registry, hasher hash.Hasher, clk clock.Clock) *Installer {
	return &Installer{
		fs:     fs,
		reg:    reg,
		hasher: hasher,
		clock:  clk,
	}
}

// InstallFile copies a single file into modsFolder and registers it at the
// end of the load order.
func (in *Installer) InstallFile(modsFolder, src string) (registry.ModRecord, error) {
	return in.install("install file", modsFolder, src, registry.KindFile)
}

// InstallFolder copies a directory tree into modsFolder and registers it at
// the end of the load order.
func (in *Installer) InstallFolder(modsFolder, src string) (registry.ModRecord, error) {
	return in.install("install folder", modsFolder, src, registry.KindFolder)
}

func (in *Installer) install(op, modsFolder, src string, kind registry.Kind) (registry.ModRecord, error) {
	if err := in.checkModsFolder(op, modsFolder); err != nil {
		return registry.ModRecord{}, err
	}

	src = filepath.Clean(src)
	if err := in.checkSource(op, src, kind); err != nil {
		return registry.ModRecord{}, err
	}
	if kind == registry.KindFolder && within(modsFolder, src) {
		return registry.ModRecord{}, moderr.Errorf(moderr.ErrInstall, op, src, "mods folder %s is inside the source folder", modsFolder)
	}

	name := filepath.Base(src)
	if err := in.fs.ValidateName(name); err != nil {
		return registry.ModRecord{}, moderr.New(moderr.ErrInstall, op, src, err)
	}
	if _, ok := in.reg.FindByPath(name); ok {
		return registry.ModRecord{}, moderr.Errorf(moderr.ErrDuplicatePath, op, name, "a mod with this name is already installed")
	}

	dst := filepath.Join(modsFolder, name)
	exists, err := in.fs.Exists(dst)
	if err != nil {
		return registry.ModRecord{}, moderr.New(moderr.ErrInstall, op, dst, err)
	}
	if exists {
		return registry.ModRecord{}, moderr.Errorf(moderr.ErrDuplicatePath, op, dst, "destination already exists")
	}

	if err := in.fs.Copy(src, dst); err != nil {
		return registry.ModRecord{}, in.abort(op, dst, moderr.New(moderr.ErrInstall, op, dst, err))
	}

	sum, err := in.digest(dst, kind)
	if err != nil {
		return registry.ModRecord{}, in.abort(op, dst, moderr.New(moderr.ErrInstall, op, dst, err))
	}

	rec, err := in.reg.Add(registry.ModRecord{
		Name:         registry.DisplayName(src, kind),
		RelativePath: name,
		OriginalPath: src,
		Enabled:      true,
		Kind:         kind,
		InstalledAt:  in.clock.Now(),
		Checksum:     sum,
	})
	if err != nil {
		return registry.ModRecord{}, in.abort(op, dst, err)
	}

	return rec, nil
}

// abort removes a partially installed payload and returns cause, extended
// with the cleanup failure if the payload could not be removed.
func (in *Installer) abort(op, dst string, cause error) error {
	if err := in.fs.RemoveAll(dst); err != nil {
		return errors.Join(cause, moderr.New(moderr.ErrInstall, op, dst, fmt.Errorf("failed to remove partial payload: %w", err)))
	}
	return cause
}

// UninstallResult describes a completed uninstall.
type UninstallResult struct {
	// Record is the registry entry that was removed
	Record registry.ModRecord

	// PayloadMissing is true if the payload was already gone from disk
	PayloadMissing bool
}

// Uninstall deletes the payload of the mod with the given id and then
// removes its record. A payload that is already absent is tolerated; a file
// mod whose payload has become a directory is refused and keeps its record.
func (in *Installer) Uninstall(modsFolder string, id int) (*UninstallResult, error) {
	const op = "uninstall"

	rec, err := in.reg.Get(id)
	if err != nil {
		return nil, err
	}
	if modsFolder == "" {
		return nil, moderr.Errorf(moderr.ErrConfiguration, op, "", "mods folder is not set")
	}
	if err := in.fs.ValidateRelPath(rec.RelativePath); err != nil {
		return nil, moderr.New(moderr.ErrInstall, op, rec.RelativePath, err)
	}

	result := &UninstallResult{Record: rec}
	path := filepath.Join(modsFolder, rec.RelativePath)
	exists, err := in.fs.Exists(path)
	if err != nil {
		return nil, moderr.New(moderr.ErrInstall, op, path, err)
	}

	if !exists {
		result.PayloadMissing = true
	} else if err := in.removePayload(op, path, rec.Kind); err != nil {
		return nil, err
	}

	if err := in.reg.Remove(id); err != nil {
		return nil, err
	}
	return result, nil
}

// removePayload deletes a single file for a file mod and the whole tree for a
// folder mod. A file mod whose path is now a directory is left alone.
func (in *Installer) removePayload(op, path string, kind registry.Kind) error {
	if kind == registry.KindFolder {
		if err := in.fs.RemoveAll(path); err != nil {
			return moderr.New(moderr.ErrInstall, op, path, err)
		}
		return nil
	}

	info, err := in.fs.Lstat(path)
	if err != nil {
		return moderr.New(moderr.ErrInstall, op, path, err)
	}
	if info.IsDir() {
		return moderr.Errorf(moderr.ErrInstall, op, path, "file mod payload is a directory")
	}
	if err := in.fs.Remove(path); err != nil {
		return moderr.New(moderr.ErrInstall, op, path, err)
	}
	return nil
}

// Status is the outcome of verifying one installed payload.
type Status string

const (
	// StatusOK means the payload matches its install-time checksum.
	StatusOK Status = "ok"
	// StatusMissing means the payload is no longer on disk.
	StatusMissing Status = "missing"
	// StatusModified means the payload changed since it was installed.
	StatusModified Status = "modified"
	// StatusUnverified means no checksum was recorded for the payload.
	StatusUnverified Status = "unverified"
)

// Check is the verification result for one record.
type Check struct {
	Record registry.ModRecord `json:"mod"`
	Status Status             `json:"status"`
}

// Verify compares every installed payload against its recorded checksum.
// Results follow the load order.
func (in *Installer) Verify(modsFolder string) ([]Check, error) {
	const op = "verify"

	if modsFolder == "" {
		return nil, moderr.Errorf(moderr.ErrConfiguration, op, "", "mods folder is not set")
	}

	records := in.reg.List()
	checks := make([]Check, 0, len(records))
	for _, rec := range records {
		path := filepath.Join(modsFolder, rec.RelativePath)
		exists, err := in.fs.Exists(path)
		if err != nil {
			return nil, moderr.New(moderr.ErrInstall, op, path, err)
		}

		check := Check{Record: rec}
		switch {
		case !exists:
			check.Status = StatusMissing
		case rec.Checksum == "":
			check.Status = StatusUnverified
		default:
			sum, err := in.digest(path, rec.Kind)
			if err != nil {
				return nil, moderr.New(moderr.ErrInstall, op, path, err)
			}
			check.Status = StatusOK
			if sum != rec.Checksum {
				check.Status = StatusModified
			}
		}
		checks = append(checks, check)
	}
	return checks, nil
}

// Rehash records the current digest of an installed payload as its
// checksum, accepting whatever changes were made to it since install.
func (in *Installer) Rehash(modsFolder string, id int) (registry.ModRecord, error) {
	const op = "rehash"

	rec, err := in.reg.Get(id)
	if err != nil {
		return registry.ModRecord{}, err
	}
	if modsFolder == "" {
		return registry.ModRecord{}, moderr.Errorf(moderr.ErrConfiguration, op, "", "mods folder is not set")
	}

	path := filepath.Join(modsFolder, rec.RelativePath)
	sum, err := in.digest(path, rec.Kind)
	if err != nil {
		return registry.ModRecord{}, moderr.New(moderr.ErrInstall, op, path, err)
	}
	if err := in.reg.SetChecksum(id, sum); err != nil {
		return registry.ModRecord{}, err
	}
	return in.reg.Get(id)
}

func (in *Installer) digest(path string, kind registry.Kind) (string, error) {
	if kind == registry.KindFolder {
		return in.hasher.HashTree(path)
	}
	return in.hasher.HashFile(path)
}

func (in *Installer) checkModsFolder(op, modsFolder string) error {
	if modsFolder == "" {
		return moderr.Errorf(moderr.ErrConfiguration, op, "", "mods folder is not set")
	}
	info, err := in.fs.Stat(modsFolder)
	if err != nil {
		if os.IsNotExist(err) {
			return moderr.Errorf(moderr.ErrConfiguration, op, modsFolder, "mods folder does not exist")
		}
		return moderr.New(moderr.ErrConfiguration, op, modsFolder, err)
	}
	if !info.IsDir() {
		return moderr.Errorf(moderr.ErrConfiguration, op, modsFolder, "mods folder is not a directory")
	}
	mode := fsops.AccessRead | fsops.AccessWrite | fsops.AccessExec
	if err := in.fs.Access(modsFolder, mode); err != nil {
		return moderr.New(moderr.ErrPermission, op, modsFolder, fmt.Errorf("need %s access: %w", mode, err))
	}
	return nil
}

func (in *Installer) checkSource(op, src string, kind registry.Kind) error {
	info, err := in.fs.Stat(src)
	if err != nil {
		return moderr.New(moderr.ErrInstall, op, src, err)
	}

	mode := fsops.AccessRead
	switch {
	case kind == registry.KindFolder && !info.IsDir():
		return moderr.Errorf(moderr.ErrInstall, op, src, "not a directory")
	case kind == registry.KindFile && info.IsDir():
		return moderr.Errorf(moderr.ErrInstall, op, src, "is a directory")
	case kind == registry.KindFolder:
		mode |= fsops.AccessExec
	}

	if err := in.fs.Access(src, mode); err != nil {
		return moderr.New(moderr.ErrPermission, op, src, fmt.Errorf("need %s access: %w", mode, err))
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
