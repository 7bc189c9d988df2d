package installer

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/danieljhkim/modslayer/internal/clock"
	"github.com/danieljhkim/modslayer/internal/fsops"
	"github.com/danieljhkim/modslayer/internal/hash"
	"github.com/danieljhkim/modslayer/internal/moderr"
	"github.com/danieljhkim/modslayer/internal/registry"
)

// memStore is an in-memory registry.Store that can be told to fail saves.
type memStore struct {
	saved    []registry.ModRecord
	failSave bool
}

func (m *memStore) Load() ([]registry.ModRecord, error) {
	return slices.Clone(m.saved), nil
}

func (m *memStore) Save(records []registry.ModRecord) error {
	if m.failSave {
		return errors.New("disk full")
	}
	m.saved = slices.Clone(records)
	return nil
}

// failingFS wraps RealFS and injects failures into copies and removals.
type failingFS struct {
	*fsops.RealFS

	// failCopy makes Copy write partial output and then fail
	failCopy bool

	// failRemove makes Remove and RemoveAll fail without touching the disk
	failRemove bool
}

func (f *failingFS) Copy(src, dst string) error {
	if !f.failCopy {
		return f.RealFS.Copy(src, dst)
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	partial := dst
	if info.IsDir() {
		if err := os.MkdirAll(dst, 0755); err != nil {
			return err
		}
		partial = filepath.Join(dst, "partial.bin")
	}
	if err := os.WriteFile(partial, []byte("trunc"), 0644); err != nil {
		return err
	}
	return errors.New("device full")
}

func (f *failingFS) Remove(path string) error {
	if f.failRemove {
		return errors.New("resource busy")
	}
	return f.RealFS.Remove(path)
}

func (f *failingFS) RemoveAll(path string) error {
	if f.failRemove {
		return errors.New("resource busy")
	}
	return f.RealFS.RemoveAll(path)
}

type fixture struct {
	fs         *failingFS
	store      *memStore
	reg        *registry.Registry
	inst       *Installer
	modsFolder string
	srcDir     string
}

var installTime = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		fs:         &failingFS{RealFS: fsops.NewRealFS()},
		store:      &memStore{},
		modsFolder: filepath.Join(t.TempDir(), "mods"),
		srcDir:     t.TempDir(),
	}
	if err := os.Mkdir(f.modsFolder, 0755); err != nil {
		t.Fatalf("failed to create mods folder: %v", err)
	}
	reg, err := registry.Load(f.store)
	if err != nil {
		t.Fatalf("registry.Load() error = %v", err)
	}
	f.reg = reg
	f.inst = New(f.fs, reg, hash.NewSHA256Hasher(), clock.NewFakeClock(installTime))
	return f
}

func (f *fixture) writeSource(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.srcDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func (f *fixture) modsEntries(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.modsFolder)
	if err != nil {
		t.Fatalf("failed to read mods folder: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestInstallFile(t *testing.T) {
	f := newFixture(t)
	src := f.writeSource(t, "SkyUI_5_2.7z", "archive bytes")

	rec, err := f.inst.InstallFile(f.modsFolder, src)
	if err != nil {
		t.Fatalf("InstallFile() error = %v", err)
	}

	if rec.Name != "SkyUI_5_2" || rec.RelativePath != "SkyUI_5_2.7z" || rec.Kind != registry.KindFile {
		t.Errorf("record = %+v", rec)
	}
	if rec.OriginalPath != src || !rec.Enabled || rec.Priority != 0 {
		t.Errorf("record = %+v", rec)
	}
	if !rec.InstalledAt.Equal(installTime) {
		t.Errorf("InstalledAt = %v, want %v", rec.InstalledAt, installTime)
	}
	want, _ := hash.NewSHA256Hasher().HashFile(src)
	if rec.Checksum != want {
		t.Errorf("Checksum = %q, want %q", rec.Checksum, want)
	}

	data, err := os.ReadFile(filepath.Join(f.modsFolder, "SkyUI_5_2.7z"))
	if err != nil || string(data) != "archive bytes" {
		t.Errorf("payload = %q, %v", data, err)
	}
	if len(f.store.saved) != 1 {
		t.Errorf("store has %d records, want 1", len(f.store.saved))
	}
}

func TestInstallFolder(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "Textures/meshes/a.nif", "mesh")
	f.writeSource(t, "Textures/readme.txt", "hi")
	src := filepath.Join(f.srcDir, "Textures")

	rec, err := f.inst.InstallFolder(f.modsFolder, src)
	if err != nil {
		t.Fatalf("InstallFolder() error = %v", err)
	}
	if rec.Name != "Textures" || rec.Kind != registry.KindFolder {
		t.Errorf("record = %+v", rec)
	}

	data, err := os.ReadFile(filepath.Join(f.modsFolder, "Textures", "meshes", "a.nif"))
	if err != nil || string(data) != "mesh" {
		t.Errorf("nested payload = %q, %v", data, err)
	}
	want, _ := hash.NewSHA256Hasher().HashTree(src)
	if rec.Checksum != want {
		t.Errorf("Checksum = %q, want tree digest %q", rec.Checksum, want)
	}
}

func TestInstall_PreconditionErrors(t *testing.T) {
	f := newFixture(t)
	file := f.writeSource(t, "mod.zip", "x")
	f.writeSource(t, "Pack/a.txt", "a")
	folder := filepath.Join(f.srcDir, "Pack")

	tests := []struct {
		name       string
		modsFolder string
		install    func(*Installer, string, string) (registry.ModRecord, error)
		src        string
		want       error
	}{
		{"mods folder unset", "", (*Installer).InstallFile, file, moderr.ErrConfiguration},
		{"mods folder missing", filepath.Join(f.srcDir, "nope"), (*Installer).InstallFile, file, moderr.ErrConfiguration},
		{"mods folder is a file", file, (*Installer).InstallFile, file, moderr.ErrConfiguration},
		{"source missing", f.modsFolder, (*Installer).InstallFile, filepath.Join(f.srcDir, "gone.zip"), moderr.ErrInstall},
		{"file install of folder", f.modsFolder, (*Installer).InstallFile, folder, moderr.ErrInstall},
		{"folder install of file", f.modsFolder, (*Installer).InstallFolder, file, moderr.ErrInstall},
		{"mods folder inside source", f.modsFolder, (*Installer).InstallFolder, filepath.Dir(f.modsFolder), moderr.ErrInstall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.install(f.inst, tt.modsFolder, tt.src)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if f.reg.Len() != 0 {
				t.Errorf("registry has %d records after failed install", f.reg.Len())
			}
		})
	}
}

func TestInstall_DuplicatePath(t *testing.T) {
	f := newFixture(t)
	src := f.writeSource(t, "A.zip", "first")
	if _, err := f.inst.InstallFile(f.modsFolder, src); err != nil {
		t.Fatalf("InstallFile() error = %v", err)
	}

	// Same basename from a different directory.
	other := f.writeSource(t, "other/A.zip", "second")
	if _, err := f.inst.InstallFile(f.modsFolder, other); !errors.Is(err, moderr.ErrDuplicatePath) {
		t.Fatalf("error = %v, want ErrDuplicatePath", err)
	}

	// An unregistered file already in the mods folder is never overwritten.
	if err := os.WriteFile(filepath.Join(f.modsFolder, "B.zip"), []byte("manual"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	b := f.writeSource(t, "B.zip", "installer")
	if _, err := f.inst.InstallFile(f.modsFolder, b); !errors.Is(err, moderr.ErrDuplicatePath) {
		t.Fatalf("error = %v, want ErrDuplicatePath", err)
	}
	data, _ := os.ReadFile(filepath.Join(f.modsFolder, "B.zip"))
	if string(data) != "manual" {
		t.Errorf("existing payload overwritten: %q", data)
	}

	data, _ = os.ReadFile(filepath.Join(f.modsFolder, "A.zip"))
	if string(data) != "first" {
		t.Errorf("registered payload overwritten: %q", data)
	}
	if f.reg.Len() != 1 {
		t.Errorf("registry has %d records, want 1", f.reg.Len())
	}
}

func TestInstall_NoOrphanOnCopyFailure(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*testing.T, *fixture) string
		install func(*Installer, string, string) (registry.ModRecord, error)
	}{
		{
			name:    "file",
			setup:   func(t *testing.T, f *fixture) string { return f.writeSource(t, "A.zip", "payload") },
			install: (*Installer).InstallFile,
		},
		{
			name: "folder",
			setup: func(t *testing.T, f *fixture) string {
				f.writeSource(t, "B/x.esp", "x")
				return filepath.Join(f.srcDir, "B")
			},
			install: (*Installer).InstallFolder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			src := tt.setup(t, f)
			f.fs.failCopy = true

			if _, err := tt.install(f.inst, f.modsFolder, src); !errors.Is(err, moderr.ErrInstall) {
				t.Fatalf("error = %v, want ErrInstall", err)
			}
			if entries := f.modsEntries(t); len(entries) != 0 {
				t.Errorf("mods folder not cleaned up: %v", entries)
			}
			if f.reg.Len() != 0 || len(f.store.saved) != 0 {
				t.Error("record created for failed copy")
			}
		})
	}
}

func TestInstall_NoOrphanOnRegistryFailure(t *testing.T) {
	f := newFixture(t)
	src := f.writeSource(t, "A.zip", "payload")
	f.store.failSave = true

	_, err := f.inst.InstallFile(f.modsFolder, src)
	if !errors.Is(err, moderr.ErrPersistence) {
		t.Fatalf("error = %v, want ErrPersistence", err)
	}
	if entries := f.modsEntries(t); len(entries) != 0 {
		t.Errorf("payload left behind: %v", entries)
	}
	if f.reg.Len() != 0 {
		t.Error("registry kept record after failed save")
	}
}

func TestInstall_CleanupFailureIsReported(t *testing.T) {
	f := newFixture(t)
	src := f.writeSource(t, "A.zip", "payload")
	f.fs.failCopy = true
	f.fs.failRemove = true

	_, err := f.inst.InstallFile(f.modsFolder, src)
	if !errors.Is(err, moderr.ErrInstall) {
		t.Fatalf("error = %v, want ErrInstall", err)
	}
	var merr *moderr.Error
	if !errors.As(err, &merr) {
		t.Fatalf("error %v is not a *moderr.Error", err)
	}
}

func TestUninstall(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "B/x.esp", "x")
	a, err := f.inst.InstallFile(f.modsFolder, f.writeSource(t, "A.zip", "a"))
	if err != nil {
		t.Fatalf("InstallFile() error = %v", err)
	}
	b, err := f.inst.InstallFolder(f.modsFolder, filepath.Join(f.srcDir, "B"))
	if err != nil {
		t.Fatalf("InstallFolder() error = %v", err)
	}

	res, err := f.inst.Uninstall(f.modsFolder, b.ID)
	if err != nil {
		t.Fatalf("Uninstall() error = %v", err)
	}
	if res.PayloadMissing || res.Record.ID != b.ID {
		t.Errorf("result = %+v", res)
	}
	if got := f.modsEntries(t); !slices.Equal(got, []string{"A.zip"}) {
		t.Errorf("mods folder = %v, want [A.zip]", got)
	}

	list := f.reg.List()
	if len(list) != 1 || list[0].ID != a.ID || list[0].Priority != 0 {
		t.Errorf("registry = %+v", list)
	}

	if _, err := f.inst.Uninstall(f.modsFolder, b.ID); !errors.Is(err, moderr.ErrNotFound) {
		t.Errorf("second Uninstall() error = %v, want ErrNotFound", err)
	}
}

func TestUninstall_PayloadAlreadyGone(t *testing.T) {
	f := newFixture(t)
	rec, err := f.inst.InstallFile(f.modsFolder, f.writeSource(t, "A.zip", "a"))
	if err != nil {
		t.Fatalf("InstallFile() error = %v", err)
	}
	if err := os.Remove(filepath.Join(f.modsFolder, "A.zip")); err != nil {
		t.Fatalf("failed to remove payload: %v", err)
	}

	res, err := f.inst.Uninstall(f.modsFolder, rec.ID)
	if err != nil {
		t.Fatalf("Uninstall() error = %v", err)
	}
	if !res.PayloadMissing {
		t.Error("PayloadMissing = false, want true")
	}
	if f.reg.Len() != 0 {
		t.Error("record not removed")
	}
}

func TestUninstall_RemoveFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	rec, err := f.inst.InstallFile(f.modsFolder, f.writeSource(t, "A.zip", "a"))
	if err != nil {
		t.Fatalf("InstallFile() error = %v", err)
	}
	f.fs.failRemove = true

	if _, err := f.inst.Uninstall(f.modsFolder, rec.ID); !errors.Is(err, moderr.ErrInstall) {
		t.Fatalf("error = %v, want ErrInstall", err)
	}
	if _, err := f.reg.Get(rec.ID); err != nil {
		t.Errorf("record removed despite failed delete: %v", err)
	}
}

func TestUninstall_FileModReplacedByDirectory(t *testing.T) {
	f := newFixture(t)
	rec, err := f.inst.InstallFile(f.modsFolder, f.writeSource(t, "A.zip", "a"))
	if err != nil {
		t.Fatalf("InstallFile() error = %v", err)
	}

	payload := filepath.Join(f.modsFolder, "A.zip")
	if err := os.Remove(payload); err != nil {
		t.Fatalf("failed to remove payload: %v", err)
	}
	keep := filepath.Join(payload, "sub", "keep.txt")
	if err := os.MkdirAll(filepath.Dir(keep), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(keep, []byte("keep"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := f.inst.Uninstall(f.modsFolder, rec.ID); !errors.Is(err, moderr.ErrInstall) {
		t.Fatalf("error = %v, want ErrInstall", err)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("directory contents removed: %v", err)
	}
	if _, err := f.reg.Get(rec.ID); err != nil {
		t.Errorf("record removed despite refused delete: %v", err)
	}
}

func TestUninstall_MissingModsFolder(t *testing.T) {
	f := newFixture(t)
	rec, err := f.inst.InstallFile(f.modsFolder, f.writeSource(t, "A.zip", "a"))
	if err != nil {
		t.Fatalf("InstallFile() error = %v", err)
	}
	if _, err := f.inst.Uninstall("", rec.ID); !errors.Is(err, moderr.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "C/data.bin", "c")

	a, _ := f.inst.InstallFile(f.modsFolder, f.writeSource(t, "A.zip", "a"))
	b, _ := f.inst.InstallFile(f.modsFolder, f.writeSource(t, "B.zip", "b"))
	c, _ := f.inst.InstallFolder(f.modsFolder, filepath.Join(f.srcDir, "C"))
	if f.reg.Len() != 3 {
		t.Fatalf("setup installed %d mods", f.reg.Len())
	}

	if err := os.Remove(filepath.Join(f.modsFolder, "B.zip")); err != nil {
		t.Fatalf("failed to remove payload: %v", err)
	}
	if err := os.WriteFile(filepath.Join(f.modsFolder, "C", "data.bin"), []byte("edited"), 0644); err != nil {
		t.Fatalf("failed to edit payload: %v", err)
	}

	checks, err := f.inst.Verify(f.modsFolder)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	want := map[int]Status{a.ID: StatusOK, b.ID: StatusMissing, c.ID: StatusModified}
	if len(checks) != len(want) {
		t.Fatalf("got %d checks, want %d", len(checks), len(want))
	}
	for _, check := range checks {
		if check.Status != want[check.Record.ID] {
			t.Errorf("mod %s: status %s, want %s", check.Record.RelativePath, check.Status, want[check.Record.ID])
		}
	}
}

func TestRehash(t *testing.T) {
	f := newFixture(t)
	rec, err := f.inst.InstallFile(f.modsFolder, f.writeSource(t, "A.zip", "a"))
	if err != nil {
		t.Fatalf("InstallFile() error = %v", err)
	}

	payload := filepath.Join(f.modsFolder, "A.zip")
	if err := os.WriteFile(payload, []byte("patched"), 0644); err != nil {
		t.Fatalf("failed to edit payload: %v", err)
	}

	updated, err := f.inst.Rehash(f.modsFolder, rec.ID)
	if err != nil {
		t.Fatalf("Rehash() error = %v", err)
	}
	if updated.Checksum == rec.Checksum {
		t.Error("checksum should change after rehash")
	}
	if f.store.saved[0].Checksum != updated.Checksum {
		t.Error("new checksum was not persisted")
	}

	checks, err := f.inst.Verify(f.modsFolder)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if checks[0].Status != StatusOK {
		t.Errorf("status after rehash = %s, want ok", checks[0].Status)
	}

	if err := os.Remove(payload); err != nil {
		t.Fatalf("failed to remove payload: %v", err)
	}
	if _, err := f.inst.Rehash(f.modsFolder, rec.ID); !errors.Is(err, moderr.ErrInstall) {
		t.Errorf("Rehash() of missing payload error = %v, want ErrInstall", err)
	}
	if _, err := f.inst.Rehash(f.modsFolder, 42); !errors.Is(err, moderr.ErrNotFound) {
		t.Errorf("Rehash() of unknown id error = %v, want ErrNotFound", err)
	}
}

func TestWithin(t *testing.T) {
	sep := string(filepath.Separator)
	tests := []struct {
		path, dir string
		want      bool
	}{
		{sep + "a", sep + "a", true},
		{sep + filepath.Join("a", "b"), sep + "a", true},
		{sep + "ab", sep + "a", false},
		{sep + "b", sep + "a", false},
	}
	for _, tt := range tests {
		if got := within(tt.path, tt.dir); got != tt.want {
			t.Errorf("within(%q, %q) = %v, want %v", tt.path, tt.dir, got, tt.want)
		}
	}
}
