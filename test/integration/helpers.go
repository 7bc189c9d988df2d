package integration

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/danieljhkim/modslayer/internal/catalog"
	"github.com/danieljhkim/modslayer/internal/clock"
	"github.com/danieljhkim/modslayer/internal/config"
	"github.com/danieljhkim/modslayer/internal/engine"
	"github.com/danieljhkim/modslayer/internal/fsops"
	"github.com/danieljhkim/modslayer/internal/hash"
	"github.com/danieljhkim/modslayer/internal/registry"
)

// testFS is a filesystem implementation that tracks files in memory for testing
type testFS struct {
	files  map[string][]byte
	dirs   map[string]bool
	modes  map[string]os.FileMode
	denied map[string]fsops.AccessMode
	chmods []string

	// failCopy makes Copy leave a partial destination and fail
	failCopy bool
}

func newTestFS() *testFS {
	fs := &testFS{
		files:  make(map[string][]byte),
		dirs:   make(map[string]bool),
		modes:  make(map[string]os.FileMode),
		denied: make(map[string]fsops.AccessMode),
	}
	fs.dirs["/"] = true
	return fs
}

// addFile creates a file and its parent directories.
func (fs *testFS) addFile(path, content string) {
	_ = fs.MkdirAll(filepath.Dir(path), 0755)
	fs.files[path] = []byte(content)
	fs.modes[path] = 0644
}

func (fs *testFS) Stat(path string) (os.FileInfo, error) {
	return fs.Lstat(path)
}

func (fs *testFS) Lstat(path string) (os.FileInfo, error) {
	if fs.dirs[path] {
		return &mockFileInfo{name: filepath.Base(path), mode: os.ModeDir | 0755, isDir: true}, nil
	}
	if content, ok := fs.files[path]; ok {
		return &mockFileInfo{name: filepath.Base(path), size: int64(len(content)), mode: fs.modes[path]}, nil
	}
	return nil, &os.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
}

func (fs *testFS) ReadDir(path string) ([]os.DirEntry, error) {
	if !fs.dirs[path] {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: os.ErrNotExist}
	}
	var names []string
	for _, p := range fs.paths() {
		if p != path && filepath.Dir(p) == path {
			names = append(names, filepath.Base(p))
		}
	}
	slices.Sort(names)

	entries := make([]os.DirEntry, 0, len(names))
	for _, name := range names {
		info, _ := fs.Lstat(filepath.Join(path, name))
		entries = append(entries, iofs.FileInfoToDirEntry(info))
	}
	return entries, nil
}

func (fs *testFS) MkdirAll(path string, perm os.FileMode) error {
	for p := path; ; p = filepath.Dir(p) {
		if _, isFile := fs.files[p]; isFile {
			return fmt.Errorf("mkdir %s: not a directory", p)
		}
		fs.dirs[p] = true
		if filepath.Dir(p) == p {
			return nil
		}
	}
}

func (fs *testFS) Remove(path string) error {
	if _, ok := fs.files[path]; ok {
		delete(fs.files, path)
		delete(fs.modes, path)
		return nil
	}
	if fs.dirs[path] {
		delete(fs.dirs, path)
		return nil
	}
	return &os.PathError{Op: "remove", Path: path, Err: os.ErrNotExist}
}

func (fs *testFS) RemoveAll(path string) error {
	for _, p := range fs.paths() {
		if p == path || strings.HasPrefix(p, path+string(filepath.Separator)) {
			delete(fs.files, p)
			delete(fs.dirs, p)
			delete(fs.modes, p)
		}
	}
	return nil
}

func (fs *testFS) Copy(src, dst string) error {
	if fs.failCopy {
		fs.files[dst] = []byte("partial")
		return errors.New("device full")
	}

	if content, ok := fs.files[src]; ok {
		_ = fs.MkdirAll(filepath.Dir(dst), 0755)
		fs.files[dst] = append([]byte(nil), content...)
		fs.modes[dst] = fs.modes[src]
		return nil
	}
	if !fs.dirs[src] {
		return &os.PathError{Op: "copy", Path: src, Err: os.ErrNotExist}
	}

	for _, p := range fs.paths() {
		if p != src && !strings.HasPrefix(p, src+string(filepath.Separator)) {
			continue
		}
		target := dst + strings.TrimPrefix(p, src)
		if fs.dirs[p] {
			fs.dirs[target] = true
			continue
		}
		fs.files[target] = append([]byte(nil), fs.files[p]...)
		fs.modes[target] = fs.modes[p]
	}
	return nil
}

func (fs *testFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	_ = fs.MkdirAll(filepath.Dir(path), 0755)
	fs.files[path] = append([]byte(nil), data...)
	fs.modes[path] = perm
	return nil
}

func (fs *testFS) ReadFile(path string) ([]byte, error) {
	if content, ok := fs.files[path]; ok {
		return append([]byte(nil), content...), nil
	}
	return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
}

func (fs *testFS) Exists(path string) (bool, error) {
	_, hasFile := fs.files[path]
	return hasFile || fs.dirs[path], nil
}

func (fs *testFS) Access(path string, mode fsops.AccessMode) error {
	if ok, _ := fs.Exists(path); !ok {
		return &os.PathError{Op: "access", Path: path, Err: os.ErrNotExist}
	}
	if fs.denied[path]&mode != 0 {
		return &os.PathError{Op: "access", Path: path, Err: os.ErrPermission}
	}
	return nil
}

func (fs *testFS) Chmod(path string, mode os.FileMode) error {
	if _, ok := fs.files[path]; !ok {
		return &os.PathError{Op: "chmod", Path: path, Err: os.ErrNotExist}
	}
	fs.modes[path] = mode
	fs.chmods = append(fs.chmods, path)
	return nil
}

func (fs *testFS) ValidateRelPath(relPath string) error {
	return fsops.NewRealFS().ValidateRelPath(relPath)
}

func (fs *testFS) ValidateName(name string) error {
	return fsops.NewRealFS().ValidateName(name)
}

// paths returns every known path in lexical order.
func (fs *testFS) paths() []string {
	out := make([]string, 0, len(fs.files)+len(fs.dirs))
	for p := range fs.files {
		out = append(out, p)
	}
	for p := range fs.dirs {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// mockFileInfo implements os.FileInfo
type mockFileInfo struct {
	name  string
	size  int64
	mode  os.FileMode
	isDir bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() os.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return time.Time{} }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() interface{}   { return nil }

// testSpawner records processes instead of starting them
type testSpawner struct {
	started [][]string
	dirs    []string
}

func (s *testSpawner) Start(_ context.Context, name string, args []string, dir string) error {
	s.started = append(s.started, append([]string{name}, args...))
	s.dirs = append(s.dirs, dir)
	return nil
}

// scriptedChooser answers launch questions from fixed values
type scriptedChooser struct {
	indirect bool
	exe      string
}

func (c *scriptedChooser) ChooseIndirect(string) (bool, error) { return c.indirect, nil }

func (c *scriptedChooser) ChooseExecutable([]string) (string, error) { return c.exe, nil }

var testPaths = config.PathsAt("/data")

// openTestEngine builds an engine over fs, as a new process would.
func openTestEngine(t *testing.T, fs *testFS, hasher *hash.FakeHasher, spawner *testSpawner) *engine.Engine {
	t.Helper()
	eng, err := engine.New(
		fs,
		registry.NewFileStore(fs, testPaths.Registry),
		catalog.NewFileStore(fs, testPaths.Config),
		hasher,
		clock.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
		spawner,
		*testPaths,
	)
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}
	return eng
}

// setupTestEngine returns an engine with a configured mods folder.
func setupTestEngine(t *testing.T) (*engine.Engine, *testFS, *hash.FakeHasher, *testSpawner) {
	t.Helper()
	fs := newTestFS()
	hasher := hash.NewFakeHasher()
	spawner := &testSpawner{}

	_ = fs.MkdirAll("/games/skyrim/Data", 0755)
	eng := openTestEngine(t, fs, hasher, spawner)
	if err := eng.SetModsFolder("/games/skyrim/Data"); err != nil {
		t.Fatalf("SetModsFolder() error = %v", err)
	}
	return eng, fs, hasher, spawner
}
