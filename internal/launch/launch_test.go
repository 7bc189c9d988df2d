package launch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/danieljhkim/modslayer/internal/fsops"
	"github.com/danieljhkim/modslayer/internal/moderr"
)

type fakeChooser struct {
	indirect    bool
	indirectErr error
	exe         string
	exeErr      error

	askedIndirect []string
	offered       [][]string
}

func (c *fakeChooser) ChooseIndirect(appID string) (bool, error) {
	c.askedIndirect = append(c.askedIndirect, appID)
	return c.indirect, c.indirectErr
}

func (c *fakeChooser) ChooseExecutable(candidates []string) (string, error) {
	c.offered = append(c.offered, candidates)
	return c.exe, c.exeErr
}

type spawnCall struct {
	name string
	args []string
	dir  string
}

type fakeSpawner struct {
	calls []spawnCall
	err   error
}

func (s *fakeSpawner) Start(_ context.Context, name string, args []string, dir string) error {
	s.calls = append(s.calls, spawnCall{name: name, args: args, dir: dir})
	return s.err
}

func touch(t *testing.T, path string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), perm); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

func TestResolve_Directory(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		chooser *fakeChooser
		want    string
		wantErr error
		offered []string
	}{
		{
			name:    "no executables",
			files:   []string{"readme.txt", "data.pak"},
			chooser: &fakeChooser{},
			wantErr: moderr.ErrNoExecutable,
		},
		{
			name:    "single executable",
			files:   []string{"readme.txt", "Game.EXE"},
			chooser: &fakeChooser{},
			want:    "Game.EXE",
		},
		{
			name:    "appimage matched case-insensitively",
			files:   []string{"Game-x86_64.AppImage"},
			chooser: &fakeChooser{},
			want:    "Game-x86_64.AppImage",
		},
		{
			name:    "several executables asks the chooser",
			files:   []string{"start.sh", "game.exe", "launcher.exe"},
			chooser: &fakeChooser{exe: "launcher.exe"},
			want:    "launcher.exe",
			offered: []string{"game.exe", "launcher.exe", "start.sh"},
		},
		{
			name:    "chooser cancels",
			files:   []string{"a.exe", "b.exe"},
			chooser: &fakeChooser{exeErr: moderr.ErrCancelled},
			wantErr: moderr.ErrCancelled,
			offered: []string{"a.exe", "b.exe"},
		},
		{
			name:    "chooser returns a stranger",
			files:   []string{"a.exe", "b.exe"},
			chooser: &fakeChooser{exe: "c.exe"},
			wantErr: moderr.ErrLaunch,
			offered: []string{"a.exe", "b.exe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				touch(t, filepath.Join(dir, f), 0644)
			}
			// Directories never count as executables.
			if err := os.Mkdir(filepath.Join(dir, "tools.exe"), 0755); err != nil {
				t.Fatalf("failed to create dir: %v", err)
			}

			plan, err := NewResolver(fsops.NewRealFS()).Resolve(dir, tt.chooser)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("Resolve() error = %v", err)
				}
				if plan.Method != MethodDirect || plan.Executable != filepath.Join(dir, tt.want) || plan.WorkDir != dir {
					t.Errorf("plan = %+v", plan)
				}
			}

			if tt.offered == nil {
				if len(tt.chooser.offered) != 0 {
					t.Errorf("chooser asked unexpectedly: %v", tt.chooser.offered)
				}
			} else if len(tt.chooser.offered) != 1 || !slices.Equal(tt.chooser.offered[0], tt.offered) {
				t.Errorf("offered = %v, want [%v]", tt.chooser.offered, tt.offered)
			}
			if len(tt.chooser.askedIndirect) != 0 {
				t.Error("indirect launch offered outside a compat prefix")
			}
		})
	}
}

func TestResolve_File(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "bin", "game")
	touch(t, exe, 0755)

	plan, err := NewResolver(fsops.NewRealFS()).Resolve(exe, &fakeChooser{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if plan.Executable != exe || plan.WorkDir != filepath.Join(dir, "bin") {
		t.Errorf("plan = %+v", plan)
	}
}

func TestResolve_MissingPath(t *testing.T) {
	r := NewResolver(fsops.NewRealFS())
	for _, path := range []string{"", filepath.Join(t.TempDir(), "gone")} {
		if _, err := r.Resolve(path, &fakeChooser{}); !errors.Is(err, moderr.ErrConfiguration) {
			t.Errorf("Resolve(%q) error = %v, want ErrConfiguration", path, err)
		}
	}
}

func TestResolve_SteamCompatPrefix(t *testing.T) {
	game := filepath.Join(t.TempDir(), "steamapps", "compatdata", "489830", "pfx", "Game")
	touch(t, filepath.Join(game, "SkyrimSE.exe"), 0644)

	t.Run("indirect accepted", func(t *testing.T) {
		chooser := &fakeChooser{indirect: true}
		plan, err := NewResolver(fsops.NewRealFS()).Resolve(game, chooser)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if plan.Method != MethodIndirect || plan.AppID != "489830" || plan.URL != "steam://rungameid/489830" {
			t.Errorf("plan = %+v", plan)
		}
		if !slices.Equal(chooser.askedIndirect, []string{"489830"}) {
			t.Errorf("askedIndirect = %v", chooser.askedIndirect)
		}
	})

	t.Run("indirect declined", func(t *testing.T) {
		plan, err := NewResolver(fsops.NewRealFS()).Resolve(game, &fakeChooser{})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if plan.Method != MethodDirect || filepath.Base(plan.Executable) != "SkyrimSE.exe" {
			t.Errorf("plan = %+v", plan)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		_, err := NewResolver(fsops.NewRealFS()).Resolve(game, &fakeChooser{indirectErr: moderr.ErrCancelled})
		if !errors.Is(err, moderr.ErrCancelled) {
			t.Errorf("Resolve() error = %v, want ErrCancelled", err)
		}
	})
}

func TestSteamAppID(t *testing.T) {
	tests := []struct {
		path string
		id   string
		ok   bool
	}{
		{"/home/u/.steam/steam/steamapps/compatdata/489830/pfx", "489830", true},
		{"/home/u/.steam/steam/steamapps/compatdata/489830", "489830", true},
		{"/home/u/.steam/steam/steamapps/compatdata/abc/pfx", "", false},
		{"/home/u/.steam/steam/steamapps/compatdata/", "", false},
		{"/home/u/.steam/steam/steamapps/common/Skyrim", "", false},
		{"/games/skyrim", "", false},
	}
	for _, tt := range tests {
		id, ok := SteamAppID(filepath.FromSlash(tt.path))
		if id != tt.id || ok != tt.ok {
			t.Errorf("SteamAppID(%q) = %q, %v; want %q, %v", tt.path, id, ok, tt.id, tt.ok)
		}
	}
}

func TestIsExecutableName(t *testing.T) {
	tests := map[string]bool{
		"game.exe":      true,
		"GAME.EXE":      true,
		"run.sh":        true,
		"Game.AppImage": true,
		"game.appimage": true,
		"game":          false,
		"game.exe.txt":  false,
		"notes.md":      false,
	}
	for name, want := range tests {
		if got := IsExecutableName(name); got != want {
			t.Errorf("IsExecutableName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestLauncher_Direct(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "start.sh")
	touch(t, exe, 0644)

	spawner := &fakeSpawner{}
	l := &Launcher{fs: fsops.NewRealFS(), spawner: spawner, goos: "linux"}

	if err := l.Launch(context.Background(), &Plan{Method: MethodDirect, Executable: exe, WorkDir: dir}); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if len(spawner.calls) != 1 {
		t.Fatalf("spawner called %d times", len(spawner.calls))
	}
	call := spawner.calls[0]
	if call.name != exe || call.dir != dir || len(call.args) != 0 {
		t.Errorf("spawn call = %+v", call)
	}

	info, err := os.Stat(exe)
	if err != nil {
		t.Fatalf("stat error = %v", err)
	}
	if info.Mode().Perm()&0111 != 0111 {
		t.Errorf("execute bits not added: %v", info.Mode().Perm())
	}
}

func TestLauncher_Indirect(t *testing.T) {
	tests := []struct {
		goos string
		name string
		args []string
	}{
		{"linux", "xdg-open", []string{"steam://rungameid/10"}},
		{"darwin", "open", []string{"steam://rungameid/10"}},
		{"windows", "rundll32", []string{"url.dll,FileProtocolHandler", "steam://rungameid/10"}},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			spawner := &fakeSpawner{}
			l := &Launcher{fs: fsops.NewRealFS(), spawner: spawner, goos: tt.goos}
			plan := &Plan{Method: MethodIndirect, AppID: "10", URL: "steam://rungameid/10"}

			if err := l.Launch(context.Background(), plan); err != nil {
				t.Fatalf("Launch() error = %v", err)
			}
			if len(spawner.calls) != 1 || spawner.calls[0].name != tt.name || !slices.Equal(spawner.calls[0].args, tt.args) {
				t.Errorf("spawn calls = %+v", spawner.calls)
			}
		})
	}
}

func TestLauncher_StartFailure(t *testing.T) {
	spawner := &fakeSpawner{err: errors.New("exec format error")}
	l := &Launcher{fs: fsops.NewRealFS(), spawner: spawner, goos: "linux"}

	err := l.Launch(context.Background(), &Plan{Method: MethodDirect, Executable: filepath.Join(t.TempDir(), "missing.exe")})
	if !errors.Is(err, moderr.ErrLaunch) {
		t.Errorf("Launch() error = %v, want ErrLaunch", err)
	}

	err = l.Launch(context.Background(), &Plan{Method: Method("telepathy")})
	if !errors.Is(err, moderr.ErrLaunch) {
		t.Errorf("Launch(unknown method) error = %v, want ErrLaunch", err)
	}
}

func TestExecSpawner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (ExecSpawner{}).Start(ctx, "true", nil, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}
}
