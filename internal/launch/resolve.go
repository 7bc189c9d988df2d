// Package launch works out how to start the configured game and starts it.
//
// Resolution is separate from launching: a Resolver turns the game path into
// a Plan, asking a Chooser whenever the user has to pick between options,
// and a Launcher carries the Plan out. Nothing here touches persisted state.
package launch

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/danieljhkim/modslayer/internal/fsops"
	"github.com/danieljhkim/modslayer/internal/moderr"
)

// Method is how a Plan starts the game.
type Method string

const (
	// MethodDirect runs an executable.
	MethodDirect Method = "direct"
	// MethodIndirect hands a URL to the distribution platform.
	MethodIndirect Method = "indirect"
)

// compatMarker is the path segment under which Steam keeps Proton prefixes,
// named by the numeric app id.
const compatMarker = "steamapps/compatdata/"

// executableExts are the extensions treated as launchable, lowercase.
var executableExts = []string{".exe", ".appimage", ".sh"}

// Plan is a resolved launch.
type Plan struct {
	Method Method `json:"method"`

	// Executable and WorkDir are set for direct launches
	Executable string `json:"executable,omitempty"`
	WorkDir    string `json:"work_dir,omitempty"`

	// AppID and URL are set for indirect launches
	AppID string `json:"app_id,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Chooser answers the questions that come up while resolving a launch.
// Returning an error wrapping moderr.ErrCancelled aborts the launch.
type Chooser interface {
	// ChooseIndirect reports whether to launch through the platform for
	// appID instead of running an executable directly.
	ChooseIndirect(appID string) (bool, error)

	// ChooseExecutable picks one of several candidate executable names.
	ChooseExecutable(candidates []string) (string, error)
}

// Resolver turns a game path into a Plan.
type Resolver struct {
	fs fsops.FS
}

// NewResolver creates a new Resolver.
func NewResolver(fs fsops.FS) *Resolver {
	return &Resolver{fs: fs}
}

// Resolve determines how to start the game at path. chooser must not be nil.
func (r *Resolver) Resolve(path string, chooser Chooser) (*Plan, error) {
	const op = "resolve launch"

	if path == "" {
		return nil, moderr.Errorf(moderr.ErrConfiguration, op, "", "game path is not set")
	}
	info, err := r.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, moderr.Errorf(moderr.ErrConfiguration, op, path, "game path does not exist")
		}
		return nil, moderr.New(moderr.ErrConfiguration, op, path, err)
	}

	if appID, ok := SteamAppID(path); ok {
		indirect, err := chooser.ChooseIndirect(appID)
		if err != nil {
			return nil, err
		}
		if indirect {
			return &Plan{
				Method: MethodIndirect,
				AppID:  appID,
				URL:    "steam://rungameid/" + appID,
			}, nil
		}
	}

	exe := path
	if info.IsDir() {
		candidates, err := r.Candidates(path)
		if err != nil {
			return nil, err
		}
		name, err := pick(candidates, chooser)
		if err != nil {
			return nil, err
		}
		exe = filepath.Join(path, name)
	}

	return &Plan{
		Method:     MethodDirect,
		Executable: exe,
		WorkDir:    filepath.Dir(exe),
	}, nil
}

// Candidates lists the launchable files directly inside dir, sorted by name.
func (r *Resolver) Candidates(dir string) ([]string, error) {
	entries, err := r.fs.ReadDir(dir)
	if err != nil {
		return nil, moderr.New(moderr.ErrConfiguration, "list executables", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if IsExecutableName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func pick(candidates []string, chooser Chooser) (string, error) {
	switch len(candidates) {
	case 0:
		return "", moderr.New(moderr.ErrNoExecutable, "resolve launch", "", nil)
	case 1:
		return candidates[0], nil
	}

	name, err := chooser.ChooseExecutable(slices.Clone(candidates))
	if err != nil {
		return "", err
	}
	if !slices.Contains(candidates, name) {
		return "", moderr.Errorf(moderr.ErrLaunch, "resolve launch", "", "%q is not one of the candidate executables", name)
	}
	return name, nil
}

// IsExecutableName reports whether name carries a launchable extension.
func IsExecutableName(name string) bool {
	return slices.Contains(executableExts, strings.ToLower(filepath.Ext(name)))
}

// SteamAppID extracts the app id from a path inside a Steam compatibility
// prefix, e.g. ".../steamapps/compatdata/489830/pfx/...".
func SteamAppID(path string) (string, bool) {
	_, rest, ok := strings.Cut(filepath.ToSlash(path), compatMarker)
	if !ok {
		return "", false
	}
	id, _, _ := strings.Cut(rest, "/")
	if id == "" || strings.Trim(id, "0123456789") != "" {
		return "", false
	}
	return id, true
}

func (p *Plan) String() string {
	if p.Method == MethodIndirect {
		return fmt.Sprintf("%s (app %s)", p.URL, p.AppID)
	}
	return p.Executable
}
