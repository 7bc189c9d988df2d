package launch

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/danieljhkim/modslayer/internal/fsops"
	"github.com/danieljhkim/modslayer/internal/moderr"
)

// Spawner starts a detached process.
type Spawner interface {
	// Start runs name with args in dir and returns once the process has
	// started. It does not wait for the process to exit.
	Start(ctx context.Context, name string, args []string, dir string) error
}

// ExecSpawner implements Spawner with os/exec.
type ExecSpawner struct{}

// Start starts the process and releases it. The context only guards the
// start itself; the game keeps running after the caller returns.
func (ExecSpawner) Start(ctx context.Context, name string, args []string, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// Launcher carries out Plans.
type Launcher struct {
	fs      fsops.FS
	spawner Spawner
	goos    string
}

// NewLauncher creates a Launcher for the running platform.
func NewLauncher(fs fsops.FS, spawner Spawner) *Launcher {
	return &Launcher{fs: fs, spawner: spawner, goos: runtime.GOOS}
}

// Launch starts the game described by plan.
func (l *Launcher) Launch(ctx context.Context, plan *Plan) error {
	const op = "launch"

	switch plan.Method {
	case MethodIndirect:
		name, args := OpenerCommand(l.goos, plan.URL)
		if err := l.spawner.Start(ctx, name, args, ""); err != nil {
			return moderr.New(moderr.ErrLaunch, op, plan.URL, err)
		}
		return nil

	case MethodDirect:
		if l.goos != "windows" {
			l.ensureExecutable(plan.Executable)
		}
		if err := l.spawner.Start(ctx, plan.Executable, nil, plan.WorkDir); err != nil {
			return moderr.New(moderr.ErrLaunch, op, plan.Executable, err)
		}
		return nil

	default:
		return moderr.Errorf(moderr.ErrLaunch, op, "", "unknown launch method %q", plan.Method)
	}
}

// ensureExecutable adds the execute bits to path. Failures are ignored;
// the start attempt reports anything that matters.
func (l *Launcher) ensureExecutable(path string) {
	info, err := l.fs.Stat(path)
	if err != nil {
		return
	}
	if info.Mode().Perm()&0111 == 0111 {
		return
	}
	_ = l.fs.Chmod(path, info.Mode().Perm()|0111)
}

// OpenerCommand returns the command that opens url with the platform's
// default handler.
func OpenerCommand(goos, url string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	default:
		return "xdg-open", []string{url}
	}
}
