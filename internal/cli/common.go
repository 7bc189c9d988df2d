package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/danieljhkim/modslayer/internal/config"
	"github.com/danieljhkim/modslayer/internal/engine"
	"github.com/danieljhkim/modslayer/internal/moderr"
)

// logger reports diagnostics on stderr. It is quiet below warn level unless
// --verbose is set.
var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "modslayer",
	Level:  log.WarnLevel,
})

// Exit codes returned by the modslayer binary.
const (
	ExitOK            = 0
	ExitError         = 1
	ExitConfiguration = 2
	ExitNotFound      = 3
	ExitDuplicate     = 4
)

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, moderr.ErrConfiguration), errors.Is(err, moderr.ErrPermission):
		return ExitConfiguration
	case errors.Is(err, moderr.ErrNotFound), errors.Is(err, moderr.ErrOutOfRange):
		return ExitNotFound
	case errors.Is(err, moderr.ErrDuplicatePath):
		return ExitDuplicate
	default:
		return ExitError
	}
}

// kindName names the error kind of err for logs.
func kindName(err error) string {
	if kind := moderr.KindOf(err); kind != nil {
		return kind.Error()
	}
	return "unknown"
}

// dataPaths returns the data directory layout selected by --root, then
// $MODSLAYER_ROOT, then the platform default.
func dataPaths() (*config.Paths, error) {
	if rootDir != "" {
		return config.PathsAt(rootDir), nil
	}
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}
	return paths, nil
}

// newEngine opens the engine for the selected data directory and reports
// anything that had to be repaired while loading it.
func newEngine() (*engine.Engine, error) {
	paths, err := dataPaths()
	if err != nil {
		return nil, err
	}

	logger.Debug("opening session", "root", paths.Root)
	eng, err := engine.Open(paths)
	if err != nil {
		return nil, err
	}

	for _, w := range eng.Warnings() {
		logger.Warn(w)
	}
	return eng, nil
}

// closeEngine releases the session; failures only matter for diagnostics.
func closeEngine(eng *engine.Engine) {
	if err := eng.Close(); err != nil {
		logger.Warn("failed to close session", "err", err)
	}
}

// parseID parses a mod id argument.
func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 0 {
		return 0, moderr.Errorf(moderr.ErrNotFound, "parse id", "", "invalid mod id %q", arg)
	}
	return id, nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// ReportError prints an error returned by Execute.
func ReportError(err error) {
	_, _ = fmt.Fprintln(stderr, formatError(err))
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
