package engine

import (
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/modslayer/internal/moderr"
)

// resolvePath turns a user-provided path (absolute, relative, or containing
// "..") into a clean absolute path. Relative paths resolve against the
// process working directory.
func resolvePath(op, userPath string) (string, error) {
	if userPath == "" {
		return "", moderr.Errorf(moderr.ErrConfiguration, op, "", "path is empty")
	}

	abs, err := filepath.Abs(userPath)
	if err != nil {
		return "", moderr.New(moderr.ErrConfiguration, op, userPath, fmt.Errorf("failed to resolve path: %w", err))
	}
	return abs, nil
}
