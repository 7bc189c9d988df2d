package engine

import (
	"github.com/danieljhkim/modslayer/internal/catalog"
)

// GamePath returns the configured game install path, or "" when unset.
func (e *Engine) GamePath() string {
	return e.catalog.GamePath()
}

// SetGamePath configures the game install path.
func (e *Engine) SetGamePath(path string) error {
	abs, err := resolvePath("set game path", path)
	if err != nil {
		return err
	}
	return e.catalog.SetGamePath(abs)
}

// ModsFolder returns the configured mods folder, or "" when unset.
func (e *Engine) ModsFolder() string {
	return e.catalog.ModsFolder()
}

// SetModsFolder configures the folder mods are installed into.
func (e *Engine) SetModsFolder(path string) error {
	abs, err := resolvePath("set mods folder", path)
	if err != nil {
		return err
	}
	return e.catalog.SetModsFolder(abs)
}

// Recent returns the recent paths of kind, most recent first.
func (e *Engine) Recent(kind catalog.Kind) ([]string, error) {
	return e.catalog.Recent(kind)
}

// ClearRecent empties the recent paths of kind.
func (e *Engine) ClearRecent(kind catalog.Kind) error {
	return e.catalog.ClearRecent(kind)
}

// Favorites returns the favorite paths of kind.
func (e *Engine) Favorites(kind catalog.Kind) ([]string, error) {
	return e.catalog.Favorites(kind)
}

// AddFavorite adds path to the favorites of kind.
func (e *Engine) AddFavorite(kind catalog.Kind, path string) error {
	abs, err := resolvePath("add favorite", path)
	if err != nil {
		return err
	}
	return e.catalog.AddFavorite(kind, abs)
}

// RemoveFavorite removes the favorite at index from the favorites of kind.
func (e *Engine) RemoveFavorite(kind catalog.Kind, index int) error {
	return e.catalog.RemoveFavorite(kind, index)
}
