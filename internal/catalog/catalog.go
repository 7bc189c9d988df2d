// Package catalog holds the configured install locations and the
// recently used and favorited path histories.
//
// Every mutation is persisted through a Store before it becomes visible.
// A failed save leaves the catalog unchanged.
package catalog

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/danieljhkim/modslayer/internal/fsops"
	"github.com/danieljhkim/modslayer/internal/moderr"
)

// MaxRecent bounds each recent-paths list.
const MaxRecent = 10

// Kind selects one of the path histories.
type Kind string

const (
	// KindGame tracks game install paths.
	KindGame Kind = "game"
	// KindMods tracks mods folders.
	KindMods Kind = "mods"
	// KindFiles tracks mod sources picked for installation.
	KindFiles Kind = "files"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindGame, KindMods, KindFiles}

// ParseKind converts s to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !slices.Contains(Kinds, k) {
		return "", moderr.Errorf(moderr.ErrConfiguration, "parse kind", "", "unknown path kind %q (want game, mods or files)", s)
	}
	return k, nil
}

// favoriteKind reports whether k keeps a favorites list.
func favoriteKind(k Kind) bool {
	return k == KindGame || k == KindMods
}

// State is the persisted content of the catalog.
type State struct {
	GamePath   string
	ModsFolder string
	Recent     map[Kind][]string
	Favorites  map[Kind][]string
}

func (s State) clone() State {
	out := State{
		GamePath:   s.GamePath,
		ModsFolder: s.ModsFolder,
		Recent:     make(map[Kind][]string, len(s.Recent)),
		Favorites:  make(map[Kind][]string, len(s.Favorites)),
	}
	for k, v := range s.Recent {
		out.Recent[k] = slices.Clone(v)
	}
	for k, v := range s.Favorites {
		out.Favorites[k] = slices.Clone(v)
	}
	return out
}

// Catalog is the path catalog of one session.
type Catalog struct {
	fs       fsops.FS
	store    Store
	state    State
	warnings []string
}

// Load builds a Catalog from store. A corrupt store yields an empty catalog
// and a warning.
func Load(fs fsops.FS, store Store) (*Catalog, error) {
	state, err := store.Load()
	c := &Catalog{fs: fs, store: store}
	if err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return nil, moderr.New(moderr.ErrPersistence, "load catalog", "", err)
		}
		c.warnings = append(c.warnings, err.Error())
		state = State{}
	}
	c.state = normalize(state)
	return c, nil
}

// Warnings returns the problems found while loading.
func (c *Catalog) Warnings() []string {
	return slices.Clone(c.warnings)
}

// GamePath returns the configured game install path, or "" when unset.
func (c *Catalog) GamePath() string {
	return c.state.GamePath
}

// ModsFolder returns the configured mods folder, or "" when unset.
func (c *Catalog) ModsFolder() string {
	return c.state.ModsFolder
}

// SetGamePath configures the game install path. The path must exist and be
// readable; a directory must also be searchable. A file needs no execute
// access here since launch makes it executable. It is also recorded as a
// recent game path.
func (c *Catalog) SetGamePath(path string) error {
	const op = "set game path"
	path = filepath.Clean(path)
	if err := c.checkExists(op, path); err != nil {
		return err
	}
	info, err := c.fs.Stat(path)
	if err != nil {
		return moderr.New(moderr.ErrConfiguration, op, path, err)
	}
	mode := fsops.AccessRead
	if info.IsDir() {
		mode |= fsops.AccessExec
	}
	if err := c.checkAccess(op, path, mode); err != nil {
		return err
	}
	return c.mutate(op, func(s *State) {
		s.GamePath = path
		s.Recent[KindGame] = pushRecent(s.Recent[KindGame], path)
	})
}

// SetModsFolder configures the mods folder. The path must be an existing
// directory with read, write and execute access. It is also recorded as a
// recent mods folder.
func (c *Catalog) SetModsFolder(path string) error {
	path = filepath.Clean(path)
	if err := c.checkPath("set mods folder", path, fsops.AccessRead|fsops.AccessWrite|fsops.AccessExec); err != nil {
		return err
	}
	info, err := c.fs.Stat(path)
	if err != nil {
		return moderr.New(moderr.ErrConfiguration, "set mods folder", path, err)
	}
	if !info.IsDir() {
		return moderr.Errorf(moderr.ErrConfiguration, "set mods folder", path, "not a directory")
	}
	return c.mutate("set mods folder", func(s *State) {
		s.ModsFolder = path
		s.Recent[KindMods] = pushRecent(s.Recent[KindMods], path)
	})
}

// Recent returns the recent paths of kind, most recent first.
func (c *Catalog) Recent(kind Kind) ([]string, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	return slices.Clone(c.state.Recent[kind]), nil
}

// RecordRecent moves path to the front of the recent list of kind,
// dropping the oldest entries beyond MaxRecent.
func (c *Catalog) RecordRecent(kind Kind, path string) error {
	if _, err := ParseKind(string(kind)); err != nil {
		return err
	}
	path = filepath.Clean(path)
	if err := c.checkExists("record recent path", path); err != nil {
		return err
	}
	return c.mutate("record recent path", func(s *State) {
		s.Recent[kind] = pushRecent(s.Recent[kind], path)
	})
}

// ClearRecent empties the recent list of kind.
func (c *Catalog) ClearRecent(kind Kind) error {
	if _, err := ParseKind(string(kind)); err != nil {
		return err
	}
	return c.mutate("clear recent paths", func(s *State) {
		delete(s.Recent, kind)
	})
}

// Favorites returns the favorite paths of kind in insertion order.
func (c *Catalog) Favorites(kind Kind) ([]string, error) {
	if err := checkFavoriteKind("list favorites", kind); err != nil {
		return nil, err
	}
	return slices.Clone(c.state.Favorites[kind]), nil
}

// AddFavorite appends an existing path to the favorites of kind.
func (c *Catalog) AddFavorite(kind Kind, path string) error {
	if err := checkFavoriteKind("add favorite", kind); err != nil {
		return err
	}
	path = filepath.Clean(path)
	if err := c.checkExists("add favorite", path); err != nil {
		return err
	}
	if slices.Contains(c.state.Favorites[kind], path) {
		return moderr.Errorf(moderr.ErrDuplicatePath, "add favorite", path, "already a %s favorite", kind)
	}
	return c.mutate("add favorite", func(s *State) {
		s.Favorites[kind] = append(s.Favorites[kind], path)
	})
}

// RemoveFavorite removes the favorite at index from the favorites of kind.
func (c *Catalog) RemoveFavorite(kind Kind, index int) error {
	if err := checkFavoriteKind("remove favorite", kind); err != nil {
		return err
	}
	favs := c.state.Favorites[kind]
	if index < 0 || index >= len(favs) {
		return moderr.Errorf(moderr.ErrOutOfRange, "remove favorite", "", "index %d, %s favorites has %d entries", index, kind, len(favs))
	}
	return c.mutate("remove favorite", func(s *State) {
		s.Favorites[kind] = slices.Delete(s.Favorites[kind], index, index+1)
	})
}

func (c *Catalog) mutate(op string, fn func(*State)) error {
	next := c.state.clone()
	fn(&next)
	if err := c.store.Save(next); err != nil {
		return moderr.New(moderr.ErrPersistence, op, "", err)
	}
	c.state = next
	return nil
}

func (c *Catalog) checkExists(op, path string) error {
	exists, err := c.fs.Exists(path)
	if err != nil {
		return moderr.New(moderr.ErrConfiguration, op, path, err)
	}
	if !exists {
		return moderr.Errorf(moderr.ErrConfiguration, op, path, "path does not exist")
	}
	return nil
}

func (c *Catalog) checkPath(op, path string, mode fsops.AccessMode) error {
	if err := c.checkExists(op, path); err != nil {
		return err
	}
	return c.checkAccess(op, path, mode)
}

func (c *Catalog) checkAccess(op, path string, mode fsops.AccessMode) error {
	if err := c.fs.Access(path, mode); err != nil {
		return moderr.New(moderr.ErrPermission, op, path, fmt.Errorf("need %s access: %w", mode, err))
	}
	return nil
}

func checkFavoriteKind(op string, kind Kind) error {
	if !favoriteKind(kind) {
		return moderr.Errorf(moderr.ErrConfiguration, op, "", "no favorites for kind %q (want game or mods)", kind)
	}
	return nil
}

// pushRecent moves path to the front of list and caps it at MaxRecent.
func pushRecent(list []string, path string) []string {
	out := make([]string, 0, min(len(list)+1, MaxRecent))
	out = append(out, path)
	for _, p := range list {
		if len(out) == MaxRecent {
			break
		}
		if p != path {
			out = append(out, p)
		}
	}
	return out
}

// normalize drops empty and repeated entries and enforces the recent cap on
// state read from a store.
func normalize(s State) State {
	out := State{
		GamePath:   s.GamePath,
		ModsFolder: s.ModsFolder,
		Recent:     make(map[Kind][]string),
		Favorites:  make(map[Kind][]string),
	}
	for _, k := range slices.Sorted(maps.Keys(s.Recent)) {
		if list := dedup(s.Recent[k]); len(list) > 0 {
			out.Recent[k] = list[:min(len(list), MaxRecent)]
		}
	}
	for _, k := range slices.Sorted(maps.Keys(s.Favorites)) {
		if !favoriteKind(k) {
			continue
		}
		if list := dedup(s.Favorites[k]); len(list) > 0 {
			out.Favorites[k] = list
		}
	}
	return out
}

func dedup(list []string) []string {
	var out []string
	seen := make(map[string]bool, len(list))
	for _, p := range list {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
