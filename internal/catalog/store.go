package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/danieljhkim/modslayer/internal/fsops"
)

// ErrCorrupt indicates the store held content that could not be decoded.
var ErrCorrupt = errors.New("catalog store is corrupt")

// Store persists the catalog state.
type Store interface {
	// Load returns the persisted state. An absent store yields an empty
	// state and no error.
	Load() (State, error)

	// Save replaces the persisted state atomically.
	Save(state State) error
}

// FileStore implements Store as a TOML document on disk.
type FileStore struct {
	fs   fsops.FS
	path string
}

// NewFileStore creates a new FileStore writing to path.
func NewFileStore(fs fsops.FS, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

type document struct {
	Settings  settingsTable `toml:"settings"`
	Recent    recentTable   `toml:"recent"`
	Favorites favoriteTable `toml:"favorites"`
}

type settingsTable struct {
	GamePath   string `toml:"game_path,omitempty"`
	ModsFolder string `toml:"mods_folder,omitempty"`
}

type recentTable struct {
	Game  []string `toml:"game"`
	Mods  []string `toml:"mods"`
	Files []string `toml:"files"`
}

type favoriteTable struct {
	Game []string `toml:"game"`
	Mods []string `toml:"mods"`
}

// Load reads and decodes the catalog file. An undecodable file is backed up
// next to the original with a .corrupt suffix before ErrCorrupt is returned.
func (s *FileStore) Load() (State, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("failed to read catalog: %w", err)
	}

	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		if backupErr := s.fs.AtomicWrite(s.path+".corrupt", data, 0644); backupErr != nil {
			return State{}, fmt.Errorf("%w: %v (backup failed: %v)", ErrCorrupt, err, backupErr)
		}
		return State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	return State{
		GamePath:   doc.Settings.GamePath,
		ModsFolder: doc.Settings.ModsFolder,
		Recent: map[Kind][]string{
			KindGame:  doc.Recent.Game,
			KindMods:  doc.Recent.Mods,
			KindFiles: doc.Recent.Files,
		},
		Favorites: map[Kind][]string{
			KindGame: doc.Favorites.Game,
			KindMods: doc.Favorites.Mods,
		},
	}, nil
}

// Save encodes the state as TOML and writes it atomically.
func (s *FileStore) Save(state State) error {
	doc := document{
		Settings: settingsTable{
			GamePath:   state.GamePath,
			ModsFolder: state.ModsFolder,
		},
		Recent: recentTable{
			Game:  nonNil(state.Recent[KindGame]),
			Mods:  nonNil(state.Recent[KindMods]),
			Files: nonNil(state.Recent[KindFiles]),
		},
		Favorites: favoriteTable{
			Game: nonNil(state.Favorites[KindGame]),
			Mods: nonNil(state.Favorites[KindMods]),
		},
	}

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := s.fs.AtomicWrite(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}

	return nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
