package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/danieljhkim/modslayer/internal/fsops"
)

// ErrCorrupt indicates the store held content that could not be decoded.
// Records that could be decoded are still returned alongside it.
var ErrCorrupt = errors.New("registry store is corrupt")

// Store persists the full set of mod records.
type Store interface {
	// Load returns the persisted records. An absent store yields no records
	// and no error.
	Load() ([]ModRecord, error)

	// Save replaces the persisted records atomically.
	Save(records []ModRecord) error
}

// FileStore implements Store as an indented JSON array on disk.
type FileStore struct {
	fs   fsops.FS
	path string
}

// NewFileStore creates a new FileStore writing to path.
func NewFileStore(fs fsops.FS, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

// storedRecord mirrors ModRecord with optional fields so missing values can
// be told apart from zero values.
type storedRecord struct {
	ID           *int      `json:"id"`
	Name         string    `json:"name"`
	FilePath     string    `json:"file_path"`
	OriginalPath string    `json:"original_path"`
	Enabled      *bool     `json:"enabled"`
	Priority     *int      `json:"priority"`
	Type         string    `json:"type"`
	InstalledAt  time.Time `json:"installed_at"`
	Checksum     string    `json:"checksum"`
}

// unset marks an id or priority that was missing from the store.
const unset = -1

func (s storedRecord) record() ModRecord {
	rec := ModRecord{
		ID:           unset,
		Name:         s.Name,
		RelativePath: s.FilePath,
		OriginalPath: s.OriginalPath,
		Enabled:      true,
		Priority:     unset,
		Kind:         Kind(s.Type),
		InstalledAt:  s.InstalledAt,
		Checksum:     s.Checksum,
	}
	if s.ID != nil && *s.ID >= 0 {
		rec.ID = *s.ID
	}
	if s.Enabled != nil {
		rec.Enabled = *s.Enabled
	}
	if s.Priority != nil && *s.Priority >= 0 {
		rec.Priority = *s.Priority
	}
	return rec
}

// Load reads and decodes the registry file.
// Malformed entries are skipped; an undecodable file is backed up next to
// the original with a .corrupt suffix before ErrCorrupt is returned.
func (s *FileStore) Load() ([]ModRecord, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		if backupErr := s.fs.AtomicWrite(s.path+".corrupt", data, 0644); backupErr != nil {
			return nil, fmt.Errorf("%w: %v (backup failed: %v)", ErrCorrupt, err, backupErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	records := make([]ModRecord, 0, len(raw))
	skipped := 0
	for _, entry := range raw {
		var stored storedRecord
		if err := json.Unmarshal(entry, &stored); err != nil {
			skipped++
			continue
		}
		records = append(records, stored.record())
	}

	if skipped > 0 {
		return records, fmt.Errorf("%w: skipped %d malformed records", ErrCorrupt, skipped)
	}
	return records, nil
}

// Save writes the records as indented JSON.
func (s *FileStore) Save(records []ModRecord) error {
	if records == nil {
		records = []ModRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := s.fs.AtomicWrite(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}

	return nil
}
