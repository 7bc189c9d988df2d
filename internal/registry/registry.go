// Package registry maintains the ordered collection of installed mods.
//
// The registry owns load-order assignment and enable/disable state, and
// persists itself through a Store after every mutation. Records are held in
// load order, so the record at index i always has Priority i.
//
// Mutations are applied to a copy of the records which is persisted before it
// replaces the live state. A failed save therefore leaves the registry exactly
// as it was before the call.
package registry

import (
	"errors"
	"fmt"
	"slices"

	"github.com/danieljhkim/modslayer/internal/moderr"
)

// Direction moves a mod one step in the load order.
type Direction int

const (
	// Up moves a mod towards priority 0 (loaded earlier).
	Up Direction = -1
	// Down moves a mod towards the end of the load order (loaded later).
	Down Direction = 1
)

// Registry is the ordered set of mod records for one session.
type Registry struct {
	store    Store
	records  []ModRecord
	warnings []string
}

// Load builds a Registry from the records held by store.
// A corrupt store yields whatever records could be salvaged and a warning;
// only an unreadable store is an error.
func Load(store Store) (*Registry, error) {
	records, err := store.Load()
	r := &Registry{store: store}
	if err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return nil, moderr.New(moderr.ErrPersistence, "load registry", "", err)
		}
		r.warnings = append(r.warnings, err.Error())
	}

	r.records, r.warnings = normalize(records, r.warnings)
	return r, nil
}

// Warnings returns the problems repaired while loading.
func (r *Registry) Warnings() []string {
	return slices.Clone(r.warnings)
}

// List returns all records in load order.
func (r *Registry) List() []ModRecord {
	return slices.Clone(r.records)
}

// Enabled returns the enabled records in load order.
func (r *Registry) Enabled() []ModRecord {
	var enabled []ModRecord
	for _, rec := range r.records {
		if rec.Enabled {
			enabled = append(enabled, rec)
		}
	}
	return enabled
}

// Len returns the number of records.
func (r *Registry) Len() int {
	return len(r.records)
}

// Get returns the record with the given id.
func (r *Registry) Get(id int) (ModRecord, error) {
	i := r.indexOf(id)
	if i < 0 {
		return ModRecord{}, notFound("get mod", id)
	}
	return r.records[i], nil
}

// FindByPath returns the record whose payload lives at relPath.
func (r *Registry) FindByPath(relPath string) (ModRecord, bool) {
	for _, rec := range r.records {
		if rec.RelativePath == relPath {
			return rec, true
		}
	}
	return ModRecord{}, false
}

// Add appends rec to the end of the load order and returns it with its id
// and priority assigned. The id and priority fields of rec are ignored.
func (r *Registry) Add(rec ModRecord) (ModRecord, error) {
	if rec.RelativePath == "" {
		return ModRecord{}, moderr.Errorf(moderr.ErrInstall, "add mod", "", "record has no relative path")
	}
	if !rec.Kind.Valid() {
		return ModRecord{}, moderr.Errorf(moderr.ErrInstall, "add mod", rec.RelativePath, "unknown kind %q", rec.Kind)
	}
	if _, ok := r.FindByPath(rec.RelativePath); ok {
		return ModRecord{}, moderr.New(moderr.ErrDuplicatePath, "add mod", rec.RelativePath, nil)
	}

	rec.ID = nextID(r.records)
	rec.Priority = len(r.records)
	if rec.Name == "" {
		rec.Name = DisplayName(rec.RelativePath, rec.Kind)
	}

	err := r.mutate("add mod", func(records []ModRecord) ([]ModRecord, error) {
		return append(records, rec), nil
	})
	if err != nil {
		return ModRecord{}, err
	}
	return rec, nil
}

// Remove deletes the record with the given id and closes the gap it leaves
// in the load order.
func (r *Registry) Remove(id int) error {
	return r.mutate("remove mod", func(records []ModRecord) ([]ModRecord, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, notFound("remove mod", id)
		}
		return slices.Delete(records, i, i+1), nil
	})
}

// SetEnabled sets the enabled state of the record with the given id.
func (r *Registry) SetEnabled(id int, enabled bool) error {
	return r.mutate("set mod enabled", func(records []ModRecord) ([]ModRecord, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, notFound("set mod enabled", id)
		}
		records[i].Enabled = enabled
		return records, nil
	})
}

// Toggle flips the enabled state of the record with the given id and returns
// the updated record.
func (r *Registry) Toggle(id int) (ModRecord, error) {
	rec, err := r.Get(id)
	if err != nil {
		return ModRecord{}, notFound("toggle mod", id)
	}
	if err := r.SetEnabled(id, !rec.Enabled); err != nil {
		return ModRecord{}, err
	}
	return r.Get(id)
}

// Move swaps the record with its neighbour in the given direction.
// Moving the first record up or the last record down is a no-op.
func (r *Registry) Move(id int, dir Direction) error {
	if dir != Up && dir != Down {
		return moderr.Errorf(moderr.ErrOutOfRange, "move mod", "", "direction must be -1 or +1, got %d", dir)
	}

	i := r.indexOf(id)
	if i < 0 {
		return notFound("move mod", id)
	}
	j := i + int(dir)
	if j < 0 || j >= len(r.records) {
		return nil
	}

	return r.mutate("move mod", func(records []ModRecord) ([]ModRecord, error) {
		records[i], records[j] = records[j], records[i]
		return records, nil
	})
}

// SetChecksum replaces the recorded payload digest of the given record.
func (r *Registry) SetChecksum(id int, sum string) error {
	return r.mutate("set mod checksum", func(records []ModRecord) ([]ModRecord, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, notFound("set mod checksum", id)
		}
		records[i].Checksum = sum
		return records, nil
	})
}

// mutate applies fn to a copy of the records, renumbers priorities, persists
// the result and only then installs it as the live state.
func (r *Registry) mutate(op string, fn func([]ModRecord) ([]ModRecord, error)) error {
	next, err := fn(slices.Clone(r.records))
	if err != nil {
		return err
	}
	renumber(next)

	if err := r.store.Save(next); err != nil {
		return moderr.New(moderr.ErrPersistence, op, "", err)
	}

	r.records = next
	return nil
}

func (r *Registry) indexOf(id int) int {
	return indexOf(r.records, id)
}

func indexOf(records []ModRecord, id int) int {
	return slices.IndexFunc(records, func(rec ModRecord) bool { return rec.ID == id })
}

// renumber assigns each record its index as priority.
func renumber(records []ModRecord) {
	for i := range records {
		records[i].Priority = i
	}
}

// nextID returns the record count when that id is free, and one past the
// largest live id otherwise.
func nextID(records []ModRecord) int {
	candidate := len(records)
	maxID := -1
	taken := false
	for _, rec := range records {
		if rec.ID == candidate {
			taken = true
		}
		maxID = max(maxID, rec.ID)
	}
	if taken {
		return maxID + 1
	}
	return candidate
}

func notFound(op string, id int) error {
	return moderr.New(moderr.ErrNotFound, op, "", fmt.Errorf("mod %d", id))
}
