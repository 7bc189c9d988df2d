package registry

import (
	"cmp"
	"fmt"
	"math"
	"path/filepath"
	"slices"
)

// normalize repairs records read from a store so the registry invariants hold:
// every record has a clean payload path inside the mods folder, a known kind,
// a name and a unique id; payload paths are unique; priorities form 0..N-1.
// Each repair appends a warning.
func normalize(records []ModRecord, warnings []string) ([]ModRecord, []string) {
	type indexed struct {
		rec   ModRecord
		index int
	}

	kept := make([]indexed, 0, len(records))
	for i, rec := range records {
		if rec.RelativePath == "" {
			warnings = append(warnings, fmt.Sprintf("dropped record %d: no payload path", i))
			continue
		}
		rec.RelativePath = filepath.Clean(rec.RelativePath)
		if !filepath.IsLocal(rec.RelativePath) {
			warnings = append(warnings, fmt.Sprintf("dropped record %d: payload path %q is outside the mods folder", i, rec.RelativePath))
			continue
		}
		if !rec.Kind.Valid() {
			warnings = append(warnings, fmt.Sprintf("record %q: unknown type %q, assuming file", rec.RelativePath, rec.Kind))
			rec.Kind = KindFile
		}
		if rec.Name == "" {
			rec.Name = DisplayName(rec.RelativePath, rec.Kind)
		}
		kept = append(kept, indexed{rec: rec, index: i})
	}

	// Load order: stored priority first (missing priorities last), then id,
	// then position in the store.
	slices.SortStableFunc(kept, func(a, b indexed) int {
		pa, pb := a.rec.Priority, b.rec.Priority
		if pa == unset {
			pa = math.MaxInt
		}
		if pb == unset {
			pb = math.MaxInt
		}
		if c := cmp.Compare(pa, pb); c != 0 {
			return c
		}
		if c := cmp.Compare(a.rec.ID, b.rec.ID); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})

	out := make([]ModRecord, 0, len(kept))
	seenPath := make(map[string]bool, len(kept))
	for _, k := range kept {
		if seenPath[k.rec.RelativePath] {
			warnings = append(warnings, fmt.Sprintf("dropped duplicate record for %q", k.rec.RelativePath))
			continue
		}
		seenPath[k.rec.RelativePath] = true
		out = append(out, k.rec)
	}

	// Reassign missing or colliding ids past the largest valid one.
	maxID := -1
	for _, rec := range out {
		maxID = max(maxID, rec.ID)
	}
	seenID := make(map[int]bool, len(out))
	for i := range out {
		if out[i].ID == unset || seenID[out[i].ID] {
			maxID++
			warnings = append(warnings, fmt.Sprintf("record %q: assigned new id %d", out[i].RelativePath, maxID))
			out[i].ID = maxID
		}
		seenID[out[i].ID] = true
	}

	for i := range out {
		if out[i].Priority != i {
			warnings = append(warnings, "load order renumbered")
			break
		}
	}
	renumber(out)

	return out, warnings
}
