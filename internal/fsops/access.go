package fsops

import "strings"

// AccessMode is a bit set of the access kinds checked by FS.Access.
type AccessMode uint32

const (
	// AccessExec requires execute (search, for directories) permission.
	AccessExec AccessMode = 1 << iota
	// AccessWrite requires write permission.
	AccessWrite
	// AccessRead requires read permission.
	AccessRead
)

func (m AccessMode) String() string {
	var parts []string
	if m&AccessRead != 0 {
		parts = append(parts, "read")
	}
	if m&AccessWrite != 0 {
		parts = append(parts, "write")
	}
	if m&AccessExec != 0 {
		parts = append(parts, "execute")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "/")
}
