package store

import (
	"time"
)

// IDLayout is the time layout of session IDs and their directory names.
const IDLayout = "2006_01_02_15_04_05"

const labelLayout = "2006/01/02 15:04:05"

// ID identifies a session. Well-formed IDs are creation timestamps; IDs
// read back from disk may be arbitrary directory names.
type ID string

// NewID returns the session ID for a session created at t.
func NewID(t time.Time) ID {
	return ID(t.Format(IDLayout))
}

// ParseID returns the creation time encoded in id.
func ParseID(id ID) (time.Time, error) {
	return time.ParseInLocation(IDLayout, string(id), time.Local)
}

// Label renders id for display. Malformed IDs are shown as-is.
func Label(id ID) string {
	name := string(id)
	if t, err := ParseID(id); err == nil {
		return t.Format(labelLayout)
	}
	// Suffixed IDs from Create: 2024_01_01_10_00_00_2.
	if n := len(IDLayout); len(name) > n+1 && name[n] == '_' {
		if t, err := ParseID(ID(name[:n])); err == nil {
			return t.Format(labelLayout) + " (" + name[n+1:] + ")"
		}
	}
	return name
}

func (id ID) String() string {
	return string(id)
}
