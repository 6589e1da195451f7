// Package vlnv implements the Vendor:Library:Name:Version identifier used
// to name reusable hardware-design cores.
package vlnv

import (
	"fmt"
	"strings"
)

// VLNV identifies a core. Only Name is mandatory; the remaining fields may
// be empty, in which case they act as wildcards during resolution.
type VLNV struct {
	Vendor  string
	Library string
	Name    string
	Version string
}

// Parse accepts one to four colon-separated fields:
//
//	name
//	library:name
//	vendor:library:name
//	vendor:library:name:version
func Parse(s string) (VLNV, error) {
	parts := strings.Split(s, ":")

	var v VLNV
	switch len(parts) {
	case 1:
		v.Name = parts[0]
	case 2:
		v.Library, v.Name = parts[0], parts[1]
	case 3:
		v.Vendor, v.Library, v.Name = parts[0], parts[1], parts[2]
	case 4:
		v.Vendor, v.Library, v.Name, v.Version = parts[0], parts[1], parts[2], parts[3]
	default:
		return VLNV{}, fmt.Errorf("vlnv: %q has %d fields, want 1..4", s, len(parts))
	}

	if v.Name == "" {
		return VLNV{}, fmt.Errorf("vlnv: %q has an empty name field", s)
	}
	return v, nil
}

// String re-joins the identifier, omitting a trailing empty version.
func (v VLNV) String() string {
	s := v.Vendor + ":" + v.Library + ":" + v.Name
	if v.Version != "" {
		s += ":" + v.Version
	}
	return s
}

// Matches reports whether candidate satisfies v, treating empty fields of v
// as wildcards. Version comparison is plain string equality; version
// ordering and range constraints are deliberately out of scope.
func (v VLNV) Matches(candidate VLNV) bool {
	if v.Name != candidate.Name {
		return false
	}
	if v.Vendor != "" && v.Vendor != candidate.Vendor {
		return false
	}
	if v.Library != "" && v.Library != candidate.Library {
		return false
	}
	if v.Version != "" && v.Version != candidate.Version {
		return false
	}
	return true
}
