// Package gearset selects which saved gearset best matches a typed job command.
package gearset

// MaxGearsets is the fixed number of gearset slots the host exposes.
const MaxGearsets = 100

// Record is a read-only view of one saved equipment loadout.
//
// A Record is only a valid candidate when Exists is true and ID equals the
// slot index it was read from.
type Record struct {
	// ID is the slot index, 0..MaxGearsets-1.
	ID int `yaml:"id"`
	// Exists reports whether the slot holds a saved gearset.
	Exists bool `yaml:"exists"`
	// ClassJobID is the owning class/job row id.
	ClassJobID uint32 `yaml:"class_job"`
	// Name is the user-editable display name; not unique.
	Name string `yaml:"name"`
}

// Source provides gearset snapshots.
//
// Postcondition: Gearsets returns a fresh copy of the slot table on every
// call; index i of the result is slot i. The slice may be shorter than
// MaxGearsets.
type Source interface {
	Gearsets() []Record
}

// SourceFunc adapts a plain function into a Source.
type SourceFunc func() []Record

// Gearsets calls f.
func (f SourceFunc) Gearsets() []Record { return f() }
