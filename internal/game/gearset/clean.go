package gearset

import "strings"

// CommandMarker is the leading character the host prepends to chat commands.
const CommandMarker = "/"

// Cleaner turns raw command text into the text compared against gearset names.
type Cleaner interface {
	Clean(command string) string
}

// CleanerFunc adapts a plain function into a Cleaner.
type CleanerFunc func(command string) string

// Clean calls f.
func (f CleanerFunc) Clean(command string) string { return f(command) }

// MarkerCleaner strips a single leading command marker. It is the strategy
// used by the suffix-list command scheme.
type MarkerCleaner struct{}

// Clean returns command without its leading marker.
func (MarkerCleaner) Clean(command string) string {
	return strings.TrimPrefix(command, CommandMarker)
}

// AffixCleaner strips the command marker and then a configured prefix and
// suffix. It is the strategy used by the legacy prefix/suffix command scheme,
// where every command was built as "/" + Prefix + acronym + Suffix.
type AffixCleaner struct {
	Prefix string
	Suffix string
}

// Clean returns command with the marker, Prefix, and Suffix removed, each
// only when present. Matching is case-sensitive, as the affixes are
// registered verbatim.
func (c AffixCleaner) Clean(command string) string {
	command = strings.TrimPrefix(command, CommandMarker)
	command = strings.TrimPrefix(command, c.Prefix)
	return strings.TrimSuffix(command, c.Suffix)
}
