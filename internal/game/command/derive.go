package command

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cory-johannsen/jobswitch/internal/game/gearset"
)

// ClassJobCommands returns the command strings for a class/job acronym, in
// suffix order: for each suffix the all-uppercase form
// "/" + upper(acronym) + upper(suffix) followed by the lowercase form
// "/" + lower(acronym) + suffix. A pair that collapses to one string is
// returned once.
func ClassJobCommands(acronym string, suffixes []string) []string {
	upper := cases.Upper(language.Und)
	lower := cases.Lower(language.Und, cases.HandleFinalSigma(false))
	out := make([]string, 0, 2*len(suffixes))
	for _, suffix := range suffixes {
		up := gearset.CommandMarker + upper.String(acronym) + upper.String(suffix)
		low := gearset.CommandMarker + lower.String(acronym) + suffix
		out = append(out, up)
		if low != up {
			out = append(out, low)
		}
	}
	return out
}

// PhantomCommands returns the uppercase and lowercase command strings for
// a phantom job acronym. Phantom commands have no suffix variants.
func PhantomCommands(acronym string) []string {
	return ClassJobCommands(acronym, []string{""})
}
