package gearset

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Score tiers. Each tier numerically dominates the next so ties never cross
// tiers for names shorter than 250 characters.
const (
	ScoreExact     = 1000
	ScorePrefix    = 500
	ScoreSubstring = 250
)

// Scorer computes match scores after cleaning command text with Cleaner.
type Scorer struct {
	// Cleaner prepares the command text; nil means MarkerCleaner.
	Cleaner Cleaner
}

// MatchScore scores command against gearsetName using MarkerCleaner.
//
// Postcondition: Returns a value >= 0.
func MatchScore(command, gearsetName string) int {
	return Scorer{}.Score(command, gearsetName)
}

// Score rates how well gearsetName matches command.
//
// The cascade is: exact match (1000), name starts with the cleaned command
// (500+len), name contains it (250+len), every command character found in
// order within the name (len), otherwise 0. Comparison is case-insensitive.
//
// Postcondition: Returns 0 when either side is empty or whitespace-only,
// before or after cleaning.
func (s Scorer) Score(command, gearsetName string) int {
	if isBlank(command) || isBlank(gearsetName) {
		return 0
	}

	cleaner := s.Cleaner
	if cleaner == nil {
		cleaner = MarkerCleaner{}
	}
	cmd := fold(cleaner.Clean(command))
	if isBlank(cmd) {
		return 0
	}
	name := fold(gearsetName)
	cmdLen := utf8.RuneCountInString(cmd)

	switch {
	case cmd == name:
		return ScoreExact
	case strings.HasPrefix(name, cmd):
		return ScorePrefix + cmdLen
	case strings.Contains(name, cmd):
		return ScoreSubstring + cmdLen
	}

	if overlap := subsequenceOverlap(cmd, name); overlap == cmdLen {
		return overlap
	}
	return 0
}

// subsequenceOverlap walks name left to right, greedily consuming the runes
// of cmd in order, and returns how many were consumed.
func subsequenceOverlap(cmd, name string) int {
	want := []rune(cmd)
	matched := 0
	for _, r := range name {
		if matched == len(want) {
			break
		}
		if r == want[matched] {
			matched++
		}
	}
	return matched
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// fold lowercases s without language-specific rules. Final sigma is not
// special-cased, so Σ always folds to σ.
func fold(s string) string {
	return cases.Lower(language.Und, cases.HandleFinalSigma(false)).String(s)
}
