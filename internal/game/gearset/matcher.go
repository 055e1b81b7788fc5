package gearset

import "go.uber.org/zap"

// Matcher picks the best gearset for a command among those owned by a
// class/job.
type Matcher struct {
	source Source
	scorer Scorer
	logger *zap.Logger
}

// NewMatcher creates a Matcher reading gearsets from source.
//
// Precondition: source and logger must be non-nil; cleaner may be nil
// (MarkerCleaner is used).
// Postcondition: Returns a ready Matcher.
func NewMatcher(source Source, cleaner Cleaner, logger *zap.Logger) *Matcher {
	if source == nil {
		panic("gearset.NewMatcher: precondition violated: source must be non-nil")
	}
	if logger == nil {
		panic("gearset.NewMatcher: precondition violated: logger must be non-nil")
	}
	return &Matcher{source: source, scorer: Scorer{Cleaner: cleaner}, logger: logger}
}

// FindBest returns the id of the highest-scoring existing gearset owned by
// classJobID.
//
// Only slots whose record exists and whose ID equals the slot index are
// considered. Ties keep the first candidate in slot order. A candidate
// scoring 0 still beats having no candidate.
//
// Postcondition: Returns (id, true) on a match, or (0, false) when no
// candidate exists. Never mutates the source.
func (m *Matcher) FindBest(command string, classJobID uint32) (int, bool) {
	snapshot := m.source.Gearsets()

	bestID, bestScore := 0, -1
	for slot := 0; slot < MaxGearsets && slot < len(snapshot); slot++ {
		rec := snapshot[slot]
		if !rec.Exists || rec.ID != slot || rec.ClassJobID != classJobID {
			continue
		}
		score := m.scorer.Score(command, rec.Name)
		m.logger.Debug("scored gearset",
			zap.Int("gearset", rec.ID),
			zap.String("name", rec.Name),
			zap.String("command", command),
			zap.Int("score", score),
		)
		if score > bestScore {
			bestScore = score
			bestID = rec.ID
		}
	}

	if bestScore < 0 {
		return 0, false
	}
	return bestID, true
}
