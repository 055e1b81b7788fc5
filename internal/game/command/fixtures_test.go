package command

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/jobswitch/internal/config"
	"github.com/cory-johannsen/jobswitch/internal/game/classjob"
	"github.com/cory-johannsen/jobswitch/internal/game/gearset"
	"github.com/cory-johannsen/jobswitch/internal/game/state"
	"github.com/cory-johannsen/jobswitch/internal/observability"
)

const (
	jobPLD = 19
	jobWAR = 21
	jobWHM = 24
	jobBLM = 25
)

type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
	prints []string
}

func (n *recordingNotifier) ShowError(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, text)
}

func (n *recordingNotifier) Print(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prints = append(n.prints, text)
}

func testClassJobs() *classjob.Catalog {
	return classjob.NewCatalog([]classjob.ClassJob{
		{ID: 0, Abbreviation: "ADV", Name: "Adventurer"},
		{ID: jobPLD, Abbreviation: "PLD", Name: "Paladin"},
		{ID: jobWAR, Abbreviation: "WAR", Name: "Warrior"},
		{ID: jobWHM, Abbreviation: "WHM", Name: "White Mage"},
		{ID: jobBLM, Abbreviation: "BLM", Name: "Black Mage"},
		{ID: 99, Abbreviation: "", Name: "Unnamed"},
	})
}

func testPhantomJobs() *classjob.PhantomCatalog {
	return classjob.NewPhantomCatalog([]classjob.PhantomJob{
		{ID: 0, Name: "Phantom Freelancer"},
		{ID: 1, Name: "Phantom Knight"},
		{ID: 42, Name: "Phantom Tourist"},
	})
}

// failingState overrides the game state's equip and switch calls.
type failingState struct {
	*state.Provider
	equipErr  error
	switchErr error
}

func (s *failingState) EquipGearset(id int) error {
	if s.equipErr != nil {
		return s.equipErr
	}
	return s.Provider.EquipGearset(id)
}

func (s *failingState) RequestPhantomJobSwitch(jobID uint32) error {
	if s.switchErr != nil {
		return s.switchErr
	}
	return s.Provider.RequestPhantomJobSwitch(jobID)
}

type fixture struct {
	registry   *Registry
	provider   *state.Provider
	notifier   *recordingNotifier
	logs       *observer.ObservedLogs
	metrics    *observability.Metrics
	dispatcher *Dispatcher
}

type fixtureOption func(*Deps)

func withState(s GameState) fixtureOption {
	return func(d *Deps) { d.State = s }
}

func withoutCatalogs() fixtureOption {
	return func(d *Deps) {
		d.ClassJobs = nil
		d.PhantomJobs = nil
	}
}

func newFixture(t testing.TB, recs []gearset.Record, opts ...fixtureOption) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	provider := state.NewProvider(zap.NewNop())
	require.NoError(t, provider.Load(recs))

	f := &fixture{
		registry: NewRegistry(logger),
		provider: provider,
		notifier: &recordingNotifier{},
		logs:     logs,
		metrics:  observability.NewMetrics(prometheus.NewRegistry()),
	}
	deps := Deps{
		Registry:    f.registry,
		State:       provider,
		ClassJobs:   testClassJobs(),
		PhantomJobs: testPhantomJobs(),
		Notifier:    f.notifier,
		Logger:      logger,
		Metrics:     f.metrics,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.dispatcher = NewDispatcher(deps)
	return f
}

func baseSettings() config.Settings {
	s := config.DefaultSettings()
	s.RegisterCommandSuffixes = false
	return s
}

func blmSets() []gearset.Record {
	return []gearset.Record{
		{ID: 0, Exists: true, ClassJobID: jobBLM, Name: "PvP"},
		{ID: 1, Exists: true, ClassJobID: jobWAR, Name: "WAR"},
		{ID: 5, Exists: true, ClassJobID: jobBLM, Name: "BLM"},
		{ID: 6, Exists: true, ClassJobID: jobBLM, Name: "UCOB BLM"},
		{ID: 7, Exists: true, ClassJobID: jobBLM, Name: "BLMFRU"},
	}
}
