package command

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/jobswitch/internal/config"
	"github.com/cory-johannsen/jobswitch/internal/game/classjob"
	"github.com/cory-johannsen/jobswitch/internal/game/gearset"
	"github.com/cory-johannsen/jobswitch/internal/game/state"
	"github.com/cory-johannsen/jobswitch/internal/observability"
)

func TestRegisterAll_NoSuffixes(t *testing.T) {
	f := newFixture(t, nil)
	f.dispatcher.RegisterAll(baseSettings())

	assert.Equal(t, []string{
		"/BLM", "/PFRE", "/PKNT", "/PLD", "/WAR", "/WHM",
		"/blm", "/pfre", "/pknt", "/pld", "/war", "/whm",
	}, f.dispatcher.RegisteredCommands())
	assert.False(t, f.registry.Exists("/ADV"), "rows with id 0 get no commands")
	for _, cmd := range f.dispatcher.RegisteredCommands() {
		assert.True(t, f.registry.Exists(cmd), cmd)
	}
	assert.Equal(t, 12.0, testutil.ToFloat64(f.metrics.RegisteredCommands))
}

func TestRegisterAll_Suffixes(t *testing.T) {
	f := newFixture(t, nil)
	s := config.DefaultSettings()
	s.CommandSuffixes = []string{"", "ucob"}
	f.dispatcher.RegisterAll(s)

	for _, cmd := range []string{"/BLMUCOB", "/blmucob", "/WARUCOB", "/warucob", "/BLM", "/blm"} {
		assert.True(t, f.registry.Exists(cmd), cmd)
	}
	assert.False(t, f.registry.Exists("/PKNTUCOB"), "phantom jobs have no suffix variants")
	assert.Len(t, f.dispatcher.RegisteredCommands(), 4*2*2+2*2)
}

func TestRegisterAll_SuffixesDisabledIgnoresList(t *testing.T) {
	f := newFixture(t, nil)
	s := baseSettings()
	s.CommandSuffixes = []string{"", "ucob"}
	f.dispatcher.RegisterAll(s)
	assert.False(t, f.registry.Exists("/blmucob"))
}

func TestRegisterAll_EmptySuffixListUsesDefaults(t *testing.T) {
	f := newFixture(t, nil)
	s := config.DefaultSettings()
	s.CommandSuffixes = nil
	f.dispatcher.RegisterAll(s)
	assert.True(t, f.registry.Exists("/blmfru"))
	assert.True(t, f.registry.Exists("/WHMOC"))
}

func TestRegisterAll_FamilyToggles(t *testing.T) {
	f := newFixture(t, nil)
	s := baseSettings()
	s.RegisterClassJobs = false
	f.dispatcher.RegisterAll(s)
	assert.Equal(t, []string{"/PFRE", "/PKNT", "/pfre", "/pknt"}, f.dispatcher.RegisteredCommands())

	s = baseSettings()
	s.RegisterPhantomJobs = false
	f.dispatcher.RegisterAll(s)
	assert.False(t, f.registry.Exists("/pknt"))
	assert.True(t, f.registry.Exists("/blm"))
}

func TestRegisterAll_Visibility(t *testing.T) {
	f := newFixture(t, nil)
	s := baseSettings()
	s.IsVisible = false
	f.dispatcher.RegisterAll(s)
	assert.Empty(t, f.registry.Visible())

	s.IsVisible = true
	f.dispatcher.RegisterAll(s)
	var help []string
	for _, b := range f.registry.Visible() {
		if b.Command == "/blm" || b.Command == "/pknt" {
			help = append(help, b.HelpMessage)
		}
	}
	assert.Equal(t, []string{"Switches to Black Mage class/job", "Switches to Phantom Knight phantom job"}, help)
}

func TestRegisterAll_DuplicateKeepsFirstHandler(t *testing.T) {
	f := newFixture(t, blmSets())
	foreign := 0
	_, err := f.registry.Add("/blm", func(_, _ string) { foreign++ }, "another plugin")
	require.NoError(t, err)

	assert.NotPanics(t, func() { f.dispatcher.RegisterAll(baseSettings()) })

	warnings := f.logs.FilterMessage("Command already exists").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "/blm", warnings[0].ContextMap()["command"])
	assert.NotContains(t, f.dispatcher.RegisteredCommands(), "/blm")
	assert.Contains(t, f.dispatcher.RegisteredCommands(), "/BLM", "the rest still registers")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.DuplicateCommands))

	require.NoError(t, f.registry.Invoke("/blm"))
	assert.Equal(t, 1, foreign)
	_, equipped := f.provider.Equipped()
	assert.False(t, equipped)

	f.dispatcher.UnregisterAll()
	assert.True(t, f.registry.Exists("/blm"), "foreign binding survives unregistration")
}

func TestRegisterAll_LogsEachRegistration(t *testing.T) {
	f := newFixture(t, nil)
	f.dispatcher.RegisterAll(baseSettings())
	assert.Equal(t, 12, f.logs.FilterMessage("Registered command").Len())
}

func TestUnregisterAll(t *testing.T) {
	f := newFixture(t, nil)
	f.dispatcher.RegisterAll(baseSettings())
	registered := f.dispatcher.RegisteredCommands()

	f.registry.Remove("/war")
	f.dispatcher.UnregisterAll()

	for _, cmd := range registered {
		assert.False(t, f.registry.Exists(cmd), cmd)
	}
	assert.Empty(t, f.dispatcher.RegisteredCommands())
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.RegisteredCommands))
	assert.NotPanics(t, f.dispatcher.UnregisterAll)
}

func TestRegisterAll_ReplacesPreviousSet(t *testing.T) {
	f := newFixture(t, nil)
	s := config.DefaultSettings()
	f.dispatcher.RegisterAll(s)
	require.True(t, f.registry.Exists("/blmucob"))

	s.CommandSuffixes = []string{""}
	f.dispatcher.RegisterAll(s)
	assert.False(t, f.registry.Exists("/blmucob"))
	assert.True(t, f.registry.Exists("/blm"))
}

func TestRegisterAll_InertWithoutCatalogs(t *testing.T) {
	f := newFixture(t, blmSets(), withoutCatalogs())
	f.dispatcher.RegisterAll(config.DefaultSettings())
	assert.Empty(t, f.dispatcher.RegisteredCommands())

	f.dispatcher.OnCommand("/blm", "")
	f.dispatcher.OnCommand("/pknt", "")
	_, equipped := f.provider.Equipped()
	assert.False(t, equipped)
	assert.Equal(t, []string{"JobSwitch: No Phantom Job found for command: pknt"}, f.notifier.errors)
}

func TestOnCommand_BLMEquipsExactMatch(t *testing.T) {
	f := newFixture(t, []gearset.Record{
		{ID: 0, Exists: true, ClassJobID: jobBLM, Name: "PvP"},
		{ID: 5, Exists: true, ClassJobID: jobBLM, Name: "BLM"},
	})
	f.dispatcher.RegisterAll(baseSettings())

	require.NoError(t, f.registry.Invoke("/blm"))
	id, ok := f.provider.Equipped()
	require.True(t, ok)
	assert.Equal(t, 5, id)
	assert.Empty(t, f.notifier.errors)
	assert.Equal(t, 1, f.logs.FilterMessage("Equipped best gearset for class job").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CommandsDispatched.WithLabelValues(observability.KindClassJob, observability.OutcomeEquipped)))
}

func TestOnCommand_UppercaseCommand(t *testing.T) {
	f := newFixture(t, blmSets())
	f.dispatcher.RegisterAll(config.DefaultSettings())

	require.NoError(t, f.registry.Invoke("/BLMFRU"))
	id, _ := f.provider.Equipped()
	assert.Equal(t, 7, id)
}

func TestOnCommand_BLMUCOBFallsToSubsequence(t *testing.T) {
	assert.Equal(t, 0, gearset.MatchScore("blmucob", "UCOB BLM"),
		"no prefix, substring, or full subsequence: only b-l-m of blmucob appear in order")

	f := newFixture(t, []gearset.Record{
		{ID: 6, Exists: true, ClassJobID: jobBLM, Name: "UCOB BLM"},
	})
	f.dispatcher.RegisterAll(config.DefaultSettings())

	require.NoError(t, f.registry.Invoke("/blmucob"))
	id, ok := f.provider.Equipped()
	require.True(t, ok, "the sole candidate wins with score 0")
	assert.Equal(t, 6, id)
}

func TestOnCommand_BLMUCOBTieGoesToLowestSlot(t *testing.T) {
	f := newFixture(t, blmSets())
	f.dispatcher.RegisterAll(config.DefaultSettings())

	require.NoError(t, f.registry.Invoke("/blmucob"))
	id, _ := f.provider.Equipped()
	assert.Equal(t, 0, id, "every BLM set scores 0 so slot 0 wins")
}

func TestOnCommand_NoGearsetForJob(t *testing.T) {
	f := newFixture(t, []gearset.Record{
		{ID: 1, Exists: true, ClassJobID: jobWAR, Name: "WAR"},
		{ID: 2, Exists: false, ClassJobID: jobWHM, Name: "WHM"},
	})
	f.dispatcher.RegisterAll(baseSettings())

	require.NoError(t, f.registry.Invoke("/whm"))
	assert.Equal(t, []string{"JobSwitch: No gearset found for class job: White Mage"}, f.notifier.errors)
	_, equipped := f.provider.Equipped()
	assert.False(t, equipped)
}

func TestOnCommand_EquipFailureIsShown(t *testing.T) {
	provider := state.NewProvider(zap.NewNop())
	require.NoError(t, provider.Load(blmSets()))
	st := &failingState{Provider: provider, equipErr: errors.New("in combat")}
	f := newFixture(t, nil, withState(st))

	f.dispatcher.OnCommand("/blm", "")
	require.Len(t, f.notifier.errors, 1)
	assert.Contains(t, f.notifier.errors[0], "in combat")
}

func TestOnCommand_PhantomOutsideOccultCrescent(t *testing.T) {
	f := newFixture(t, nil)
	f.dispatcher.RegisterAll(baseSettings())
	f.provider.SetTerritoryUseID(1)

	require.NoError(t, f.registry.Invoke("/pknt"))
	assert.Equal(t, []string{"You can only use this command in the Occult Crescent"}, f.notifier.errors)
	_, switched := f.provider.PhantomJob()
	assert.False(t, switched)
}

func TestOnCommand_PhantomInsideOccultCrescent(t *testing.T) {
	f := newFixture(t, nil)
	f.dispatcher.RegisterAll(baseSettings())
	f.provider.SetTerritoryUseID(classjob.OccultCrescentUseID)

	require.NoError(t, f.registry.Invoke("/PKNT"))
	assert.Empty(t, f.notifier.errors)
	job, switched := f.provider.PhantomJob()
	require.True(t, switched)
	assert.Equal(t, uint32(1), job)
}

func TestOnCommand_PhantomUnknownAcronym(t *testing.T) {
	f := newFixture(t, nil)
	f.provider.SetTerritoryUseID(classjob.OccultCrescentUseID)

	f.dispatcher.OnCommand("/pxyz", "")
	f.dispatcher.OnCommand("/pknx", "")
	assert.Equal(t, []string{
		"JobSwitch: No Phantom Job found for command: pxyz",
		"JobSwitch: No Phantom Job found for command: pknx (did you mean /PKNT?)",
	}, f.notifier.errors)
	_, switched := f.provider.PhantomJob()
	assert.False(t, switched)
}

func TestOnCommand_PhantomMissingCatalogRow(t *testing.T) {
	f := newFixture(t, nil)
	f.provider.SetTerritoryUseID(classjob.OccultCrescentUseID)

	f.dispatcher.OnCommand("/pber", "")
	assert.Equal(t, []string{"JobSwitch: No Phantom Job found for command: pber"}, f.notifier.errors)
}

func TestOnCommand_PhantomLookupPrecedesZoneCheck(t *testing.T) {
	f := newFixture(t, nil)
	f.dispatcher.OnCommand("/pxyz", "")
	assert.Equal(t, []string{"JobSwitch: No Phantom Job found for command: pxyz"}, f.notifier.errors)
}

func TestOnCommand_PhantomSwitchFailure(t *testing.T) {
	provider := state.NewProvider(zap.NewNop())
	provider.SetTerritoryUseID(classjob.OccultCrescentUseID)
	st := &failingState{Provider: provider, switchErr: errors.New("agent unavailable")}
	f := newFixture(t, nil, withState(st))

	f.dispatcher.OnCommand("/pfre", "")
	assert.Equal(t, []string{"Failed to switch Phantom Job: agent unavailable"}, f.notifier.errors)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CommandsDispatched.WithLabelValues(observability.KindPhantom, observability.OutcomeFailed)))
}

func TestOnCommand_IgnoredShapes(t *testing.T) {
	f := newFixture(t, blmSets())
	for _, cmd := range []string{"", "   ", "/", "/ab", "/xyzzy", "/abcdef"} {
		f.dispatcher.OnCommand(cmd, "")
	}
	assert.Empty(t, f.notifier.errors)
	_, equipped := f.provider.Equipped()
	assert.False(t, equipped)
}

func TestOnCommand_WithoutMarker(t *testing.T) {
	f := newFixture(t, blmSets())
	f.dispatcher.OnCommand("blm", "")
	id, _ := f.provider.Equipped()
	assert.Equal(t, 5, id)
}

func TestOnCommand_ReadsFreshSnapshot(t *testing.T) {
	f := newFixture(t, blmSets())
	f.dispatcher.OnCommand("/war", "")
	id, _ := f.provider.Equipped()
	require.Equal(t, 1, id)

	require.NoError(t, f.provider.Set(gearset.Record{ID: 9, Exists: true, ClassJobID: jobWAR, Name: "War"}))
	require.NoError(t, f.provider.Set(gearset.Record{ID: 1, Exists: false}))
	f.dispatcher.OnCommand("/war", "")
	id, _ = f.provider.Equipped()
	assert.Equal(t, 9, id)
}

func TestNewDispatcher_Preconditions(t *testing.T) {
	f := newFixture(t, nil)
	valid := Deps{
		Registry: f.registry,
		State:    f.provider,
		Notifier: f.notifier,
		Logger:   zap.NewNop(),
	}
	assert.NotPanics(t, func() { NewDispatcher(valid) })

	for name, mutate := range map[string]func(*Deps){
		"registry": func(d *Deps) { d.Registry = nil },
		"state":    func(d *Deps) { d.State = nil },
		"notifier": func(d *Deps) { d.Notifier = nil },
		"logger":   func(d *Deps) { d.Logger = nil },
	} {
		d := valid
		mutate(&d)
		assert.Panics(t, func() { NewDispatcher(d) }, name)
	}
}

func TestProperty_ReregistrationReproducesFreshSet(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := config.DefaultSettings()
		s.RegisterClassJobs = rapid.Bool().Draw(rt, "classjobs")
		s.RegisterPhantomJobs = rapid.Bool().Draw(rt, "phantom")
		s.RegisterCommandSuffixes = rapid.Bool().Draw(rt, "suffixes")
		s.CommandSuffixes = rapid.SliceOfNDistinct(
			rapid.StringMatching(`[a-z0-9]{0,4}`), 1, 6, rapid.ID[string],
		).Draw(rt, "list")

		fresh := newFixture(t, nil)
		fresh.dispatcher.RegisterAll(s)
		want := fresh.dispatcher.RegisteredCommands()

		f := newFixture(t, nil)
		f.dispatcher.RegisterAll(config.DefaultSettings())
		rounds := rapid.IntRange(1, 3).Draw(rt, "rounds")
		for i := 0; i < rounds; i++ {
			f.dispatcher.UnregisterAll()
			f.dispatcher.RegisterAll(s)
		}
		got := f.dispatcher.RegisteredCommands()
		if len(got) != len(want) {
			rt.Fatalf("re-registration produced %d commands, fresh produced %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				rt.Fatalf("command %d: got %q, want %q", i, got[i], want[i])
			}
		}
		if got := len(f.registry.Commands()); got != len(want) {
			rt.Fatalf("registry holds %d bindings, want %d", got, len(want))
		}
	})
}

func TestProperty_CommandEquipsOnlyOwnJob(t *testing.T) {
	jobs := []uint32{jobPLD, jobWAR, jobWHM, jobBLM}
	acronyms := map[uint32]string{jobPLD: "pld", jobWAR: "war", jobWHM: "whm", jobBLM: "blm"}

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(rt, "n")
		recs := make([]gearset.Record, 0, n)
		for i := 0; i < n; i++ {
			recs = append(recs, gearset.Record{
				ID:         i,
				Exists:     true,
				ClassJobID: rapid.SampledFrom(jobs).Draw(rt, "job"),
				Name:       rapid.StringMatching(`[A-Za-z ]{0,10}`).Draw(rt, "name"),
			})
		}
		target := rapid.SampledFrom(jobs).Draw(rt, "target")

		f := newFixture(t, recs)
		f.dispatcher.OnCommand("/"+acronyms[target], "")

		id, ok := f.provider.Equipped()
		hasOwn := false
		for _, r := range recs {
			hasOwn = hasOwn || r.ClassJobID == target
		}
		if ok != hasOwn {
			rt.Fatalf("equipped=%v but job has gearsets=%v", ok, hasOwn)
		}
		if ok && recs[id].ClassJobID != target {
			rt.Fatalf("equipped gearset %d belongs to job %d, want %d", id, recs[id].ClassJobID, target)
		}
	})
}
