package command

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/jobswitch/internal/config"
	"github.com/cory-johannsen/jobswitch/internal/game/classjob"
	"github.com/cory-johannsen/jobswitch/internal/game/gearset"
	"github.com/cory-johannsen/jobswitch/internal/observability"
)

// Registrar is the command table the dispatcher binds job commands into.
type Registrar interface {
	Exists(command string) bool
	Add(command string, handler Handler, help string) (Binding, error)
	Remove(command string) bool
}

// GameState is the host's view of the player: the gearset table, gear
// changes, and the current territory.
type GameState interface {
	gearset.Source
	// EquipGearset equips the gearset in slot id.
	EquipGearset(id int) error
	// RequestPhantomJobSwitch asks the host to change the phantom job.
	RequestPhantomJobSwitch(jobID uint32) error
	// CurrentTerritoryUseID returns the intended-use id of the current territory.
	CurrentTerritoryUseID() uint16
}

// Deps are the collaborators of a Dispatcher. A nil catalog leaves the
// matching command family inert.
type Deps struct {
	Registry    Registrar
	State       GameState
	Matcher     *gearset.Matcher
	ClassJobs   *classjob.Catalog
	PhantomJobs *classjob.PhantomCatalog
	Notifier    Notifier
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// Dispatcher registers a command string for every class/job and phantom job
// and turns those commands into gearset equips and phantom job switches.
//
// Dispatcher is safe for concurrent use. Registration passes are
// serialized; OnCommand reads only immutable catalogs and the game state.
type Dispatcher struct {
	registry    Registrar
	state       GameState
	matcher     *gearset.Matcher
	classJobs   *classjob.Catalog
	phantomJobs *classjob.PhantomCatalog
	notifier    Notifier
	logger      *zap.Logger
	metrics     *observability.Metrics

	mu         sync.Mutex
	registered map[string]struct{}
}

// NewDispatcher creates a Dispatcher.
//
// Precondition: d.Registry, d.State, d.Notifier, and d.Logger must be non-nil.
// Postcondition: Returns a Dispatcher with no commands registered. When
// d.Matcher is nil a marker-cleaning matcher over d.State is used.
func NewDispatcher(d Deps) *Dispatcher {
	if d.Registry == nil {
		panic("command.NewDispatcher: precondition violated: Registry must be non-nil")
	}
	if d.State == nil {
		panic("command.NewDispatcher: precondition violated: State must be non-nil")
	}
	if d.Notifier == nil {
		panic("command.NewDispatcher: precondition violated: Notifier must be non-nil")
	}
	if d.Logger == nil {
		panic("command.NewDispatcher: precondition violated: Logger must be non-nil")
	}
	matcher := d.Matcher
	if matcher == nil {
		matcher = gearset.NewMatcher(d.State, nil, d.Logger)
	}
	return &Dispatcher{
		registry:    d.Registry,
		state:       d.State,
		matcher:     matcher,
		classJobs:   d.ClassJobs,
		phantomJobs: d.PhantomJobs,
		notifier:    d.Notifier,
		logger:      d.Logger,
		metrics:     d.Metrics,
		registered:  make(map[string]struct{}),
	}
}

// RegisterAll replaces the dispatcher's commands with those derived from s.
//
// Class/job rows that are Commandable get one upper and one lower case
// command per active suffix. Phantom job rows whose name has an acronym get
// one upper and one lower case command. A string already bound in the
// registry is logged and skipped.
//
// Postcondition: The tracked set holds exactly the strings this call bound.
func (d *Dispatcher) RegisterAll(s config.Settings) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unregisterAll()

	help := func(name, kind string) string {
		if !s.IsVisible {
			return ""
		}
		return fmt.Sprintf("Switches to %s %s", name, kind)
	}

	if s.RegisterClassJobs && d.classJobs != nil {
		suffixes := s.ActiveSuffixes()
		for _, row := range d.classJobs.Rows() {
			if !row.Commandable() {
				continue
			}
			for _, cmd := range ClassJobCommands(row.Abbreviation, suffixes) {
				d.register(cmd, row.Name, help(row.Name, "class/job"))
			}
		}
	}

	if s.RegisterPhantomJobs && d.phantomJobs != nil {
		for _, row := range d.phantomJobs.Rows() {
			acr, ok := classjob.PhantomAcronym(row.Name)
			if !ok {
				continue
			}
			for _, cmd := range PhantomCommands(acr) {
				d.register(cmd, row.Name, help(row.Name, "phantom job"))
			}
		}
	}

	d.metrics.SetRegistered(len(d.registered))
}

func (d *Dispatcher) register(cmd, name, help string) {
	if _, own := d.registered[cmd]; own {
		return
	}
	if d.registry.Exists(cmd) {
		d.logger.Warn("Command already exists", zap.String("command", cmd))
		d.metrics.Duplicate()
		return
	}
	b, err := d.registry.Add(cmd, d.OnCommand, help)
	if err != nil {
		d.logger.Warn("Command registration failed", zap.String("command", cmd), zap.Error(err))
		d.metrics.Duplicate()
		return
	}
	d.registered[cmd] = struct{}{}
	d.logger.Info("Registered command",
		zap.String("command", cmd),
		zap.String("job", name),
		zap.Stringer("binding", b.ID),
	)
}

// UnregisterAll removes every tracked command still bound in the registry
// and clears the tracked set.
func (d *Dispatcher) UnregisterAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unregisterAll()
}

func (d *Dispatcher) unregisterAll() {
	for cmd := range d.registered {
		if d.registry.Exists(cmd) {
			d.registry.Remove(cmd)
		}
	}
	d.registered = make(map[string]struct{})
	d.metrics.SetRegistered(0)
}

// RegisteredCommands returns the tracked command strings in sorted order.
func (d *Dispatcher) RegisteredCommands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.registered))
	for cmd := range d.registered {
		out = append(out, cmd)
	}
	sort.Strings(out)
	return out
}

// OnCommand handles a job command. It is the Handler bound to every
// registered string and never returns an error: failures are shown to the
// player or logged.
//
// A command whose first three characters name a class/job equips the best
// gearset for that class/job. Otherwise a four-character command is a
// phantom job switch. Anything else is ignored.
func (d *Dispatcher) OnCommand(command, _ string) {
	if strings.TrimSpace(command) == "" {
		return
	}
	text := strings.TrimPrefix(strings.TrimSpace(command), gearset.CommandMarker)
	runes := []rune(text)

	if len(runes) >= classjob.AcronymLength && d.classJobs != nil {
		if row, ok := d.classJobs.ByAcronym(string(runes[:classjob.AcronymLength])); ok {
			d.switchClassJob(text, row)
			return
		}
	}
	if len(runes) == classjob.PhantomAcronymLength {
		d.switchPhantomJob(text)
		return
	}
	d.metrics.Dispatched(observability.KindIgnored, observability.OutcomeIgnored)
}

func (d *Dispatcher) switchClassJob(text string, row classjob.ClassJob) {
	id, ok := d.matcher.FindBest(text, row.ID)
	if !ok {
		d.notifier.ShowError(fmt.Sprintf("JobSwitch: No gearset found for class job: %s", row.Name))
		d.metrics.Dispatched(observability.KindClassJob, observability.OutcomeNotFound)
		return
	}
	if err := d.state.EquipGearset(id); err != nil {
		d.logger.Error("equipping gearset",
			zap.String("job", row.Name),
			zap.Int("gearset", id),
			zap.Error(err),
		)
		d.notifier.ShowError(fmt.Sprintf("JobSwitch: Failed to equip gearset %d: %v", id, err))
		d.metrics.Dispatched(observability.KindClassJob, observability.OutcomeFailed)
		return
	}
	d.logger.Info("Equipped best gearset for class job",
		zap.String("job", row.Name),
		zap.Int("gearset", id),
	)
	d.metrics.Dispatched(observability.KindClassJob, observability.OutcomeEquipped)
}

func (d *Dispatcher) switchPhantomJob(acronym string) {
	row, ok := d.phantomRow(acronym)
	if !ok {
		msg := fmt.Sprintf("JobSwitch: No Phantom Job found for command: %s", acronym)
		if suggestion, found := classjob.SuggestPhantomAcronym(acronym); found {
			msg += fmt.Sprintf(" (did you mean %s%s?)", gearset.CommandMarker, suggestion)
		}
		d.notifier.ShowError(msg)
		d.metrics.Dispatched(observability.KindPhantom, observability.OutcomeNotFound)
		return
	}

	if d.state.CurrentTerritoryUseID() != classjob.OccultCrescentUseID {
		d.notifier.ShowError("You can only use this command in the Occult Crescent")
		d.metrics.Dispatched(observability.KindPhantom, observability.OutcomeWrongTerritory)
		return
	}

	if err := d.state.RequestPhantomJobSwitch(row.ID); err != nil {
		d.logger.Error("Failed to switch Phantom Job", zap.String("job", row.Name), zap.Error(err))
		d.notifier.ShowError(fmt.Sprintf("Failed to switch Phantom Job: %v", err))
		d.metrics.Dispatched(observability.KindPhantom, observability.OutcomeFailed)
		return
	}
	d.logger.Info("Switched Phantom Job", zap.String("job", row.Name), zap.Uint32("id", row.ID))
	d.metrics.Dispatched(observability.KindPhantom, observability.OutcomeSwitched)
}

// phantomRow resolves an acronym to its catalog row. An unknown acronym and
// a known acronym with no row are both a miss.
func (d *Dispatcher) phantomRow(acronym string) (classjob.PhantomJob, bool) {
	if d.phantomJobs == nil {
		return classjob.PhantomJob{}, false
	}
	name, ok := classjob.PhantomName(acronym)
	if !ok {
		return classjob.PhantomJob{}, false
	}
	return d.phantomJobs.ByName(name)
}
