package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/jobswitch/internal/game/classjob"
	"github.com/cory-johannsen/jobswitch/internal/game/command"
	"github.com/cory-johannsen/jobswitch/internal/game/state"
)

// Developer commands that stand in for host actions the console cannot
// otherwise perform.
const (
	TerritoryCommand = "/territory"
	GearsetsCommand  = "/gearsets"
)

// DevCommands binds the developer commands against the simulated game state.
type DevCommands struct {
	provider *state.Provider
	jobs     *classjob.Catalog
	phantoms *classjob.PhantomCatalog
	notifier command.Notifier
}

// NewDevCommands creates DevCommands. jobs and phantoms may be nil when the
// catalogs failed to load; names are then shown as row ids.
//
// Precondition: provider and notifier must be non-nil.
func NewDevCommands(provider *state.Provider, jobs *classjob.Catalog, phantoms *classjob.PhantomCatalog, notifier command.Notifier) *DevCommands {
	if provider == nil || notifier == nil {
		panic("handlers.NewDevCommands: precondition violated: provider and notifier must be non-nil")
	}
	return &DevCommands{provider: provider, jobs: jobs, phantoms: phantoms, notifier: notifier}
}

// Register binds TerritoryCommand and GearsetsCommand in r.
//
// Postcondition: Returns the first ErrCommandExists encountered.
func (d *DevCommands) Register(r *command.Registry) error {
	if _, err := r.Add(TerritoryCommand, d.territory, "Shows or sets the current territory intended-use id."); err != nil {
		return err
	}
	_, err := r.Add(GearsetsCommand, d.gearsets, "Lists saved gearsets and the active jobs.")
	return err
}

func (d *DevCommands) territory(_, args string) {
	args = strings.TrimSpace(args)
	if args == "" {
		d.notifier.Print(d.describeTerritory(d.provider.CurrentTerritoryUseID()))
		return
	}
	id, err := strconv.ParseUint(args, 10, 16)
	if err != nil {
		d.notifier.ShowError(fmt.Sprintf("Usage: %s <intended-use id>", TerritoryCommand))
		return
	}
	d.provider.SetTerritoryUseID(uint16(id))
	d.notifier.Print("Moved to " + d.describeTerritory(uint16(id)))
}

func (d *DevCommands) describeTerritory(id uint16) string {
	if id == classjob.OccultCrescentUseID {
		return fmt.Sprintf("territory use id %d (Occult Crescent).", id)
	}
	return fmt.Sprintf("territory use id %d.", id)
}

func (d *DevCommands) gearsets(_, _ string) {
	equipped, hasEquipped := d.provider.Equipped()

	var sb strings.Builder
	sb.WriteString("Gearsets:")
	n := 0
	for _, rec := range d.provider.Gearsets() {
		if !rec.Exists {
			continue
		}
		n++
		mark := " "
		if hasEquipped && rec.ID == equipped {
			mark = "*"
		}
		fmt.Fprintf(&sb, "\n %s %2d  %-24s %s", mark, rec.ID, rec.Name, d.className(rec.ClassJobID))
	}
	if n == 0 {
		sb.WriteString("\n  (none)")
	}
	if id, ok := d.provider.PhantomJob(); ok {
		fmt.Fprintf(&sb, "\nPhantom job: %s", d.phantomName(id))
	}
	d.notifier.Print(sb.String())
}

func (d *DevCommands) className(id uint32) string {
	if d.jobs != nil {
		for _, row := range d.jobs.Rows() {
			if row.ID == id && row.Abbreviation != "" {
				return row.Abbreviation
			}
		}
	}
	return "#" + strconv.FormatUint(uint64(id), 10)
}

func (d *DevCommands) phantomName(id uint32) string {
	if d.phantoms != nil {
		for _, row := range d.phantoms.Rows() {
			if row.ID == id {
				return row.Name
			}
		}
	}
	return "#" + strconv.FormatUint(uint64(id), 10)
}
