// Package state simulates the host's game state: the gearset slot table,
// the equipped gearset, the current territory, and the phantom job.
package state

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/jobswitch/internal/game/classjob"
	"github.com/cory-johannsen/jobswitch/internal/game/gearset"
)

// ErrGearsetNotFound is returned when equipping a slot that holds no gearset.
var ErrGearsetNotFound = errors.New("gearset not found")

// ErrWrongTerritory is returned when a phantom job switch is requested
// outside the Occult Crescent.
var ErrWrongTerritory = errors.New("phantom jobs can only be switched in the Occult Crescent")

// Provider owns the gearset table and player state. It is safe for
// concurrent use; the host may mutate it while commands read snapshots.
type Provider struct {
	mu             sync.RWMutex
	slots          [gearset.MaxGearsets]gearset.Record
	equipped       int
	territoryUseID uint16
	phantomJobID   uint32
	hasPhantomJob  bool
	logger         *zap.Logger
}

// NewProvider returns a Provider with every slot empty and nothing equipped.
//
// Precondition: logger must be non-nil.
// Postcondition: Slot i has ID i and Exists false.
func NewProvider(logger *zap.Logger) *Provider {
	if logger == nil {
		panic("state.NewProvider: precondition violated: logger must be non-nil")
	}
	p := &Provider{equipped: -1, logger: logger}
	for i := range p.slots {
		p.slots[i].ID = i
	}
	return p
}

// Load replaces the gearset table with recs. Slots not named in recs are
// cleared.
//
// Precondition: every record ID must be within [0, MaxGearsets) and unique.
// Postcondition: On error the table is unchanged.
func (p *Provider) Load(recs []gearset.Record) error {
	var next [gearset.MaxGearsets]gearset.Record
	for i := range next {
		next[i].ID = i
	}
	seen := make(map[int]bool, len(recs))
	for _, rec := range recs {
		if rec.ID < 0 || rec.ID >= gearset.MaxGearsets {
			return fmt.Errorf("gearset id %d out of range [0,%d)", rec.ID, gearset.MaxGearsets)
		}
		if seen[rec.ID] {
			return fmt.Errorf("duplicate gearset id %d", rec.ID)
		}
		seen[rec.ID] = true
		next[rec.ID] = rec
	}

	p.mu.Lock()
	p.slots = next
	if p.equipped >= 0 && !p.slots[p.equipped].Exists {
		p.equipped = -1
	}
	p.mu.Unlock()
	return nil
}

// Set writes one slot, as the host does when the player saves a gearset.
//
// Precondition: rec.ID must be within [0, MaxGearsets).
func (p *Provider) Set(rec gearset.Record) error {
	if rec.ID < 0 || rec.ID >= gearset.MaxGearsets {
		return fmt.Errorf("gearset id %d out of range [0,%d)", rec.ID, gearset.MaxGearsets)
	}
	p.mu.Lock()
	p.slots[rec.ID] = rec
	p.mu.Unlock()
	return nil
}

// Gearsets returns a snapshot of all slots.
//
// Postcondition: len(result) == MaxGearsets; the caller owns the slice.
func (p *Provider) Gearsets() []gearset.Record {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]gearset.Record, gearset.MaxGearsets)
	copy(out, p.slots[:])
	return out
}

// EquipGearset equips the gearset in slot id.
//
// Postcondition: Returns ErrGearsetNotFound when the slot is out of range or
// empty; otherwise Equipped reports id.
func (p *Provider) EquipGearset(id int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= gearset.MaxGearsets || !p.slots[id].Exists {
		return fmt.Errorf("equipping gearset %d: %w", id, ErrGearsetNotFound)
	}
	p.equipped = id
	p.logger.Info("equipped gearset",
		zap.Int("gearset", id),
		zap.String("name", p.slots[id].Name),
		zap.Uint32("class_job", p.slots[id].ClassJobID),
	)
	return nil
}

// Equipped returns the equipped gearset slot, if any.
func (p *Provider) Equipped() (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.equipped, p.equipped >= 0
}

// SetTerritoryUseID moves the player to a territory with the given
// intended-use id.
func (p *Provider) SetTerritoryUseID(id uint16) {
	p.mu.Lock()
	p.territoryUseID = id
	p.mu.Unlock()
}

// CurrentTerritoryUseID returns the intended-use id of the player's territory.
func (p *Provider) CurrentTerritoryUseID() uint16 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.territoryUseID
}

// RequestPhantomJobSwitch asks the zone to switch the player's phantom job.
//
// Postcondition: Returns ErrWrongTerritory outside the Occult Crescent;
// otherwise PhantomJob reports jobID.
func (p *Provider) RequestPhantomJobSwitch(jobID uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.territoryUseID != classjob.OccultCrescentUseID {
		return ErrWrongTerritory
	}
	p.phantomJobID = jobID
	p.hasPhantomJob = true
	p.logger.Info("switched phantom job", zap.Uint32("phantom_job", jobID))
	return nil
}

// PhantomJob returns the active phantom job row id, if any.
func (p *Provider) PhantomJob() (uint32, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.phantomJobID, p.hasPhantomJob
}
