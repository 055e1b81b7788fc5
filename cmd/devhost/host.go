package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/jobswitch/internal/config"
	"github.com/cory-johannsen/jobswitch/internal/game/classjob"
	"github.com/cory-johannsen/jobswitch/internal/game/gearset"
	"github.com/cory-johannsen/jobswitch/internal/game/state"
	"github.com/cory-johannsen/jobswitch/internal/scripting"
)

// GearsetLister reads a stored gearset table.
type GearsetLister interface {
	ListByCharacter(ctx context.Context, character string) ([]gearset.Record, error)
}

// loadCatalogs reads the reference catalogs. A catalog that fails to load is
// logged and returned as nil, which leaves its command family unregistered.
func loadCatalogs(cfg config.HostConfig, logger *zap.Logger) (*classjob.Catalog, *classjob.PhantomCatalog) {
	var jobs *classjob.Catalog
	if rows, err := classjob.LoadClassJobs(cfg.ClassJobsFile); err != nil {
		logger.Warn("Failed to load ClassJob sheet", zap.String("path", cfg.ClassJobsFile), zap.Error(err))
	} else {
		jobs = classjob.NewCatalog(rows)
		logger.Info("class/job catalog loaded", zap.Int("rows", jobs.Len()))
	}

	var phantoms *classjob.PhantomCatalog
	if rows, err := classjob.LoadPhantomJobs(cfg.PhantomJobsFile); err != nil {
		logger.Warn("Failed to load MKDSupportJob sheet", zap.String("path", cfg.PhantomJobsFile), zap.Error(err))
	} else {
		phantoms = classjob.NewPhantomCatalog(rows)
		logger.Info("phantom job catalog loaded", zap.Int("rows", len(rows)))
	}
	return jobs, phantoms
}

// loadGearsets reads the configured gearset table.
//
// Precondition: repo must be non-nil when cfg.GearsetSource is postgres.
func loadGearsets(ctx context.Context, cfg config.HostConfig, repo GearsetLister) ([]gearset.Record, error) {
	switch cfg.GearsetSource {
	case config.GearsetSourceYAML:
		t, err := state.LoadTable(cfg.GearsetsFile)
		if err != nil {
			return nil, err
		}
		return t.Gearsets, nil
	case config.GearsetSourcePostgres:
		if repo == nil {
			return nil, fmt.Errorf("gearset source %q has no repository", cfg.GearsetSource)
		}
		return repo.ListByCharacter(ctx, cfg.Character)
	default:
		return nil, fmt.Errorf("unknown gearset source %q", cfg.GearsetSource)
	}
}

// newCleaner builds the configured cleaning strategy and its release func.
// A Lua script that fails to load falls back to the marker cleaner.
func newCleaner(cfg config.MatchingConfig, logger *zap.Logger) (gearset.Cleaner, func()) {
	switch cfg.Cleaner {
	case config.CleanerAffix:
		return gearset.AffixCleaner{Prefix: cfg.Prefix, Suffix: cfg.Suffix}, func() {}
	case config.CleanerLua:
		lc, err := scripting.NewLuaCleaner(cfg.Script, cfg.InstructionLimit, logger)
		if err != nil {
			logger.Warn("Lua cleaner unavailable, using marker cleaner", zap.String("script", cfg.Script), zap.Error(err))
			return gearset.MarkerCleaner{}, func() {}
		}
		return lc, lc.Close
	default:
		return gearset.MarkerCleaner{}, func() {}
	}
}
