package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/jobswitch/internal/game/gearset"
)

// ErrInvalidGearset is returned when a record's slot or class/job is out of range.
var ErrInvalidGearset = errors.New("invalid gearset")

// GearsetRepository stores each character's gearset slot table. Only
// existing gearsets are stored; an absent row is an empty slot.
type GearsetRepository struct {
	db *pgxpool.Pool
}

// NewGearsetRepository creates a GearsetRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewGearsetRepository(db *pgxpool.Pool) *GearsetRepository {
	return &GearsetRepository{db: db}
}

// ListByCharacter returns the character's stored gearsets ordered by slot.
//
// Postcondition: Every returned record has Exists true and ID equal to its
// slot. An unknown character yields an empty slice.
func (r *GearsetRepository) ListByCharacter(ctx context.Context, character string) ([]gearset.Record, error) {
	rows, err := r.db.Query(ctx, `
		SELECT slot, class_job_id, name
		FROM gearsets WHERE character_name = $1 ORDER BY slot ASC`,
		character,
	)
	if err != nil {
		return nil, fmt.Errorf("listing gearsets: %w", err)
	}
	defer rows.Close()

	var out []gearset.Record
	for rows.Next() {
		var (
			slot  int16
			jobID int64
			rec   gearset.Record
		)
		if err := rows.Scan(&slot, &jobID, &rec.Name); err != nil {
			return nil, fmt.Errorf("scanning gearset: %w", err)
		}
		rec.ID = int(slot)
		rec.ClassJobID = uint32(jobID)
		rec.Exists = true
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating gearsets: %w", err)
	}
	return out, nil
}

// Upsert stores rec in the character's table, replacing any gearset in the
// same slot. A record with Exists false deletes the slot instead.
//
// Precondition: rec.ID must be within [0, gearset.MaxGearsets).
// Postcondition: Returns ErrInvalidGearset for an out-of-range slot.
func (r *GearsetRepository) Upsert(ctx context.Context, character string, rec gearset.Record) error {
	if rec.ID < 0 || rec.ID >= gearset.MaxGearsets {
		return fmt.Errorf("slot %d: %w", rec.ID, ErrInvalidGearset)
	}
	if !rec.Exists {
		_, err := r.Delete(ctx, character, rec.ID)
		return err
	}
	return upsert(ctx, r.db, character, rec)
}

// Delete empties a slot.
//
// Postcondition: Returns true if a gearset was removed.
func (r *GearsetRepository) Delete(ctx context.Context, character string, slot int) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM gearsets WHERE character_name = $1 AND slot = $2`,
		character, slot,
	)
	if err != nil {
		return false, fmt.Errorf("deleting gearset: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ReplaceAll replaces the character's whole table with the existing records
// in recs, in one transaction.
//
// Precondition: every record ID must be within [0, gearset.MaxGearsets).
// Postcondition: On error the stored table is unchanged.
func (r *GearsetRepository) ReplaceAll(ctx context.Context, character string, recs []gearset.Record) error {
	for _, rec := range recs {
		if rec.ID < 0 || rec.ID >= gearset.MaxGearsets {
			return fmt.Errorf("slot %d: %w", rec.ID, ErrInvalidGearset)
		}
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM gearsets WHERE character_name = $1`, character); err != nil {
			return fmt.Errorf("clearing gearsets: %w", err)
		}
		for _, rec := range recs {
			if !rec.Exists {
				continue
			}
			if err := upsert(ctx, tx, character, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// execer is satisfied by both *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func upsert(ctx context.Context, db execer, character string, rec gearset.Record) error {
	_, err := db.Exec(ctx, `
		INSERT INTO gearsets (character_name, slot, class_job_id, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (character_name, slot) DO UPDATE
		SET class_job_id = EXCLUDED.class_job_id,
		    name         = EXCLUDED.name,
		    updated_at   = NOW()`,
		character, int16(rec.ID), int64(rec.ClassJobID), rec.Name,
	)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("slot %d: %w", rec.ID, ErrInvalidGearset)
		}
		return fmt.Errorf("upserting gearset %d: %w", rec.ID, err)
	}
	return nil
}
