// Package store persists finished runs to Postgres. Writing CSV files
// remains the primary output; the database copy is optional.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/EmpoweredVote/district-results/internal/db"
	"github.com/EmpoweredVote/district-results/internal/overlap"
	"github.com/EmpoweredVote/district-results/internal/partisan"
	"github.com/EmpoweredVote/district-results/internal/results"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 500

// IndexSet is one written partisan index file.
type IndexSet struct {
	Scope        string
	DistrictType string
	Races        []string
	Rows         []partisan.Row
}

// RunRecord is everything a pipeline run produced for one plan.
type RunRecord struct {
	Plan        string
	Year        int
	InputDigest string
	Rows        int
	Misses      int
	Table       *results.Table
	Indexes     []IndexSet
}

type Store struct {
	db  *gorm.DB
	ns  uuid.UUID
	log *slog.Logger
	now func() time.Time
}

func New(d *gorm.DB, ns uuid.UUID, log *slog.Logger) *Store {
	if ns == uuid.Nil {
		ns = DefaultNamespace
	}
	return &Store{db: d, ns: ns, log: log, now: time.Now}
}

// Open connects to dsn, creates the tables and returns a ready store. An
// empty namespace selects DefaultNamespace.
func Open(ctx context.Context, dsn, namespace string, log *slog.Logger) (*Store, error) {
	ns := DefaultNamespace
	if namespace != "" {
		var err error
		if ns, err = uuid.Parse(namespace); err != nil {
			return nil, fmt.Errorf("invalid namespace uuid: %w", err)
		}
	}
	d, err := db.Open(dsn, log)
	if err != nil {
		return nil, err
	}
	s := New(d, ns, log)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close(d)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return db.Close(s.db) }

// Migrate creates the schema and tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if err := db.EnsureSchema(s.db.WithContext(ctx), Schema); err != nil {
		return fmt.Errorf("create schema %s: %w", Schema, err)
	}
	return s.db.WithContext(ctx).AutoMigrate(&Run{}, &DistrictTally{}, &PartisanLean{}, &BlockAssignment{})
}

// SaveRun replaces the stored copy of a plan/year run. Concurrent saves of
// the same run are serialized on an advisory lock.
func (s *Store) SaveRun(ctx context.Context, rec RunRecord) error {
	runID := RunID(s.ns, rec.Plan, rec.Year)
	tallies := s.tallyRows(runID, rec.Table)
	leans := s.leanRows(runID, rec.Indexes)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, runID.String()).Error; err != nil {
			return fmt.Errorf("lock run: %w", err)
		}

		run := Run{
			ID:          runID,
			Plan:        rec.Plan,
			Year:        rec.Year,
			InputDigest: rec.InputDigest,
			Rows:        rec.Rows,
			Misses:      rec.Misses,
			CreatedAt:   s.now().UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "plan"}, {Name: "year"}},
			DoUpdates: clause.AssignmentColumns([]string{"input_digest", "rows", "misses", "created_at"}),
		}).Create(&run).Error; err != nil {
			return fmt.Errorf("upsert run: %w", err)
		}

		if err := tx.Where("run_id = ?", runID).Delete(&DistrictTally{}).Error; err != nil {
			return fmt.Errorf("clear tallies: %w", err)
		}
		if err := tx.Where("run_id = ?", runID).Delete(&PartisanLean{}).Error; err != nil {
			return fmt.Errorf("clear leans: %w", err)
		}

		if len(tallies) > 0 {
			if err := tx.CreateInBatches(tallies, batchSize).Error; err != nil {
				return fmt.Errorf("insert tallies: %w", err)
			}
		}
		if len(leans) > 0 {
			if err := tx.CreateInBatches(leans, batchSize).Error; err != nil {
				return fmt.Errorf("insert leans: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("saved run",
		slog.String("plan", rec.Plan),
		slog.Int("year", rec.Year),
		slog.Int("tallies", len(tallies)),
		slog.Int("leans", len(leans)),
	)
	return nil
}

// SaveBlockAssignments replaces every row stored under source.
func (s *Store) SaveBlockAssignments(ctx context.Context, source string, as []overlap.Assignment) error {
	rows := blockRows(source, as)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("source = ?", source).Delete(&BlockAssignment{}).Error; err != nil {
			return fmt.Errorf("clear block assignments: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source"}, {Name: "block"}},
			DoUpdates: clause.AssignmentColumns([]string{"precinct"}),
		}).CreateInBatches(rows, batchSize).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("saved block assignments", slog.String("source", source), slog.Int("rows", len(rows)))
	return nil
}

func (s *Store) tallyRows(runID uuid.UUID, table *results.Table) []DistrictTally {
	if table == nil {
		return nil
	}
	var out []DistrictTally
	for _, race := range table.Races() {
		for _, dt := range table.DistrictTypes() {
			for _, d := range table.Districts(race, dt) {
				out = append(out, DistrictTally{
					ID:           TallyID(s.ns, runID, race, dt.Name, d.District),
					RunID:        runID,
					Race:         race,
					DistrictType: dt.Name,
					District:     d.District,
					Counties:     append([]string{}, d.Tally.Counties...),
					Democrat:     d.Tally.Democrat,
					Republican:   d.Tally.Republican,
					Other:        d.Tally.Other,
				})
			}
		}
	}
	return out
}

func (s *Store) leanRows(runID uuid.UUID, sets []IndexSet) []PartisanLean {
	var out []PartisanLean
	for _, set := range sets {
		for _, row := range set.Rows {
			for i, race := range set.Races {
				out = append(out, s.lean(runID, set, row.District, race, row.Leans[i]))
			}
			out = append(out, s.lean(runID, set, row.District, OverallRace, row.Index))
		}
	}
	return out
}

func (s *Store) lean(runID uuid.UUID, set IndexSet, district int, race string, v float64) PartisanLean {
	return PartisanLean{
		ID:           LeanID(s.ns, runID, set.Scope, set.DistrictType, district, race),
		RunID:        runID,
		Scope:        set.Scope,
		DistrictType: set.DistrictType,
		District:     district,
		Race:         race,
		Lean:         v,
	}
}

func blockRows(source string, as []overlap.Assignment) []BlockAssignment {
	out := make([]BlockAssignment, 0, len(as))
	for _, a := range as {
		out = append(out, BlockAssignment{Source: source, Block: a.Block, Precinct: a.Precinct})
	}
	return out
}
