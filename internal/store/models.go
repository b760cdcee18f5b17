package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const Schema = "elections"

// Run is one plan/year aggregation. Re-running a plan replaces its rows.
type Run struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;column:id"`
	Plan        string    `gorm:"column:plan;not null;uniqueIndex:idx_runs_plan_year"`
	Year        int       `gorm:"column:year;not null;uniqueIndex:idx_runs_plan_year"`
	InputDigest string    `gorm:"column:input_digest"`
	Rows        int       `gorm:"column:rows"`
	Misses      int       `gorm:"column:misses"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (Run) TableName() string { return Schema + ".runs" }

type DistrictTally struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey;column:id"`
	RunID        uuid.UUID      `gorm:"type:uuid;not null;index;column:run_id"`
	Race         string         `gorm:"column:race;not null"`
	DistrictType string         `gorm:"column:district_type;not null"`
	District     int            `gorm:"column:district;not null"`
	Counties     pq.StringArray `gorm:"type:text[];column:counties"`
	Democrat     int64          `gorm:"column:democrat"`
	Republican   int64          `gorm:"column:republican"`
	Other        int64          `gorm:"column:other"`
}

func (DistrictTally) TableName() string { return Schema + ".district_tallies" }

// PartisanLean stores one cell of an index file. The overall index is
// stored with Race set to OverallRace.
type PartisanLean struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;column:id"`
	RunID        uuid.UUID `gorm:"type:uuid;not null;index;column:run_id"`
	Scope        string    `gorm:"column:scope;not null"`
	DistrictType string    `gorm:"column:district_type;not null"`
	District     int       `gorm:"column:district;not null"`
	Race         string    `gorm:"column:race;not null"`
	Lean         float64   `gorm:"column:lean"`
}

func (PartisanLean) TableName() string { return Schema + ".partisan_leans" }

const OverallRace = "partisan_index"

// BlockAssignment is a row of a block assignment file. Source names the
// file it came from so several vintages can coexist.
type BlockAssignment struct {
	Source   string `gorm:"primaryKey;column:source"`
	Block    string `gorm:"primaryKey;column:block"`
	Precinct string `gorm:"column:precinct;not null"`
}

func (BlockAssignment) TableName() string { return Schema + ".block_assignments" }
