package overlap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/EmpoweredVote/district-results/internal/tabular"
)

type Config struct {
	Input   string
	Output  string
	Columns Columns
	Format  tabular.NumberFormat
	Logger  *slog.Logger
}

func (c Config) Validate() error {
	if c.Input == "" || c.Output == "" {
		return errors.New("input and output paths are required")
	}
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Run resolves the intersection table at cfg.Input and writes the block
// assignment file to cfg.Output.
func Run(cfg Config) ([]Assignment, Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, Stats{}, err
	}
	if cfg.Columns == (Columns{}) {
		cfg.Columns = DefaultColumns
	}

	in, err := tabular.Open(cfg.Input)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open intersection table: %w", err)
	}
	defer in.Close()

	res := NewResolver()
	if err := ReadInto(res, in, cfg.Columns, cfg.Format); err != nil {
		return nil, Stats{}, err
	}
	stats := res.Stats()
	cfg.Logger.Info("resolved split blocks",
		"total", stats.Total,
		"not_split", stats.FirstSeen,
		"split", stats.Duplicates,
		"blocks", stats.Blocks,
	)

	out, err := tabular.Create(cfg.Output)
	if err != nil {
		return nil, stats, fmt.Errorf("create block assignment file: %w", err)
	}
	assignments := res.Assignments()
	if err := WriteAssignments(out, assignments); err != nil {
		out.Close()
		return nil, stats, fmt.Errorf("write block assignment file: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, stats, fmt.Errorf("write block assignment file: %w", err)
	}
	cfg.Logger.Info("wrote block assignment file", "path", cfg.Output, "rows", len(assignments))
	return assignments, stats, nil
}
