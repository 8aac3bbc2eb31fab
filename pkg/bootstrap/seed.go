package bootstrap

import (
	"context"
	"fmt"

	"github.com/illmade-knight/go-refdata/pkg/bundle"
	"github.com/illmade-knight/go-refdata/pkg/refdata"
	"github.com/illmade-knight/go-refdata/pkg/store"
	"github.com/illmade-knight/go-refdata/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SeedConfig controls a seeding run.
type SeedConfig struct {
	// Kinds restricts the collections written. Empty means all.
	Kinds []types.Kind
	// Tables overrides physical table names.
	Tables map[types.Kind]string
	// DryRun only logs what would be written.
	DryRun bool
	// Concurrency bounds parallel table writes. Defaults to 3.
	Concurrency int
}

// SeedResult reports rows written (or that would be written) per table.
type SeedResult map[string]int

// Seed upserts bundle collections into st.
func Seed(ctx context.Context, cfg SeedConfig, b *bundle.Bundle, st store.TableStore, logger zerolog.Logger) (SeedResult, error) {
	logger = logger.With().Str("component", "Seeder").Str("store", st.Name()).Logger()
	if !cfg.DryRun {
		if err := st.Configured(); err != nil {
			return nil, err
		}
	}

	tables := refdata.DefaultTables()
	for k, v := range cfg.Tables {
		if v != "" {
			tables[k] = v
		}
	}
	kinds := cfg.Kinds
	if len(kinds) == 0 {
		kinds = types.AllKinds()
	}
	limit := cfg.Concurrency
	if limit <= 0 {
		limit = 3
	}

	counts := make([]int, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, kind := range kinds {
		g.Go(func() error {
			rows, err := b.Rows(kind)
			if err != nil {
				return fmt.Errorf("render %s: %w", kind, err)
			}
			table := tables[kind]
			counts[i] = len(rows)
			if cfg.DryRun {
				logger.Info().Str("table", table).Int("rows", len(rows)).Msg("Dry run, skipping write.")
				return nil
			}
			if len(rows) == 0 {
				return nil
			}
			if err := st.Insert(gctx, table, rows); err != nil {
				return fmt.Errorf("seed %s: %w", table, err)
			}
			logger.Info().Str("table", table).Int("rows", len(rows)).Msg("Seeded table.")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(SeedResult, len(kinds))
	for i, kind := range kinds {
		result[tables[kind]] = counts[i]
	}
	return result, nil
}
