package refdata

import (
	"context"
	"fmt"

	"github.com/illmade-knight/go-refdata/pkg/store"
	"github.com/illmade-knight/go-refdata/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultTables maps each logical collection name to its physical table.
func DefaultTables() map[types.Kind]string {
	return map[types.Kind]string{
		types.KindComposers:         "composers",
		types.KindPeriods:           "periods",
		types.KindForms:             "musical_forms",
		types.KindTerms:             "glossary_terms",
		types.KindWeeklyAlbums:      "weekly_albums",
		types.KindMonthlySpotlights: "monthly_spotlights",
		types.KindNewReleases:       "new_releases",
		types.KindConcertHalls:      "concert_halls",
		types.KindKickstartDays:     "kickstart_days",
	}
}

// RemoteProvider reads each collection from a table of a hosted store.
type RemoteProvider struct {
	store  store.TableStore
	tables map[types.Kind]string
	logger zerolog.Logger
}

// NewRemoteProvider creates a provider over st. Entries in overrides replace
// the default table names.
func NewRemoteProvider(st store.TableStore, overrides map[types.Kind]string, logger zerolog.Logger) *RemoteProvider {
	tables := DefaultTables()
	for k, v := range overrides {
		if v != "" {
			tables[k] = v
		}
	}
	return &RemoteProvider{
		store:  st,
		tables: tables,
		logger: logger.With().Str("component", "RemoteProvider").Str("store", st.Name()).Logger(),
	}
}

// Name implements DataProvider.
func (p *RemoteProvider) Name() string { return "remote:" + p.store.Name() }

// Table returns the physical table name for a kind.
func (p *RemoteProvider) Table(kind types.Kind) string {
	return p.tables[kind]
}

// selectAll checks configuration before touching the store and returns store
// errors unchanged.
func selectAll[T any](ctx context.Context, p *RemoteProvider, kind types.Kind) ([]T, error) {
	if err := p.store.Configured(); err != nil {
		p.logger.Error().Err(err).Str("kind", string(kind)).Msg("Remote store is not configured.")
		return nil, err
	}
	table := p.Table(kind)
	rows, err := p.store.Select(ctx, table)
	if err != nil {
		p.logger.Error().Err(err).Str("kind", string(kind)).Str("table", table).Msg("Remote query failed.")
		return nil, err
	}
	out, err := store.DecodeRows[T](rows)
	if err != nil {
		return nil, fmt.Errorf("decode %s rows from %s: %w", kind, table, err)
	}
	p.logger.Debug().Str("kind", string(kind)).Int("rows", len(out)).Msg("Fetched collection.")
	return out, nil
}

// GetComposers implements DataProvider.
func (p *RemoteProvider) GetComposers(ctx context.Context) ([]types.Composer, error) {
	return selectAll[types.Composer](ctx, p, types.KindComposers)
}

// GetPeriods implements DataProvider.
func (p *RemoteProvider) GetPeriods(ctx context.Context) ([]types.Period, error) {
	return selectAll[types.Period](ctx, p, types.KindPeriods)
}

// GetForms implements DataProvider.
func (p *RemoteProvider) GetForms(ctx context.Context) ([]types.MusicalForm, error) {
	return selectAll[types.MusicalForm](ctx, p, types.KindForms)
}

// GetTerms decodes raw rows and normalizes identifiers the same way LocalProvider does.
func (p *RemoteProvider) GetTerms(ctx context.Context) ([]types.Term, error) {
	raw, err := selectAll[types.RawTerm](ctx, p, types.KindTerms)
	if err != nil {
		return nil, err
	}
	terms := make([]types.Term, len(raw))
	for i, r := range raw {
		terms[i] = r.Normalize()
	}
	return terms, nil
}

// GetWeeklyAlbums implements DataProvider.
func (p *RemoteProvider) GetWeeklyAlbums(ctx context.Context) ([]types.WeeklyAlbum, error) {
	return selectAll[types.WeeklyAlbum](ctx, p, types.KindWeeklyAlbums)
}

// GetMonthlySpotlights implements DataProvider.
func (p *RemoteProvider) GetMonthlySpotlights(ctx context.Context) ([]types.MonthlySpotlight, error) {
	return selectAll[types.MonthlySpotlight](ctx, p, types.KindMonthlySpotlights)
}

// GetNewReleases implements DataProvider.
func (p *RemoteProvider) GetNewReleases(ctx context.Context) ([]types.NewRelease, error) {
	return selectAll[types.NewRelease](ctx, p, types.KindNewReleases)
}

// GetConcertHalls implements DataProvider.
func (p *RemoteProvider) GetConcertHalls(ctx context.Context) ([]types.ConcertHall, error) {
	return selectAll[types.ConcertHall](ctx, p, types.KindConcertHalls)
}

// GetKickstartDays implements DataProvider.
func (p *RemoteProvider) GetKickstartDays(ctx context.Context) ([]types.KickstartDay, error) {
	return selectAll[types.KickstartDay](ctx, p, types.KindKickstartDays)
}

// Close releases the underlying store.
func (p *RemoteProvider) Close() error {
	return p.store.Close()
}
