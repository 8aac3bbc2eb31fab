// Package refdata serves classical-music reference data (composers, periods,
// glossary terms and editorial collections) through a read-through cache in
// front of a swappable backing provider.
package refdata

import (
	"context"

	"github.com/illmade-knight/go-refdata/pkg/store"
	"github.com/illmade-knight/go-refdata/pkg/types"
)

// ErrNotConfigured is wrapped by configuration failures of remote backings.
var ErrNotConfigured = store.ErrNotConfigured

// DataProvider is a backing source for reference data. Each method returns the
// whole collection of one kind; an empty slice is a valid result. On failure no
// partial collection is returned.
type DataProvider interface {
	GetComposers(ctx context.Context) ([]types.Composer, error)
	GetPeriods(ctx context.Context) ([]types.Period, error)
	GetForms(ctx context.Context) ([]types.MusicalForm, error)
	GetTerms(ctx context.Context) ([]types.Term, error)
	GetWeeklyAlbums(ctx context.Context) ([]types.WeeklyAlbum, error)
	GetMonthlySpotlights(ctx context.Context) ([]types.MonthlySpotlight, error)
	GetNewReleases(ctx context.Context) ([]types.NewRelease, error)
	GetConcertHalls(ctx context.Context) ([]types.ConcertHall, error)
	GetKickstartDays(ctx context.Context) ([]types.KickstartDay, error)
	// Name identifies the provider in logs and metrics.
	Name() string
}

// ProviderFactory builds a provider on first use.
type ProviderFactory func() (DataProvider, error)
