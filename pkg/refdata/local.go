package refdata

import (
	"context"

	"github.com/illmade-knight/go-refdata/pkg/bundle"
	"github.com/illmade-knight/go-refdata/pkg/types"
)

// LocalProvider serves a bundle held in memory. It performs no I/O and never fails.
type LocalProvider struct {
	b *bundle.Bundle
}

// NewLocalProvider creates a provider over an already loaded bundle.
func NewLocalProvider(b *bundle.Bundle) *LocalProvider {
	return &LocalProvider{b: b}
}

// NewDefaultLocalProvider loads the embedded bundle.
func NewDefaultLocalProvider(ctx context.Context) (*LocalProvider, error) {
	b, err := bundle.Default(ctx)
	if err != nil {
		return nil, err
	}
	return NewLocalProvider(b), nil
}

// Name implements DataProvider.
func (p *LocalProvider) Name() string { return "local" }

// GetComposers implements DataProvider.
func (p *LocalProvider) GetComposers(context.Context) ([]types.Composer, error) {
	return p.b.Composers, nil
}

// GetPeriods implements DataProvider.
func (p *LocalProvider) GetPeriods(context.Context) ([]types.Period, error) {
	return p.b.Periods, nil
}

// GetForms implements DataProvider.
func (p *LocalProvider) GetForms(context.Context) ([]types.MusicalForm, error) {
	return p.b.Forms, nil
}

// GetTerms returns the glossary with identifiers converted to strings.
func (p *LocalProvider) GetTerms(context.Context) ([]types.Term, error) {
	terms := make([]types.Term, len(p.b.Terms))
	for i, raw := range p.b.Terms {
		terms[i] = raw.Normalize()
	}
	return terms, nil
}

// GetWeeklyAlbums implements DataProvider.
func (p *LocalProvider) GetWeeklyAlbums(context.Context) ([]types.WeeklyAlbum, error) {
	return p.b.WeeklyAlbums, nil
}

// GetMonthlySpotlights implements DataProvider.
func (p *LocalProvider) GetMonthlySpotlights(context.Context) ([]types.MonthlySpotlight, error) {
	return p.b.MonthlySpotlights, nil
}

// GetNewReleases implements DataProvider.
func (p *LocalProvider) GetNewReleases(context.Context) ([]types.NewRelease, error) {
	return p.b.NewReleases, nil
}

// GetConcertHalls implements DataProvider.
func (p *LocalProvider) GetConcertHalls(context.Context) ([]types.ConcertHall, error) {
	return p.b.ConcertHalls, nil
}

// GetKickstartDays implements DataProvider.
func (p *LocalProvider) GetKickstartDays(context.Context) ([]types.KickstartDay, error) {
	return p.b.KickstartDays, nil
}
