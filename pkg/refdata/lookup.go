package refdata

import (
	"context"
	"strings"

	"github.com/illmade-knight/go-refdata/pkg/types"
)

func findByID[T types.Identified](items []T, id string) (T, bool) {
	for _, item := range items {
		if item.GetID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// filter keeps matching items in their original order. The result is never nil.
func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0)
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// lookup loads a collection and finds one record by id.
func lookup[T types.Identified](
	ctx context.Context,
	load func(context.Context) ([]T, error),
	id string,
) (T, bool, error) {
	items, err := load(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	item, ok := findByID(items, id)
	return item, ok, nil
}

// GetComposerByID finds a composer by id. The bool is false when no record matches.
func (s *DataService) GetComposerByID(ctx context.Context, id string) (types.Composer, bool, error) {
	return lookup(ctx, s.GetComposers, id)
}

// GetPeriodByID finds a period by id. The bool is false when no record matches.
func (s *DataService) GetPeriodByID(ctx context.Context, id string) (types.Period, bool, error) {
	return lookup(ctx, s.GetPeriods, id)
}

// GetFormByID finds a musical form by id. The bool is false when no record matches.
func (s *DataService) GetFormByID(ctx context.Context, id string) (types.MusicalForm, bool, error) {
	return lookup(ctx, s.GetForms, id)
}

// GetTermByID finds a glossary term by id. The bool is false when no record matches.
func (s *DataService) GetTermByID(ctx context.Context, id string) (types.Term, bool, error) {
	return lookup(ctx, s.GetTerms, id)
}

// GetWeeklyAlbumByID finds a weekly album by id. The bool is false when no record matches.
func (s *DataService) GetWeeklyAlbumByID(ctx context.Context, id string) (types.WeeklyAlbum, bool, error) {
	return lookup(ctx, s.GetWeeklyAlbums, id)
}

// GetMonthlySpotlightByID finds a monthly spotlight by id. The bool is false when no record matches.
func (s *DataService) GetMonthlySpotlightByID(ctx context.Context, id string) (types.MonthlySpotlight, bool, error) {
	return lookup(ctx, s.GetMonthlySpotlights, id)
}

// GetNewReleaseByID finds a new release by id. The bool is false when no record matches.
func (s *DataService) GetNewReleaseByID(ctx context.Context, id string) (types.NewRelease, bool, error) {
	return lookup(ctx, s.GetNewReleases, id)
}

// GetConcertHallByID finds a concert hall by id. The bool is false when no record matches.
func (s *DataService) GetConcertHallByID(ctx context.Context, id string) (types.ConcertHall, bool, error) {
	return lookup(ctx, s.GetConcertHalls, id)
}

// GetKickstartDayByID finds a kickstart day by id. The bool is false when no record matches.
func (s *DataService) GetKickstartDayByID(ctx context.Context, id string) (types.KickstartDay, bool, error) {
	return lookup(ctx, s.GetKickstartDays, id)
}

// GetComposersByPeriod returns the composers whose period matches periodID.
func (s *DataService) GetComposersByPeriod(ctx context.Context, periodID string) ([]types.Composer, error) {
	composers, err := s.GetComposers(ctx)
	if err != nil {
		return nil, err
	}
	return filter(composers, func(c types.Composer) bool { return c.Period == periodID }), nil
}

// GetTermsByCategory returns the terms in category, compared exactly.
func (s *DataService) GetTermsByCategory(ctx context.Context, category string) ([]types.Term, error) {
	terms, err := s.GetTerms(ctx)
	if err != nil {
		return nil, err
	}
	return filter(terms, func(t types.Term) bool { return t.Category == category }), nil
}

// GetTermCategories lists distinct non-empty categories in first-seen order.
func (s *DataService) GetTermCategories(ctx context.Context) ([]string, error) {
	terms, err := s.GetTerms(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, t := range terms {
		if t.Category == "" {
			continue
		}
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		categories = append(categories, t.Category)
	}
	return categories, nil
}

// SearchTerms matches query case-insensitively against the term text. An empty
// query matches every term.
func (s *DataService) SearchTerms(ctx context.Context, query string) ([]types.Term, error) {
	terms, err := s.GetTerms(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	return filter(terms, func(t types.Term) bool {
		return strings.Contains(strings.ToLower(t.Term), q)
	}), nil
}

// GetWeeklyAlbumByWeek finds the album featured in week.
func (s *DataService) GetWeeklyAlbumByWeek(ctx context.Context, week int) (types.WeeklyAlbum, bool, error) {
	albums, err := s.GetWeeklyAlbums(ctx)
	if err != nil {
		return types.WeeklyAlbum{}, false, err
	}
	for _, a := range albums {
		if a.Week == week {
			return a, true, nil
		}
	}
	return types.WeeklyAlbum{}, false, nil
}

// GetKickstartDay finds the programme entry for day.
func (s *DataService) GetKickstartDay(ctx context.Context, day int) (types.KickstartDay, bool, error) {
	days, err := s.GetKickstartDays(ctx)
	if err != nil {
		return types.KickstartDay{}, false, err
	}
	for _, d := range days {
		if d.Day == day {
			return d, true, nil
		}
	}
	return types.KickstartDay{}, false, nil
}
