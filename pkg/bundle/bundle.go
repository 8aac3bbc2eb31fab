// Package bundle loads the static reference-data bundle shipped with the
// service, from the embedded copy, a file, or a Cloud Storage object.
package bundle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/illmade-knight/go-refdata/pkg/store"
	"github.com/illmade-knight/go-refdata/pkg/types"
)

// ErrDuplicateID is returned when a collection repeats an identifier.
var ErrDuplicateID = errors.New("duplicate id")

// Bundle is the decoded reference data. Terms keep their raw identifiers.
type Bundle struct {
	Composers         []types.Composer         `json:"composers" validate:"dive"`
	Periods           []types.Period           `json:"periods" validate:"dive"`
	Forms             []types.MusicalForm      `json:"forms" validate:"dive"`
	Terms             []types.RawTerm          `json:"terms" validate:"dive"`
	WeeklyAlbums      []types.WeeklyAlbum      `json:"weeklyAlbums" validate:"dive"`
	MonthlySpotlights []types.MonthlySpotlight `json:"monthlySpotlights" validate:"dive"`
	NewReleases       []types.NewRelease       `json:"newReleases" validate:"dive"`
	ConcertHalls      []types.ConcertHall      `json:"concertHalls" validate:"dive"`
	KickstartDays     []types.KickstartDay     `json:"kickstartDays" validate:"dive"`
}

// Load reads, decodes and validates a bundle from src.
func Load(ctx context.Context, src Source) (*Bundle, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open bundle %s: %w", src.Name(), err)
	}
	defer rc.Close()

	var b Bundle
	dec := json.NewDecoder(rc)
	dec.UseNumber()
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle %s: %w", src.Name(), err)
	}
	b.fillEmpty()

	if err := newValidator().validate(&b); err != nil {
		return nil, fmt.Errorf("invalid bundle %s: %w", src.Name(), err)
	}
	if err := b.checkUniqueIDs(); err != nil {
		return nil, fmt.Errorf("invalid bundle %s: %w", src.Name(), err)
	}
	return &b, nil
}

// Default loads the embedded bundle.
func Default(ctx context.Context) (*Bundle, error) {
	return Load(ctx, EmbeddedSource{})
}

// fillEmpty replaces missing collections with empty slices so callers never see nil.
func (b *Bundle) fillEmpty() {
	if b.Composers == nil {
		b.Composers = []types.Composer{}
	}
	if b.Periods == nil {
		b.Periods = []types.Period{}
	}
	if b.Forms == nil {
		b.Forms = []types.MusicalForm{}
	}
	if b.Terms == nil {
		b.Terms = []types.RawTerm{}
	}
	if b.WeeklyAlbums == nil {
		b.WeeklyAlbums = []types.WeeklyAlbum{}
	}
	if b.MonthlySpotlights == nil {
		b.MonthlySpotlights = []types.MonthlySpotlight{}
	}
	if b.NewReleases == nil {
		b.NewReleases = []types.NewRelease{}
	}
	if b.ConcertHalls == nil {
		b.ConcertHalls = []types.ConcertHall{}
	}
	if b.KickstartDays == nil {
		b.KickstartDays = []types.KickstartDay{}
	}
}

func (b *Bundle) checkUniqueIDs() error {
	terms := make([]types.Term, len(b.Terms))
	for i, raw := range b.Terms {
		terms[i] = raw.Normalize()
	}
	return errors.Join(
		checkUnique(types.KindComposers, b.Composers),
		checkUnique(types.KindPeriods, b.Periods),
		checkUnique(types.KindForms, b.Forms),
		checkUnique(types.KindTerms, terms),
		checkUnique(types.KindWeeklyAlbums, b.WeeklyAlbums),
		checkUnique(types.KindMonthlySpotlights, b.MonthlySpotlights),
		checkUnique(types.KindNewReleases, b.NewReleases),
		checkUnique(types.KindConcertHalls, b.ConcertHalls),
		checkUnique(types.KindKickstartDays, b.KickstartDays),
	)
}

func checkUnique[T types.Identified](kind types.Kind, items []T) error {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		id := item.GetID()
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%s %q: %w", kind, id, ErrDuplicateID)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Count returns the number of records of a kind.
func (b *Bundle) Count(kind types.Kind) int {
	switch kind {
	case types.KindComposers:
		return len(b.Composers)
	case types.KindPeriods:
		return len(b.Periods)
	case types.KindForms:
		return len(b.Forms)
	case types.KindTerms:
		return len(b.Terms)
	case types.KindWeeklyAlbums:
		return len(b.WeeklyAlbums)
	case types.KindMonthlySpotlights:
		return len(b.MonthlySpotlights)
	case types.KindNewReleases:
		return len(b.NewReleases)
	case types.KindConcertHalls:
		return len(b.ConcertHalls)
	case types.KindKickstartDays:
		return len(b.KickstartDays)
	default:
		return 0
	}
}

// Rows renders a collection as generic rows for seeding a TableStore. Terms
// keep their raw identifiers.
func (b *Bundle) Rows(kind types.Kind) ([]store.Row, error) {
	switch kind {
	case types.KindComposers:
		return store.EncodeRows(b.Composers)
	case types.KindPeriods:
		return store.EncodeRows(b.Periods)
	case types.KindForms:
		return store.EncodeRows(b.Forms)
	case types.KindTerms:
		return store.EncodeRows(b.Terms)
	case types.KindWeeklyAlbums:
		return store.EncodeRows(b.WeeklyAlbums)
	case types.KindMonthlySpotlights:
		return store.EncodeRows(b.MonthlySpotlights)
	case types.KindNewReleases:
		return store.EncodeRows(b.NewReleases)
	case types.KindConcertHalls:
		return store.EncodeRows(b.ConcertHalls)
	case types.KindKickstartDays:
		return store.EncodeRows(b.KickstartDays)
	default:
		return nil, fmt.Errorf("unknown reference data kind %q", kind)
	}
}
