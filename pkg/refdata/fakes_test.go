package refdata_test

import (
	"context"
	"sync/atomic"

	"github.com/illmade-knight/go-refdata/pkg/store"
	"github.com/illmade-knight/go-refdata/pkg/types"
)

// fakeProvider returns fixed collections and counts calls per kind. Err, when
// set, is returned by every method.
type fakeProvider struct {
	name        string
	composers   []types.Composer
	periods     []types.Period
	terms       []types.Term
	albums      []types.WeeklyAlbum
	days        []types.KickstartDay
	Err         error
	composerHit atomic.Int32
	termHit     atomic.Int32
	calls       atomic.Int32
}

func (f *fakeProvider) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeProvider) GetComposers(context.Context) ([]types.Composer, error) {
	f.calls.Add(1)
	f.composerHit.Add(1)
	return f.composers, f.Err
}

func (f *fakeProvider) GetPeriods(context.Context) ([]types.Period, error) {
	f.calls.Add(1)
	return f.periods, f.Err
}

func (f *fakeProvider) GetForms(context.Context) ([]types.MusicalForm, error) {
	f.calls.Add(1)
	return []types.MusicalForm{}, f.Err
}

func (f *fakeProvider) GetTerms(context.Context) ([]types.Term, error) {
	f.calls.Add(1)
	f.termHit.Add(1)
	return f.terms, f.Err
}

func (f *fakeProvider) GetWeeklyAlbums(context.Context) ([]types.WeeklyAlbum, error) {
	f.calls.Add(1)
	return f.albums, f.Err
}

func (f *fakeProvider) GetMonthlySpotlights(context.Context) ([]types.MonthlySpotlight, error) {
	f.calls.Add(1)
	return []types.MonthlySpotlight{}, f.Err
}

func (f *fakeProvider) GetNewReleases(context.Context) ([]types.NewRelease, error) {
	f.calls.Add(1)
	return []types.NewRelease{}, f.Err
}

func (f *fakeProvider) GetConcertHalls(context.Context) ([]types.ConcertHall, error) {
	f.calls.Add(1)
	return []types.ConcertHall{}, f.Err
}

func (f *fakeProvider) GetKickstartDays(context.Context) ([]types.KickstartDay, error) {
	f.calls.Add(1)
	return f.days, f.Err
}

// fakeStore is a TableStore backed by a map of tables.
type fakeStore struct {
	ConfiguredErr error
	SelectErr     error
	Tables        map[string][]store.Row
	SelectCalls   atomic.Int32
	Selected      []string
	Closed        bool
}

func (s *fakeStore) Name() string      { return "fake" }
func (s *fakeStore) Configured() error { return s.ConfiguredErr }

func (s *fakeStore) Select(_ context.Context, table string) ([]store.Row, error) {
	s.SelectCalls.Add(1)
	s.Selected = append(s.Selected, table)
	if s.SelectErr != nil {
		return nil, s.SelectErr
	}
	rows, ok := s.Tables[table]
	if !ok {
		return []store.Row{}, nil
	}
	return rows, nil
}

func (s *fakeStore) Insert(_ context.Context, table string, rows []store.Row) error {
	if s.Tables == nil {
		s.Tables = make(map[string][]store.Row)
	}
	s.Tables[table] = append(s.Tables[table], rows...)
	return nil
}

func (s *fakeStore) Close() error {
	s.Closed = true
	return nil
}
