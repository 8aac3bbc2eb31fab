package refdata_test

import (
	"context"
	"testing"

	"github.com/illmade-knight/go-refdata/pkg/bundle"
	"github.com/illmade-knight/go-refdata/pkg/refdata"
	"github.com/illmade-knight/go-refdata/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProvider(t *testing.T) {
	ctx := context.Background()
	b := &bundle.Bundle{
		Composers: []types.Composer{{ID: "bach", Name: "Bach", Period: "baroque"}},
		Terms: []types.RawTerm{
			{ID: 7.0, Term: "Piano", Category: "Dynamics"},
			{ID: "8", Term: "Forte", Category: "Dynamics"},
		},
	}
	p := refdata.NewLocalProvider(b)

	assert.Equal(t, "local", p.Name())

	composers, err := p.GetComposers(ctx)
	require.NoError(t, err)
	assert.Same(t, &b.Composers[0], &composers[0])

	terms, err := p.GetTerms(ctx)
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, "7", terms[0].ID)
	assert.Equal(t, "8", terms[1].ID)
}

func TestDefaultLocalProvider(t *testing.T) {
	ctx := context.Background()
	p, err := refdata.NewDefaultLocalProvider(ctx)
	require.NoError(t, err)

	periods, err := p.GetPeriods(ctx)
	require.NoError(t, err)
	assert.Len(t, periods, 7)

	halls, err := p.GetConcertHalls(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, halls)
}
