package store_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/illmade-knight/go-refdata/pkg/store"
	"github.com/illmade-knight/go-refdata/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRows(t *testing.T) {
	t.Run("Typed records via json tags", func(t *testing.T) {
		rows := []store.Row{
			{"id": "bach", "name": "J.S. Bach", "period": "baroque", "key_works": []any{"Goldberg Variations"}},
		}

		composers, err := store.DecodeRows[types.Composer](rows)

		require.NoError(t, err)
		require.Len(t, composers, 1)
		assert.Equal(t, "baroque", composers[0].Period)
		assert.Equal(t, []string{"Goldberg Variations"}, composers[0].KeyWorks)
	})

	t.Run("Numeric term ids keep their digits", func(t *testing.T) {
		rows := []store.Row{{"id": json.Number("7"), "term": "Adagio"}, {"id": int64(8), "term": "Presto"}}

		raw, err := store.DecodeRows[types.RawTerm](rows)

		require.NoError(t, err)
		assert.Equal(t, "7", raw[0].Normalize().ID)
		assert.Equal(t, "8", raw[1].Normalize().ID)
	})

	t.Run("No rows gives an empty non-nil slice", func(t *testing.T) {
		periods, err := store.DecodeRows[types.Period](nil)
		require.NoError(t, err)
		assert.NotNil(t, periods)
		assert.Empty(t, periods)
	})
}

func TestEncodeRows(t *testing.T) {
	rows, err := store.EncodeRows([]types.Period{{ID: "baroque", Name: "Baroque", StartYear: 1600}})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "baroque", rows[0]["id"])
	assert.Equal(t, json.Number("1600"), rows[0]["start_year"])
}

func TestErrors(t *testing.T) {
	cfgErr := &store.ConfigError{Store: "supabase", Missing: []string{"url", "api key"}}
	assert.True(t, errors.Is(cfgErr, store.ErrNotConfigured))
	assert.Equal(t, "supabase: store not configured: missing url, api key", cfgErr.Error())

	cause := errors.New("connection refused")
	qErr := &store.QueryError{Store: "postgres", Table: "periods", Err: cause}
	assert.ErrorIs(t, qErr, cause)
	assert.Equal(t, `postgres query on "periods" failed: connection refused`, qErr.Error())
}
