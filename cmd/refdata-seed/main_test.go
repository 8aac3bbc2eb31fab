package main

import (
	"testing"

	"github.com/illmade-knight/go-refdata/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds("composers, terms")
	require.NoError(t, err)
	assert.Equal(t, []types.Kind{types.KindComposers, types.KindTerms}, kinds)

	kinds, err = parseKinds("")
	require.NoError(t, err)
	assert.Nil(t, kinds)

	_, err = parseKinds("composers,symphonies")
	assert.ErrorContains(t, err, "symphonies")
}

func TestRun_DryRun(t *testing.T) {
	t.Setenv("REFDATA_LOG_LEVEL", "error")
	assert.NoError(t, run("", "", "periods", true))
}
