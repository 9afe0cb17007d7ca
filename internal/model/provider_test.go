package model

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input   string
		want    Provider
		wantErr bool
	}{
		{input: "standard", want: ProviderStandard},
		{input: "Compact", want: ProviderCompact},
		{input: "  full ", want: ProviderFull},
		{input: "small", want: ProviderSmall},
		{input: "WIDE", want: ProviderWide},
		{input: "", wantErr: true},
		{input: "huge", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseProvider(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownProvider)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProviders(t *testing.T) {
	got, err := ParseProviders([]string{"standard", "wide"})
	require.NoError(t, err)
	assert.Equal(t, []Provider{ProviderStandard, ProviderWide}, got)

	_, err = ParseProviders([]string{"standard", "nope"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestProviders(t *testing.T) {
	ps := Providers()
	assert.Len(t, ps, 5)
	assert.Equal(t, ProviderStandard, ps[0])
	for _, p := range ps {
		assert.True(t, p.Valid(), p)
	}

	// Returned slice is a copy
	ps[0] = "mutated"
	assert.Equal(t, ProviderStandard, Providers()[0])

	assert.False(t, Provider("").Valid())
	assert.Equal(t, []string{"standard", "compact", "full", "small", "wide"}, ProviderNames(Providers()))
}

func TestNewRefreshNotification(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	surfaces := []SurfaceID{3, 7}

	n := NewRefreshNotification(ProviderCompact, surfaces, now)
	surfaces[0] = 99

	assert.Equal(t, ProviderCompact, n.Provider)
	assert.Equal(t, []SurfaceID{3, 7}, n.Surfaces)
	assert.Equal(t, now, n.IssuedAt)

	id, err := ulid.Parse(n.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000000), id.Time())

	other := NewRefreshNotification(ProviderCompact, nil, now)
	assert.NotEqual(t, n.ID, other.ID)
	assert.Empty(t, other.Surfaces)
}

func TestSurfaceConversion(t *testing.T) {
	ids := []SurfaceID{1, 42, -5}
	assert.Equal(t, []int32{1, 42, -5}, SurfaceInts(ids))
	assert.Equal(t, ids, SurfacesFromInts(SurfaceInts(ids)))
	assert.Empty(t, SurfaceInts(nil))
}
