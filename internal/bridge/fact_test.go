package bridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/widgetsync/internal/prefs"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    Policy
		wantErr bool
	}{
		{input: "", want: PolicyBestEffort},
		{input: "best-effort", want: PolicyBestEffort},
		{input: " All-Or-Nothing ", want: PolicyAllOrNothing},
		{input: "eventually", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePolicy(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownPolicy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoordinatesFact(t *testing.T) {
	f := CoordinatesFact("21.0", "55.0", 42)
	require.Len(t, f.Targets, 3)

	assert.Equal(t, prefs.StorePrayer, f.Targets[0].Store)
	assert.Equal(t, []string{prefs.KeyCoordinatesUpdated, prefs.KeyLat, prefs.KeyLng}, f.Targets[0].Keys())
	assert.Equal(t, []string{prefs.KeyLat, prefs.KeyLng}, f.Targets[1].Keys())
	assert.Equal(t, []string{prefs.KeyCurrentLat, prefs.KeyCurrentLng}, f.Targets[2].Keys())
}

func TestFactWriter_AllOrNothingRestoresFailingTarget(t *testing.T) {
	acc, err := prefs.NewAccessor("", nil)
	require.NoError(t, err)
	defer acc.Close()

	stores := &faultyStores{Accessor: acc, getErr: map[string]error{}, putErr: map[string]error{}}
	stores.getErr[prefs.StoreLocation] = errors.New("unreadable")

	w := NewFactWriter(stores, PolicyAllOrNothing)
	err = w.Write(CoordinatesFact("1.0", "2.0", 3))
	require.Error(t, err)

	var targetErr *TargetError
	require.ErrorAs(t, err, &targetErr)
	assert.Equal(t, prefs.StoreLocation, targetErr.Store)
	assert.Equal(t, FactCoordinates, targetErr.Fact)

	snap, err := acc.Snapshot(prefs.StorePrayer)
	require.NoError(t, err)
	assert.Empty(t, snap)
}
