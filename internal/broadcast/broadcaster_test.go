package broadcast

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/widgetsync/internal/model"
)

type fakeInventory struct {
	surfaces map[model.Provider][]model.SurfaceID
	err      error
}

func (f *fakeInventory) ActiveSurfaces(p model.Provider) ([]model.SurfaceID, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.surfaces[p], nil
}

type recordingDispatcher struct {
	sent []model.RefreshNotification
	err  error
}

func (r *recordingDispatcher) Dispatch(n model.RefreshNotification) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

func TestBroadcaster_Notify(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.UnixMilli(1700000000000))
	inv := &fakeInventory{surfaces: map[model.Provider][]model.SurfaceID{
		model.ProviderStandard: {1, 2},
	}}
	rec := &recordingDispatcher{}
	b := NewBroadcaster(inv, rec, clock, nil)

	sent, err := b.Notify(model.ProviderStandard)
	require.NoError(t, err)
	assert.True(t, sent)

	require.Len(t, rec.sent, 1)
	n := rec.sent[0]
	assert.Equal(t, model.ProviderStandard, n.Provider)
	assert.Equal(t, []model.SurfaceID{1, 2}, n.Surfaces)
	assert.Equal(t, clock.Now(), n.IssuedAt)
	assert.NotEmpty(t, n.ID)
}

func TestBroadcaster_NoSurfaces(t *testing.T) {
	rec := &recordingDispatcher{}
	b := NewBroadcaster(&fakeInventory{}, rec, clockwork.NewFakeClock(), nil)

	sent, err := b.Notify(model.ProviderWide)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, rec.sent)
}

func TestBroadcaster_Errors(t *testing.T) {
	inventoryErr := errors.New("host unavailable")
	dispatchErr := errors.New("bus gone")

	t.Run("inventory", func(t *testing.T) {
		rec := &recordingDispatcher{}
		b := NewBroadcaster(&fakeInventory{err: inventoryErr}, rec, nil, nil)

		sent, err := b.Notify(model.ProviderStandard)
		assert.ErrorIs(t, err, inventoryErr)
		assert.False(t, sent)
		assert.Empty(t, rec.sent)
	})

	t.Run("dispatch", func(t *testing.T) {
		inv := &fakeInventory{surfaces: map[model.Provider][]model.SurfaceID{
			model.ProviderFull: {5},
		}}
		b := NewBroadcaster(inv, &recordingDispatcher{err: dispatchErr}, nil, nil)

		sent, err := b.Notify(model.ProviderFull)
		assert.ErrorIs(t, err, dispatchErr)
		assert.False(t, sent)
	})
}

func TestLogDispatcher(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	n := model.NewRefreshNotification(model.ProviderCompact, []model.SurfaceID{7}, time.Now())
	require.NoError(t, NewLogDispatcher(logger).Dispatch(n))

	out := buf.String()
	assert.Contains(t, out, "widget refresh")
	assert.Contains(t, out, "provider=compact")
	assert.Contains(t, out, n.ID)
}

func TestMultiDispatcher(t *testing.T) {
	a := &recordingDispatcher{}
	failing := &recordingDispatcher{err: errors.New("boom")}
	c := &recordingDispatcher{}

	n := model.NewRefreshNotification(model.ProviderSmall, []model.SurfaceID{1}, time.Now())
	err := MultiDispatcher{a, failing, c}.Dispatch(n)
	assert.EqualError(t, err, "boom")
	assert.Len(t, a.sent, 1)
	assert.Len(t, c.sent, 1)

	assert.NoError(t, MultiDispatcher{}.Dispatch(n))
}
