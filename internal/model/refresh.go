package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// SurfaceID is the opaque handle of one placed widget instance.
// Surfaces are created and destroyed by the widget host only.
type SurfaceID int32

// RefreshNotification asks the widget host to redraw the listed surfaces of one provider.
// It is consumed once by the broadcast mechanism and never persisted.
type RefreshNotification struct {
	ID       string      `json:"id"`
	Provider Provider    `json:"provider"`
	Surfaces []SurfaceID `json:"surfaces"`
	IssuedAt time.Time   `json:"issued_at"`
}

// NewRefreshNotification creates a notification for the given provider and surfaces.
// The surface slice is copied.
func NewRefreshNotification(p Provider, surfaces []SurfaceID, now time.Time) RefreshNotification {
	ids := make([]SurfaceID, len(surfaces))
	copy(ids, surfaces)
	return RefreshNotification{
		ID:       NewID(now),
		Provider: p,
		Surfaces: ids,
		IssuedAt: now,
	}
}

// NewID returns a ULID string for the given time.
func NewID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

// SurfaceInts converts surface IDs to plain int32 values for wire encoding.
func SurfaceInts(ids []SurfaceID) []int32 {
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = int32(id)
	}
	return out
}

// SurfacesFromInts converts wire values back to surface IDs.
func SurfacesFromInts(values []int32) []SurfaceID {
	out := make([]SurfaceID, len(values))
	for i, v := range values {
		out[i] = SurfaceID(v)
	}
	return out
}
