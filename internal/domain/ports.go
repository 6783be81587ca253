package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a uniqueness violation, e.g. two writers racing to
	// create the same guest phone.
	ErrConflict = errors.New("conflict")
)

type StayRepository interface {
	// Hotels are reference data: lookup only.
	GetHotelByPMSID(ctx context.Context, pmsHotelID string) (Hotel, error)

	// GetOrCreateGuest returns the guest for phone, creating it with the
	// given name when absent. The bool reports whether a row was created.
	// A lost creation race surfaces as ErrConflict.
	GetOrCreateGuest(ctx context.Context, phone string, name *string) (Guest, bool, error)

	GetStay(ctx context.Context, pmsReservationID string, hotelID int64) (Stay, error)
	CreateStay(ctx context.Context, s Stay) (Stay, error)
	// UpdateStay applies all changes in a single write.
	UpdateStay(ctx context.Context, stayID int64, ch StayChanges) error
}

// PMSClient is the upstream reservation API. Implementations own their retry
// policy; an error returned here is terminal for the current unit of work.
type PMSClient interface {
	GetReservationDetails(ctx context.Context, reservationID string) (map[string]any, error)
	GetGuestDetails(ctx context.Context, guestID string) (map[string]any, error)
	GetReservationsForCheckinDate(ctx context.Context, date string) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
