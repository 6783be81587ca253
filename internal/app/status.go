package app

import "pms_sync/internal/domain"

// reservationStatusMapping is the closed vendor-to-internal vocabulary.
// Anything outside it is a per-item failure for the caller, never a reason
// to abort sibling items.
var reservationStatusMapping = map[string]domain.StayStatus{
	"in_house":      domain.StatusInstay,
	"checked_out":   domain.StatusAfter,
	"cancelled":     domain.StatusCancel,
	"no_show":       domain.StatusUnknown, // unclear whether a no-show is a cancel
	"not_confirmed": domain.StatusBefore,
	"booked":        domain.StatusBefore,
}

func MapReservationStatus(vendor string) (domain.StayStatus, bool) {
	s, ok := reservationStatusMapping[vendor]
	return s, ok
}
