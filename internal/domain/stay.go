package domain

// StayStatus is the closed set of internal lifecycle states. Vendor status
// vocabularies are mapped onto it; anything unmappable stays out of the store.
type StayStatus string

const (
	StatusBefore  StayStatus = "BEFORE"
	StatusInstay  StayStatus = "INSTAY"
	StatusAfter   StayStatus = "AFTER"
	StatusCancel  StayStatus = "CANCEL"
	StatusUnknown StayStatus = "UNKNOWN"
)

// Hotel is an immutable reference record. This service looks hotels up by
// their PMS-side id; creating them is someone else's job.
type Hotel struct {
	ID         int64
	PMSHotelID string
	Name       *string
}

// Guest identity is the phone number. The name is informational and may
// disagree with what the PMS reports on any given day.
type Guest struct {
	ID    int64
	Phone string
	Name  *string
}

// Stay is the local record of one reservation. Identity is the composite
// (PMSReservationID, HotelID). Dates are YYYY-MM-DD strings, nullable.
type Stay struct {
	ID               int64
	PMSReservationID string
	HotelID          int64
	GuestID          int64
	PMSGuestID       string
	Status           StayStatus
	Checkin          *string
	Checkout         *string
}

// StayChanges names the columns one reconciliation wants to touch. The Set*
// flags distinguish "write NULL" from "leave alone" for the nullable dates.
type StayChanges struct {
	Status      *StayStatus
	SetCheckin  bool
	Checkin     *string
	SetCheckout bool
	Checkout    *string
}

func (c StayChanges) Empty() bool {
	return c.Status == nil && !c.SetCheckin && !c.SetCheckout
}
