package app

import "strings"

// The PMS returns loosely-typed JSON objects; these helpers pull fields out
// without trusting shape. Dot paths handle the occasional nested payload.

func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ptrStr normalizes empty to absent.
func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// reservationDetails is the normalized view of one reservation payload, from
// either get_reservation_details or a daily-sync batch item.
type reservationDetails struct {
	ReservationID string
	HotelID       string
	GuestID       string
	Status        string
	Checkin       *string
	Checkout      *string
}

func mapReservation(m map[string]any) reservationDetails {
	return reservationDetails{
		ReservationID: lookupStr(m, "ReservationId"),
		HotelID:       lookupStr(m, "HotelId"),
		GuestID:       lookupStr(m, "GuestId"),
		Status:        lookupStr(m, "Status"),
		Checkin:       ptrStr(lookupStr(m, "CheckInDate")),
		Checkout:      ptrStr(lookupStr(m, "CheckOutDate")),
	}
}

// guestDetails normalizes a get_guest_details payload; an empty name becomes
// absent rather than a stored empty string.
type guestDetails struct {
	Name  *string
	Phone string
}

func mapGuest(m map[string]any) guestDetails {
	return guestDetails{
		Name:  ptrStr(lookupStr(m, "Name")),
		Phone: lookupStr(m, "Phone"),
	}
}
