package app_test

import (
	"context"
	"fmt"
	"sync"

	"pms_sync/internal/domain"
)

// ---- in-memory repository ----

type fakeRepo struct {
	mu            sync.Mutex
	hotels        map[string]domain.Hotel
	guestsByPhone map[string]domain.Guest
	stays         map[string]domain.Stay
	nextID        int64

	guestInserts int
	stayInserts  int
	stayUpdates  int

	guestCreateErr error
	stayUpdateErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		hotels:        map[string]domain.Hotel{},
		guestsByPhone: map[string]domain.Guest{},
		stays:         map[string]domain.Stay{},
	}
}

func (f *fakeRepo) addHotel(pmsID string) domain.Hotel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	h := domain.Hotel{ID: f.nextID, PMSHotelID: pmsID}
	f.hotels[pmsID] = h
	return h
}

func stayKey(resID string, hotelID int64) string {
	return fmt.Sprintf("%s/%d", resID, hotelID)
}

func (f *fakeRepo) GetHotelByPMSID(ctx context.Context, pmsHotelID string) (domain.Hotel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hotels[pmsHotelID]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (f *fakeRepo) GetOrCreateGuest(ctx context.Context, phone string, name *string) (domain.Guest, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.guestsByPhone[phone]; ok {
		return g, false, nil
	}
	if f.guestCreateErr != nil {
		return domain.Guest{}, false, f.guestCreateErr
	}
	f.nextID++
	g := domain.Guest{ID: f.nextID, Phone: phone, Name: name}
	f.guestsByPhone[phone] = g
	f.guestInserts++
	return g, true, nil
}

func (f *fakeRepo) GetStay(ctx context.Context, pmsReservationID string, hotelID int64) (domain.Stay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stays[stayKey(pmsReservationID, hotelID)]
	if !ok {
		return domain.Stay{}, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeRepo) CreateStay(ctx context.Context, s domain.Stay) (domain.Stay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := stayKey(s.PMSReservationID, s.HotelID)
	if _, ok := f.stays[key]; ok {
		return domain.Stay{}, domain.ErrConflict
	}
	f.nextID++
	s.ID = f.nextID
	f.stays[key] = s
	f.stayInserts++
	return s, nil
}

func (f *fakeRepo) UpdateStay(ctx context.Context, stayID int64, ch domain.StayChanges) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch.Empty() {
		return nil
	}
	if f.stayUpdateErr != nil {
		return f.stayUpdateErr
	}
	for key, s := range f.stays {
		if s.ID != stayID {
			continue
		}
		if ch.Status != nil {
			s.Status = *ch.Status
		}
		if ch.SetCheckin {
			s.Checkin = ch.Checkin
		}
		if ch.SetCheckout {
			s.Checkout = ch.Checkout
		}
		f.stays[key] = s
		f.stayUpdates++
		return nil
	}
	return domain.ErrNotFound
}

// ---- scripted PMS client ----

type fakeClient struct {
	mu           sync.Mutex
	reservations map[string]map[string]any
	guests       map[string]map[string]any
	batch        []map[string]any

	reservationErr map[string]error
	guestErr       error
	batchErr       error

	detailCalls map[string]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		reservations:   map[string]map[string]any{},
		guests:         map[string]map[string]any{},
		reservationErr: map[string]error{},
		detailCalls:    map[string]int{},
	}
}

func (f *fakeClient) GetReservationDetails(ctx context.Context, reservationID string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls[reservationID]++
	if err := f.reservationErr[reservationID]; err != nil {
		return nil, err
	}
	r, ok := f.reservations[reservationID]
	if !ok {
		return nil, fmt.Errorf("no such reservation %s", reservationID)
	}
	return r, nil
}

func (f *fakeClient) GetGuestDetails(ctx context.Context, guestID string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.guestErr != nil {
		return nil, f.guestErr
	}
	g, ok := f.guests[guestID]
	if !ok {
		return nil, fmt.Errorf("no such guest %s", guestID)
	}
	return g, nil
}

func (f *fakeClient) GetReservationsForCheckinDate(ctx context.Context, date string) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	return f.batch, nil
}

func ptr[T any](v T) *T { return &v }
