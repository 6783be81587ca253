package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"pms_sync/internal/adapters/observability"
	"pms_sync/internal/domain"
)

// ReconcileOutcome says what one reconciliation did to the store.
type ReconcileOutcome string

const (
	OutcomeCreated ReconcileOutcome = "created"
	OutcomeUpdated ReconcileOutcome = "updated"
	OutcomeNoop    ReconcileOutcome = "noop"
	OutcomeFailed  ReconcileOutcome = "failed"
)

// ReservationInput is everything a reconciliation needs, already resolved:
// the guest and hotel are local records, the status is still the vendor's.
type ReservationInput struct {
	PMSReservationID string
	StatusRaw        string
	Checkin          *string
	Checkout         *string
	PMSGuestID       string
	Guest            domain.Guest
	Hotel            domain.Hotel
}

type ReconcileResult struct {
	Stay            domain.Stay
	Outcome         ReconcileOutcome
	GuestReassigned bool
}

type ReconcilerConfig struct {
	// AllowTerminalCreate permits creating a never-before-seen stay directly
	// in CANCEL/INSTAY/AFTER.
	AllowTerminalCreate bool
}

// StayReconciler performs the idempotent create-or-update of a stay, one
// persistence write per call. Read-then-write windows are serialized per
// (reservation, hotel) key.
type StayReconciler struct {
	repo   domain.StayRepository
	locks  *keyedMutex
	cfg    ReconcilerConfig
	logger zerolog.Logger
}

func NewStayReconciler(r domain.StayRepository, cfg ReconcilerConfig, l zerolog.Logger) *StayReconciler {
	return &StayReconciler{repo: r, locks: newKeyedMutex(), cfg: cfg, logger: l}
}

func (s *StayReconciler) Reconcile(ctx context.Context, in ReservationInput) (ReconcileResult, error) {
	status, ok := MapReservationStatus(in.StatusRaw)
	if !ok {
		s.logger.Error().
			Str("reservation_id", in.PMSReservationID).
			Str("vendor_status", in.StatusRaw).
			Msg("unmapped reservation status, skipping")
		observability.ObserveReconcile(string(OutcomeFailed))
		return ReconcileResult{Outcome: OutcomeFailed},
			fmt.Errorf("reservation %s: unmapped status %q", in.PMSReservationID, in.StatusRaw)
	}

	unlock := s.locks.Lock(in.PMSReservationID + "/" + strconv.FormatInt(in.Hotel.ID, 10))
	defer unlock()

	existing, err := s.repo.GetStay(ctx, in.PMSReservationID, in.Hotel.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.create(ctx, in, status)
	}
	if err != nil {
		observability.ObserveReconcile(string(OutcomeFailed))
		return ReconcileResult{Outcome: OutcomeFailed},
			fmt.Errorf("reservation %s: lookup stay: %w", in.PMSReservationID, err)
	}
	return s.update(ctx, in, existing, status)
}

func (s *StayReconciler) create(ctx context.Context, in ReservationInput, status domain.StayStatus) (ReconcileResult, error) {
	if !s.cfg.AllowTerminalCreate && status != domain.StatusBefore && status != domain.StatusUnknown {
		observability.ObserveReconcile(string(OutcomeFailed))
		return ReconcileResult{Outcome: OutcomeFailed},
			fmt.Errorf("reservation %s: refusing to create new stay in state %s", in.PMSReservationID, status)
	}

	stay, err := s.repo.CreateStay(ctx, domain.Stay{
		PMSReservationID: in.PMSReservationID,
		HotelID:          in.Hotel.ID,
		GuestID:          in.Guest.ID,
		PMSGuestID:       in.PMSGuestID,
		Status:           status,
		Checkin:          in.Checkin,
		Checkout:         in.Checkout,
	})
	if err != nil {
		observability.ObserveReconcile(string(OutcomeFailed))
		return ReconcileResult{Outcome: OutcomeFailed},
			fmt.Errorf("reservation %s: create stay: %w", in.PMSReservationID, err)
	}
	s.logger.Info().
		Str("reservation_id", in.PMSReservationID).
		Str("status", string(status)).
		Int64("hotel_id", in.Hotel.ID).
		Msg("stay created")
	observability.ObserveReconcile(string(OutcomeCreated))
	return ReconcileResult{Stay: stay, Outcome: OutcomeCreated}, nil
}

func (s *StayReconciler) update(ctx context.Context, in ReservationInput, existing domain.Stay, status domain.StayStatus) (ReconcileResult, error) {
	var ch domain.StayChanges
	if existing.Status != status {
		ch.Status = &status
	}
	if !strPtrEqual(existing.Checkin, in.Checkin) {
		ch.SetCheckin = true
		ch.Checkin = in.Checkin
	}
	if !strPtrEqual(existing.Checkout, in.Checkout) {
		ch.SetCheckout = true
		ch.Checkout = in.Checkout
	}

	res := ReconcileResult{Stay: existing}

	// A different guest on a known stay has no agreed policy yet; it is
	// flagged for an operator, not applied. PMSGuestID is likewise frozen
	// after creation: phone, not the vendor's guest id, is guest identity.
	if existing.GuestID != in.Guest.ID {
		res.GuestReassigned = true
		s.logger.Warn().
			Str("reservation_id", in.PMSReservationID).
			Int64("stored_guest_id", existing.GuestID).
			Int64("incoming_guest_id", in.Guest.ID).
			Msg("guest reassignment detected, not applied")
	}

	if ch.Empty() {
		observability.ObserveReconcile(string(OutcomeNoop))
		res.Outcome = OutcomeNoop
		return res, nil
	}

	if err := s.repo.UpdateStay(ctx, existing.ID, ch); err != nil {
		observability.ObserveReconcile(string(OutcomeFailed))
		res.Outcome = OutcomeFailed
		return res, fmt.Errorf("reservation %s: update stay: %w", in.PMSReservationID, err)
	}

	existing.Status = status
	existing.Checkin = in.Checkin
	existing.Checkout = in.Checkout
	res.Stay = existing
	res.Outcome = OutcomeUpdated

	s.logger.Info().
		Str("reservation_id", in.PMSReservationID).
		Str("status", string(status)).
		Msg("stay updated")
	observability.ObserveReconcile(string(OutcomeUpdated))
	return res, nil
}
