package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"pms_sync/internal/adapters/observability"
	"pms_sync/internal/domain"
)

// GuestResolver turns a PMS guest id into a local guest record. The phone
// number is the identity key; the name is best-effort data.
type GuestResolver struct {
	client domain.PMSClient
	repo   domain.StayRepository
	logger zerolog.Logger
}

func NewGuestResolver(c domain.PMSClient, r domain.StayRepository, l zerolog.Logger) *GuestResolver {
	return &GuestResolver{client: c, repo: r, logger: l}
}

// ResolvedGuest carries the guest plus diagnostics the caller may want to
// surface: a name mismatch is observable, never silently dropped.
type ResolvedGuest struct {
	Guest        domain.Guest
	Created      bool
	NameMismatch bool
	FetchedName  *string
}

func (g *GuestResolver) Resolve(ctx context.Context, pmsGuestID string) (ResolvedGuest, error) {
	raw, err := g.client.GetGuestDetails(ctx, pmsGuestID)
	if err != nil {
		return ResolvedGuest{}, fmt.Errorf("fetch guest %s: %w", pmsGuestID, err)
	}
	details := mapGuest(raw)

	if !PhoneIsValid(details.Phone) {
		// The phone is only an identity key here; an invalid one is worth
		// flagging but does not block the reservation.
		g.logger.Warn().
			Str("pms_guest_id", pmsGuestID).
			Str("phone", details.Phone).
			Msg("guest phone failed validation")
		observability.ObserveGuestAnomaly("invalid_phone")
	}

	guest, created, err := g.repo.GetOrCreateGuest(ctx, details.Phone, details.Name)
	if err != nil {
		return ResolvedGuest{}, fmt.Errorf("upsert guest %s: %w", pmsGuestID, err)
	}

	res := ResolvedGuest{Guest: guest, Created: created, FetchedName: details.Name}
	if !created && !strPtrEqual(guest.Name, details.Name) {
		// Stored record wins for identity; the disagreement is still reported.
		res.NameMismatch = true
		g.logger.Warn().
			Str("pms_guest_id", pmsGuestID).
			Str("phone", details.Phone).
			Str("stored_name", derefStr(guest.Name)).
			Str("fetched_name", derefStr(details.Name)).
			Msg("guest name mismatch for known phone")
		observability.ObserveGuestAnomaly("name_mismatch")
	}
	return res, nil
}
