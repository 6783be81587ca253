package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"pms_sync/internal/adapters/observability"
	"pms_sync/internal/domain"
)

const eventReservationUpdated = "ReservationUpdated"

// Mews drives the reconciliation pipeline for Mews-flavoured webhooks and
// daily batch syncs.
type Mews struct {
	client  domain.PMSClient
	hotels  *HotelDirectory
	guests  *GuestResolver
	stays   *StayReconciler
	workers int64
	logger  zerolog.Logger
}

func NewMews(d Deps) *Mews {
	w := d.Workers
	if w <= 0 {
		w = 1
	}
	return &Mews{
		client:  d.Client,
		hotels:  d.Hotels,
		guests:  d.Guests,
		stays:   d.Stays,
		workers: w,
		logger:  d.Logger.With().Str("vendor", "mews").Logger(),
	}
}

func (m *Mews) Name() string { return "mews" }

// CleanPayload parses and schema-checks the raw webhook body. An error here
// means the payload is REJECTED before any event is looked at.
func (m *Mews) CleanPayload(raw []byte) (domain.WebhookPayload, error) {
	var p domain.WebhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.WebhookPayload{}, fmt.Errorf("parse webhook payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return domain.WebhookPayload{}, err
	}
	return p, nil
}

// HandleWebhook runs every event in the payload through the reconciliation
// pipeline. The first failing event aborts the payload; outcomes for events
// already processed are kept in the result.
func (m *Mews) HandleWebhook(ctx context.Context, p domain.WebhookPayload) WebhookResult {
	res := WebhookResult{State: StateSchemaValid}

	abort := func(reason string) WebhookResult {
		res.State = StateAborted
		res.Reason = reason
		m.logger.Error().Str("hotel_id", p.HotelID).Str("reason", reason).Msg("webhook aborted")
		observability.ObserveWebhook(m.Name(), "aborted")
		return res
	}

	for _, ev := range p.Events {
		// One unrecognized event kills the whole payload. Deliberate for now:
		// an unknown event name means we are out of step with the vendor.
		if ev.Name != eventReservationUpdated {
			return abort(fmt.Sprintf("unrecognized event name %q", ev.Name))
		}
		reservationID := ev.Value["ReservationId"]
		if reservationID == "" {
			return abort("event missing ReservationId")
		}

		m.logger.Info().Str("reservation_id", reservationID).Msg("processing reservation update")

		item, err := m.processReservation(ctx, reservationID, &p.HotelID)
		res.Items = append(res.Items, item)
		if err != nil {
			return abort(err.Error())
		}
	}

	res.State = StateDone
	observability.ObserveWebhook(m.Name(), "done")
	return res
}

// processReservation is the shared per-item pipeline: fetch details, bind the
// hotel, resolve the guest, reconcile the stay. expectedHotelID, when set,
// cross-checks the webhook envelope against the fetched details.
func (m *Mews) processReservation(ctx context.Context, reservationID string, expectedHotelID *string) (ItemResult, error) {
	fail := func(err error) (ItemResult, error) {
		return ItemResult{
			ReservationID: reservationID,
			Outcome:       string(OutcomeFailed),
			Error:         err.Error(),
		}, err
	}

	raw, err := m.client.GetReservationDetails(ctx, reservationID)
	if err != nil {
		return fail(fmt.Errorf("reservation %s: fetch details: %w", reservationID, err))
	}
	details := mapReservation(raw)
	details.ReservationID = reservationID

	if expectedHotelID != nil && details.HotelID != *expectedHotelID {
		return fail(fmt.Errorf("reservation %s: hotel id mismatch: webhook %s, api %s",
			reservationID, *expectedHotelID, details.HotelID))
	}

	return m.reconcileDetails(ctx, details)
}

func (m *Mews) reconcileDetails(ctx context.Context, details reservationDetails) (ItemResult, error) {
	fail := func(err error) (ItemResult, error) {
		return ItemResult{
			ReservationID: details.ReservationID,
			Outcome:       string(OutcomeFailed),
			Error:         err.Error(),
		}, err
	}

	hotel, err := m.hotels.GetByPMSID(ctx, details.HotelID)
	if err != nil {
		return fail(fmt.Errorf("reservation %s: %w", details.ReservationID, err))
	}

	if !CheckinCheckoutAreValid(details.Checkin, details.Checkout) {
		// Stays may legitimately carry null dates, so this stays non-blocking
		// for now; the write below fails loudly if the store disagrees.
		m.logger.Warn().
			Str("reservation_id", details.ReservationID).
			Str("checkin", derefStr(details.Checkin)).
			Str("checkout", derefStr(details.Checkout)).
			Msg("reservation dates failed validation")
	}

	resolved, err := m.guests.Resolve(ctx, details.GuestID)
	if err != nil {
		return fail(fmt.Errorf("reservation %s: %w", details.ReservationID, err))
	}

	rec, err := m.stays.Reconcile(ctx, ReservationInput{
		PMSReservationID: details.ReservationID,
		StatusRaw:        details.Status,
		Checkin:          details.Checkin,
		Checkout:         details.Checkout,
		PMSGuestID:       details.GuestID,
		Guest:            resolved.Guest,
		Hotel:            hotel,
	})
	if err != nil {
		return fail(err)
	}
	return ItemResult{ReservationID: details.ReservationID, Outcome: string(rec.Outcome)}, nil
}

// SyncBatch pulls every reservation checking in on date and reconciles each
// one. Items run under a bounded worker pool and fail independently; the
// report carries the per-item tally.
func (m *Mews) SyncBatch(ctx context.Context, date string) SyncReport {
	report := SyncReport{Date: date}

	list, err := m.client.GetReservationsForCheckinDate(ctx, date)
	if err != nil {
		report.Reason = fmt.Sprintf("fetch reservations for %s: %v", date, err)
		m.logger.Error().Str("date", date).Err(err).Msg("daily sync batch fetch failed")
		return report
	}
	report.Total = len(list)
	report.Items = make([]ItemResult, len(list))

	sem := semaphore.NewWeighted(m.workers)
	var wg sync.WaitGroup
	for i, raw := range list {
		details := mapReservation(raw)
		if err := sem.Acquire(ctx, 1); err != nil {
			report.Items[i] = ItemResult{
				ReservationID: details.ReservationID,
				Outcome:       string(OutcomeFailed),
				Error:         err.Error(),
			}
			continue
		}
		wg.Add(1)
		go func(i int, details reservationDetails) {
			defer wg.Done()
			defer sem.Release(1)
			item, _ := m.reconcileDetails(ctx, details)
			report.Items[i] = item
		}(i, details)
	}
	wg.Wait()

	for _, it := range report.Items {
		if it.Outcome == string(OutcomeFailed) {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}
	m.logger.Info().
		Str("date", date).
		Int("total", report.Total).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Msg("daily sync finished")
	return report
}

// HasBreakfast answers from a live details fetch, never from storage. Three
// outcomes: a confirmed bool, (nil, nil) when the PMS does not say, and an
// error when the fetch itself failed.
func (m *Mews) HasBreakfast(ctx context.Context, stay domain.Stay) (*bool, error) {
	raw, err := m.client.GetReservationDetails(ctx, stay.PMSReservationID)
	if err != nil {
		return nil, fmt.Errorf("reservation %s: fetch details: %w", stay.PMSReservationID, err)
	}
	if b, ok := raw["BreakfastIncluded"].(bool); ok {
		return &b, nil
	}
	return nil, nil
}
