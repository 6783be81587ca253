package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"pms_sync/internal/domain"
)

// ProcessState tracks a webhook payload through its pipeline. REJECTED means
// the envelope never made it past validation; ABORTED means a recognized
// payload died while handling an event.
type ProcessState string

const (
	StateReceived          ProcessState = "RECEIVED"
	StateParsed            ProcessState = "PARSED"
	StateSchemaValid       ProcessState = "SCHEMA_VALID"
	StatePerEventProcessed ProcessState = "PER_EVENT_PROCESSED"
	StateDone              ProcessState = "DONE"
	StateRejected          ProcessState = "REJECTED"
	StateAborted           ProcessState = "ABORTED"
)

// ItemResult is the per-reservation outcome within a webhook or batch run.
type ItemResult struct {
	ReservationID string `json:"reservation_id"`
	Outcome       string `json:"outcome"`
	Error         string `json:"error,omitempty"`
}

type WebhookResult struct {
	State  ProcessState `json:"state"`
	Reason string       `json:"reason,omitempty"`
	Items  []ItemResult `json:"items,omitempty"`
}

func (r WebhookResult) OK() bool { return r.State == StateDone }

// SyncReport summarizes one daily batch run. Items are isolated: one bad
// record shows up here instead of blocking the rest of the day's sync.
type SyncReport struct {
	Date      string       `json:"date"`
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Reason    string       `json:"reason,omitempty"`
	Items     []ItemResult `json:"items,omitempty"`
}

// PMS is the per-vendor integration capability. New vendors register a
// constructor; dispatch is by name through the registry, never reflection.
type PMS interface {
	Name() string
	CleanPayload(raw []byte) (domain.WebhookPayload, error)
	HandleWebhook(ctx context.Context, p domain.WebhookPayload) WebhookResult
	SyncBatch(ctx context.Context, date string) SyncReport
	HasBreakfast(ctx context.Context, stay domain.Stay) (*bool, error)
}

// Deps is the shared wiring every vendor implementation gets.
type Deps struct {
	Client  domain.PMSClient
	Repo    domain.StayRepository
	Hotels  *HotelDirectory
	Guests  *GuestResolver
	Stays   *StayReconciler
	Workers int64
	Logger  zerolog.Logger
}

var vendorRegistry = map[string]func(Deps) PMS{
	"mews": func(d Deps) PMS { return NewMews(d) },
}

// ForVendor returns a constructed vendor integration, or false for a vendor
// we do not speak.
func ForVendor(name string, d Deps) (PMS, bool) {
	ctor, ok := vendorRegistry[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return ctor(d), true
}
