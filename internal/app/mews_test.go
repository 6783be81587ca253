package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"pms_sync/internal/app"
	"pms_sync/internal/domain"
)

func newMews(repo *fakeRepo, client *fakeClient) app.PMS {
	logger := zerolog.Nop()
	pms, ok := app.ForVendor("mews", app.Deps{
		Client:  client,
		Repo:    repo,
		Hotels:  app.NewHotelDirectory(repo, nil, 0),
		Guests:  app.NewGuestResolver(client, repo, logger),
		Stays:   app.NewStayReconciler(repo, app.ReconcilerConfig{AllowTerminalCreate: true}, logger),
		Workers: 4,
		Logger:  logger,
	})
	if !ok {
		panic("mews not registered")
	}
	return pms
}

func TestForVendor_UnknownVendor(t *testing.T) {
	_, ok := app.ForVendor("opera", app.Deps{})
	require.False(t, ok)
}

func TestCleanPayload(t *testing.T) {
	pms := newMews(newFakeRepo(), newFakeClient())

	_, err := pms.CleanPayload([]byte(`{not json`))
	require.Error(t, err)

	_, err = pms.CleanPayload([]byte(`{"HotelId":"H1","Events":[{"Name":"ReservationUpdated","Value":{}}]}`))
	require.Error(t, err, "missing IntegrationId must fail schema validation")

	_, err = pms.CleanPayload([]byte(`{"HotelId":"H1","IntegrationId":"I1","Events":[]}`))
	require.Error(t, err, "empty events must fail schema validation")

	p, err := pms.CleanPayload([]byte(`{"HotelId":"H1","IntegrationId":"I1","Events":[{"Name":"ReservationUpdated","Value":{"ReservationId":"R1"}}]}`))
	require.NoError(t, err)
	require.Equal(t, "H1", p.HotelID)
	require.Len(t, p.Events, 1)
}

const webhookBody = `{"HotelId":"H1","IntegrationId":"I1","Events":[{"Name":"ReservationUpdated","Value":{"ReservationId":"R1"}}]}`

func scenarioFixtures(repo *fakeRepo, client *fakeClient) {
	repo.addHotel("H1")
	client.reservations["R1"] = map[string]any{
		"HotelId":      "H1",
		"GuestId":      "G1",
		"Status":       "in_house",
		"CheckInDate":  "2024-05-01",
		"CheckOutDate": "2024-05-03",
	}
	client.guests["G1"] = map[string]any{"Name": "Ann", "Phone": "+15551234567"}
}

func TestHandleWebhook_CreatesStayAndGuest_ThenIdempotent(t *testing.T) {
	repo := newFakeRepo()
	client := newFakeClient()
	scenarioFixtures(repo, client)
	pms := newMews(repo, client)

	p, err := pms.CleanPayload([]byte(webhookBody))
	require.NoError(t, err)

	res := pms.HandleWebhook(context.Background(), p)
	require.Equal(t, app.StateDone, res.State)
	require.Len(t, res.Items, 1)
	require.Equal(t, string(app.OutcomeCreated), res.Items[0].Outcome)

	guest := repo.guestsByPhone["+15551234567"]
	require.Equal(t, ptr("Ann"), guest.Name)

	hotel, _ := repo.GetHotelByPMSID(context.Background(), "H1")
	stay, err := repo.GetStay(context.Background(), "R1", hotel.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusInstay, stay.Status)
	require.Equal(t, ptr("2024-05-01"), stay.Checkin)
	require.Equal(t, ptr("2024-05-03"), stay.Checkout)
	require.Equal(t, guest.ID, stay.GuestID)

	// re-deliver the identical webhook: both records unchanged, no writes
	res = pms.HandleWebhook(context.Background(), p)
	require.Equal(t, app.StateDone, res.State)
	require.Equal(t, string(app.OutcomeNoop), res.Items[0].Outcome)
	require.Equal(t, 1, repo.stayInserts)
	require.Equal(t, 0, repo.stayUpdates)
	require.Equal(t, 1, repo.guestInserts)
}

func TestHandleWebhook_CancellationTransitions(t *testing.T) {
	repo := newFakeRepo()
	client := newFakeClient()
	scenarioFixtures(repo, client)
	pms := newMews(repo, client)

	p, _ := pms.CleanPayload([]byte(webhookBody))
	res := pms.HandleWebhook(context.Background(), p)
	require.Equal(t, app.StateDone, res.State)

	client.reservations["R1"]["Status"] = "cancelled"
	res = pms.HandleWebhook(context.Background(), p)
	require.Equal(t, app.StateDone, res.State)
	require.Equal(t, string(app.OutcomeUpdated), res.Items[0].Outcome)

	hotel, _ := repo.GetHotelByPMSID(context.Background(), "H1")
	stay, _ := repo.GetStay(context.Background(), "R1", hotel.ID)
	require.Equal(t, domain.StatusCancel, stay.Status)
	require.Equal(t, ptr("2024-05-01"), stay.Checkin, "dates unchanged")
	require.Equal(t, ptr("2024-05-03"), stay.Checkout)
	require.Equal(t, 1, repo.stayUpdates, "exactly one update write")
}

func TestHandleWebhook_UnrecognizedEventAborts(t *testing.T) {
	repo := newFakeRepo()
	client := newFakeClient()
	scenarioFixtures(repo, client)
	pms := newMews(repo, client)

	p, err := pms.CleanPayload([]byte(`{"HotelId":"H1","IntegrationId":"I1","Events":[{"Name":"GuestCheckedIn","Value":{"ReservationId":"R1"}}]}`))
	require.NoError(t, err)
	res := pms.HandleWebhook(context.Background(), p)
	require.Equal(t, app.StateAborted, res.State)
	require.Contains(t, res.Reason, "GuestCheckedIn")
	require.Equal(t, 0, repo.stayInserts)
}

func TestHandleWebhook_HotelMismatchAborts(t *testing.T) {
	repo := newFakeRepo()
	client := newFakeClient()
	scenarioFixtures(repo, client)
	client.reservations["R1"]["HotelId"] = "H2"
	pms := newMews(repo, client)

	p, _ := pms.CleanPayload([]byte(webhookBody))
	res := pms.HandleWebhook(context.Background(), p)
	require.Equal(t, app.StateAborted, res.State)
	require.Contains(t, res.Reason, "mismatch")
	require.Equal(t, 0, repo.stayInserts)
}

func TestHandleWebhook_UnknownHotelAborts(t *testing.T) {
	repo := newFakeRepo() // no hotel registered
	client := newFakeClient()
	client.reservations["R1"] = map[string]any{
		"HotelId": "H1", "GuestId": "G1", "Status": "in_house",
	}
	client.guests["G1"] = map[string]any{"Name": "Ann", "Phone": "+14155552671"}
	pms := newMews(repo, client)

	p, _ := pms.CleanPayload([]byte(webhookBody))
	res := pms.HandleWebhook(context.Background(), p)
	require.Equal(t, app.StateAborted, res.State)
	require.Contains(t, res.Reason, "H1")
}

func TestHandleWebhook_FetchFailureAborts(t *testing.T) {
	repo := newFakeRepo()
	client := newFakeClient()
	scenarioFixtures(repo, client)
	client.reservationErr["R1"] = errors.New("failed after 20 retries")
	pms := newMews(repo, client)

	p, _ := pms.CleanPayload([]byte(webhookBody))
	res := pms.HandleWebhook(context.Background(), p)
	require.Equal(t, app.StateAborted, res.State)
	require.Len(t, res.Items, 1)
	require.Equal(t, string(app.OutcomeFailed), res.Items[0].Outcome)
}

func TestSyncBatch_IsolatesItemFailures(t *testing.T) {
	repo := newFakeRepo()
	client := newFakeClient()
	repo.addHotel("H1")
	client.guests["G1"] = map[string]any{"Name": "Ann", "Phone": "+14155552671"}
	client.guests["G2"] = map[string]any{"Name": "Bob", "Phone": "+442083661177"}
	client.batch = []map[string]any{
		{"ReservationId": "R1", "HotelId": "H1", "GuestId": "G1", "Status": "booked",
			"CheckInDate": "2024-05-02", "CheckOutDate": "2024-05-04"},
		{"ReservationId": "R2", "HotelId": "H1", "GuestId": "G1", "Status": "waitlisted"},
		{"ReservationId": "R3", "HotelId": "H1", "GuestId": "G2", "Status": "not_confirmed",
			"CheckInDate": "2024-05-02", "CheckOutDate": "2024-05-05"},
	}
	pms := newMews(repo, client)

	report := pms.SyncBatch(context.Background(), "2024-05-02")
	require.Equal(t, 3, report.Total)
	require.Equal(t, 2, report.Succeeded)
	require.Equal(t, 1, report.Failed)

	byID := map[string]app.ItemResult{}
	for _, it := range report.Items {
		byID[it.ReservationID] = it
	}
	require.Equal(t, string(app.OutcomeCreated), byID["R1"].Outcome)
	require.Equal(t, string(app.OutcomeFailed), byID["R2"].Outcome)
	require.Equal(t, string(app.OutcomeCreated), byID["R3"].Outcome, "bad sibling must not block this item")
	require.Equal(t, 2, repo.stayInserts)
}

func TestSyncBatch_FetchFailureReportsReason(t *testing.T) {
	repo := newFakeRepo()
	client := newFakeClient()
	client.batchErr = errors.New("failed after 20 retries")
	pms := newMews(repo, client)

	report := pms.SyncBatch(context.Background(), "2024-05-02")
	require.Equal(t, 0, report.Total)
	require.Contains(t, report.Reason, "2024-05-02")
}

func TestHasBreakfast(t *testing.T) {
	repo := newFakeRepo()
	client := newFakeClient()
	pms := newMews(repo, client)
	stay := domain.Stay{PMSReservationID: "R1"}

	client.reservations["R1"] = map[string]any{"BreakfastIncluded": true}
	got, err := pms.HasBreakfast(context.Background(), stay)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, *got)

	client.reservations["R1"] = map[string]any{"BreakfastIncluded": false}
	got, err = pms.HasBreakfast(context.Background(), stay)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.False(t, *got)

	// missing or wrong-typed field: unknown, not false
	client.reservations["R1"] = map[string]any{}
	got, err = pms.HasBreakfast(context.Background(), stay)
	require.NoError(t, err)
	require.Nil(t, got)

	client.reservations["R1"] = map[string]any{"BreakfastIncluded": "yes"}
	got, err = pms.HasBreakfast(context.Background(), stay)
	require.NoError(t, err)
	require.Nil(t, got)

	// fetch failure is an error, not a false
	client.reservationErr["R1"] = errors.New("failed after 20 retries")
	_, err = pms.HasBreakfast(context.Background(), stay)
	require.Error(t, err)
}
