package httpserver

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"pms_sync/internal/adapters/observability"
	"pms_sync/internal/app"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// Handlers wires vendor-dispatched webhook processing into the router. The
// vendor integration is picked per request from the registry; unknown vendor
// names 404.
type Handlers struct {
	Deps   app.Deps
	Logger zerolog.Logger
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.Post("/v1/pms/{vendor}/webhook", h.postWebhook)
	s.mux.Get("/v1/pms/{vendor}/hotels/{pmsHotelID}/reservations/{reservationID}/breakfast", h.getBreakfast)
}

func (h *Handlers) writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		h.Logger.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error().Err(err).Msg("write JSON response failed")
	}
}

func (h *Handlers) postWebhook(w http.ResponseWriter, r *http.Request) {
	vendor := chi.URLParam(r, "vendor")
	pms, ok := app.ForVendor(vendor, h.Deps)
	if !ok {
		h.writeProblem(w, http.StatusNotFound, "Unknown Vendor", "no integration for vendor "+vendor)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.writeProblem(w, http.StatusBadRequest, "Unreadable Body", err.Error())
		return
	}

	payload, err := pms.CleanPayload(body)
	if err != nil {
		observability.ObserveWebhook(pms.Name(), "rejected")
		h.Logger.Error().Str("vendor", pms.Name()).Err(err).Msg("webhook rejected")
		h.writeJSON(w, http.StatusBadRequest, app.WebhookResult{
			State:  app.StateRejected,
			Reason: err.Error(),
		})
		return
	}

	res := pms.HandleWebhook(r.Context(), payload)
	status := http.StatusOK
	if !res.OK() {
		status = http.StatusUnprocessableEntity
	}
	h.writeJSON(w, status, res)
}

func (h *Handlers) getBreakfast(w http.ResponseWriter, r *http.Request) {
	vendor := chi.URLParam(r, "vendor")
	pms, ok := app.ForVendor(vendor, h.Deps)
	if !ok {
		h.writeProblem(w, http.StatusNotFound, "Unknown Vendor", "no integration for vendor "+vendor)
		return
	}

	hotel, err := h.Deps.Hotels.GetByPMSID(r.Context(), chi.URLParam(r, "pmsHotelID"))
	if err != nil {
		h.writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	stay, err := h.Deps.Repo.GetStay(r.Context(), chi.URLParam(r, "reservationID"), hotel.ID)
	if err != nil {
		h.writeProblem(w, http.StatusNotFound, "Not Found", "no such stay")
		return
	}

	// Always a live answer; nil means the PMS did not say.
	breakfast, err := pms.HasBreakfast(r.Context(), stay)
	if err != nil {
		h.writeProblem(w, http.StatusBadGateway, "Upstream Failure", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, struct {
		ReservationID string `json:"reservation_id"`
		Breakfast     *bool  `json:"breakfast"`
	}{stay.PMSReservationID, breakfast})
}
