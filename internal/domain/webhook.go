package domain

import "fmt"

// WebhookEvent is a single event inside a PMS push notification.
type WebhookEvent struct {
	Name  string            `json:"Name"`
	Value map[string]string `json:"Value"`
}

// WebhookPayload is the transient envelope a PMS posts to us. It is validated
// and discarded, never persisted.
type WebhookPayload struct {
	HotelID       string         `json:"HotelId"`
	IntegrationID string         `json:"IntegrationId"`
	Events        []WebhookEvent `json:"Events"`
}

// Validate checks the envelope schema: ids present, at least one event,
// every event named.
func (p WebhookPayload) Validate() error {
	if p.HotelID == "" {
		return fmt.Errorf("webhook payload: missing HotelId")
	}
	if p.IntegrationID == "" {
		return fmt.Errorf("webhook payload: missing IntegrationId")
	}
	if len(p.Events) == 0 {
		return fmt.Errorf("webhook payload: no events")
	}
	for i, ev := range p.Events {
		if ev.Name == "" {
			return fmt.Errorf("webhook payload: event %d has no name", i)
		}
	}
	return nil
}
