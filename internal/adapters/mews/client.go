package mews

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"pms_sync/internal/adapters/observability"
)

// Client talks to the Mews-style PMS API. Every capability is one GET that
// may fail transiently; call wraps it in a bounded retry loop with a fixed
// wait between attempts. Exhausting the budget is terminal for the caller's
// current unit of work, not for the process.
type Client struct {
	base     string
	hc       *http.Client
	key      string
	rl       *rate.Limiter
	attempts int
	wait     time.Duration
	logger   zerolog.Logger
}

func New(base, key string, rps int, logger zerolog.Logger) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:     strings.TrimRight(base, "/"),
		hc:       &http.Client{Timeout: 20 * time.Second},
		key:      key,
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
		attempts: 20,
		wait:     time.Second,
		logger:   logger,
	}, nil
}

// WithRetryPolicy overrides the attempt budget and inter-attempt wait.
// Mostly for tests; production keeps the 20 x 1s default.
func (c *Client) WithRetryPolicy(attempts int, wait time.Duration) *Client {
	if attempts > 0 {
		c.attempts = attempts
	}
	c.wait = wait
	return c
}

func (c *Client) GetReservationDetails(ctx context.Context, reservationID string) (map[string]any, error) {
	var out map[string]any
	u := fmt.Sprintf("%s/reservations/%s", c.base, url.PathEscape(reservationID))
	return out, c.call(ctx, "get_reservation_details", u, &out)
}

func (c *Client) GetGuestDetails(ctx context.Context, guestID string) (map[string]any, error) {
	var out map[string]any
	u := fmt.Sprintf("%s/guests/%s", c.base, url.PathEscape(guestID))
	return out, c.call(ctx, "get_guest_details", u, &out)
}

func (c *Client) GetReservationsForCheckinDate(ctx context.Context, date string) ([]map[string]any, error) {
	var out []map[string]any
	u := fmt.Sprintf("%s/reservations?checkin=%s", c.base, url.QueryEscape(date))
	return out, c.call(ctx, "get_reservations_for_given_checkin_date", u, &out)
}

// call runs one GET with up to c.attempts tries. Transport errors, API-level
// errors and JSON decode failures all count as a failed attempt; the wait
// between attempts is fixed, no backoff growth.
func (c *Client) call(ctx context.Context, op, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		start := time.Now()
		err := c.getJSON(ctx, u, out)
		if err == nil {
			observability.ObserveExternal(op, "ok", time.Since(start))
			return nil
		}
		lastErr = err
		observability.ObserveExternal(op, "retry", time.Since(start))
		c.logger.Error().
			Str("operation", op).
			Int("attempt", attempt).
			Err(err).
			Msg("pms api call failed, retrying")

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < c.attempts-1 && !sleepCtx(ctx, c.wait) {
			return ctx.Err()
		}
	}
	observability.ObserveExternal(op, "exhausted", 0)
	return fmt.Errorf("pms api call %s failed after %d retries: %w", op, c.attempts, lastErr)
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "pms-sync/1.0")

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
