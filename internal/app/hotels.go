package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pms_sync/internal/domain"
)

// HotelDirectory resolves PMS hotel ids to local hotel records. Hotels are
// reference data created elsewhere, so lookups are cached; a miss is an
// explicit terminal error for the item rather than a silently unbound stay.
type HotelDirectory struct {
	repo  domain.StayRepository
	cache domain.Cache
	ttl   time.Duration
}

func NewHotelDirectory(r domain.StayRepository, c domain.Cache, ttl time.Duration) *HotelDirectory {
	return &HotelDirectory{repo: r, cache: c, ttl: ttl}
}

func (d *HotelDirectory) GetByPMSID(ctx context.Context, pmsHotelID string) (domain.Hotel, error) {
	key := "hotel:" + pmsHotelID
	var h domain.Hotel
	if d.cache != nil {
		if ok, _ := d.cache.Get(ctx, key, &h); ok {
			return h, nil
		}
	}
	h, err := d.repo.GetHotelByPMSID(ctx, pmsHotelID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Hotel{}, fmt.Errorf("hotel %s not registered: %w", pmsHotelID, domain.ErrNotFound)
		}
		return domain.Hotel{}, err
	}
	if d.cache != nil {
		_ = d.cache.Set(ctx, key, h, int(d.ttl.Seconds()))
	}
	return h, nil
}
