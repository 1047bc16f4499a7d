package app

import (
	"context"
	"fmt"
	"time"

	"tna_gateway/internal/domain"
)

// CachedAvailability is a short-TTL decorator around the availability
// resolver. The fallback cascade itself stays cache-free so it can be
// tested in isolation; only successful option envelopes are cached, and
// repeated failures keep hitting the upstream live.
type CachedAvailability struct {
	inner *AvailabilityService
	cache domain.Cache
	ttl   time.Duration
}

func NewCachedAvailability(inner *AvailabilityService, c domain.Cache, ttl time.Duration) *CachedAvailability {
	return &CachedAvailability{inner: inner, cache: c, ttl: ttl}
}

func (s *CachedAvailability) GetOptions(ctx context.Context, productID, date string) domain.Envelope {
	key := fmt.Sprintf("options:%s:%s", productID, date)
	var cached domain.Envelope
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached
	}
	env := s.inner.GetOptions(ctx, productID, date)
	if env.Success {
		_ = s.cache.Set(ctx, key, env, int(s.ttl.Seconds()))
	}
	return env
}

// Detail and dates are passthroughs; their payloads are either cheap
// (synthesized default on failure) or too date-varied to cache well.
func (s *CachedAvailability) GetDetail(ctx context.Context, productID string) domain.Envelope {
	return s.inner.GetDetail(ctx, productID)
}

func (s *CachedAvailability) GetDates(ctx context.Context, productID, startDate string) domain.Envelope {
	return s.inner.GetDates(ctx, productID, startDate)
}
