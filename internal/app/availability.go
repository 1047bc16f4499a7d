package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"tna_gateway/internal/adapters/observability"
	"tna_gateway/internal/domain"
	"tna_gateway/internal/shared"
)

// AvailabilityService resolves product option sets against an upstream
// whose calendar indexing (per-date vs per-period) is not knowable in
// advance: the right endpoint is discovered by which tier succeeds.
type AvailabilityService struct {
	client domain.TourClient
}

func NewAvailabilityService(c domain.TourClient) *AvailabilityService {
	return &AvailabilityService{client: c}
}

// GetOptions retrieves the option set for a product, cascading through
// up to three request shapes. Tiers are strictly sequential: each is a
// fallback for the previous one's failure, not an independent source,
// so firing them concurrently would mostly waste doomed upstream calls.
//
//	1. date-indexed lookup with the date as supplied
//	2. date-indexed lookup with the compact (YYYYMMDD) date, skipped
//	   when compacting is a no-op
//	3. period-indexed lookup (also the first tier when no date is given)
//
// A tier advances only on error, never on an empty result.
func (s *AvailabilityService) GetOptions(ctx context.Context, productID, date string) domain.Envelope {
	var lastErr error
	fellBack := false

	if date != "" {
		payload, err := s.client.DateOptions(ctx, productID, date)
		if err == nil {
			return domain.OK(payload)
		}
		lastErr = err
		fellBack = true
		log.Debug().Str("product_id", productID).Str("date", date).Err(err).
			Msg("date-indexed options failed, trying compact date")

		if compact := shared.CompactDate(date); compact != date {
			payload, err = s.client.DateOptions(ctx, productID, compact)
			if err == nil {
				observability.ObserveFallback("options", domain.FallbackCompactDate)
				return domain.OKFallback(payload, domain.FallbackCompactDate)
			}
			lastErr = err
			log.Debug().Str("product_id", productID).Str("date", compact).Err(err).
				Msg("compact-date options failed, trying period type")
		}
	}

	payload, err := s.client.PeriodOptions(ctx, productID)
	if err == nil {
		if !fellBack {
			// period-indexed was the primary tier, not a fallback
			return domain.OK(payload)
		}
		observability.ObserveFallback("options", domain.FallbackPeriodType)
		return domain.OKFallback(payload, domain.FallbackPeriodType)
	}
	lastErr = err

	log.Warn().Str("product_id", productID).Str("date", date).Err(lastErr).
		Msg("all option tiers failed")
	return domain.Fail(domain.CodeOptionsFailed, lastErr)
}

// GetDetail fetches the product detail page payload. Detail is a
// single-tier passthrough with a soft-failure policy: a failed lookup
// yields a synthesized minimal payload instead of an error, because
// detail display must never block availability display.
func (s *AvailabilityService) GetDetail(ctx context.Context, productID string) domain.Envelope {
	payload, err := s.client.Detail(ctx, productID)
	if err != nil {
		log.Warn().Str("product_id", productID).Err(err).Msg("detail fetch failed, serving default")
		return domain.OK(domain.DefaultDetail(productID))
	}
	return domain.OK(payload)
}

// GetDates lists the bookable calendar from startDate onward.
func (s *AvailabilityService) GetDates(ctx context.Context, productID, startDate string) domain.Envelope {
	payload, err := s.client.Dates(ctx, productID, startDate)
	if err != nil {
		return domain.Fail(domain.CodeUpstreamError, err)
	}
	return domain.OK(payload)
}
