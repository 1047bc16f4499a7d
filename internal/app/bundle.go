package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"tna_gateway/internal/domain"
)

// BundleService composes the availability resolver and the price
// aggregator to answer one combined request in the minimum number of
// upstream round trips.
type BundleService struct {
	avail  OptionResolver
	prices *PriceService
}

// OptionResolver is what the bundle needs from availability; satisfied
// by AvailabilityService and by the caching decorator around it.
type OptionResolver interface {
	GetOptions(ctx context.Context, productID, date string) domain.Envelope
	GetDetail(ctx context.Context, productID string) domain.Envelope
	GetDates(ctx context.Context, productID, startDate string) domain.Envelope
}

func NewBundleService(a OptionResolver, p *PriceService) *BundleService {
	return &BundleService{avail: a, prices: p}
}

// GetBundle fetches product detail and the bookable date listing in one
// shot. The two sub-calls are independent and run concurrently with a
// full join; only an unexpected panic in either branch turns the whole
// bundle into a failure.
func (s *BundleService) GetBundle(ctx context.Context, productID, startDate string) domain.Envelope {
	var (
		wg            sync.WaitGroup
		detail, dates domain.Envelope
		panicked      error
		mu            sync.Mutex
	)

	run := func(name string, fn func()) {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				mu.Lock()
				panicked = fmt.Errorf("%s: panic: %v", name, r)
				mu.Unlock()
				log.Error().Str("product_id", productID).Interface("panic", r).
					Str("branch", name).Msg("bundle branch panicked")
			}
		}()
		fn()
	}

	wg.Add(2)
	go run("detail", func() { detail = s.avail.GetDetail(ctx, productID) })
	go run("dates", func() { dates = s.avail.GetDates(ctx, productID, startDate) })
	wg.Wait()

	if panicked != nil {
		return domain.Fail(domain.CodeInternalError, panicked)
	}
	return domain.OK(map[string]any{
		"detail": detail,
		"dates":  dates,
	})
}

// PostBundle resolves the option set for a date, then prices every
// supplied option code regardless of how options resolution went. The
// two halves of the result fail independently: a dead price fan-out
// never invalidates a good option set and vice versa.
func (s *BundleService) PostBundle(ctx context.Context, productID, date string, optionCodes []string) domain.Envelope {
	options := s.avail.GetOptions(ctx, productID, date)

	var prices domain.PriceMap
	if len(optionCodes) > 0 {
		prices = s.prices.GetPrices(ctx, productID, date, optionCodes)
	} else {
		prices = domain.PriceMap{}
	}

	return domain.OK(map[string]any{
		"options": options,
		"prices":  prices,
	})
}
