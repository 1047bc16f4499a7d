package app

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"golang.org/x/sync/semaphore"

	"tna_gateway/internal/adapters/observability"
	"tna_gateway/internal/domain"
	"tna_gateway/internal/shared"
)

// PriceService aggregates per-option price lookups. The upstream only
// prices one option code per call, so a set of codes fans out into
// independent concurrent lookups joined in full.
type PriceService struct {
	client  domain.TourClient
	workers int64
}

func NewPriceService(c domain.TourClient, workers int) *PriceService {
	if workers <= 0 {
		workers = 8
	}
	return &PriceService{client: c, workers: int64(workers)}
}

// GetPrices issues one price lookup per option code and assembles the
// code→price map. All lookups settle before the map is returned; a slow
// or failing code never blocks or fails the others. A failed lookup
// resolves to 0 — callers must treat 0 as "unknown", not "free".
func (s *PriceService) GetPrices(ctx context.Context, productID, date string, optionCodes []string) domain.PriceMap {
	results := make([]float64, len(optionCodes))
	sem := semaphore.NewWeighted(s.workers)
	var wg sync.WaitGroup

	for i, code := range optionCodes {
		i, code := i, code

		if err := sem.Acquire(ctx, 1); err != nil {
			// caller gone; remaining codes settle to 0
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			q := domain.PriceQuery{ProductID: productID, OptionCode: code, StartDate: date, EndDate: date}
			payload, err := s.client.PeriodPrice(ctx, productID, priceQueryBody(q))
			if err != nil {
				log.Debug().Str("product_id", productID).Str("option_code", code).Err(err).
					Msg("price lookup failed, resolving to 0")
				return
			}
			results[i] = extractPrice(payload)
		}()
	}

	wg.Wait()

	out := make(domain.PriceMap, len(optionCodes))
	for i, code := range optionCodes {
		out[code] = results[i]
	}
	return out
}

// GetPrice looks up one option's price for a single date.
func (s *PriceService) GetPrice(ctx context.Context, productID, optionCode, date string) (float64, error) {
	q := domain.PriceQuery{ProductID: productID, OptionCode: optionCode, StartDate: date, EndDate: date}
	payload, err := s.client.PeriodPrice(ctx, productID, priceQueryBody(q))
	if err != nil {
		return 0, err
	}
	return extractPrice(payload), nil
}

// GetPricePeriodType runs a richer period-based price query with a
// one-level fallback: if the first attempt fails and the body carries
// hyphenated start_date/end_date strings, retry once with both in
// compact form. The retry is skipped when compacting changes nothing,
// since an identical request would fail identically.
func (s *PriceService) GetPricePeriodType(ctx context.Context, productID string, body map[string]any) domain.Envelope {
	payload, err := s.client.PeriodPrice(ctx, productID, body)
	if err == nil {
		return domain.OK(payload)
	}

	if compacted, changed := compactDateBody(body); changed {
		payload, rerr := s.client.PeriodPrice(ctx, productID, compacted)
		if rerr == nil {
			observability.ObserveFallback("price_period", domain.FallbackCompactDate)
			return domain.OKFallback(payload, domain.FallbackCompactDate)
		}
		err = rerr
	}

	log.Warn().Str("product_id", productID).Err(err).Msg("period price failed")
	e := domain.Fail(domain.CodePricePeriodFail, err)
	e.Details = map[string]any{"status": shared.StatusFromError(err)}
	return e
}

// GetDatePrice is the single-attempt date-type price query with no
// fallback; the raw upstream payload is wrapped as an envelope.
func (s *PriceService) GetDatePrice(ctx context.Context, productID string, body map[string]any) domain.Envelope {
	payload, err := s.client.DatePrice(ctx, productID, body)
	if err != nil {
		return domain.Fail(domain.CodePriceDateFailed, err)
	}
	return domain.OK(payload)
}

// GetDynamicPrice is a verbatim passthrough. No envelope: the consumers
// of this one path depend on the upstream's native response structure.
func (s *PriceService) GetDynamicPrice(ctx context.Context, productID, optionID string, query map[string]any) (json.RawMessage, error) {
	return s.client.DynamicPrice(ctx, productID, optionID, query)
}

func priceQueryBody(q domain.PriceQuery) map[string]any {
	return map[string]any{
		"product_id":  q.ProductID,
		"option_code": q.OptionCode,
		"start_date":  q.StartDate,
		"end_date":    q.EndDate,
	}
}

// extractPrice digs the numeric price out of a heterogeneous upstream
// payload, checking price, then data.price, then amount.
func extractPrice(payload map[string]any) float64 {
	if v, ok := payload["price"]; ok {
		return cast.ToFloat64(v)
	}
	if data, ok := payload["data"].(map[string]any); ok {
		if v, ok := data["price"]; ok {
			return cast.ToFloat64(v)
		}
	}
	if v, ok := payload["amount"]; ok {
		return cast.ToFloat64(v)
	}
	return 0
}

// compactDateBody returns a copy of body with hyphenated start_date and
// end_date strings compacted, and whether anything actually changed.
func compactDateBody(body map[string]any) (map[string]any, bool) {
	changed := false
	out := make(map[string]any, len(body))
	for k, v := range body {
		out[k] = v
	}
	for _, k := range []string{"start_date", "end_date"} {
		if s, ok := out[k].(string); ok {
			if c := shared.CompactDate(s); c != s {
				out[k] = c
				changed = true
			}
		}
	}
	return out, changed
}
