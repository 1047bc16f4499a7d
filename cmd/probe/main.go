// Command probe smoke-tests the upstream tour API for a list of product
// ids: it resolves options for each product (exercising the fallback
// cascade live) and prices the discovered option codes, printing one
// summary line per product. Useful after upstream deploys.
//
//	probe [-date 2024-05-01] PRODUCT_ID...
package main

import (
	"context"
	"flag"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"golang.org/x/sync/semaphore"

	"tna_gateway/internal/adapters/observability"
	"tna_gateway/internal/adapters/tna"
	"tna_gateway/internal/app"
	"tna_gateway/internal/shared"
)

func main() {
	date := flag.String("date", "", "date to probe (YYYY-MM-DD); empty probes period-indexed products")
	flag.Parse()

	ctx := context.Background()
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ids := flag.Args()
	if len(ids) == 0 {
		log.Fatal().Msg("no product ids given")
	}

	client, err := tna.New(cfg.TNABase, cfg.TNAKey, cfg.TNARPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize TNA client")
	}
	avail := app.NewAvailabilityService(client)
	prices := app.NewPriceService(client, cfg.PriceWorkers)

	log.Info().Str("base", cfg.TNABase).Int("products", len(ids)).Str("date", *date).
		Msg("probe starting")

	sem := semaphore.NewWeighted(int64(cfg.PriceWorkers))
	var wg sync.WaitGroup

	for _, id := range ids {
		id := id

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(productID string) {
			defer wg.Done()
			defer sem.Release(1)

			env := avail.GetOptions(ctx, productID, *date)
			if !env.Success {
				log.Warn().Str("id", productID).Str("error", env.Error).Msg("options failed")
				return
			}
			tier := "direct"
			if env.Meta != nil && env.Meta.Fallback != "" {
				tier = env.Meta.Fallback
			}

			codes := optionCodes(env.Data)
			pm := prices.GetPrices(ctx, productID, *date, codes)
			priced := 0
			for _, p := range pm {
				if p > 0 {
					priced++
				}
			}

			log.Info().Str("id", productID).Str("tier", tier).
				Int("options", len(codes)).Int("priced", priced).Msg("probe ok")
		}(id)
	}

	wg.Wait()
	log.Info().Msg("probe completed")
}

// optionCodes pulls option codes out of whichever list shape the
// upstream returned; unrecognized shapes yield an empty set.
func optionCodes(data any) []string {
	m, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	list, ok := m["list"].([]any)
	if !ok {
		if list, ok = m["options"].([]any); !ok {
			return nil
		}
	}
	var codes []string
	for _, it := range list {
		if om, ok := it.(map[string]any); ok {
			if c := cast.ToString(om["code"]); c != "" {
				codes = append(codes, c)
			}
		}
	}
	return codes
}
