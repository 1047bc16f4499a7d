package domain

import (
	"context"
	"encoding/json"
)

// TourClient is the outbound port to the third-party tour product API.
// Payloads stay as raw maps; the upstream has several incompatible
// response shapes and normalization happens above this port.
type TourClient interface {
	Detail(ctx context.Context, productID string) (map[string]any, error)
	DateOptions(ctx context.Context, productID, date string) (map[string]any, error)
	PeriodOptions(ctx context.Context, productID string) (map[string]any, error)
	Dates(ctx context.Context, productID, startDate string) (map[string]any, error)
	DatePrice(ctx context.Context, productID string, body map[string]any) (map[string]any, error)
	PeriodPrice(ctx context.Context, productID string, body map[string]any) (map[string]any, error)
	DynamicPrice(ctx context.Context, productID, optionID string, query map[string]any) (json.RawMessage, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
