package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"tna_gateway/internal/app"
	"tna_gateway/internal/domain"
)

// ---- fake upstream client ----

// fakeClient records every call and delegates to per-method funcs; a nil
// func fails the call, mirroring an unreachable upstream.
type fakeClient struct {
	mu    sync.Mutex
	calls []string

	detail        func(productID string) (map[string]any, error)
	dateOptions   func(productID, date string) (map[string]any, error)
	periodOptions func(productID string) (map[string]any, error)
	dates         func(productID, startDate string) (map[string]any, error)
	datePrice     func(productID string, body map[string]any) (map[string]any, error)
	periodPrice   func(productID string, body map[string]any) (map[string]any, error)
	dynamicPrice  func(productID, optionID string, query map[string]any) (json.RawMessage, error)
}

var errFakeDown = errors.New("fake upstream unreachable")

func (f *fakeClient) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeClient) Detail(_ context.Context, productID string) (map[string]any, error) {
	f.record("detail:" + productID)
	if f.detail == nil {
		return nil, errFakeDown
	}
	return f.detail(productID)
}

func (f *fakeClient) DateOptions(_ context.Context, productID, date string) (map[string]any, error) {
	f.record("dateOptions:" + productID + ":" + date)
	if f.dateOptions == nil {
		return nil, errFakeDown
	}
	return f.dateOptions(productID, date)
}

func (f *fakeClient) PeriodOptions(_ context.Context, productID string) (map[string]any, error) {
	f.record("periodOptions:" + productID)
	if f.periodOptions == nil {
		return nil, errFakeDown
	}
	return f.periodOptions(productID)
}

func (f *fakeClient) Dates(_ context.Context, productID, startDate string) (map[string]any, error) {
	f.record("dates:" + productID + ":" + startDate)
	if f.dates == nil {
		return nil, errFakeDown
	}
	return f.dates(productID, startDate)
}

func (f *fakeClient) DatePrice(_ context.Context, productID string, body map[string]any) (map[string]any, error) {
	f.record("datePrice:" + productID)
	if f.datePrice == nil {
		return nil, errFakeDown
	}
	return f.datePrice(productID, body)
}

func (f *fakeClient) PeriodPrice(_ context.Context, productID string, body map[string]any) (map[string]any, error) {
	f.record("periodPrice:" + productID)
	if f.periodPrice == nil {
		return nil, errFakeDown
	}
	return f.periodPrice(productID, body)
}

func (f *fakeClient) DynamicPrice(_ context.Context, productID, optionID string, query map[string]any) (json.RawMessage, error) {
	f.record("dynamicPrice:" + productID + ":" + optionID)
	if f.dynamicPrice == nil {
		return nil, errFakeDown
	}
	return f.dynamicPrice(productID, optionID, query)
}

// ---- tests ----

func TestGetOptions_DateIndexedSucceedsFirstTier(t *testing.T) {
	fc := &fakeClient{
		dateOptions: func(id, date string) (map[string]any, error) {
			return map[string]any{"list": []any{map[string]any{"code": "OPT1"}}}, nil
		},
	}
	s := app.NewAvailabilityService(fc)

	env := s.GetOptions(context.Background(), "P1", "2024-05-01")
	if !env.Success {
		t.Fatalf("expected success, got %+v", env)
	}
	if env.Meta != nil {
		t.Fatalf("first tier success must carry no fallback meta, got %+v", env.Meta)
	}
	if fc.callCount() != 1 {
		t.Fatalf("expected exactly 1 upstream call, got %v", fc.calls)
	}
}

func TestGetOptions_CompactDateFallback(t *testing.T) {
	fc := &fakeClient{
		dateOptions: func(id, date string) (map[string]any, error) {
			if date == "20240501" {
				return map[string]any{"list": []any{}}, nil
			}
			return nil, errors.New("upstream failed with status 400")
		},
	}
	s := app.NewAvailabilityService(fc)

	env := s.GetOptions(context.Background(), "P1", "2024-05-01")
	if !env.Success {
		t.Fatalf("expected success, got %+v", env)
	}
	if env.Meta == nil || env.Meta.Fallback != domain.FallbackCompactDate {
		t.Fatalf("expected compact-date fallback meta, got %+v", env.Meta)
	}
}

func TestGetOptions_PeriodTypeFallback(t *testing.T) {
	// scenario: PRD2001379417 / 2024-05-01, both date-indexed attempts
	// fail with a network error, period-indexed succeeds
	fc := &fakeClient{
		periodOptions: func(id string) (map[string]any, error) {
			return map[string]any{"list": []any{map[string]any{"code": "OPT1"}}}, nil
		},
	}
	s := app.NewAvailabilityService(fc)

	env := s.GetOptions(context.Background(), "PRD2001379417", "2024-05-01")
	if !env.Success {
		t.Fatalf("expected success, got %+v", env)
	}
	if env.Meta == nil || env.Meta.Fallback != domain.FallbackPeriodType {
		t.Fatalf("expected period-type fallback meta, got %+v", env.Meta)
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data: %+v", env.Data)
	}
	list := data["list"].([]any)
	if len(list) != 1 || list[0].(map[string]any)["code"] != "OPT1" {
		t.Fatalf("unexpected list: %+v", list)
	}
	want := []string{
		"dateOptions:PRD2001379417:2024-05-01",
		"dateOptions:PRD2001379417:20240501",
		"periodOptions:PRD2001379417",
	}
	if len(fc.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, fc.calls)
	}
	for i := range want {
		if fc.calls[i] != want[i] {
			t.Fatalf("call %d: expected %s, got %s", i, want[i], fc.calls[i])
		}
	}
}

func TestGetOptions_NoDateGoesStraightToPeriod(t *testing.T) {
	fc := &fakeClient{
		periodOptions: func(id string) (map[string]any, error) {
			return map[string]any{"list": []any{}}, nil
		},
	}
	s := app.NewAvailabilityService(fc)

	env := s.GetOptions(context.Background(), "P1", "")
	if !env.Success {
		t.Fatalf("expected success, got %+v", env)
	}
	if env.Meta != nil {
		t.Fatalf("period-indexed as primary tier must carry no fallback meta, got %+v", env.Meta)
	}
	if fc.callCount() != 1 || fc.calls[0] != "periodOptions:P1" {
		t.Fatalf("expected only the period call, got %v", fc.calls)
	}
}

func TestGetOptions_CompactSkippedWhenIdentical(t *testing.T) {
	fc := &fakeClient{} // every endpoint fails
	s := app.NewAvailabilityService(fc)

	env := s.GetOptions(context.Background(), "P1", "20240501")
	if env.Success {
		t.Fatalf("expected failure, got %+v", env)
	}
	if env.Code != domain.CodeOptionsFailed {
		t.Fatalf("expected %s, got %s", domain.CodeOptionsFailed, env.Code)
	}
	// compact form equals the original: the redundant identical retry
	// must be skipped, leaving date + period = 2 calls
	if fc.callCount() != 2 {
		t.Fatalf("expected 2 upstream calls, got %v", fc.calls)
	}
}

func TestGetOptions_EmptyResultDoesNotAdvanceTier(t *testing.T) {
	fc := &fakeClient{
		dateOptions: func(id, date string) (map[string]any, error) {
			return map[string]any{"list": []any{}}, nil
		},
	}
	s := app.NewAvailabilityService(fc)

	env := s.GetOptions(context.Background(), "P1", "2024-05-01")
	if !env.Success {
		t.Fatalf("expected success, got %+v", env)
	}
	if fc.callCount() != 1 {
		t.Fatalf("empty result must not trigger fallback, got calls %v", fc.calls)
	}
}

func TestGetDetail_SoftFailureServesDefault(t *testing.T) {
	fc := &fakeClient{} // detail fails
	s := app.NewAvailabilityService(fc)

	env := s.GetDetail(context.Background(), "P1")
	if !env.Success {
		t.Fatalf("detail must never fail hard, got %+v", env)
	}
	data, ok := env.Data.(map[string]any)
	if !ok || data["product_id"] != "P1" {
		t.Fatalf("expected synthesized default payload, got %+v", env.Data)
	}
}
