package domain

// Fallback tier tags recorded on a successful envelope when a lower tier
// satisfied the request. Observability only; never changes the data shape.
const (
	FallbackCompactDate = "compact-date"
	FallbackPeriodType  = "period-type"
)

// Stable error codes surfaced to the UI layer.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeUpstreamError   = "UPSTREAM_ERROR"
	CodeOptionsFailed   = "OPTIONS_FETCH_FAILED"
	CodePriceDateFailed = "PRICE_DATE_FAILED"
	CodePricePeriodFail = "PRICE_PERIOD_FAILED"
	CodeDynamicPriceErr = "DYNAMIC_PRICE_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Meta annotates a successful envelope with which fallback tier fired.
type Meta struct {
	Fallback string `json:"fallback,omitempty"`
}

// Envelope is the one normalized shape every core operation returns,
// regardless of how many upstream calls or fallbacks were needed.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// OK wraps a payload in a successful envelope.
func OK(data any) Envelope { return Envelope{Success: true, Data: data} }

// OKFallback wraps a payload and records the tier that satisfied it.
func OKFallback(data any, tier string) Envelope {
	return Envelope{Success: true, Data: data, Meta: &Meta{Fallback: tier}}
}

// Fail builds a failure envelope with a stable code.
func Fail(code string, err error) Envelope {
	e := Envelope{Success: false, Code: code}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// PriceQuery is the unit of a single per-option price lookup.
type PriceQuery struct {
	ProductID  string `json:"product_id"`
	OptionCode string `json:"option_code"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// PriceMap maps option code to price. A failed or absent lookup resolves
// to 0, never to a missing key; callers must treat 0 as "unknown".
type PriceMap map[string]float64

// DefaultDetail is the minimal payload served when the product detail
// lookup fails. Detail display must never block availability display.
func DefaultDetail(productID string) map[string]any {
	return map[string]any{
		"product_id": productID,
		"name":       "",
		"images":     []any{},
	}
}
