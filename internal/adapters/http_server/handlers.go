// internal/adapters/http_server/handlers.go
package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"tna_gateway/internal/app"
	"tna_gateway/internal/domain"
	"tna_gateway/internal/shared"
)

type Handlers struct {
	Avail  app.OptionResolver
	Prices *app.PriceService
	Bundle *app.BundleService
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/tna/options", h.getOptions)
	s.mux.Get("/v1/tna/bundle", h.getBundle)
	s.mux.Post("/v1/tna/bundle", h.postBundle)
	s.mux.Post("/v1/tna/price/data-type", h.postPriceDataType)
	s.mux.Post("/v1/tna/price/period-type", h.postPricePeriodType)
	s.mux.Post("/v1/tna/options/{optionId}/dynamic-price", h.postDynamicPrice)
}

func writeEnvelope(w http.ResponseWriter, status int, env domain.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Error().Err(err).Msg("write JSON envelope failed")
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeEnvelope(w, http.StatusBadRequest, domain.Envelope{
		Success: false,
		Error:   msg,
		Code:    domain.CodeBadRequest,
	})
}

// decodeBody reads a JSON object body; nil body decodes to an empty map.
func decodeBody(r *http.Request) (map[string]any, error) {
	body := map[string]any{}
	if r.Body == nil {
		return body, nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return body, nil
}

// GET /v1/tna/options?product_id&date
func (h *Handlers) getOptions(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		writeBadRequest(w, "product_id required")
		return
	}
	date := r.URL.Query().Get("date")

	env := h.Avail.GetOptions(r.Context(), productID, date)
	if !env.Success {
		status := http.StatusInternalServerError
		if env.Error != "" {
			status = shared.StatusFromError(errors.New(env.Error))
		}
		writeEnvelope(w, status, env)
		return
	}
	writeEnvelope(w, http.StatusOK, env)
}

// GET /v1/tna/bundle?product_id&start_date
func (h *Handlers) getBundle(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		writeBadRequest(w, "product_id required")
		return
	}
	startDate := r.URL.Query().Get("start_date")

	env := h.Bundle.GetBundle(r.Context(), productID, startDate)
	if !env.Success {
		writeEnvelope(w, http.StatusInternalServerError, env)
		return
	}
	writeEnvelope(w, http.StatusOK, env)
}

// POST /v1/tna/bundle {product_id, date, option_codes[]}
func (h *Handlers) postBundle(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	productID := cast.ToString(body["product_id"])
	if productID == "" {
		writeBadRequest(w, "product_id required")
		return
	}
	// date is required before any upstream call is issued
	date := cast.ToString(body["date"])
	if date == "" {
		writeBadRequest(w, "date required")
		return
	}
	codes := cast.ToStringSlice(body["option_codes"])

	env := h.Bundle.PostBundle(r.Context(), productID, date, codes)
	writeEnvelope(w, http.StatusOK, env)
}

// POST /v1/tna/price/data-type {..raw upstream body..}
func (h *Handlers) postPriceDataType(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	productID := cast.ToString(body["product_id"])
	if productID == "" {
		writeBadRequest(w, "product_id required")
		return
	}

	env := h.Prices.GetDatePrice(r.Context(), productID, body)
	if !env.Success {
		// status is recoverable only from the message text on this path
		status := http.StatusInternalServerError
		if strings.Contains(env.Error, "404") {
			status = http.StatusNotFound
		}
		writeEnvelope(w, status, env)
		return
	}
	writeEnvelope(w, http.StatusOK, env)
}

// POST /v1/tna/price/period-type {start_date?, end_date?, ...}
func (h *Handlers) postPricePeriodType(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	productID := cast.ToString(body["product_id"])
	if productID == "" {
		writeBadRequest(w, "product_id required")
		return
	}

	env := h.Prices.GetPricePeriodType(r.Context(), productID, body)
	if !env.Success {
		status := http.StatusInternalServerError
		if d, ok := env.Details.(map[string]any); ok {
			if s := cast.ToInt(d["status"]); s != 0 {
				status = s
			}
		}
		writeEnvelope(w, status, env)
		return
	}
	writeEnvelope(w, http.StatusOK, env)
}

// POST /v1/tna/options/{optionId}/dynamic-price?product_id  {..query..}
// Verbatim upstream JSON on success, no envelope wrapping.
func (h *Handlers) postDynamicPrice(w http.ResponseWriter, r *http.Request) {
	optionID := chi.URLParam(r, "optionId")
	productID := r.URL.Query().Get("product_id")
	query, err := decodeBody(r)
	if err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if productID == "" {
		productID = cast.ToString(query["product_id"])
	}
	if productID == "" {
		writeBadRequest(w, "product_id required")
		return
	}

	raw, err := h.Prices.GetDynamicPrice(r.Context(), productID, optionID, query)
	if err != nil {
		writeEnvelope(w, shared.StatusFromError(err), domain.Fail(domain.CodeDynamicPriceErr, err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		log.Error().Err(err).Msg("failed to write dynamic price body")
	}
}
