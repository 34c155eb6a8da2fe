package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/get_run"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/list_price_history"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/preview_rules"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/ruledoc"
	"github.com/light-bringer/dynprice-service/internal/transport/view"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePreview simulates a draft rule set against one product.
// Structural decode errors are 400; bound violations come back in the result.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.opts.Preview == nil {
		respondError(w, http.StatusNotImplemented, "preview is not enabled", nil)
		return
	}

	var doc ruledoc.PreviewDocument
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	req, err := preview_rules.RequestFromDocument(doc, s.opts.Clock.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid preview document", err)
		return
	}

	res := s.opts.Preview.Execute(r.Context(), req)
	respondJSON(w, http.StatusOK, view.FromResult(res))
}

// handleTriggerRun runs a catalog now. The run outlives the request: a client
// disconnect does not abort a run that has started writing prices.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if s.opts.Runs == nil {
		respondError(w, http.StatusNotImplemented, "runs are not enabled", nil)
		return
	}
	catalogID := chi.URLParam(r, "catalogID")

	run, err := s.opts.Runs.Trigger(context.WithoutCancel(r.Context()), catalogID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view.FromRun(run))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runDate, err := civil.ParseDate(chi.URLParam(r, "runDate"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "run date must be YYYY-MM-DD", err)
		return
	}
	tz := r.URL.Query().Get("timezone")
	if tz == "" {
		tz = s.opts.DefaultTimezone
	}

	rec, err := s.opts.GetRun.Execute(r.Context(), &get_run.Request{
		CatalogID: chi.URLParam(r, "catalogID"),
		RunDate:   runDate,
		Timezone:  tz,
	})
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view.FromRecord(rec))
}

func (s *Server) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer", err)
			return
		}
		limit = n
	}

	entries, err := s.opts.PriceHistory.Execute(r.Context(), &list_price_history.Request{
		ProductID: chi.URLParam(r, "productID"),
		Limit:     limit,
	})
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": view.FromHistory(entries)})
}

func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.opts.Logger.Error("request failed", "error", err)
	}
	respondError(w, status, message, err)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil && status < http.StatusInternalServerError {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
