// Package ingress implements the inbound HTTP API from spec.md §6: enqueue
// a payment, read the reconciliation summary, and purge ledger state.
// Grounded on the teacher's main.go PayHandler (decode -> validate ->
// side-effect -> respond shape) combined with
// original_source/src/api/*_handler.rs for the route set.
package ingress

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kaylee-dev/payment-intermediary/internal/apperr"
	"github.com/kaylee-dev/payment-intermediary/internal/ledger"
	"github.com/kaylee-dev/payment-intermediary/internal/model"
	"github.com/kaylee-dev/payment-intermediary/internal/queue"
	"github.com/kaylee-dev/payment-intermediary/internal/summary"
)

// Handler bundles the ingress collaborators: the Queue it writes to, the
// Summary service it reads from, and the Ledger it purges.
type Handler struct {
	queue   queue.Queue
	summary *summary.Service
	ledger  ledger.Ledger
	log     zerolog.Logger
}

// New builds a Handler.
func New(q queue.Queue, s *summary.Service, l ledger.Ledger, log zerolog.Logger) *Handler {
	return &Handler{queue: q, summary: s, ledger: l, log: log.With().Str("component", "ingress").Logger()}
}

type paymentRequest struct {
	CorrelationID uuid.UUID `json:"correlationId"`
	Amount        float64   `json:"amount"`
}

type paymentResponse struct {
	Payment model.Payment `json:"payment"`
	Status  string        `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreatePayment handles POST /payments.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug().Err(apperr.ErrClient).AnErr("cause", err).Msg("rejecting malformed request body")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	if req.CorrelationID == uuid.Nil || req.Amount < 0 {
		h.log.Debug().Err(apperr.ErrClient).Str("correlation_id", req.CorrelationID.String()).Msg("rejecting invalid payment request")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "correlationId and a non-negative amount are required"})
		return
	}

	payment := model.Payment{CorrelationID: req.CorrelationID, Amount: req.Amount}
	if err := h.queue.Push(r.Context(), model.NewQueueMessage(payment)); err != nil {
		h.log.Error().Err(err).Str("correlation_id", req.CorrelationID.String()).Msg("failed to enqueue payment")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "queue unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, paymentResponse{Payment: payment, Status: "queued"})
}

// Summary handles GET /payments-summary?from=RFC3339&to=RFC3339.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	from, err := parseOptionalTime(r.URL.Query().Get("from"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "from must be RFC3339"})
		return
	}
	to, err := parseOptionalTime(r.URL.Query().Get("to"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "to must be RFC3339"})
		return
	}

	result, err := h.summary.Summarize(r.Context(), from, to)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to compute summary")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "ledger unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// PurgePayments handles POST /purge-payments.
func (h *Handler) PurgePayments(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Clear(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("failed to purge ledger")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "partial purge failure"})
		return
	}
	writeJSON(w, http.StatusOK, "purged")
}

func parseOptionalTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	parsed = parsed.UTC()
	return &parsed, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
