package ingress

import (
	"github.com/gorilla/mux"
)

// NewRouter wires the three routes from spec.md §6 onto a gorilla/mux
// router, grounded on lucas-de-lima-rinha-de-backend-2025's gateway
// routing.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/payments", h.CreatePayment).Methods("POST")
	r.HandleFunc("/payments-summary", h.Summary).Methods("GET")
	r.HandleFunc("/purge-payments", h.PurgePayments).Methods("POST")
	return r
}
