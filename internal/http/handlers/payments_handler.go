package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/apporbit/apporbit-server/internal/http/response"
	"github.com/apporbit/apporbit-server/pkg/logger"
)

type createPaymentIntentRequest struct {
	Price int64 `json:"price"` // dollars
}

type createPaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// CreatePaymentIntent requests a payment intent from the gateway and
// relays its client secret. Charge processing is entirely the gateway's.
func (h *Handlers) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req createPaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}
	if req.Price <= 0 {
		response.BadRequest(w, "price must be positive")
		return
	}

	clientSecret, err := h.payments.CreateIntent(r.Context(), req.Price*100, h.currency)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to create payment intent", "error", err)
		response.InternalError(w, "failed to create payment intent")
		return
	}

	writeJSON(w, http.StatusOK, createPaymentIntentResponse{ClientSecret: clientSecret})
}
