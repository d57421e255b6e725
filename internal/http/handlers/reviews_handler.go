package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/apporbit/apporbit-server/internal/domain"
	"github.com/apporbit/apporbit-server/internal/http/response"
)

func (h *Handlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req domain.ReviewCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}

	review, err := h.reviews.Create(r.Context(), &req)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *Handlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListAll(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	writeReviews(w, reviews)
}

func (h *Handlers) ListRecentReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListRecent(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	writeReviews(w, reviews)
}

func (h *Handlers) ListProductReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(r, "productId")
	if !ok {
		response.BadRequest(w, "invalid product id")
		return
	}

	reviews, err := h.reviews.ListByProduct(r.Context(), productID)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeReviews(w, reviews)
}

func writeReviews(w http.ResponseWriter, reviews []domain.Review) {
	if reviews == nil {
		reviews = []domain.Review{}
	}
	writeJSON(w, http.StatusOK, reviews)
}
