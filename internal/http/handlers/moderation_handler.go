package handlers

import (
	"net/http"

	"github.com/apporbit/apporbit-server/internal/domain"
	"github.com/apporbit/apporbit-server/internal/http/response"
)

// Moderator-only handlers. Role enforcement happens in the router via the
// authorization pipeline; these assume an admitted moderator.

func (h *Handlers) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	products, err := h.products.ListByStatus(r.Context(), domain.ProductPending, limit, offset)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeProducts(w, products)
}

func (h *Handlers) AcceptProduct(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.ProductAccepted)
}

func (h *Handlers) RejectProduct(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.ProductRejected)
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, verdict domain.ProductStatus) {
	id, ok := parseID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid product id")
		return
	}

	product, err := h.products.Transition(r.Context(), id, verdict)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// FeatureProduct sets the featured flag. Works on a product in any status.
func (h *Handlers) FeatureProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid product id")
		return
	}

	product, err := h.products.Feature(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}
