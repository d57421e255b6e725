package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/apporbit/apporbit-server/internal/domain"
	mw "github.com/apporbit/apporbit-server/internal/http/middleware"
	"github.com/apporbit/apporbit-server/internal/http/response"
)

// SubmitProduct creates a product in pending status owned by the caller.
func (h *Handlers) SubmitProduct(w http.ResponseWriter, r *http.Request) {
	id := mw.Identity(r)
	if id == nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req domain.ProductCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}
	if req.Name == "" {
		response.BadRequest(w, "product name is required")
		return
	}

	product, err := h.products.Submit(r.Context(), id.Email, &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

// ListProducts lists all products, newest first.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	products, err := h.products.List(r.Context(), limit, offset)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeProducts(w, products)
}

func (h *Handlers) ListProductsByStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := domain.ParseProductStatus(chi.URLParam(r, "status"))
	if !ok {
		response.BadRequest(w, "status must be pending, accepted, or rejected")
		return
	}

	limit, offset := parsePagination(r)
	products, err := h.products.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeProducts(w, products)
}

// ListMyProducts lists the caller's own submissions. The owner is taken
// from the verified identity, never from the query string.
func (h *Handlers) ListMyProducts(w http.ResponseWriter, r *http.Request) {
	id := mw.Identity(r)
	if id == nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	limit, offset := parsePagination(r)
	products, err := h.products.ListByOwner(r.Context(), id.Email, limit, offset)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeProducts(w, products)
}

func (h *Handlers) ListFeatured(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListFeatured(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	writeProducts(w, products)
}

func (h *Handlers) ListTrending(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListTrending(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	writeProducts(w, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid product id")
		return
	}

	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid product id")
		return
	}

	var patch domain.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}

	product, err := h.products.Update(r.Context(), id, patch)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid product id")
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

type upvoteResponse struct {
	Message string `json:"message"`
	Upvotes int    `json:"upvotes"`
}

// UpvoteProduct records an upvote by the caller. At most one upvote per
// user per product; duplicates are rejected with Conflict.
func (h *Handlers) UpvoteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid product id")
		return
	}
	id := mw.Identity(r)
	if id == nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	upvotes, err := h.products.Upvote(r.Context(), productID, id.Email)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, upvoteResponse{Message: "upvoted", Upvotes: upvotes})
}

// ReportProduct records an abuse report by the caller. At most one report
// per user per product.
func (h *Handlers) ReportProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid product id")
		return
	}
	id := mw.Identity(r)
	if id == nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	if err := h.products.Report(r.Context(), productID, id.Email); err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "report recorded"})
}

func (h *Handlers) ListReported(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListReported(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	writeProducts(w, products)
}

// DeleteReported removes a reported product during moderation cleanup.
func (h *Handlers) DeleteReported(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid product id")
		return
	}

	if err := h.products.DeleteReported(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "reported product deleted"})
}

func writeProducts(w http.ResponseWriter, products []domain.Product) {
	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}
