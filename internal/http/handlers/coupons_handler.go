package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/apporbit/apporbit-server/internal/domain"
	"github.com/apporbit/apporbit-server/internal/http/response"
)

func (h *Handlers) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req domain.CouponCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}
	if req.Code == "" {
		response.BadRequest(w, "coupon code is required")
		return
	}
	if req.DiscountAmount <= 0 {
		response.BadRequest(w, "discount amount must be positive")
		return
	}

	coupon, err := h.coupons.Create(r.Context(), &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, coupon)
}

func (h *Handlers) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	if coupons == nil {
		coupons = []domain.Coupon{}
	}
	writeJSON(w, http.StatusOK, coupons)
}

func (h *Handlers) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid coupon id")
		return
	}

	var patch domain.CouponPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}

	coupon, err := h.coupons.Update(r.Context(), id, patch)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, coupon)
}

func (h *Handlers) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid coupon id")
		return
	}

	if err := h.coupons.Delete(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "coupon deleted"})
}

type verifyCouponRequest struct {
	Code string `json:"code"`
}

type verifyCouponResponse struct {
	Valid          bool   `json:"valid"`
	DiscountAmount int    `json:"discount_amount"`
	Message        string `json:"message"`
}

// VerifyCoupon resolves a code to its discount. Validity is purely a
// function of current time against the expiry date.
func (h *Handlers) VerifyCoupon(w http.ResponseWriter, r *http.Request) {
	var req verifyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}
	if req.Code == "" {
		response.BadRequest(w, "coupon code is required")
		return
	}

	coupon, err := h.coupons.Verify(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "invalid coupon code")
			return
		}
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, verifyCouponResponse{
		Valid:          true,
		DiscountAmount: coupon.DiscountAmount,
		Message:        "coupon applied successfully",
	})
}
