package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/apporbit/apporbit-server/internal/domain"
	"github.com/apporbit/apporbit-server/internal/http/response"
	"github.com/apporbit/apporbit-server/internal/platform/payments"
	"github.com/apporbit/apporbit-server/internal/service"
)

type Handlers struct {
	users    service.UserService
	products service.ProductService
	reviews  service.ReviewService
	coupons  service.CouponService
	payments payments.IntentCreator
	currency string
}

func New(
	users service.UserService,
	products service.ProductService,
	reviews service.ReviewService,
	coupons service.CouponService,
	intents payments.IntentCreator,
	currency string,
) *Handlers {
	return &Handlers{
		users:    users,
		products: products,
		reviews:  reviews,
		coupons:  coupons,
		payments: intents,
		currency: currency,
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// serviceError maps domain errors onto the response taxonomy.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "not found")
	case errors.Is(err, domain.ErrAlreadyVoted):
		response.Conflict(w, "user already voted")
	case errors.Is(err, domain.ErrAlreadyReported):
		response.Conflict(w, "you have already reported this product")
	case errors.Is(err, domain.ErrDuplicateCode):
		response.Conflict(w, "coupon code already exists")
	case errors.Is(err, domain.ErrCouponExpired):
		response.Expired(w, "coupon expired")
	default:
		response.InternalError(w, "internal server error")
	}
}

func parseID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
