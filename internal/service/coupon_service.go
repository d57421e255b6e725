package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apporbit/apporbit-server/internal/domain"
	"github.com/apporbit/apporbit-server/internal/repo/postgres"
)

type CouponService interface {
	Create(ctx context.Context, req *domain.CouponCreate) (*domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
	Update(ctx context.Context, id int64, patch domain.CouponPatch) (*domain.Coupon, error)
	Delete(ctx context.Context, id int64) error
	// Verify resolves a code to its discount. Unknown codes return
	// domain.ErrNotFound, past-expiry codes domain.ErrCouponExpired.
	Verify(ctx context.Context, code string) (*domain.Coupon, error)
}

type couponService struct {
	coupons postgres.CouponRepository
	now     func() time.Time
}

func NewCouponService(coupons postgres.CouponRepository) CouponService {
	return &couponService{coupons: coupons, now: time.Now}
}

func (s *couponService) Create(ctx context.Context, req *domain.CouponCreate) (*domain.Coupon, error) {
	if req.Code == "" {
		return nil, errors.New("coupon code is required")
	}
	if req.DiscountAmount <= 0 {
		return nil, errors.New("discount amount must be positive")
	}
	return s.coupons.Create(ctx, req)
}

func (s *couponService) List(ctx context.Context) ([]domain.Coupon, error) {
	return s.coupons.List(ctx)
}

func (s *couponService) Update(ctx context.Context, id int64, patch domain.CouponPatch) (*domain.Coupon, error) {
	coupon, err := s.coupons.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}
	if coupon == nil {
		return nil, domain.ErrNotFound
	}
	return coupon, nil
}

func (s *couponService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.coupons.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (s *couponService) Verify(ctx context.Context, code string) (*domain.Coupon, error) {
	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, domain.ErrNotFound
	}
	if coupon.IsExpired(s.now()) {
		return nil, domain.ErrCouponExpired
	}
	return coupon, nil
}
