package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyVoted    = errors.New("user already voted")
	ErrAlreadyReported = errors.New("user already reported this product")
	ErrDuplicateCode   = errors.New("coupon code already exists")
	ErrCouponExpired   = errors.New("coupon expired")
)
