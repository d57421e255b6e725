package domain

import "time"

type Coupon struct {
	ID             int64     `json:"id"`
	Code           string    `json:"code"`
	Description    string    `json:"description"`
	DiscountAmount int       `json:"discount_amount"`
	ExpiryDate     time.Time `json:"expiry_date"`
}

type CouponCreate struct {
	Code           string    `json:"code"`
	Description    string    `json:"description"`
	DiscountAmount int       `json:"discount_amount"`
	ExpiryDate     time.Time `json:"expiry_date"`
}

type CouponPatch struct {
	Description    *string    `json:"description,omitempty"`
	DiscountAmount *int       `json:"discount_amount,omitempty"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
}

// IsExpired reports whether the coupon is past its validity at the given time.
func (c *Coupon) IsExpired(at time.Time) bool {
	return c.ExpiryDate.Before(at)
}
