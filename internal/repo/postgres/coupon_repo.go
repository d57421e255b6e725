package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apporbit/apporbit-server/internal/domain"
)

type CouponRepository interface {
	// Create enforces code uniqueness; a duplicate code returns
	// domain.ErrDuplicateCode.
	Create(ctx context.Context, req *domain.CouponCreate) (*domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
	Update(ctx context.Context, id int64, patch domain.CouponPatch) (*domain.Coupon, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type couponRepository struct {
	pool *pgxpool.Pool
}

func NewCouponRepository(pool *pgxpool.Pool) CouponRepository {
	return &couponRepository{pool: pool}
}

const couponCols = `id, code, description, discount_amount, expiry_date`

func (r *couponRepository) Create(ctx context.Context, req *domain.CouponCreate) (*domain.Coupon, error) {
	const q = `INSERT INTO coupons (code, description, discount_amount, expiry_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO NOTHING
		RETURNING ` + couponCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.Coupon
	err := r.pool.QueryRow(ctx, q, req.Code, req.Description, req.DiscountAmount, req.ExpiryDate).Scan(
		&c.ID, &c.Code, &c.Description, &c.DiscountAmount, &c.ExpiryDate,
	)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrDuplicateCode
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *couponRepository) List(ctx context.Context) ([]domain.Coupon, error) {
	const q = `SELECT ` + couponCols + ` FROM coupons ORDER BY expiry_date DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []domain.Coupon
	for rows.Next() {
		var c domain.Coupon
		if err := rows.Scan(&c.ID, &c.Code, &c.Description, &c.DiscountAmount, &c.ExpiryDate); err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func (r *couponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	const q = `SELECT ` + couponCols + ` FROM coupons WHERE code=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.Coupon
	err := r.pool.QueryRow(ctx, q, code).Scan(&c.ID, &c.Code, &c.Description, &c.DiscountAmount, &c.ExpiryDate)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &c, err
}

func (r *couponRepository) Update(ctx context.Context, id int64, patch domain.CouponPatch) (*domain.Coupon, error) {
	const q = `UPDATE coupons SET
		description     = COALESCE($2, description),
		discount_amount = COALESCE($3, discount_amount),
		expiry_date     = COALESCE($4, expiry_date)
	WHERE id=$1
	RETURNING ` + couponCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.Coupon
	err := r.pool.QueryRow(ctx, q, id, patch.Description, patch.DiscountAmount, patch.ExpiryDate).Scan(
		&c.ID, &c.Code, &c.Description, &c.DiscountAmount, &c.ExpiryDate,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &c, err
}

func (r *couponRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM coupons WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
