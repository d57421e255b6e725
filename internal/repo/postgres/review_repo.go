package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apporbit/apporbit-server/internal/domain"
)

type ReviewRepository interface {
	Create(ctx context.Context, req *domain.ReviewCreate) (*domain.Review, error)
	ListAll(ctx context.Context) ([]domain.Review, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Review, error)
	ListByProduct(ctx context.Context, productID int64) ([]domain.Review, error)
}

type reviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &reviewRepository{pool: pool}
}

const reviewCols = `id, product_id, reviewer_name, reviewer_image, description, rating, created_at`

func (r *reviewRepository) Create(ctx context.Context, req *domain.ReviewCreate) (*domain.Review, error) {
	const q = `INSERT INTO reviews (product_id, reviewer_name, reviewer_image, description, rating)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + reviewCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rv domain.Review
	err := r.pool.QueryRow(ctx, q,
		req.ProductID, req.ReviewerName, req.ReviewerImage, req.Description, req.Rating,
	).Scan(&rv.ID, &rv.ProductID, &rv.ReviewerName, &rv.ReviewerImage, &rv.Description, &rv.Rating, &rv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepository) ListAll(ctx context.Context) ([]domain.Review, error) {
	const q = `SELECT ` + reviewCols + ` FROM reviews ORDER BY created_at DESC`
	return r.queryReviews(ctx, q)
}

func (r *reviewRepository) ListRecent(ctx context.Context, limit int) ([]domain.Review, error) {
	if limit <= 0 {
		limit = domain.RecentReviewsLimit
	}
	const q = `SELECT ` + reviewCols + ` FROM reviews ORDER BY created_at DESC LIMIT $1`
	return r.queryReviews(ctx, q, limit)
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID int64) ([]domain.Review, error) {
	const q = `SELECT ` + reviewCols + ` FROM reviews WHERE product_id=$1 ORDER BY created_at DESC`
	return r.queryReviews(ctx, q, productID)
}

func (r *reviewRepository) queryReviews(ctx context.Context, q string, args ...any) ([]domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID, &rv.ProductID, &rv.ReviewerName, &rv.ReviewerImage, &rv.Description, &rv.Rating, &rv.CreatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}
