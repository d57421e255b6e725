package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/apporbit/apporbit-server/internal/domain"
	"github.com/apporbit/apporbit-server/internal/repo/postgres"
)

type ReviewService interface {
	Create(ctx context.Context, req *domain.ReviewCreate) (*domain.Review, error)
	ListAll(ctx context.Context) ([]domain.Review, error)
	ListRecent(ctx context.Context) ([]domain.Review, error)
	ListByProduct(ctx context.Context, productID int64) ([]domain.Review, error)
}

type reviewService struct {
	reviews postgres.ReviewRepository
}

func NewReviewService(reviews postgres.ReviewRepository) ReviewService {
	return &reviewService{reviews: reviews}
}

func (s *reviewService) Create(ctx context.Context, req *domain.ReviewCreate) (*domain.Review, error) {
	if req.ProductID <= 0 {
		return nil, errors.New("product id is required")
	}
	if req.Rating < domain.MinRating || req.Rating > domain.MaxRating {
		return nil, fmt.Errorf("rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	}
	return s.reviews.Create(ctx, req)
}

func (s *reviewService) ListAll(ctx context.Context) ([]domain.Review, error) {
	return s.reviews.ListAll(ctx)
}

func (s *reviewService) ListRecent(ctx context.Context) ([]domain.Review, error) {
	return s.reviews.ListRecent(ctx, domain.RecentReviewsLimit)
}

func (s *reviewService) ListByProduct(ctx context.Context, productID int64) ([]domain.Review, error) {
	return s.reviews.ListByProduct(ctx, productID)
}
