package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apporbit/apporbit-server/internal/cache"
	"github.com/apporbit/apporbit-server/internal/domain"
	"github.com/apporbit/apporbit-server/internal/platform/mailer"
	"github.com/apporbit/apporbit-server/internal/repo/postgres"
	"github.com/apporbit/apporbit-server/pkg/events"
	"github.com/apporbit/apporbit-server/pkg/logger"
)

var ErrInvalidVerdict = errors.New("verdict must be accepted or rejected")

type ProductService interface {
	Submit(ctx context.Context, ownerEmail string, req *domain.ProductCreate) (*domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, limit, offset int) ([]domain.Product, error)
	ListByStatus(ctx context.Context, status domain.ProductStatus, limit, offset int) ([]domain.Product, error)
	ListByOwner(ctx context.Context, email string, limit, offset int) ([]domain.Product, error)
	ListFeatured(ctx context.Context) ([]domain.Product, error)
	ListTrending(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error

	// Moderation
	Transition(ctx context.Context, id int64, verdict domain.ProductStatus) (*domain.Product, error)
	Feature(ctx context.Context, id int64) (*domain.Product, error)

	// Ledgers
	Upvote(ctx context.Context, id int64, voterEmail string) (int, error)
	Report(ctx context.Context, id int64, reporterEmail string) error
	ListReported(ctx context.Context) ([]domain.Product, error)
	DeleteReported(ctx context.Context, id int64) error
}

type productService struct {
	products postgres.ProductRepository
	cache    *cache.ProductCache
	bus      events.Publisher
	mail     mailer.Service
}

func NewProductService(
	products postgres.ProductRepository,
	productCache *cache.ProductCache,
	bus events.Publisher,
	mail mailer.Service,
) ProductService {
	return &productService{
		products: products,
		cache:    productCache,
		bus:      bus,
		mail:     mail,
	}
}

func (s *productService) Submit(ctx context.Context, ownerEmail string, req *domain.ProductCreate) (*domain.Product, error) {
	if req.Name == "" {
		return nil, errors.New("product name is required")
	}

	product, err := s.products.Create(ctx, ownerEmail, req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit product: %w", err)
	}

	event := events.ProductSubmittedEvent{
		ProductID:   product.ID,
		OwnerEmail:  product.OwnerEmail,
		Name:        product.Name,
		SubmittedAt: product.SubmittedAt,
	}
	if err := s.bus.Publish(ctx, events.ProductSubmitted, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish product submitted event", "error", err, "product_id", product.ID)
	}

	return product, nil
}

func (s *productService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	return s.products.List(ctx, limit, offset)
}

func (s *productService) ListByStatus(ctx context.Context, status domain.ProductStatus, limit, offset int) ([]domain.Product, error) {
	return s.products.ListByStatus(ctx, status, limit, offset)
}

func (s *productService) ListByOwner(ctx context.Context, email string, limit, offset int) ([]domain.Product, error) {
	return s.products.ListByOwner(ctx, email, limit, offset)
}

func (s *productService) ListFeatured(ctx context.Context) ([]domain.Product, error) {
	if products, ok := s.cache.GetList(ctx, cache.FeaturedKey); ok {
		return products, nil
	}
	products, err := s.products.ListFeatured(ctx, domain.FeaturedLimit)
	if err != nil {
		return nil, err
	}
	s.cache.SetList(ctx, cache.FeaturedKey, products)
	return products, nil
}

func (s *productService) ListTrending(ctx context.Context) ([]domain.Product, error) {
	if products, ok := s.cache.GetList(ctx, cache.TrendingKey); ok {
		return products, nil
	}
	products, err := s.products.ListTrending(ctx, domain.TrendingLimit)
	if err != nil {
		return nil, err
	}
	s.cache.SetList(ctx, cache.TrendingKey, products)
	return products, nil
}

func (s *productService) Update(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error) {
	product, err := s.products.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	s.cache.Invalidate(ctx, cache.FeaturedKey, cache.TrendingKey)
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.products.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !deleted {
		return domain.ErrNotFound
	}
	s.cache.Invalidate(ctx, cache.FeaturedKey, cache.TrendingKey)

	event := events.ProductDeletedEvent{ProductID: id, Reason: "owner"}
	if err := s.bus.Publish(ctx, events.ProductDeleted, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish product deleted event", "error", err, "product_id", id)
	}
	return nil
}

// Transition records a moderation verdict. Re-moderating a decided product
// overwrites the status (idempotent), it is not a one-shot transition.
func (s *productService) Transition(ctx context.Context, id int64, verdict domain.ProductStatus) (*domain.Product, error) {
	if verdict != domain.ProductAccepted && verdict != domain.ProductRejected {
		return nil, ErrInvalidVerdict
	}

	product, err := s.products.SetStatus(ctx, id, verdict)
	if err != nil {
		return nil, fmt.Errorf("failed to set product status: %w", err)
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	s.cache.Invalidate(ctx, cache.FeaturedKey, cache.TrendingKey)

	subject := events.ProductAccepted
	if verdict == domain.ProductRejected {
		subject = events.ProductRejected
	}
	event := events.ProductModeratedEvent{
		ProductID:  product.ID,
		OwnerEmail: product.OwnerEmail,
		Status:     string(verdict),
		DecidedAt:  time.Now(),
	}
	if err := s.bus.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish moderation event", "error", err, "product_id", product.ID)
	}

	if s.mail != nil {
		if err := s.mail.SendVerdict(product.OwnerEmail, product.Name, verdict == domain.ProductAccepted); err != nil {
			logger.WarnContext(ctx, "Failed to send verdict email", "error", err, "product_id", product.ID)
		}
	}

	return product, nil
}

// Feature sets the featured flag regardless of moderation status; featuring
// is a promotion signal, not a moderation verdict.
func (s *productService) Feature(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.products.SetFeatured(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to feature product: %w", err)
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	s.cache.Invalidate(ctx, cache.FeaturedKey)

	event := events.ProductFeaturedEvent{
		ProductID:  product.ID,
		OwnerEmail: product.OwnerEmail,
		FeaturedAt: time.Now(),
	}
	if err := s.bus.Publish(ctx, events.ProductFeatured, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish product featured event", "error", err, "product_id", product.ID)
	}

	return product, nil
}

func (s *productService) Upvote(ctx context.Context, id int64, voterEmail string) (int, error) {
	upvotes, err := s.products.Upvote(ctx, id, voterEmail)
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate(ctx, cache.TrendingKey)

	event := events.ProductUpvotedEvent{
		ProductID:  id,
		VoterEmail: voterEmail,
		Upvotes:    upvotes,
	}
	if err := s.bus.Publish(ctx, events.ProductUpvoted, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish product upvoted event", "error", err, "product_id", id)
	}

	return upvotes, nil
}

func (s *productService) Report(ctx context.Context, id int64, reporterEmail string) error {
	if err := s.products.Report(ctx, id, reporterEmail); err != nil {
		return err
	}

	event := events.ProductReportedEvent{
		ProductID:     id,
		ReporterEmail: reporterEmail,
		ReportedAt:    time.Now(),
	}
	if err := s.bus.Publish(ctx, events.ProductReported, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish product reported event", "error", err, "product_id", id)
	}

	return nil
}

func (s *productService) ListReported(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListReported(ctx)
}

func (s *productService) DeleteReported(ctx context.Context, id int64) error {
	deleted, err := s.products.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete reported product: %w", err)
	}
	if !deleted {
		return domain.ErrNotFound
	}
	s.cache.Invalidate(ctx, cache.FeaturedKey, cache.TrendingKey)

	event := events.ProductDeletedEvent{ProductID: id, Reason: "moderation"}
	if err := s.bus.Publish(ctx, events.ProductDeleted, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish product deleted event", "error", err, "product_id", id)
	}
	return nil
}
