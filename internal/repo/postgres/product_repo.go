package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apporbit/apporbit-server/internal/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, ownerEmail string, req *domain.ProductCreate) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, limit, offset int) ([]domain.Product, error)
	ListByStatus(ctx context.Context, status domain.ProductStatus, limit, offset int) ([]domain.Product, error)
	ListByOwner(ctx context.Context, email string, limit, offset int) ([]domain.Product, error)
	ListFeatured(ctx context.Context, limit int) ([]domain.Product, error)
	ListTrending(ctx context.Context, limit int) ([]domain.Product, error)
	ListReported(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error)
	SetStatus(ctx context.Context, id int64, status domain.ProductStatus) (*domain.Product, error)
	SetFeatured(ctx context.Context, id int64) (*domain.Product, error)
	// Upvote applies the membership check and the mutation as one guarded
	// statement. Returns the new count, domain.ErrNotFound, or
	// domain.ErrAlreadyVoted.
	Upvote(ctx context.Context, id int64, voterEmail string) (int, error)
	// Report appends a report record and the reporter, same atomicity as
	// Upvote. Returns domain.ErrNotFound or domain.ErrAlreadyReported.
	Report(ctx context.Context, id int64, reporterEmail string) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type productRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &productRepository{pool: pool}
}

const productCols = `id, owner_email, name, image, description, tags, external_link,
status, is_featured, upvotes, voted_users, reports, reported_users,
submitted_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var reports []byte
	err := row.Scan(
		&p.ID, &p.OwnerEmail, &p.Name, &p.Image, &p.Description, &p.Tags, &p.ExternalLink,
		&p.Status, &p.IsFeatured, &p.Upvotes, &p.VotedUsers, &reports, &p.ReportedUsers,
		&p.SubmittedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(reports) > 0 {
		if err := json.Unmarshal(reports, &p.Reports); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (r *productRepository) queryProducts(ctx context.Context, q string, args ...any) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *productRepository) Create(ctx context.Context, ownerEmail string, req *domain.ProductCreate) (*domain.Product, error) {
	const q = `INSERT INTO products (
		owner_email, name, image, description, tags, external_link
	) VALUES (lower($1), $2, $3, $4, $5, $6)
	RETURNING ` + productCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	return scanProduct(r.pool.QueryRow(ctx, q,
		ownerEmail, req.Name, req.Image, req.Description, tags, req.ExternalLink,
	))
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	const q = `SELECT ` + productCols + ` FROM products WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *productRepository) List(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT ` + productCols + ` FROM products ORDER BY submitted_at DESC LIMIT $1 OFFSET $2`
	return r.queryProducts(ctx, q, limit, offset)
}

func (r *productRepository) ListByStatus(ctx context.Context, status domain.ProductStatus, limit, offset int) ([]domain.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT ` + productCols + ` FROM products WHERE status=$1 ORDER BY submitted_at DESC LIMIT $2 OFFSET $3`
	return r.queryProducts(ctx, q, status, limit, offset)
}

func (r *productRepository) ListByOwner(ctx context.Context, email string, limit, offset int) ([]domain.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT ` + productCols + ` FROM products WHERE owner_email=lower($1) ORDER BY submitted_at DESC LIMIT $2 OFFSET $3`
	return r.queryProducts(ctx, q, email, limit, offset)
}

func (r *productRepository) ListFeatured(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = domain.FeaturedLimit
	}
	const q = `SELECT ` + productCols + ` FROM products WHERE is_featured ORDER BY submitted_at DESC LIMIT $1`
	return r.queryProducts(ctx, q, limit)
}

func (r *productRepository) ListTrending(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = domain.TrendingLimit
	}
	const q = `SELECT ` + productCols + ` FROM products ORDER BY upvotes DESC, submitted_at DESC LIMIT $1`
	return r.queryProducts(ctx, q, limit)
}

func (r *productRepository) ListReported(ctx context.Context) ([]domain.Product, error) {
	const q = `SELECT ` + productCols + ` FROM products WHERE cardinality(reported_users) > 0 ORDER BY submitted_at DESC`
	return r.queryProducts(ctx, q)
}

func (r *productRepository) Update(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error) {
	const q = `UPDATE products SET
		name          = COALESCE($2, name),
		image         = COALESCE($3, image),
		description   = COALESCE($4, description),
		tags          = COALESCE($5, tags),
		external_link = COALESCE($6, external_link),
		updated_at    = now()
	WHERE id=$1
	RETURNING ` + productCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := scanProduct(r.pool.QueryRow(ctx, q,
		id, patch.Name, patch.Image, patch.Description, patch.Tags, patch.ExternalLink,
	))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *productRepository) SetStatus(ctx context.Context, id int64, status domain.ProductStatus) (*domain.Product, error) {
	const q = `UPDATE products SET status=$2, updated_at=now() WHERE id=$1 RETURNING ` + productCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := scanProduct(r.pool.QueryRow(ctx, q, id, status))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *productRepository) SetFeatured(ctx context.Context, id int64) (*domain.Product, error) {
	const q = `UPDATE products SET is_featured=true, updated_at=now() WHERE id=$1 RETURNING ` + productCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *productRepository) Upvote(ctx context.Context, id int64, voterEmail string) (int, error) {
	// One guarded statement: the row is only touched when the voter is not
	// yet a member, so concurrent duplicates lose deterministically and
	// upvotes stays equal to cardinality(voted_users).
	const q = `UPDATE products
		SET upvotes     = upvotes + 1,
		    voted_users = array_append(voted_users, lower($2)),
		    updated_at  = now()
		WHERE id=$1 AND lower($2) <> ALL(voted_users)
		RETURNING upvotes`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var upvotes int
	err := r.pool.QueryRow(ctx, q, id, voterEmail).Scan(&upvotes)
	if err == nil {
		return upvotes, nil
	}
	if err != pgx.ErrNoRows {
		return 0, err
	}

	// Zero rows: the product is missing or the voter already voted.
	exists, err := r.exists(ctx, id)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, domain.ErrNotFound
	}
	return 0, domain.ErrAlreadyVoted
}

func (r *productRepository) Report(ctx context.Context, id int64, reporterEmail string) error {
	const q = `UPDATE products
		SET reports        = reports || jsonb_build_object('reporter_email', lower($2::text), 'reported_at', now()),
		    reported_users = array_append(reported_users, lower($2)),
		    updated_at     = now()
		WHERE id=$1 AND lower($2) <> ALL(reported_users)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, reporterEmail)
	if err != nil {
		return err
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	exists, err := r.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrAlreadyReported
}

func (r *productRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM products WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *productRepository) exists(ctx context.Context, id int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM products WHERE id=$1)`
	var exists bool
	err := r.pool.QueryRow(ctx, q, id).Scan(&exists)
	return exists, err
}
