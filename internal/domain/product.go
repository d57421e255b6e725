package domain

import (
	"strings"
	"time"
)

type ProductStatus string

const (
	ProductPending  ProductStatus = "pending"
	ProductAccepted ProductStatus = "accepted"
	ProductRejected ProductStatus = "rejected"
)

// ParseProductStatus accepts any casing; clients historically send "Accepted".
func ParseProductStatus(s string) (ProductStatus, bool) {
	switch ProductStatus(strings.ToLower(s)) {
	case ProductPending, ProductAccepted, ProductRejected:
		return ProductStatus(strings.ToLower(s)), true
	default:
		return "", false
	}
}

// Report is an abuse report attached to a product. Immutable once appended.
type Report struct {
	ReporterEmail string    `json:"reporter_email"`
	ReportedAt    time.Time `json:"reported_at"`
}

type Product struct {
	ID            int64         `json:"id"`
	OwnerEmail    string        `json:"owner_email"`
	Name          string        `json:"name"`
	Image         string        `json:"image"`
	Description   string        `json:"description"`
	Tags          []string      `json:"tags"`
	ExternalLink  string        `json:"external_link"`
	Status        ProductStatus `json:"status"`
	IsFeatured    bool          `json:"is_featured"`
	Upvotes       int           `json:"upvotes"`
	VotedUsers    []string      `json:"voted_users"`
	Reports       []Report      `json:"reports"`
	ReportedUsers []string      `json:"reported_users"`
	SubmittedAt   time.Time     `json:"submitted_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type ProductCreate struct {
	Name         string   `json:"name"`
	Image        string   `json:"image"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	ExternalLink string   `json:"external_link"`
}

type ProductPatch struct {
	Name         *string   `json:"name,omitempty"`
	Image        *string   `json:"image,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
	ExternalLink *string   `json:"external_link,omitempty"`
}

// List limits
const (
	FeaturedLimit      = 4
	TrendingLimit      = 6
	RecentReviewsLimit = 3
)

func (p *Product) HasVoted(email string) bool {
	for _, e := range p.VotedUsers {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func (p *Product) HasReported(email string) bool {
	for _, e := range p.ReportedUsers {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}
