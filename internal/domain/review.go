package domain

import "time"

type Review struct {
	ID            int64     `json:"id"`
	ProductID     int64     `json:"product_id"`
	ReviewerName  string    `json:"reviewer_name"`
	ReviewerImage string    `json:"reviewer_image"`
	Description   string    `json:"description"`
	Rating        int       `json:"rating"`
	CreatedAt     time.Time `json:"created_at"`
}

type ReviewCreate struct {
	ProductID     int64  `json:"product_id"`
	ReviewerName  string `json:"reviewer_name"`
	ReviewerImage string `json:"reviewer_image"`
	Description   string `json:"description"`
	Rating        int    `json:"rating"`
}

const (
	MinRating = 1
	MaxRating = 5
)
