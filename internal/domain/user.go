package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleModerator, RoleAdmin:
		return Role(s), true
	default:
		return "", false
	}
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PhotoURL     string    `json:"photo_url"`
	Role         Role      `json:"role"`
	IsSubscribed bool      `json:"is_subscribed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UserCreate struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
}
