package model

import (
	"time"
)

const RoleAdmin = "admin"

// AdminPrincipal is the identity carried by a valid admin session.
type AdminPrincipal struct {
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	TokenID   string    `json:"-"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
