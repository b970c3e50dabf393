package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is a listing provider (school, NGO, company). Listings only
// surface in the general feed once the organization is verified.
type Organization struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Website            string    `json:"website,omitempty"`
	VerificationStatus string    `json:"verification_status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// User roles.
const (
	RoleStudent      = "student"
	RoleOrganization = "organization"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
