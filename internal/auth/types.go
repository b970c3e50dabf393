package auth

import "github.com/learnlocal/backend/internal/models"

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// Role is "student" (default) or "organization".
	Role string `json:"role"`
	// Organization profile fields, required when Role is "organization".
	OrganizationName string `json:"organization_name"`
	Website          string `json:"website"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}
