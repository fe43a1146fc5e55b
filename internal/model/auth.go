package model

import "github.com/google/uuid"

// Role names the repository a token identifier is checked against. The
// token itself carries no role claim; one token format is role-checked
// against different endpoints.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type TokenResponse struct {
	Token string `json:"token"`
	Role  Role   `json:"role"`
}

// UserRef is the tagged resolution of a token identifier: exactly one of
// the references is set, indicated by Role.
type UserRef struct {
	Role       Role
	ID         uuid.UUID
	Identifier string
}
