package models

import "github.com/golang-jwt/jwt/v5"

// PrincipalKind distinguishes staff from students.
type PrincipalKind string

const (
	PrincipalUser    PrincipalKind = "user"
	PrincipalStudent PrincipalKind = "student"
)

// Claims is the access token payload. The subject carries the principal id.
type Claims struct {
	Kind  PrincipalKind `json:"kind"`
	Role  UserRole      `json:"role,omitempty"`
	Email string        `json:"email"`
	Name  string        `json:"nombre"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	ID    string
	Kind  PrincipalKind
	Role  UserRole
	Email string
	Name  string
}

// IsStaff reports whether the principal is a staff user.
func (p *Principal) IsStaff() bool {
	return p != nil && p.Kind == PrincipalUser
}

// HasRole reports whether a staff principal holds one of roles.
func (p *Principal) HasRole(roles ...UserRole) bool {
	if !p.IsStaff() {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// LoginRequest holds staff credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and the staff user.
type LoginResponse struct {
	Token   string `json:"token"`
	Usuario *User  `json:"usuario"`
}

// StudentLoginRequest holds student credentials.
type StudentLoginRequest struct {
	StudentCode string `json:"codigoEstudiante" validate:"required"`
	AccessCode  string `json:"codigoAcceso" validate:"required"`
}

// StudentLoginResponse returns the issued token and the student profile.
type StudentLoginResponse struct {
	Token      string      `json:"token"`
	Estudiante StudentView `json:"estudiante"`
}

// ChangePasswordRequest payload for updating a staff password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"passwordActual" validate:"required"`
	NewPassword     string `json:"passwordNuevo" validate:"required,min=6"`
}
