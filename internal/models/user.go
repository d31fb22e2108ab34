package models

import "time"

// UserRole represents the staff roles.
type UserRole string

const (
	RoleSuperAdmin UserRole = "superadmin"
	RoleAdmin      UserRole = "admin"
	RoleEditor     UserRole = "editor"
)

// Valid reports whether the role is known.
func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleEditor:
		return true
	}
	return false
}

// User is a staff account stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	FirstName    string     `db:"first_name" json:"nombre"`
	LastName     string     `db:"last_name" json:"apellido"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"rol"`
	Active       bool       `db:"active" json:"activo"`
	LastLogin    *time.Time `db:"last_login" json:"ultimoAcceso,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// FullName joins given and family names.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role   *UserRole
	Active *bool
	PageQuery
}
