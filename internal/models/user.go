package models

import "time"

// Roles assigned at registration. Role changes are an admin action outside
// this service.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User is a platform account. PasswordHash is never serialized.
type User struct {
	ID           int       `db:"id" json:"id"`
	UserName     string    `db:"user_name" json:"user_name"`
	UserEmail    string    `db:"user_email" json:"user_email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	LastActive   time.Time `db:"last_active" json:"last_active"`
}
