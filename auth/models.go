// Package auth handles authentication: user registration, login, token
// issuance and verification, logout, and token refresh. It also owns the
// User model and the credential store shared with the users package.
package auth

import "time"

// User represents a user account as stored in the database and used by the
// business logic. The bcrypt hash is never serialized in API responses.
type User struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Do not expose hashed password
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
