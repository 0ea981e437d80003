package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// User represents a user account in the system.
// Users authenticate with username and password, receive a bearer token,
// and gain table access through group memberships. Admin users bypass all
// group-based checks.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Admin indicates whether the user bypasses all group-based access checks.
	Admin bool `gorm:"not null;default:false" json:"admin"`
	// Username is the unique, case-sensitive login name.
	Username string `gorm:"unique;size:100;not null" json:"username"`
	// Password is the Argon2id hashed password. It is never serialized to clients.
	Password string `gorm:"size:255" json:"-"`
	// Name is the user's display name.
	Name string `gorm:"size:100" json:"name"`
	// Title is the user's job title or free-form description.
	Title string `gorm:"size:100" json:"title"`
	// Deleted marks the user as soft deleted. Soft-deleted users are denied
	// on the next principal resolution even if they hold an unexpired token.
	Deleted bool `gorm:"not null;default:false" json:"deleted"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"created"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated"`
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating user passwords.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hash.
// It uses constant-time comparison to prevent timing attacks.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
