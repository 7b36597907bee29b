package model

import "time"

// Roles understood by the API.  USER books courts, OWNER manages venues
// and courts, ADMIN approves venues and moderates users.
const (
    RoleUser  = "USER"
    RoleOwner = "OWNER"
    RoleAdmin = "ADMIN"
)

// User is a row of the users table.  Banning an account clears IsActive;
// the row itself is never deleted.
type User struct {
    ID           uint64    `json:"id"`         // users.id
    Email        string    `json:"email"`      // users.email
    FullName     string    `json:"full_name"`  // users.full_name
    PasswordHash string    `json:"-"`          // users.password_hash
    Role         string    `json:"role"`       // users.role
    IsActive     bool      `json:"is_active"`  // users.is_active
    CreatedAt    time.Time `json:"created_at"` // users.created_at
    UpdatedAt    time.Time `json:"updated_at"` // users.updated_at
}

// RefreshToken is a row of refresh_tokens.  Only the SHA-256 hex digest of
// the opaque token is persisted.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
