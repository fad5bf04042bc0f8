package model

import "time"

// User represents an application user record as stored in the
// `users` table.  PasswordHash never leaves the server: it is excluded
// from JSON so handlers can return the struct directly.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name (at least three characters).
//  Email        – unique email address, stored lower-cased.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    `json:"id"`         // users.id
    Username     string    `json:"username"`   // users.username
    Email        string    `json:"email"`      // users.email
    PasswordHash string    `json:"-"`          // users.password_hash
    CreatedAt    time.Time `json:"created_at"` // users.created_at
}

// AuthSession models an entry in the `auth_sessions` table.  Each
// login session belongs to a user and contains metadata for expiry
// and revocation.  The plain cookie token is not stored; only its
// SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the session.
//  TokenHash – SHA‑256 hex digest of the cookie value.
//  ExpiresAt – expiration timestamp of the session.
//  RevokedAt – when the session was ended by logout (null if still active).
//  CreatedAt – timestamp of creation.
type AuthSession struct {
    ID        uint64     // auth_sessions.id
    UserID    uint64     // auth_sessions.user_id
    TokenHash string     // auth_sessions.token_hash
    ExpiresAt time.Time  // auth_sessions.expires_at
    RevokedAt *time.Time // auth_sessions.revoked_at (nullable)
    CreatedAt time.Time  // auth_sessions.created_at
}
