package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA‑256 hashing for session tokens
    "encoding/hex"  // hex encoding and decoding functions
    "errors"
    "fmt"
    "strconv"
    "time" // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned by ParseAccessToken for any token that is
// malformed, expired, signed with another key or missing its subject.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short‑lived and sent in the Authorization header as a
// Bearer credential by API clients that do not keep cookies.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// SessionToken is the opaque value stored in the login cookie.  Only the
// SHA‑256 hash of Raw is persisted.
type SessionToken struct {
    Raw string    // raw token string handed to the browser
    Exp time.Time // UTC expiration time
}

// accessClaims carries the user id in the registered "sub" claim and the
// username for display purposes.
type accessClaims struct {
    Username string `json:"username"`
    jwt.RegisteredClaims
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The subject is
// the decimal user id; ttlMin controls the lifetime in minutes.
func NewAccessToken(secret string, userID uint64, username string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := accessClaims{
        Username: username,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   strconv.FormatUint(userID, 10),
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of raw and returns the
// user id from its subject.
func ParseAccessToken(secret, raw string) (uint64, error) {
    var claims accessClaims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    if err != nil || !tok.Valid {
        return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
    }
    id, err := strconv.ParseUint(claims.Subject, 10, 64)
    if err != nil || id == 0 {
        return 0, ErrInvalidToken
    }
    return id, nil
}

// NewSessionToken returns a cryptographically secure random token and the
// time it stops being accepted.
func NewSessionToken(ttl time.Duration) (SessionToken, error) {
    raw, err := randomHex(32) // 32 bytes -> 64 hex chars
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Raw: raw, Exp: time.Now().UTC().Add(ttl)}, nil
}

// HashToken returns the SHA‑256 hash of a raw session token as a hex
// string.  Storing only the hash means a leaked table cannot be replayed
// as cookies.
func HashToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
