package utils

import (
    "errors"
    "testing"
    "time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    tok, err := NewAccessToken("secret", 42, "alice", 5)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    if !tok.Exp.After(time.Now()) {
        t.Fatalf("expiry %v is not in the future", tok.Exp)
    }
    uid, err := ParseAccessToken("secret", tok.Token)
    if err != nil || uid != 42 {
        t.Fatalf("ParseAccessToken = %d, %v", uid, err)
    }
    if _, err := ParseAccessToken("other", tok.Token); !errors.Is(err, ErrInvalidToken) {
        t.Fatalf("wrong secret err = %v", err)
    }
    expired, _ := NewAccessToken("secret", 42, "alice", -1)
    if _, err := ParseAccessToken("secret", expired.Token); !errors.Is(err, ErrInvalidToken) {
        t.Fatalf("expired err = %v", err)
    }
}

func TestSessionTokens(t *testing.T) {
    a, err := NewSessionToken(time.Hour)
    if err != nil {
        t.Fatal(err)
    }
    b, _ := NewSessionToken(time.Hour)
    if len(a.Raw) != 64 || a.Raw == b.Raw {
        t.Fatalf("tokens %q %q", a.Raw, b.Raw)
    }
    if HashToken(a.Raw) != HashToken(a.Raw) || HashToken(a.Raw) == HashToken(b.Raw) || len(HashToken(a.Raw)) != 64 {
        t.Fatal("HashToken is not a stable sha256 hex digest")
    }
}

func TestPasswords(t *testing.T) {
    h, err := HashPassword("secret1", 4)
    if err != nil {
        t.Fatal(err)
    }
    if !VerifyPassword(h, "secret1") || VerifyPassword(h, "secret2") {
        t.Fatal("VerifyPassword mismatch")
    }
}
