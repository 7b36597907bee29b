package utils // package utils provides helpers for token issuing and password hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA-256 hashing for refresh tokens
    "encoding/hex"  // hex encoding of random bytes and digests
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed JWT together with its expiry.  Clients send it
// as "Authorization: Bearer <token>" on protected endpoints.
type AccessToken struct {
    Token string    `json:"access_token"`
    Exp   time.Time `json:"access_expires_at"`
}

// RefreshToken is the long-lived opaque token exchanged for a new pair.
// Only HashRefreshRaw(Raw) is ever stored.
type RefreshToken struct {
    Raw string    `json:"refresh_token"`
    Exp time.Time `json:"refresh_expires_at"`
}

// TokenIssuer mints access and refresh tokens with fixed lifetimes.
type TokenIssuer struct {
    Secret     []byte
    AccessTTL  time.Duration
    RefreshTTL time.Duration
    Now        func() time.Time
}

// NewTokenIssuer builds an issuer from the configured minute/day lifetimes.
func NewTokenIssuer(secret string, accessTTLMin, refreshTTLDays int) *TokenIssuer {
    return &TokenIssuer{
        Secret:     []byte(secret),
        AccessTTL:  time.Duration(accessTTLMin) * time.Minute,
        RefreshTTL: time.Duration(refreshTTLDays) * 24 * time.Hour,
        Now:        func() time.Time { return time.Now().UTC() },
    }
}

// Access signs an HS256 JWT whose sub is the user ID and whose role claim
// drives RequireRole.
func (i *TokenIssuer) Access(userID uint64, role string) (AccessToken, error) {
    now := i.Now()
    exp := now.Add(i.AccessTTL)
    claims := jwt.MapClaims{
        "sub":  userID,
        "role": role,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// Refresh returns a random 96 hex character token.
func (i *TokenIssuer) Refresh() (RefreshToken, error) {
    raw, err := randomHex(48)
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{Raw: raw, Exp: i.Now().Add(i.RefreshTTL)}, nil
}

// HashRefreshRaw returns the SHA-256 hex digest of a raw refresh token.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
