package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"
)

func TestAccessTokenClaims(t *testing.T) {
    iss := NewTokenIssuer("s3cret", 15, 7)
    fixed := time.Now().UTC().Truncate(time.Second)
    iss.Now = func() time.Time { return fixed }

    at, err := iss.Access(9, "USER")
    require.NoError(t, err)
    assert.Equal(t, fixed.Add(15*time.Minute), at.Exp)

    claims := jwt.MapClaims{}
    _, err = jwt.ParseWithClaims(at.Token, claims, func(*jwt.Token) (interface{}, error) { return []byte("s3cret"), nil })
    require.NoError(t, err)
    assert.Equal(t, float64(9), claims["sub"])
    assert.Equal(t, "USER", claims["role"])
}

func TestRefreshToken(t *testing.T) {
    iss := NewTokenIssuer("s3cret", 15, 7)
    a, err := iss.Refresh()
    require.NoError(t, err)
    b, err := iss.Refresh()
    require.NoError(t, err)
    assert.Len(t, a.Raw, 96)
    assert.NotEqual(t, a.Raw, b.Raw)
    assert.Len(t, HashRefreshRaw(a.Raw), 64)
    assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
}

func TestPasswords(t *testing.T) {
    assert.ErrorIs(t, CheckPassword("short"), ErrWeakPassword)
    assert.NoError(t, CheckPassword("long enough"))

    h, err := HashPassword("long enough", bcrypt.MinCost)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(h, "long enough"))
    assert.False(t, VerifyPassword(h, "something else"))
}
