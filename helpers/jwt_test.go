package helpers

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateToken(t *testing.T) {
	tokens := NewTokens("secret", "https://forum.test", time.Hour)

	jwt, err := tokens.CreateToken("ada@example.com")
	require.NoError(t, err)

	jwtCheck := regexp.MustCompile(`^[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+$`)
	if !jwtCheck.MatchString(jwt) {
		t.Fatalf(`CreateToken("ada@example.com") = %q, want match for %#q`, jwt, jwtCheck)
	}
}

func TestCheckToken(t *testing.T) {
	tokens := NewTokens("secret", "https://forum.test", time.Hour)

	jwt, err := tokens.CreateToken("ada@example.com")
	require.NoError(t, err)

	t.Run("raw token", func(t *testing.T) {
		email, err := tokens.CheckToken(jwt)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", email)
	})

	t.Run("bearer prefix", func(t *testing.T) {
		email, err := tokens.CheckToken("Bearer " + jwt)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", email)
	})

	t.Run("other secret", func(t *testing.T) {
		_, err := NewTokens("other", "https://forum.test", time.Hour).CheckToken(jwt)
		assert.Error(t, err)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := NewTokens("", "https://forum.test", time.Hour).CheckToken(jwt)
		assert.Error(t, err)
	})

	t.Run("other issuer", func(t *testing.T) {
		_, err := NewTokens("secret", "https://evil.test", time.Hour).CheckToken(jwt)
		assert.ErrorIs(t, err, ErrInvalidIssuer)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.CheckToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestCheckToken_Expired(t *testing.T) {
	tokens := NewTokens("secret", "https://forum.test", -time.Minute)

	jwt, err := tokens.CreateToken("ada@example.com")
	require.NoError(t, err)

	_, err = tokens.CheckToken(jwt)
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestCreateToken_EmptySubject(t *testing.T) {
	_, err := NewTokens("secret", "x", time.Hour).CreateToken("")
	assert.ErrorIs(t, err, ErrEmptySubject)
}
