package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	testCases := map[string]string{
		"Dough Mixers":                  "dough-mixers",
		"  Premium Brass Biryani Handi": "premium-brass-biryani-handi",
		"Pots & Pans / 30cm":            "pots-pans-30cm",
		"Café Équipement":               "caf-quipement",
		"---":                           "",
	}
	for in, want := range testCases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestValidSlug(t *testing.T) {
	assert.True(t, ValidSlug("rb-30"))
	assert.False(t, ValidSlug("RB-30"))
	assert.False(t, ValidSlug("with space"))
	assert.False(t, ValidSlug(""))
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Limit: 20, Skip: 0}, NewPagination(0, -5))
	assert.Equal(t, Pagination{Limit: 100, Skip: 40}, NewPagination(500, 40))

	start, end := NewPagination(10, 25).Window(30)
	assert.Equal(t, 25, start)
	assert.Equal(t, 30, end)

	start, end = NewPagination(10, 50).Window(30)
	assert.Equal(t, 30, start)
	assert.Equal(t, 30, end)
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", "admin", "admin", time.Hour)
	require.NoError(t, err)

	subject, role, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)
	assert.Equal(t, "admin", role)

	_, _, err = ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestPasswordHashRejects(t *testing.T) {
	_, err := HashPassword("abc")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
	assert.False(t, CheckPassword("", ""))
}
