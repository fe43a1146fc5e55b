package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService("")
	assert.Error(t, err)
}

func TestGenerateVerifyRoundTrip(t *testing.T) {
	svc, err := NewService("test-secret")
	require.NoError(t, err)

	tok, err := svc.Generate("doctor@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	subject, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "doctor@example.com", subject)
}

func TestVerifyExpiredToken(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewService("test-secret", WithClock(func() time.Time { return current }))
	require.NoError(t, err)

	tok, err := svc.Generate("patient@example.com")
	require.NoError(t, err)

	// Still valid just before the seven day mark.
	current = current.Add(7*24*time.Hour - time.Minute)
	_, err = svc.Verify(tok)
	assert.NoError(t, err)

	current = current.Add(2 * time.Minute)
	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyCustomExpiry(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewService("test-secret",
		WithExpiry(time.Hour),
		WithClock(func() time.Time { return current }),
	)
	require.NoError(t, err)

	tok, err := svc.Generate("admin")
	require.NoError(t, err)

	current = current.Add(61 * time.Minute)
	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTamperedToken(t *testing.T) {
	svc, err := NewService("test-secret")
	require.NoError(t, err)

	tok, err := svc.Generate("doctor@example.com")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer, err := NewService("secret-a")
	require.NoError(t, err)
	verifier, err := NewService("secret-b")
	require.NoError(t, err)

	tok, err := issuer.Generate("doctor@example.com")
	require.NoError(t, err)

	_, err = verifier.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMalformedToken(t *testing.T) {
	svc, err := NewService("test-secret")
	require.NoError(t, err)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}
