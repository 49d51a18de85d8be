package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	a := New("hunter2", "test-secret")

	token, err := a.Issue("hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "journal", claims.Subject)
}

func TestIssue_WrongPassword(t *testing.T) {
	a := New("hunter2", "test-secret")

	_, err := a.Issue("letmein")
	require.ErrorIs(t, err, ErrInvalidPassword)
}

func TestIssue_UnconfiguredPasswordRejectsEverything(t *testing.T) {
	a := New("", "test-secret")

	// An empty configured password must not make the empty guess valid.
	_, err := a.Issue("")
	require.ErrorIs(t, err, ErrInvalidPassword)
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := New("hunter2", "secret-a")
	verifier := New("hunter2", "secret-b")

	token, err := issuer.Issue("hunter2")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_ExpiredToken(t *testing.T) {
	a := New("hunter2", "test-secret")

	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a.clock = func() time.Time { return issued }

	token, err := a.Issue("hunter2")
	require.NoError(t, err)

	// Valid just inside the window, rejected just past it.
	a.clock = func() time.Time { return issued.Add(tokenTTL - time.Minute) }
	_, err = a.Verify(token)
	require.NoError(t, err)

	a.clock = func() time.Time { return issued.Add(tokenTTL + time.Minute) }
	_, err = a.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	a := New("hunter2", "test-secret")

	for _, tok := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
		_, err := a.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
