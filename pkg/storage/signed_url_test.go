package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	link, err := signer.Sign("batch-1", "batches/batch-1/report_cards.zip")
	require.NoError(t, err)
	require.NotEmpty(t, link.Token)

	parsed, err := signer.Verify(link.Token, false)
	require.NoError(t, err)
	require.Equal(t, "batch-1", parsed.OwnerID)
	require.Equal(t, "batches/batch-1/report_cards.zip", parsed.Path)
	require.True(t, link.ExpiresAt.Equal(parsed.ExpiresAt))
}

func TestSignerExpired(t *testing.T) {
	signer := NewSigner("secret", time.Minute)
	issued := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }
	link, err := signer.Sign("batch-1", "a.zip")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = signer.Verify(link.Token, false)
	require.True(t, errors.Is(err, ErrTokenExpired))

	parsed, err := signer.Verify(link.Token, true)
	require.NoError(t, err)
	require.Equal(t, "a.zip", parsed.Path)
}

func TestSignerRejectsTampering(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	link, err := signer.Sign("batch-1", "a.zip")
	require.NoError(t, err)

	_, err = NewSigner("other", time.Hour).Verify(link.Token, false)
	require.True(t, errors.Is(err, ErrTokenInvalid))

	_, err = signer.Verify(link.Token+"x", false)
	require.True(t, errors.Is(err, ErrTokenInvalid))

	_, err = signer.Verify("not-a-token", false)
	require.True(t, errors.Is(err, ErrTokenInvalid))

	_, err = signer.Sign("bad.id", "a.zip")
	require.Error(t, err)
}
