package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("01HZX", "sections/report.csv")
	require.NoError(t, err)

	claims, err := signer.Parse(token, false)
	require.NoError(t, err)
	assert.Equal(t, "01HZX", claims.ExportID)
	assert.Equal(t, "sections/report.csv", claims.Path)
	assert.WithinDuration(t, expiresAt, claims.ExpiresAt, time.Second)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("01HZX", "sections/report.csv")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = "01OTHER"
	_, err = signer.Parse(strings.Join(parts, "."), false)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewSignedURLSigner("other", time.Hour).Parse(token, false)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Parse("garbage", false)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignedURLSignerExpiry(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	issued := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }
	token, _, err := signer.Generate("01HZX", "report.pdf")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = signer.Parse(token, false)
	assert.ErrorIs(t, err, ErrTokenExpired)

	claims, err := signer.Parse(token, true)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", claims.Path)
}

func TestLocalStorageLifecycle(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	rel, err := store.Save("cards/stu-1.pdf", []byte("%PDF"))
	require.NoError(t, err)
	file, err := store.Open(rel)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	_, err = store.Save("../outside.csv", []byte("x"))
	require.Error(t, err)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, rel), old, old))
	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("cards", "stu-1.pdf")}, deleted)
	require.NoError(t, store.Delete(rel))
}
