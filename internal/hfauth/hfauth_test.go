// Package hfauth_test tests credential loading and refresh.
package hfauth_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/pocket-tts-web/internal/hfauth"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	return envFile
}

func TestLoad_ReadsToken(t *testing.T) {
	t.Parallel()

	envFile := writeEnvFile(t, "SOME_OTHER=1\nHF_TOKEN=hf_abcdefgh1234\n")

	credential, err := hfauth.Load(envFile)
	require.NoError(t, err)

	assert.True(t, credential.Present())
	assert.True(t, credential.EnvFileFound())
	assert.Equal(t, "authenticated", credential.AuthStatus())
	assert.Equal(t, "hf_a...1234", credential.Preview())
}

func TestLoad_StripsQuotes(t *testing.T) {
	t.Parallel()

	envFile := writeEnvFile(t, `HF_TOKEN="hf_abcdefgh1234"`)

	credential, err := hfauth.Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "hf_a...1234", credential.Preview())
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	t.Parallel()

	credential, err := hfauth.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.False(t, credential.Present())
	assert.False(t, credential.EnvFileFound())
	assert.Equal(t, "anonymous", credential.AuthStatus())
	assert.Equal(t, "****", credential.Preview())
}

func TestLoad_FileWithoutTokenIsAnonymous(t *testing.T) {
	t.Parallel()

	envFile := writeEnvFile(t, "UNRELATED=value\n")

	credential, err := hfauth.Load(envFile)
	require.NoError(t, err)

	assert.False(t, credential.Present())
	assert.True(t, credential.EnvFileFound())
}

func TestPreview_NeverExposesShortTokens(t *testing.T) {
	t.Parallel()

	envFile := writeEnvFile(t, "HF_TOKEN=tiny\n")

	credential, err := hfauth.Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "****", credential.Preview())
}

func TestWriter_LoginWritesTokenFile(t *testing.T) {
	t.Parallel()

	testLogger, err := logger.New(t.TempDir(), "hfauth-test.log")
	require.NoError(t, err)

	envFile := writeEnvFile(t, "HF_TOKEN=hf_abcdefgh1234\n")

	credential, err := hfauth.Load(envFile)
	require.NoError(t, err)

	tokenPath := filepath.Join(t.TempDir(), "huggingface", "token")
	writer := hfauth.NewWriter(credential, tokenPath, testLogger)

	require.NoError(t, writer.Login(context.Background()))

	content, err := os.ReadFile(tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "hf_abcdefgh1234", string(content))
}

func TestWriter_LoginFailsWithoutToken(t *testing.T) {
	t.Parallel()

	testLogger, err := logger.New(t.TempDir(), "hfauth-test.log")
	require.NoError(t, err)

	credential, err := hfauth.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	writer := hfauth.NewWriter(credential, filepath.Join(t.TempDir(), "token"), testLogger)

	require.ErrorIs(t, writer.Login(context.Background()), hfauth.ErrNoToken)
}
