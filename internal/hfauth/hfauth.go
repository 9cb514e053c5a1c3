// Package hfauth reads the Hugging Face access token used to download gated
// voice-cloning assets, and refreshes the on-disk credential on demand.
package hfauth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/logger"
)

const (
	tokenKey        = "HF_TOKEN"
	previewEdgeLen  = 4
	maskedPreview   = "****"
	tokenFilePerms  = 0o600
	tokenDirPerms   = 0o750
	statusAuth      = "authenticated"
	statusAnonymous = "anonymous"
)

// ErrNoToken indicates a credential refresh was requested but no token was
// found at startup.
var ErrNoToken = errors.New("no access token available")

// Credential is the token read once from the dotenv-style file at process
// start. The zero value means no credential.
type Credential struct {
	token        string
	envFileFound bool
}

// Load reads the token from envFile. A missing file is not an error; the
// service still serves preset voices without a credential.
func Load(envFile string) (Credential, error) {
	data, readErr := os.ReadFile(envFile)
	if readErr != nil {
		if errors.Is(readErr, os.ErrNotExist) {
			return Credential{token: "", envFileFound: false}, nil
		}

		return Credential{}, fmt.Errorf("failed to read env file: %w", readErr)
	}

	credential := Credential{token: "", envFileFound: true}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, tokenKey+"=") {
			continue
		}

		rawValue := strings.TrimPrefix(line, tokenKey+"=")
		credential.token = strings.Trim(strings.TrimSpace(rawValue), `"'`)

		break
	}

	return credential, nil
}

// Present reports whether a non-empty token was found.
func (c Credential) Present() bool {
	return c.token != ""
}

// EnvFileFound reports whether the dotenv file existed at startup.
func (c Credential) EnvFileFound() bool {
	return c.envFileFound
}

// AuthStatus returns the diagnostic status string for the health endpoint.
func (c Credential) AuthStatus() string {
	if c.Present() {
		return statusAuth
	}

	return statusAnonymous
}

// Preview returns a masked form of the token, exposing only the first and
// last four characters.
func (c Credential) Preview() string {
	if len(c.token) <= 2*previewEdgeLen {
		return maskedPreview
	}

	return c.token[:previewEdgeLen] + "..." + c.token[len(c.token)-previewEdgeLen:]
}

// Writer implements core.Authenticator by persisting the credential to the
// token path the engine's downloader reads, mirroring what a CLI login does.
type Writer struct {
	credential Credential
	tokenPath  string
	log        *logger.Logger
}

// NewWriter builds a Writer for the given credential and token path.
func NewWriter(credential Credential, tokenPath string, log *logger.Logger) *Writer {
	return &Writer{
		credential: credential,
		tokenPath:  tokenPath,
		log:        log,
	}
}

// Login writes the token to the configured path. It fails when no token was
// found at startup.
func (w *Writer) Login(_ context.Context) error {
	if !w.credential.Present() {
		return ErrNoToken
	}

	dirErr := os.MkdirAll(filepath.Dir(w.tokenPath), tokenDirPerms)
	if dirErr != nil {
		return fmt.Errorf("failed to create token directory: %w", dirErr)
	}

	writeErr := os.WriteFile(w.tokenPath, []byte(w.credential.token), tokenFilePerms)
	if writeErr != nil {
		return fmt.Errorf("failed to write token file: %w", writeErr)
	}

	w.log.Info("Refreshed access token at %s (token %s)", w.tokenPath, w.credential.Preview())

	return nil
}
