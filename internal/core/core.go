// Package core defines the domain types, collaborator interfaces, and the
// error taxonomy shared by the generation pipeline.
package core

import (
	"context"
	"errors"
	"io"
)

// Sentinel errors categorize every failure the pipeline can surface. The HTTP
// layer maps these to status codes; anything not wrapped in one of them is
// treated as a server-side failure.
var (
	// ErrInvalidInput indicates empty or whitespace-only text.
	ErrInvalidInput = errors.New("text cannot be empty")
	// ErrInvalidVoiceRequest indicates an empty or malformed voice target,
	// detected before any engine or filesystem use.
	ErrInvalidVoiceRequest = errors.New("invalid voice request")
	// ErrVoiceNotFound indicates a preset identifier outside the catalog.
	ErrVoiceNotFound = errors.New("voice not found")
	// ErrVoiceLoadFailed indicates the engine rejected a voice after the
	// resolution step, including the single credential-refresh retry.
	ErrVoiceLoadFailed = errors.New("voice load failed")
	// ErrModelInitFailed indicates the one-time engine initialization
	// failed. Subsequent requests may retry it.
	ErrModelInitFailed = errors.New("model initialization failed")
	// ErrGenerationFailed wraps any other failure during synthesis or
	// encoding.
	ErrGenerationFailed = errors.New("audio generation failed")
	// ErrAuthorizationRequired is reported by an Engine when a gated voice
	// asset cannot be fetched without (re)authentication.
	ErrAuthorizationRequired = errors.New("authorization required for gated voice assets")
	// ErrModelNotReady indicates Generate was called before EnsureReady
	// succeeded, which is a caller bug.
	ErrModelNotReady = errors.New("model is not ready")
)

// Voice is one entry of the fixed preset catalog.
type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SampleRef carries an uploaded voice sample that has not been staged yet.
type SampleRef struct {
	Filename string
	Data     io.Reader
}

// VoiceRequest identifies the voice for one generation request. An uploaded
// sample takes priority over the preset identifier.
type VoiceRequest struct {
	PresetID string
	Sample   *SampleRef
}

// Summary returns a short description of the request for log lines.
func (r VoiceRequest) Summary() string {
	if r.Sample != nil {
		return "upload:" + r.Sample.Filename
	}

	return "preset:" + r.PresetID
}

// VoiceState is an opaque handle for a resolved voice. It is produced by an
// Engine and must only be passed back to the same Engine's Generate call.
type VoiceState any

// GeneratedAudio is a raw mono sample buffer plus the rate it was sampled at.
// It is consumed exactly once by the WAV encoder.
type GeneratedAudio struct {
	Samples    []float64
	SampleRate int
}

// Engine is the inference collaborator. Implementations own the model
// weights, resolve voice prompts into states, and synthesize audio
// synchronously.
type Engine interface {
	// Load performs the expensive one-time model initialization.
	Load(ctx context.Context) error

	// VoiceState resolves a voice prompt (preset name or staged sample
	// path) into an opaque state. A gated-asset failure must be reported
	// as an error wrapping ErrAuthorizationRequired.
	VoiceState(ctx context.Context, prompt string) (VoiceState, error)

	// Generate synthesizes audio for text using a previously resolved
	// voice state.
	Generate(ctx context.Context, state VoiceState, text string) (GeneratedAudio, error)
}

// Staging persists uploaded sample bytes to a stable path the engine can
// read.
type Staging interface {
	Stage(filename string, data io.Reader) (string, error)
}

// Authenticator refreshes the credential used to download gated voice
// assets.
type Authenticator interface {
	Login(ctx context.Context) error
}
