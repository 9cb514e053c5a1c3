// Package voice maps voice requests onto engine voice states, covering both
// the preset catalog and uploaded clone samples.
package voice

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/logger"

	"github.com/book-expert/pocket-tts-web/internal/core"
)

// DefaultVoiceID is used when a request does not name a voice.
const DefaultVoiceID = "alba"

// catalog is the fixed preset list, in display order. There is no backing
// store; the engine ships exactly these voices.
var catalog = []core.Voice{
	{ID: "alba", Name: "Alba (Casual)"},
	{ID: "marius", Name: "Marius (Selfie)"},
	{ID: "javert", Name: "Javert (Butter)"},
	{ID: "jean", Name: "Jean (Freeform)"},
	{ID: "fantine", Name: "Fantine (VCTK)"},
	{ID: "cosette", Name: "Cosette (Expresso)"},
	{ID: "eponine", Name: "Eponine (VCTK)"},
	{ID: "azelma", Name: "Azelma (VCTK)"},
}

// Catalog returns a copy of the preset catalog in display order.
func Catalog() []core.Voice {
	voices := make([]core.Voice, len(catalog))
	copy(voices, catalog)

	return voices
}

// Resolver turns a voice request into an engine voice state. Uploaded samples
// are staged to disk first; gated-asset failures trigger exactly one
// credential refresh followed by exactly one retry.
type Resolver struct {
	engine  core.Engine
	staging core.Staging
	auth    core.Authenticator
	log     *logger.Logger
	presets map[string]struct{}
}

// NewResolver wires the resolver's collaborators.
func NewResolver(
	engine core.Engine,
	staging core.Staging,
	auth core.Authenticator,
	log *logger.Logger,
) *Resolver {
	presets := make(map[string]struct{}, len(catalog))
	for _, preset := range catalog {
		presets[preset.ID] = struct{}{}
	}

	return &Resolver{
		engine:  engine,
		staging: staging,
		auth:    auth,
		log:     log,
		presets: presets,
	}
}

// Resolve validates the request, stages an upload when present, and asks the
// engine for a voice state.
func (r *Resolver) Resolve(
	ctx context.Context,
	req core.VoiceRequest,
) (core.VoiceState, error) {
	prompt, promptErr := r.promptFor(req)
	if promptErr != nil {
		return nil, promptErr
	}

	state, stateErr := r.engine.VoiceState(ctx, prompt)
	if stateErr == nil {
		return state, nil
	}

	if !errors.Is(stateErr, core.ErrAuthorizationRequired) {
		return nil, fmt.Errorf("%w: %v", core.ErrVoiceLoadFailed, stateErr)
	}

	return r.retryWithFreshCredential(ctx, prompt, req, stateErr)
}

// retryWithFreshCredential performs the single-shot recovery for gated voice
// assets: one re-authentication, one retry. Whatever goes wrong, the original
// failure is the one surfaced.
func (r *Resolver) retryWithFreshCredential(
	ctx context.Context,
	prompt string,
	req core.VoiceRequest,
	originalErr error,
) (core.VoiceState, error) {
	r.log.Warn(
		"Voice state for %s requires authorization, refreshing credential and retrying once: %v",
		req.Summary(),
		originalErr,
	)

	loginErr := r.auth.Login(ctx)
	if loginErr != nil {
		r.log.Error("Credential refresh failed: %v", loginErr)

		return nil, fmt.Errorf("%w: %v", core.ErrVoiceLoadFailed, originalErr)
	}

	state, retryErr := r.engine.VoiceState(ctx, prompt)
	if retryErr != nil {
		r.log.Error("Voice state retry for %s failed: %v", req.Summary(), retryErr)

		return nil, fmt.Errorf("%w: %v", core.ErrVoiceLoadFailed, originalErr)
	}

	r.log.Info("Voice state for %s resolved after credential refresh", req.Summary())

	return state, nil
}

// promptFor turns the request into the prompt string the engine consumes: a
// staged sample path for uploads, or a validated preset identifier.
func (r *Resolver) promptFor(req core.VoiceRequest) (string, error) {
	if req.Sample != nil {
		if req.Sample.Filename == "" {
			return "", fmt.Errorf(
				"%w: upload is missing a filename",
				core.ErrInvalidVoiceRequest,
			)
		}

		stagedPath, stageErr := r.staging.Stage(req.Sample.Filename, req.Sample.Data)
		if stageErr != nil {
			return "", fmt.Errorf("%w: %v", core.ErrVoiceLoadFailed, stageErr)
		}

		return stagedPath, nil
	}

	if req.PresetID == "" {
		return "", fmt.Errorf(
			"%w: no preset or upload provided",
			core.ErrInvalidVoiceRequest,
		)
	}

	if _, ok := r.presets[req.PresetID]; !ok {
		return "", fmt.Errorf("%w: %q", core.ErrVoiceNotFound, req.PresetID)
	}

	return req.PresetID, nil
}
