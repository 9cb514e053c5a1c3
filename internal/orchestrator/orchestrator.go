// Package orchestrator coordinates one generation request end to end:
// validate, ensure the model is ready, resolve the voice, synthesize, encode.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/book-expert/pocket-tts-web/internal/core"
	"github.com/book-expert/pocket-tts-web/internal/wavenc"
)

// Pipeline stage names used in failure logs.
const (
	stageModelInit  = "model-init"
	stageResolution = "voice-resolution"
	stageGeneration = "generation"
	stageEncoding   = "encoding"
)

// ModelGateway is the subset of the gateway the orchestrator drives.
type ModelGateway interface {
	EnsureReady(ctx context.Context) error
	Generate(ctx context.Context, state core.VoiceState, text string) (core.GeneratedAudio, error)
}

// VoiceResolver maps a voice request onto an engine voice state.
type VoiceResolver interface {
	Resolve(ctx context.Context, req core.VoiceRequest) (core.VoiceState, error)
}

// Orchestrator sequences the generation pipeline and maps failures onto the
// user-facing error categories.
type Orchestrator struct {
	gateway  ModelGateway
	resolver VoiceResolver
	log      *logger.Logger
}

// New wires the orchestrator's collaborators.
func New(gateway ModelGateway, resolver VoiceResolver, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		gateway:  gateway,
		resolver: resolver,
		log:      log,
	}
}

// Generate turns text and a voice request into WAV bytes. Empty or
// whitespace-only text fails fast before any model or voice work.
func (o *Orchestrator) Generate(
	ctx context.Context,
	text string,
	req core.VoiceRequest,
) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, core.ErrInvalidInput
	}

	requestID := uuid.NewString()
	o.log.Info(
		"Generation %s started (voice=%s, text=%d chars)",
		requestID,
		req.Summary(),
		len(text),
	)

	readyErr := o.gateway.EnsureReady(ctx)
	if readyErr != nil {
		return nil, o.fail(requestID, stageModelInit, req, readyErr)
	}

	state, resolveErr := o.resolver.Resolve(ctx, req)
	if resolveErr != nil {
		return nil, o.fail(requestID, stageResolution, req, resolveErr)
	}

	generated, genErr := o.gateway.Generate(ctx, state, text)
	if genErr != nil {
		return nil, o.fail(requestID, stageGeneration, req, genErr)
	}

	encoded, encodeErr := wavenc.Encode(generated.Samples, generated.SampleRate)
	if encodeErr != nil {
		return nil, o.fail(requestID, stageEncoding, req, encodeErr)
	}

	o.log.Info(
		"Generation %s finished (%d samples at %d Hz, %d bytes)",
		requestID,
		len(generated.Samples),
		generated.SampleRate,
		len(encoded),
	)

	return encoded, nil
}

// fail logs the full failure detail for operators and returns the
// categorized error for the HTTP layer. Already-categorized failures pass
// through; everything else becomes ErrGenerationFailed.
func (o *Orchestrator) fail(
	requestID, stage string,
	req core.VoiceRequest,
	failure error,
) error {
	o.log.Error(
		"Generation %s failed at %s (voice=%s): %v",
		requestID,
		stage,
		req.Summary(),
		failure,
	)

	switch {
	case errors.Is(failure, core.ErrInvalidVoiceRequest),
		errors.Is(failure, core.ErrVoiceNotFound),
		errors.Is(failure, core.ErrVoiceLoadFailed),
		errors.Is(failure, core.ErrModelInitFailed):
		return failure
	default:
		return fmt.Errorf("%w: %v", core.ErrGenerationFailed, failure)
	}
}
