// Package gateway owns the process-wide, lazily-initialized handle to the
// inference engine and serializes concurrent initialization.
package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"golang.org/x/sync/singleflight"

	"github.com/book-expert/pocket-tts-web/internal/core"
)

// State of the model handle.
type State int

const (
	// StateUnloaded means no initialization attempt has started yet.
	StateUnloaded State = iota
	// StateLoading means exactly one initialization attempt is in flight.
	StateLoading
	// StateReady means the engine is initialized and can generate.
	StateReady
	// StateFailedToLoad means the last attempt failed; a later request may
	// retry.
	StateFailedToLoad
)

// String returns the state name for logs and diagnostics.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailedToLoad:
		return "failed"
	default:
		return "unknown"
	}
}

// initFlightKey is the single key under which all initialization attempts
// coalesce.
const initFlightKey = "model-init"

// Gateway wraps the engine behind a lazy singleton. Concurrent first requests
// share one initialization flight; late callers block on its outcome instead
// of starting a second attempt.
type Gateway struct {
	engine core.Engine
	log    *logger.Logger

	flight singleflight.Group

	mu    sync.Mutex
	state State
}

// New creates a Gateway around the engine. The engine is not touched until
// the first EnsureReady call.
func New(engine core.Engine, log *logger.Logger) *Gateway {
	return &Gateway{
		engine: engine,
		log:    log,
		flight: singleflight.Group{},
		mu:     sync.Mutex{},
		state:  StateUnloaded,
	}
}

// State reports the current handle state without triggering initialization.
func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state
}

func (g *Gateway) setState(next State) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state = next
}

// EnsureReady initializes the engine on first use. All callers that arrive
// while an attempt is in flight share its outcome; the expensive load runs at
// most once unless a prior attempt failed.
func (g *Gateway) EnsureReady(ctx context.Context) error {
	if g.State() == StateReady {
		return nil
	}

	_, flightErr, _ := g.flight.Do(initFlightKey, func() (any, error) {
		// A caller that lost the race to a finished flight re-checks
		// here instead of loading again.
		if g.State() == StateReady {
			return nil, nil
		}

		return nil, g.initialize(ctx)
	})
	if flightErr != nil {
		return fmt.Errorf("%w: %v", core.ErrModelInitFailed, flightErr)
	}

	return nil
}

func (g *Gateway) initialize(ctx context.Context) error {
	g.setState(StateLoading)
	g.log.Info("Loading TTS model, the first request may take a while")

	start := time.Now()

	loadErr := g.engine.Load(ctx)
	if loadErr != nil {
		g.setState(StateFailedToLoad)
		g.log.Error("Model load failed: %v", loadErr)

		return loadErr
	}

	g.setState(StateReady)
	g.log.Info("TTS model loaded in %s", time.Since(start).Round(time.Millisecond))

	return nil
}

// Generate synthesizes audio for text with a resolved voice state. Calling it
// before EnsureReady has succeeded is a caller error.
func (g *Gateway) Generate(
	ctx context.Context,
	state core.VoiceState,
	text string,
) (core.GeneratedAudio, error) {
	if g.State() != StateReady {
		return core.GeneratedAudio{}, core.ErrModelNotReady
	}

	generated, genErr := g.engine.Generate(ctx, state, text)
	if genErr != nil {
		return core.GeneratedAudio{}, fmt.Errorf("engine generation failed: %w", genErr)
	}

	return generated, nil
}
