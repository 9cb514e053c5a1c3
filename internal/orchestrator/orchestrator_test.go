// Package orchestrator_test tests the generation pipeline coordination.
package orchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/pocket-tts-web/internal/core"
	"github.com/book-expert/pocket-tts-web/internal/orchestrator"
	"github.com/book-expert/pocket-tts-web/internal/wavenc"
)

var (
	errMockReady    = errors.New("mock ready error")
	errMockResolve  = errors.New("mock resolve error")
	errMockGenerate = errors.New("mock generate error")
)

// mockGateway is a scriptable ModelGateway.
type mockGateway struct {
	readyCalls    int
	generateCalls int
	readyErr      error
	generateErr   error
	audio         core.GeneratedAudio
}

func (m *mockGateway) EnsureReady(_ context.Context) error {
	m.readyCalls++

	return m.readyErr
}

func (m *mockGateway) Generate(
	_ context.Context,
	_ core.VoiceState,
	_ string,
) (core.GeneratedAudio, error) {
	m.generateCalls++

	if m.generateErr != nil {
		return core.GeneratedAudio{}, m.generateErr
	}

	return m.audio, nil
}

// mockResolver is a scriptable VoiceResolver.
type mockResolver struct {
	resolveCalls int
	resolveErr   error
}

func (m *mockResolver) Resolve(_ context.Context, _ core.VoiceRequest) (core.VoiceState, error) {
	m.resolveCalls++

	if m.resolveErr != nil {
		return nil, m.resolveErr
	}

	return "resolved-state", nil
}

func newTestOrchestrator(
	t *testing.T,
	gateway *mockGateway,
	resolver *mockResolver,
) *orchestrator.Orchestrator {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "orchestrator-test.log")
	require.NoError(t, err)

	return orchestrator.New(gateway, resolver, testLogger)
}

func presetRequest(id string) core.VoiceRequest {
	return core.VoiceRequest{PresetID: id, Sample: nil}
}

func TestGenerate_HappyPathProducesDecodableWAV(t *testing.T) {
	t.Parallel()

	gatewayMock := &mockGateway{
		audio: core.GeneratedAudio{
			Samples:    []float64{0.0, 0.25, -0.25, 0.5},
			SampleRate: 24000,
		},
	}
	resolverMock := &mockResolver{}
	pipeline := newTestOrchestrator(t, gatewayMock, resolverMock)

	encoded, err := pipeline.Generate(context.Background(), "Hello", presetRequest("alba"))
	require.NoError(t, err)

	decoded, err := wavenc.Decode(encoded)
	require.NoError(t, err)

	assert.Equal(t, 24000, decoded.SampleRate)
	assert.Len(t, decoded.Samples, 4)
	assert.Equal(t, 1, gatewayMock.readyCalls)
	assert.Equal(t, 1, resolverMock.resolveCalls)
	assert.Equal(t, 1, gatewayMock.generateCalls)
}

func TestGenerate_EmptyTextFailsWithoutSideEffects(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "   ", "\n\t "} {
		gatewayMock := &mockGateway{}
		resolverMock := &mockResolver{}
		pipeline := newTestOrchestrator(t, gatewayMock, resolverMock)

		_, err := pipeline.Generate(context.Background(), text, presetRequest("alba"))
		require.ErrorIs(t, err, core.ErrInvalidInput)

		assert.Equal(t, 0, gatewayMock.readyCalls)
		assert.Equal(t, 0, resolverMock.resolveCalls)
		assert.Equal(t, 0, gatewayMock.generateCalls)
	}
}

func TestGenerate_ModelInitFailurePassesThrough(t *testing.T) {
	t.Parallel()

	gatewayMock := &mockGateway{
		readyErr: fmt.Errorf("%w: weights unavailable", core.ErrModelInitFailed),
	}
	resolverMock := &mockResolver{}
	pipeline := newTestOrchestrator(t, gatewayMock, resolverMock)

	_, err := pipeline.Generate(context.Background(), "Hello", presetRequest("alba"))
	require.ErrorIs(t, err, core.ErrModelInitFailed)
	assert.Equal(t, 0, resolverMock.resolveCalls)
}

func TestGenerate_UncategorizedInitFailureBecomesGenerationFailed(t *testing.T) {
	t.Parallel()

	gatewayMock := &mockGateway{readyErr: errMockReady}
	pipeline := newTestOrchestrator(t, gatewayMock, &mockResolver{})

	_, err := pipeline.Generate(context.Background(), "Hello", presetRequest("alba"))
	require.ErrorIs(t, err, core.ErrGenerationFailed)
	assert.Contains(t, err.Error(), errMockReady.Error())
}

func TestGenerate_VoiceFailuresKeepTheirCategory(t *testing.T) {
	t.Parallel()

	categorized := []error{
		fmt.Errorf("%w: %q", core.ErrVoiceNotFound, "nonexistent"),
		fmt.Errorf("%w: engine rejected sample", core.ErrVoiceLoadFailed),
		fmt.Errorf("%w: no preset or upload", core.ErrInvalidVoiceRequest),
	}

	for _, resolveErr := range categorized {
		gatewayMock := &mockGateway{}
		resolverMock := &mockResolver{resolveErr: resolveErr}
		pipeline := newTestOrchestrator(t, gatewayMock, resolverMock)

		_, err := pipeline.Generate(context.Background(), "Hello", presetRequest("x"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.Unwrap(resolveErr))
		assert.Equal(t, 0, gatewayMock.generateCalls)
	}
}

func TestGenerate_ResolverDecidesBeforeGeneration(t *testing.T) {
	t.Parallel()

	gatewayMock := &mockGateway{}
	resolverMock := &mockResolver{resolveErr: errMockResolve}
	pipeline := newTestOrchestrator(t, gatewayMock, resolverMock)

	_, err := pipeline.Generate(context.Background(), "Hello", presetRequest("alba"))
	require.ErrorIs(t, err, core.ErrGenerationFailed)
	assert.Equal(t, 1, gatewayMock.readyCalls)
	assert.Equal(t, 0, gatewayMock.generateCalls)
}

func TestGenerate_EngineFailureBecomesGenerationFailed(t *testing.T) {
	t.Parallel()

	gatewayMock := &mockGateway{generateErr: errMockGenerate}
	pipeline := newTestOrchestrator(t, gatewayMock, &mockResolver{})

	_, err := pipeline.Generate(context.Background(), "Hello", presetRequest("alba"))
	require.ErrorIs(t, err, core.ErrGenerationFailed)
	assert.Contains(t, err.Error(), errMockGenerate.Error())
}

func TestGenerate_SequentialIdenticalRequestsAreIndependent(t *testing.T) {
	t.Parallel()

	gatewayMock := &mockGateway{
		audio: core.GeneratedAudio{
			Samples:    []float64{0.1, 0.2, 0.3},
			SampleRate: 24000,
		},
	}
	pipeline := newTestOrchestrator(t, gatewayMock, &mockResolver{})

	first, err := pipeline.Generate(context.Background(), "Hello", presetRequest("alba"))
	require.NoError(t, err)

	second, err := pipeline.Generate(context.Background(), "Hello", presetRequest("alba"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, gatewayMock.generateCalls)
}
