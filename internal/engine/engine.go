// Package engine adapts the pocket-tts CLI into the core.Engine interface.
//
// Each call spawns a short-lived subprocess: voice resolution runs
// `pocket-tts export-voice` to turn an audio sample into an embedding, and
// synthesis runs `pocket-tts generate` with the text piped in on stdin.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/book-expert/logger"

	"github.com/book-expert/pocket-tts-web/internal/core"
	"github.com/book-expert/pocket-tts-web/internal/wavenc"
)

// CLI subcommands and flags.
const (
	subcommandGenerate    = "generate"
	subcommandExportVoice = "export-voice"
	flagVoice             = "--voice"
	flagOutput            = "--output"
	flagTemperature       = "--temperature"
	flagQuiet             = "--quiet"

	embeddingSuffix = ".safetensors"
	warmupText      = "Ready."
)

// Static errors.
var (
	ErrBinaryPathEmpty   = errors.New("engine binary path cannot be empty")
	ErrForeignVoiceState = errors.New("voice state was not produced by this engine")
	ErrEmptyAudio        = errors.New("engine produced no audio")
)

// authorizationMarkers are the phrases the CLI emits when a gated
// voice-cloning asset cannot be downloaded without accepting terms or
// authenticating. Substring matching is a stopgap until the CLI reports a
// structured error code.
var authorizationMarkers = []string{"voice cloning", "terms", "download"}

// Config holds the engine invocation parameters. TimeoutSeconds bounds each
// CLI invocation; zero means no bound.
type Config struct {
	BinaryPath     string
	DefaultVoice   string
	Temperature    float64
	TimeoutSeconds int
}

// PocketEngine shells out to the pocket-tts CLI for model loading, voice
// resolution, and synthesis.
type PocketEngine struct {
	config Config
	log    *logger.Logger
}

// voiceState is the engine-private resolved voice handle.
type voiceState struct {
	prompt string
}

// New validates the configuration and returns a PocketEngine.
func New(cfg Config, log *logger.Logger) (*PocketEngine, error) {
	if cfg.BinaryPath == "" {
		return nil, ErrBinaryPathEmpty
	}

	return &PocketEngine{
		config: cfg,
		log:    log,
	}, nil
}

// Load warms the CLI's model cache by synthesizing a short phrase with the
// default voice. The first invocation downloads the model weights, so this
// can take a while.
func (e *PocketEngine) Load(ctx context.Context) error {
	_, loadErr := e.synthesize(ctx, e.config.DefaultVoice, warmupText)
	if loadErr != nil {
		return fmt.Errorf("model warm-up failed: %w", loadErr)
	}

	return nil
}

// VoiceState resolves a voice prompt into an opaque handle. Preset names pass
// through unchanged; a staged sample path is exported to a voice embedding,
// which is the step that fetches gated cloning assets and can fail with
// core.ErrAuthorizationRequired.
func (e *PocketEngine) VoiceState(ctx context.Context, prompt string) (core.VoiceState, error) {
	if _, statErr := os.Stat(prompt); statErr != nil {
		// Not a staged file, treat as a built-in voice name.
		return voiceState{prompt: prompt}, nil
	}

	embeddingPath := prompt + embeddingSuffix

	args := []string{subcommandExportVoice, prompt, flagOutput, embeddingPath}

	_, exportErr := e.run(ctx, args, nil)
	if exportErr != nil {
		return nil, fmt.Errorf("voice export failed: %w", exportErr)
	}

	return voiceState{prompt: embeddingPath}, nil
}

// Generate synthesizes audio for text using a previously resolved voice
// state.
func (e *PocketEngine) Generate(
	ctx context.Context,
	state core.VoiceState,
	text string,
) (core.GeneratedAudio, error) {
	resolved, ok := state.(voiceState)
	if !ok {
		return core.GeneratedAudio{}, ErrForeignVoiceState
	}

	return e.synthesize(ctx, resolved.prompt, text)
}

// synthesize runs one generate invocation and decodes the WAV the CLI wrote.
func (e *PocketEngine) synthesize(
	ctx context.Context,
	voicePrompt, text string,
) (core.GeneratedAudio, error) {
	tempFile, tempErr := os.CreateTemp("", "pocket-tts-*.wav")
	if tempErr != nil {
		return core.GeneratedAudio{}, fmt.Errorf(
			"failed to create temp file for engine output: %w",
			tempErr,
		)
	}

	outputPath := tempFile.Name()

	closeErr := tempFile.Close()
	if closeErr != nil {
		return core.GeneratedAudio{}, fmt.Errorf("failed to close temp file: %w", closeErr)
	}

	defer func() {
		removeErr := os.Remove(outputPath)
		if removeErr != nil {
			e.log.Warn("Failed to remove temp file '%s': %v", outputPath, removeErr)
		}
	}()

	args := []string{
		subcommandGenerate,
		flagVoice, voicePrompt,
		flagOutput, outputPath,
		flagQuiet,
	}

	if e.config.Temperature > 0 {
		args = append(
			args,
			flagTemperature,
			strconv.FormatFloat(e.config.Temperature, 'f', 2, 64),
		)
	}

	_, runErr := e.run(ctx, args, strings.NewReader(text))
	if runErr != nil {
		return core.GeneratedAudio{}, runErr
	}

	wavData, readErr := os.ReadFile(outputPath)
	if readErr != nil {
		return core.GeneratedAudio{}, fmt.Errorf(
			"failed to read engine output: %w",
			readErr,
		)
	}

	if len(wavData) == 0 {
		return core.GeneratedAudio{}, ErrEmptyAudio
	}

	generated, decodeErr := wavenc.Decode(wavData)
	if decodeErr != nil {
		return core.GeneratedAudio{}, fmt.Errorf(
			"failed to decode engine output: %w",
			decodeErr,
		)
	}

	return generated, nil
}

// run executes one CLI invocation and classifies its failure.
func (e *PocketEngine) run(ctx context.Context, args []string, stdin *strings.Reader) ([]byte, error) {
	if e.config.TimeoutSeconds > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(
			ctx,
			time.Duration(e.config.TimeoutSeconds)*time.Second,
		)
		defer cancel()
	}

	// #nosec G204 -- the binary path comes from configuration and the
	// arguments are built from validated inputs above.
	cmd := exec.CommandContext(ctx, e.config.BinaryPath, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		return nil, classify(stderr.String(), runErr)
	}

	return stdout.Bytes(), nil
}

// classify maps a CLI failure onto the typed taxonomy. Gated-asset failures
// are recognized by the marker phrases in the CLI output.
func classify(output string, runErr error) error {
	lowered := strings.ToLower(output)
	for _, marker := range authorizationMarkers {
		if strings.Contains(lowered, marker) {
			return fmt.Errorf(
				"%w: %s",
				core.ErrAuthorizationRequired,
				firstLine(output),
			)
		}
	}

	return fmt.Errorf("pocket-tts execution failed: %w - output: %s", runErr, output)
}

// firstLine trims the CLI output to its first non-empty line for error
// messages; the full output still reaches the logs via the caller.
func firstLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}

	return "no output"
}
