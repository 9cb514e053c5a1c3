// main package for the pocket-tts-web service.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/book-expert/logger"

	"github.com/book-expert/pocket-tts-web/internal/config"
	"github.com/book-expert/pocket-tts-web/internal/engine"
	"github.com/book-expert/pocket-tts-web/internal/gateway"
	"github.com/book-expert/pocket-tts-web/internal/hfauth"
	"github.com/book-expert/pocket-tts-web/internal/orchestrator"
	"github.com/book-expert/pocket-tts-web/internal/server"
	"github.com/book-expert/pocket-tts-web/internal/staging"
	"github.com/book-expert/pocket-tts-web/internal/voice"
)

const readHeaderTimeout = 10 * time.Second

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "pocket-tts-web.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Temporary logger for the bootstrap process.
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	// 2. Load configuration using the central configurator.
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 3. Final logger based on the loaded configuration.
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return serve(cfg, finalLog)
}

func serve(cfg *config.Config, log *logger.Logger) error {
	// Credential is read once at startup. A missing env file is fine; the
	// service still serves preset voices.
	credential, credErr := hfauth.Load(cfg.Auth.EnvFile)
	if credErr != nil {
		log.Warn("Failed to read credential store: %v", credErr)
	}

	log.System(
		"Credential store %s: %s (token %s)",
		cfg.Auth.EnvFile,
		credential.AuthStatus(),
		credential.Preview(),
	)

	pocketEngine, engineErr := engine.New(engine.Config{
		BinaryPath:     cfg.TTS.BinaryPath,
		DefaultVoice:   cfg.TTS.DefaultVoice,
		Temperature:    cfg.TTS.Temperature,
		TimeoutSeconds: cfg.TTS.TimeoutSeconds,
	}, log)
	if engineErr != nil {
		return fmt.Errorf("failed to create engine: %w", engineErr)
	}

	uploadStore, stagingErr := staging.New(cfg.Paths.UploadsDir, log)
	if stagingErr != nil {
		return fmt.Errorf("failed to create upload staging: %w", stagingErr)
	}

	authenticator := hfauth.NewWriter(credential, cfg.Auth.TokenPath, log)
	modelGateway := gateway.New(pocketEngine, log)
	resolver := voice.NewResolver(pocketEngine, uploadStore, authenticator, log)
	pipeline := orchestrator.New(modelGateway, resolver, log)

	httpServer := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: server.New(
			pipeline,
			credential,
			voice.Catalog(),
			cfg.TTS.DefaultVoice,
			cfg.Server.StaticDir,
			log,
		).Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	log.System("pocket-tts-web %s listening on %s", server.Version, cfg.Server.Addr())

	listenErr := httpServer.ListenAndServe()
	if listenErr != nil {
		return fmt.Errorf("HTTP server exited: %w", listenErr)
	}

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
