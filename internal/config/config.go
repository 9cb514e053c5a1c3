// Package config provides the configuration structure for pocket-tts-web.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Defaults applied when the TOML omits a value.
const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 8000
	defaultBinaryPath     = "pocket-tts"
	defaultVoice          = "alba"
	defaultTimeoutSeconds = 300
)

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	StaticDir string `toml:"static_dir"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TTSConfig holds the engine invocation configuration.
type TTSConfig struct {
	BinaryPath     string  `toml:"binary_path"`
	DefaultVoice   string  `toml:"default_voice"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// AuthConfig locates the credential store for gated voice assets.
type AuthConfig struct {
	EnvFile   string `toml:"env_file"`
	TokenPath string `toml:"token_path"`
}

// PathsConfig holds the filesystem locations owned by the service.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
	UploadsDir  string `toml:"uploads_dir"`
}

// Config is the root configuration structure.
type Config struct {
	Server ServerConfig `toml:"server"`
	TTS    TTSConfig    `toml:"tts"`
	Auth   AuthConfig   `toml:"auth"`
	Paths  PathsConfig  `toml:"paths"`
}

// Load loads the configuration via the central configurator and applies
// defaults for omitted values.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultHost
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}

	if cfg.TTS.BinaryPath == "" {
		cfg.TTS.BinaryPath = defaultBinaryPath
	}

	if cfg.TTS.DefaultVoice == "" {
		cfg.TTS.DefaultVoice = defaultVoice
	}

	if cfg.TTS.TimeoutSeconds == 0 {
		cfg.TTS.TimeoutSeconds = defaultTimeoutSeconds
	}
}
