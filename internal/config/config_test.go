// Package config_test tests the configuration structure for pocket-tts-web.
package config_test

import (
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/pocket-tts-web/internal/config"
)

func TestUnmarshalConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[server]
host = "127.0.0.1"
port = 9000
static_dir = "static"

[tts]
binary_path = "/usr/local/bin/pocket-tts"
default_voice = "marius"
temperature = 0.7
timeout_seconds = 120

[auth]
env_file = ".env"
token_path = "/home/tts/.cache/huggingface/token"

[paths]
base_logs_dir = "/var/log/pocket-tts-web"
uploads_dir = "/var/lib/pocket-tts-web/uploads"
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "static", cfg.Server.StaticDir)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())
	assert.Equal(t, "/usr/local/bin/pocket-tts", cfg.TTS.BinaryPath)
	assert.Equal(t, "marius", cfg.TTS.DefaultVoice)
	assert.InEpsilon(t, 0.7, cfg.TTS.Temperature, 0.001)
	assert.Equal(t, 120, cfg.TTS.TimeoutSeconds)
	assert.Equal(t, ".env", cfg.Auth.EnvFile)
	assert.Equal(t, "/home/tts/.cache/huggingface/token", cfg.Auth.TokenPath)
	assert.Equal(t, "/var/log/pocket-tts-web", cfg.Paths.BaseLogsDir)
	assert.Equal(t, "/var/lib/pocket-tts-web/uploads", cfg.Paths.UploadsDir)
}
