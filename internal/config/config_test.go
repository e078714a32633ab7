package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "game_config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestReadGameConfig(t *testing.T) {
	c, err := ReadGameConfig(writeFile(t, `{"turn_duration_seconds": 20, "bot_max_think_millis": 900}`))
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, c.TurnDuration())
	assert.Equal(t, 15, c.BotAutoFillDelaySeconds)
	lo, hi := c.BotThinkRange()
	assert.Equal(t, 800*time.Millisecond, lo)
	assert.Equal(t, 900*time.Millisecond, hi)
}

func TestReadGameConfigRejectsBadInput(t *testing.T) {
	_, err := ReadGameConfig(writeFile(t, `{"bot_min_think_millis": 500, "bot_max_think_millis": 100}`))
	assert.Error(t, err)

	_, err = ReadGameConfig(writeFile(t, `not json`))
	assert.Error(t, err)

	_, err = ReadGameConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestGetGameConfigDefaults(t *testing.T) {
	c := GetGameConfig()
	require.NotNil(t, c)
	assert.Positive(t, c.TurnDurationSeconds)
}

func TestLoadServerConfig(t *testing.T) {
	t.Setenv("EUCHRE_ADDR", ":9999")
	t.Setenv("EUCHRE_NATS_URL", "nats://localhost:4222")
	t.Setenv("EUCHRE_LOG_LEVEL", "debug")
	t.Setenv("EUCHRE_GAME_CONFIG", "/tmp/game.json")

	c := LoadServerConfig()
	assert.Equal(t, ":9999", c.Addr)
	assert.Equal(t, "nats://localhost:4222", c.NatsURL)
	assert.Equal(t, logrus.DebugLevel, c.LogLevel)
	assert.Equal(t, "/tmp/game.json", c.GameConfigPath)
}
