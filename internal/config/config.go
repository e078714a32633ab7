package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

type GameConfig struct {
	// TurnDurationSeconds is how long a human seat may take to act before a move is
	// played for it. Zero turns the clock off.
	TurnDurationSeconds int `json:"turn_duration_seconds"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before adding bots to a solo human lobby.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`
	// BotMinThinkMillis and BotMaxThinkMillis bound the pause before a bot acts.
	BotMinThinkMillis int `json:"bot_min_think_millis"`
	BotMaxThinkMillis int `json:"bot_max_think_millis"`
}

// Defaults used when no config file has been loaded.
var defaultGameConfig = GameConfig{
	TurnDurationSeconds:     30,
	BotAutoFillDelaySeconds: 15,
	BotMinThinkMillis:       800,
	BotMaxThinkMillis:       2000,
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		c, err := ReadGameConfig(path)
		if err != nil {
			loadErr = err
			return
		}
		cfg = c
	})
	return loadErr
}

// ReadGameConfig parses a config file. Missing fields keep their defaults.
func ReadGameConfig(path string) (*GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read game config: %w", err)
	}

	c := defaultGameConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	if c.BotMaxThinkMillis < c.BotMinThinkMillis {
		return nil, fmt.Errorf("bot_max_think_millis %d is below bot_min_think_millis %d", c.BotMaxThinkMillis, c.BotMinThinkMillis)
	}
	return &c, nil
}

// GetGameConfig returns the global game configuration, or the defaults when
// nothing was loaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		c := defaultGameConfig
		return &c
	}
	return cfg
}

// TurnDuration returns the per-move timer.
func (c *GameConfig) TurnDuration() time.Duration {
	return time.Duration(c.TurnDurationSeconds) * time.Second
}

// BotThinkRange returns the bounds of a bot's pause before acting.
func (c *GameConfig) BotThinkRange() (time.Duration, time.Duration) {
	return time.Duration(c.BotMinThinkMillis) * time.Millisecond, time.Duration(c.BotMaxThinkMillis) * time.Millisecond
}
