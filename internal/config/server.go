package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// ServerConfig configures the standalone WebSocket server.
type ServerConfig struct {
	Addr           string
	NatsURL        string
	LogLevel       logrus.Level
	GameConfigPath string
}

// LoadServerConfig reads an optional .env file and then the EUCHRE_* variables.
// An empty NatsURL disables state publication.
func LoadServerConfig() ServerConfig {
	// Load .env file if present
	_ = godotenv.Load()

	c := ServerConfig{
		Addr:           ":8080",
		LogLevel:       logrus.InfoLevel,
		GameConfigPath: "data/game_config.json",
	}
	if v := os.Getenv("EUCHRE_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("EUCHRE_NATS_URL"); v != "" {
		c.NatsURL = v
	}
	if v := os.Getenv("EUCHRE_LOG_LEVEL"); v != "" {
		if lvl, err := logrus.ParseLevel(v); err == nil {
			c.LogLevel = lvl
		}
	}
	if v := os.Getenv("EUCHRE_GAME_CONFIG"); v != "" {
		c.GameConfigPath = v
	}
	return c
}
