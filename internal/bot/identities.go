package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"
)

// BotIdentity is one entry of the bot roster in data/bot_identities.json.
type BotIdentity struct {
	DeviceID    string `json:"device_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Difficulty  string `json:"difficulty"` // "easy" plays at random, anything else plays GoodBot
	AvatarIndex int    `json:"avatar_index"`
}

// Name is what the bot shows at the table.
func (b BotIdentity) Name() string {
	if b.DisplayName != "" {
		return b.DisplayName
	}
	return b.Username
}

type roster struct {
	mu   sync.RWMutex
	list []BotIdentity
	byID map[string]BotIdentity
}

var (
	bots          = &roster{byID: map[string]BotIdentity{}}
	provisionOnce sync.Once
)

func (r *roster) replace(list []BotIdentity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = list
	r.byID = make(map[string]BotIdentity, len(list))
	for _, b := range list {
		if b.UserID != "" {
			r.byID[b.UserID] = b
		}
	}
}

func (r *roster) set(i int, b BotIdentity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list[i] = b
	r.byID[b.UserID] = b
}

func (r *roster) snapshot() []BotIdentity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]BotIdentity(nil), r.list...)
}

func (r *roster) lookup(userID string) (BotIdentity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[userID]
	return b, ok
}

// LoadIdentities reads the bot roster from path, replacing any roster loaded before.
func LoadIdentities(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read bot identities: %w", err)
	}
	var list []BotIdentity
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("decode bot identities %s: %w", path, err)
	}
	bots.replace(list)
	return nil
}

// ProvisionBots creates a device-authenticated Nakama account for every rostered bot
// and tags it with is_bot metadata. Runs once per process.
func ProvisionBots(ctx context.Context, nk runtime.NakamaModule, logger runtime.Logger) {
	provisionOnce.Do(func() {
		for i, b := range bots.snapshot() {
			if b.DeviceID == "" {
				continue
			}
			userID, username, _, err := nk.AuthenticateDevice(ctx, b.DeviceID, b.Username, true)
			if err != nil {
				logger.Error("bot %s: authenticate device: %v", b.Username, err)
				continue
			}
			b.UserID, b.Username = userID, username

			metadata := map[string]interface{}{
				"is_bot":       true,
				"game":         "euchre",
				"difficulty":   b.Difficulty,
				"avatar_index": b.AvatarIndex,
			}
			if err := nk.AccountUpdateId(ctx, userID, b.Username, metadata, b.DisplayName, "", "", "", ""); err != nil {
				logger.Warn("bot %s: update account: %v", userID, err)
			}
			bots.set(i, b)
			logger.Info("bot %s (%s) ready, difficulty %q", b.Name(), userID, b.Difficulty)
		}
	})
}

// AgentFor builds the agent that plays as identity.
func AgentFor(identity BotIdentity) (*Agent, error) {
	return NewAgent(identity.UserID, identity.Name(), LevelForDifficulty(identity.Difficulty))
}

// GetBotConfig returns the roster entry for a bot user id.
func GetBotConfig(userID string) (BotIdentity, bool) {
	return bots.lookup(userID)
}

// GetBotDisplayName returns the table name of a bot, or "" for humans.
func GetBotDisplayName(userID string) string {
	b, ok := bots.lookup(userID)
	if !ok {
		return ""
	}
	return b.Name()
}

// GetBotIdentity picks a roster entry for a seat index, wrapping around the roster.
// Without a roster it invents a placeholder bot.
func GetBotIdentity(index int) BotIdentity {
	bots.mu.RLock()
	defer bots.mu.RUnlock()
	if len(bots.list) == 0 {
		return BotIdentity{
			UserID:      fmt.Sprintf("bot-%d", index),
			DisplayName: fmt.Sprintf("Bot %d", index+1),
		}
	}
	return bots.list[index%len(bots.list)]
}

// IsBot reports whether userID belongs to the roster.
func IsBot(userID string) bool {
	_, ok := bots.lookup(userID)
	return ok
}
