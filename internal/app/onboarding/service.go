package onboarding

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"euchre/internal/ports"
)

// ErrNotConfigured is returned when the service has no account port.
var ErrNotConfigured = errors.New("onboarding service not configured")

// Service gives newly created accounts a friendly display name so every seat at a
// table has something readable to show.
type Service struct {
	accounts ports.AccountPort
	rng      *rand.Rand
}

// NewService constructs an onboarding service.
// accounts must be non-nil; rng may be nil to use a time-seeded default.
func NewService(accounts ports.AccountPort, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		accounts: accounts,
		rng:      rng,
	}
}

// OnboardNewUser assigns a generated username and display name to userID and
// returns the name that was applied.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (string, error) {
	if s.accounts == nil {
		return "", ErrNotConfigured
	}

	displayName := s.generateFriendlyName()
	if err := s.accounts.UpdateProfile(ctx, userID, displayName, displayName); err != nil {
		return "", fmt.Errorf("update profile for %s: %w", userID, err)
	}
	return displayName, nil
}

func (s *Service) generateFriendlyName() string {
	adjectives := []string{"Lucky", "Bold", "Sly", "Clever", "Swift", "Calm", "Mighty", "Witty", "Loner", "Sharp"}
	nouns := []string{"Bower", "Jack", "Ace", "Dealer", "Caller", "Maker", "Trump", "Partner", "Trick", "Euchre"}

	adj := adjectives[s.rng.Intn(len(adjectives))]
	noun := nouns[s.rng.Intn(len(nouns))]
	num := s.rng.Intn(9000) + 1000

	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
