package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"
)

const (
	VoiceTokenActionLogin = "login"
	VoiceTokenActionJoin  = "join"

	voiceTokenTTL = time.Hour
)

var (
	ErrVoiceNotConfigured = errors.New("voice config is incomplete")
	ErrVoiceUserRequired  = errors.New("user is required")
	ErrVoiceChannel       = errors.New("channel name is required for join tokens")
	ErrVoiceAction        = errors.New("unsupported voice action")
)

// VoiceService signs Vivox access tokens so the four players of a table can share
// a voice channel.
type VoiceService struct {
	secret string
	issuer string
	domain string

	now func() time.Time
	rng *rand.Rand
}

// NewVoiceService builds a token signer. rng may be nil to use a time-seeded default.
func NewVoiceService(secret, issuer, domain string, rng *rand.Rand) *VoiceService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &VoiceService{
		secret: secret,
		issuer: issuer,
		domain: domain,
		now:    time.Now,
		rng:    rng,
	}
}

// Configured reports whether tokens can be issued.
func (s *VoiceService) Configured() bool {
	return s != nil && s.secret != "" && s.issuer != "" && s.domain != ""
}

// TableChannel names the voice channel of a table.
func TableChannel(tableID uuid.UUID) string {
	return "euchre-" + tableID.String()
}

// GenerateToken signs a login token, or a join token for channelName.
func (s *VoiceService) GenerateToken(user, action, channelName string) (string, error) {
	if !s.Configured() {
		return "", ErrVoiceNotConfigured
	}
	if user == "" {
		return "", ErrVoiceUserRequired
	}

	userURI := s.userURI(user)
	targetURI, err := s.targetURI(action, channelName, userURI)
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := jwt.MapClaims{
		"iss":  s.issuer,
		"sub":  user,
		"from": user,
		"exp":  now.Add(voiceTokenTTL).Unix(),
		"vxa":  action,
		"vxi":  fmt.Sprintf("%d-%d", now.UnixNano(), s.rng.Int63()),
		"f":    userURI,
		"t":    targetURI,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// GenerateTableToken signs a join token for the voice channel of tableID.
func (s *VoiceService) GenerateTableToken(user string, tableID uuid.UUID) (string, error) {
	return s.GenerateToken(user, VoiceTokenActionJoin, TableChannel(tableID))
}

func (s *VoiceService) userURI(user string) string {
	return "sip:." + s.issuer + "." + user + ".@" + s.domain
}

func (s *VoiceService) channelURI(channelName string) string {
	return "sip:confctl-g-" + channelName + "@" + s.domain
}

func (s *VoiceService) targetURI(action, channelName, userURI string) (string, error) {
	switch action {
	case VoiceTokenActionLogin:
		return userURI, nil
	case VoiceTokenActionJoin:
		if channelName == "" {
			return "", ErrVoiceChannel
		}
		return s.channelURI(channelName), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrVoiceAction, action)
	}
}
