package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"

	"euchre/internal/app"
)

// gRPC status codes used by runtime.NewError.
const (
	codeInvalidArgument    = 3
	codeFailedPrecondition = 9
	codeInternal           = 13
	codeUnauthenticated    = 16
)

// voiceService overrides the env-configured signer in tests.
var voiceService *app.VoiceService

type voiceTokenRequest struct {
	Action  string `json:"action"`
	MatchID string `json:"match_id"`
}

type voiceTokenResponse struct {
	Token   string `json:"token"`
	Channel string `json:"channel,omitempty"`
}

// rpcVoiceToken issues a login token, or a join token for the voice channel of a match.
// Payload: {"action": "login" | "join", "match_id": "..."}
func rpcVoiceToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("Authentication required", codeUnauthenticated)
	}

	req := voiceTokenRequest{Action: app.VoiceTokenActionLogin}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("Invalid payload", codeInvalidArgument)
		}
	}

	svc := voiceService
	if svc == nil {
		svc = voiceServiceFromEnv(ctx)
	}
	if !svc.Configured() {
		logger.Warn("rpcVoiceToken: Voice credentials missing from env.")
		return "", runtime.NewError("Voice chat is not configured", codeFailedPrecondition)
	}

	var (
		token   string
		channel string
		err     error
	)
	switch req.Action {
	case app.VoiceTokenActionJoin:
		tableID, parseErr := tableIDFromMatchID(req.MatchID)
		if parseErr != nil {
			return "", runtime.NewError("Valid match_id required for join", codeInvalidArgument)
		}
		channel = app.TableChannel(tableID)
		token, err = svc.GenerateTableToken(userID, tableID)
	default:
		token, err = svc.GenerateToken(userID, req.Action, "")
	}
	if err != nil {
		if errors.Is(err, app.ErrVoiceAction) {
			return "", runtime.NewError(err.Error(), codeInvalidArgument)
		}
		logger.Error("rpcVoiceToken: Failed to generate token for %s: %v", userID, err)
		return "", runtime.NewError("Internal error", codeInternal)
	}

	resBytes, _ := json.Marshal(voiceTokenResponse{Token: token, Channel: channel})
	return string(resBytes), nil
}

func voiceServiceFromEnv(ctx context.Context) *app.VoiceService {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	return app.NewVoiceService(env["vivox_secret"], env["vivox_issuer"], env["vivox_domain"], nil)
}

// tableIDFromMatchID extracts the table id from a Nakama match id of the form "<uuid>.<node>".
func tableIDFromMatchID(matchID string) (uuid.UUID, error) {
	id, _, _ := strings.Cut(matchID, ".")
	return uuid.Parse(id)
}
