package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// RpcVoiceToken is the Nakama RPC id clients call for a voice-chat access token.
	RpcVoiceToken = "voice_token"

	// MatchNameEuchre is the authoritative match handler name registered with Nakama.
	MatchNameEuchre = "euchre_match"

	// GameLabel tags euchre matches in the match listing.
	GameLabel = "euchre"
)

// Op codes for client messages and server events. Payloads are JSON.
const (
	// Client -> Server
	OpStartGame    int64 = 1
	OpMove         int64 = 2
	OpRequestState int64 = 3

	// Server -> Client events
	OpSeatsChanged int64 = 101
	OpPublicState  int64 = 102
	OpPrivateHand  int64 = 103 // send privately
	OpGameEvent    int64 = 104
	OpGameError    int64 = 105
)
