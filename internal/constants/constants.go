package constants

import "time"

const Version = "2026-02-20-mp1"

const (
	RoomIDLength   = 6
	RoomIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	TokenAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

	SessionTokenLength = 28
	PlayerIDLength     = 12
	ChallengeIDLength  = 18

	MinPlayers        = 2
	MaxPlayers        = 24
	DefaultMaxPlayers = 6

	MinWordLength = 4
	MaxWordLength = 8

	MaxRoomNameLength = 36
	MaxPlayerNameLen  = 12
	MaxMutators       = 5
	MaxMutatorKeys    = 10

	RoomIDAllocRetries = 80
	ListLimit          = 200
	ChallengeLimit     = 500
)

const (
	RoomIdleTimeout  = 15 * time.Minute
	ChallengeTTL     = 5 * time.Minute
	ApprovedCacheTTL = 45 * time.Second
)

const (
	ModeRanked = "ranked"
	ModeCustom = "custom"
)

const (
	StatusWaiting  = "waiting"
	StatusLive     = "live"
	StatusFinished = "finished"
	StatusExpired  = "expired"
)

const (
	RolePlayer    = "player"
	RoleSpectator = "spectator"
)

const (
	ActionLeave        = "leave"
	ActionHeartbeat    = "heartbeat"
	ActionStart        = "start"
	ActionHostSpectate = "host_spectate"
	ActionGuess        = "guess"
)

const (
	CodeRoomNotFound     = "ROOM_NOT_FOUND"
	CodeRoomExpired      = "ROOM_EXPIRED"
	CodeRoomFull         = "ROOM_FULL"
	CodeHumanCheckFailed = "HUMAN_CHECK_FAILED"
	CodeRateLimited      = "RATE_LIMITED"
)

// DirectoryKey addresses the single process-wide directory actor. Room actors
// are addressed by RoomKey so repeated calls for one room id always reach the
// same instance.
const DirectoryKey = "global-lobby-directory"

func RoomKey(roomID string) string {
	return "room-" + roomID
}

// AllowedMutators is the recognized modifier whitelist; anything else is
// stripped during sanitization.
var AllowedMutators = map[string]struct{}{
	"fog":          {},
	"countdown":    {},
	"copycat":      {},
	"budget":       {},
	"minDistance":  {},
	"doubleVision": {},
	"wildcard":     {},
	"hotPotato":    {},
	"hazeWeave":    {},
	"staticShock":  {},
	"noisyArrows":  {},
	"replaceMode":  {},
	"mirror":       {},
	"lifeline":     {},
}

// FallbackWords keeps name generation and target selection working when the
// moderation store is empty or unreachable.
var FallbackWords = []string{
	"ALPHA", "BRAVO", "CLOUD", "DELTA", "EMBER", "FLARE", "GHOST", "HONEY",
	"INPUT", "JELLY", "KNIFE", "LUNAR", "MANGO", "NERVE", "OPERA", "PIXEL",
	"QUART", "RIVER", "SPARK", "TRACE", "ULTRA", "VIVID", "WAFER", "XENON",
	"YOUNG", "ZEBRA",
}
