package models

// Room is the authoritative per-room state, owned exclusively by one room
// actor instance and persisted as a whole after every successful mutation.
type Room struct {
	ID             string    `json:"id"`
	RoomName       string    `json:"roomName"`
	Mode           string    `json:"mode"`
	MaxPlayers     int       `json:"maxPlayers"`
	Mutators       []string  `json:"mutators"`
	WordLength     int       `json:"wordLength"`
	Status         string    `json:"status"`
	TargetWord     string    `json:"targetWord"`
	WinnerPlayerID string    `json:"winnerPlayerId"`
	CreatedAt      int64     `json:"createdAt"`
	LastActionAt   int64     `json:"lastActionAt"`
	StartedAt      int64     `json:"startedAt"`
	FinishedAt     int64     `json:"finishedAt"`
	Players        []*Player `json:"players"`
}

// Player membership is authorized by possession of SessionToken, not by any
// identity. The token is never echoed in summaries or public state.
type Player struct {
	ID            string `json:"id"`
	SessionToken  string `json:"sessionToken"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	IsHost        bool   `json:"isHost"`
	JoinedAt      int64  `json:"joinedAt"`
	LastActionAt  int64  `json:"lastActionAt"`
	GuessCount    int    `json:"guessCount"`
	LastGuessMask string `json:"lastGuessMask"`
	SolvedAt      int64  `json:"solvedAt"`
}

// RoomSummary is the denormalized listing entry cached by the directory.
// It never carries the target word, the player list or session tokens.
type RoomSummary struct {
	ID             string   `json:"id"`
	RoomName       string   `json:"roomName"`
	Mode           string   `json:"mode"`
	Status         string   `json:"status"`
	MaxPlayers     int      `json:"maxPlayers"`
	PlayerCount    int      `json:"playerCount"`
	SpectatorCount int      `json:"spectatorCount"`
	HostSpectating bool     `json:"hostSpectating"`
	MutatorCount   int      `json:"mutatorCount"`
	Mutators       []string `json:"mutators"`
	WordLength     int      `json:"wordLength"`
	CreatedAt      int64    `json:"createdAt"`
	LastActionAt   int64    `json:"lastActionAt"`
	TimeoutMs      int64    `json:"timeoutMs"`
}

// PublicRoom is the client view of a room, scoped to the presented session
// token. Solution is revealed only once the room is finished.
type PublicRoom struct {
	ID             string         `json:"id"`
	RoomName       string         `json:"roomName"`
	Mode           string         `json:"mode"`
	Status         string         `json:"status"`
	MaxPlayers     int            `json:"maxPlayers"`
	Mutators       []string       `json:"mutators"`
	WordLength     int            `json:"wordLength"`
	CreatedAt      int64          `json:"createdAt"`
	LastActionAt   int64          `json:"lastActionAt"`
	StartedAt      int64          `json:"startedAt"`
	FinishedAt     int64          `json:"finishedAt"`
	IdleExpiresAt  int64          `json:"idleExpiresAt"`
	TimeoutMs      int64          `json:"timeoutMs"`
	PlayerCount    int            `json:"playerCount"`
	Players        []PublicPlayer `json:"players"`
	Winner         *WinnerInfo    `json:"winner"`
	CanStart       bool           `json:"canStart"`
	You            *YouInfo       `json:"you"`
	HostSpectating bool           `json:"hostSpectating"`
	Solution       string         `json:"solution,omitempty"`
}

type PublicPlayer struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	IsHost        bool   `json:"isHost"`
	GuessCount    int    `json:"guessCount"`
	LastGuessMask string `json:"lastGuessMask"`
	SolvedAt      int64  `json:"solvedAt"`
}

type WinnerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	At   int64  `json:"at"`
}

type YouInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	IsHost bool   `json:"isHost"`
}

type GuessResult struct {
	Guess   string `json:"guess"`
	Mask    string `json:"mask"`
	Correct bool   `json:"correct"`
}

// ChallengeEntry is one pending arithmetic challenge in the directory's
// bounded, TTL-expired table.
type ChallengeEntry struct {
	Answer    string `json:"answer"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

type ChallengeInfo struct {
	ChallengeID string `json:"challengeId"`
	Prompt      string `json:"prompt"`
	ExpiresInMs int64  `json:"expiresInMs"`
}

// ChallengeProof is whatever the client presents to satisfy the anti-abuse
// gate: id+answer for the self-issued strategy, an opaque token for the
// externally-verified one.
type ChallengeProof struct {
	ChallengeID string `json:"challengeId"`
	Answer      string `json:"challengeAnswer"`
	Token       string `json:"verifyToken"`
}
