// Package room implements the per-room actor: the authoritative state
// machine for membership, turn-independent guessing, scoring and lifecycle.
// The hosting substrate serializes invocations per room key, so nothing here
// locks; every successful mutation persists the full room before returning.
package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	actorhost "wordshift/internal/actorhost"
	constants "wordshift/internal/constants"
	game "wordshift/internal/game"
	models "wordshift/internal/models"
	util "wordshift/internal/util"
	words "wordshift/internal/words"
)

const stateRecord = "room_v1"

// Response is the wire shape every room operation answers with. The
// directory forwards it verbatim and reads RoomSummary/Code to maintain its
// registry.
type Response struct {
	OK           bool                `json:"ok"`
	Version      string              `json:"version,omitempty"`
	Error        string              `json:"error,omitempty"`
	Code         string              `json:"code,omitempty"`
	Room         *models.PublicRoom  `json:"room,omitempty"`
	RoomSummary  *models.RoomSummary `json:"roomSummary,omitempty"`
	SessionToken string              `json:"sessionToken,omitempty"`
	GuessResult  *models.GuessResult `json:"guessResult,omitempty"`
}

type InitRequest struct {
	RoomID        string   `json:"roomId"`
	RoomName      string   `json:"roomName"`
	Mode          string   `json:"mode"`
	MaxPlayers    int      `json:"maxPlayers"`
	Mutators      []string `json:"mutators"`
	WordLength    int      `json:"wordLength"`
	RequestedName string   `json:"requestedName"`
	HostSpectator bool     `json:"hostSpectator"`
}

type JoinRequest struct {
	RequestedName string `json:"requestedName"`
	SessionToken  string `json:"sessionToken"`
}

// ActionRequest is the tagged union for the action route; Type selects the
// operation and decides which other fields matter.
type ActionRequest struct {
	Type         string `json:"type"`
	SessionToken string `json:"sessionToken"`
	Enabled      bool   `json:"enabled"`
	Guess        string `json:"guess"`
}

type Service struct {
	host *actorhost.Host
	pool *words.Pool
}

func NewService(host *actorhost.Host, pool *words.Pool) *Service {
	return &Service{host: host, pool: pool}
}

func loadRoom(st actorhost.Storage) (*models.Room, error) {
	raw, ok, err := st.Get(stateRecord)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var r models.Room
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func saveRoom(st actorhost.Storage, r *models.Room) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return st.Put(stateRecord, raw)
}

func (s *Service) invoke(roomID string, fn func(st actorhost.Storage, r *models.Room) (int, *Response)) (int, *Response) {
	var status int
	var resp *Response
	err := s.host.Do(constants.RoomKey(roomID), func(st actorhost.Storage) error {
		r, err := loadRoom(st)
		if err != nil {
			return err
		}
		status, resp = fn(st, r)
		return nil
	})
	if err != nil {
		util.LogError("Room %s invocation failed: %v", roomID, err)
		return http.StatusInternalServerError, &Response{OK: false, Error: "Room state unavailable."}
	}
	return status, resp
}

func okResponse(r *models.Room, sessionToken string) *Response {
	return &Response{
		OK:          true,
		Version:     constants.Version,
		Room:        game.PublicStateFromRoom(r, sessionToken),
		RoomSummary: game.SummaryFromRoom(r),
	}
}

func notFound() (int, *Response) {
	return http.StatusNotFound, &Response{OK: false, Error: "Room not found.", Code: constants.CodeRoomNotFound}
}

func expired(r *models.Room) (int, *Response) {
	return http.StatusGone, &Response{
		OK:          false,
		Error:       "Room expired due to inactivity.",
		Code:        constants.CodeRoomExpired,
		RoomSummary: game.SummaryFromRoom(r),
	}
}

// expireIfIdle is the lazy idle check run before every operation. The first
// invocation to observe a stale timestamp performs the transition and saves
// it exactly once.
func expireIfIdle(st actorhost.Storage, r *models.Room) (bool, error) {
	if r.Status == constants.StatusExpired {
		return true, nil
	}
	if !game.IsIdleExpired(r.LastActionAt, util.NowMs()) {
		return false, nil
	}
	r.Status = constants.StatusExpired
	if r.FinishedAt == 0 {
		r.FinishedAt = util.NowMs()
	}
	if err := saveRoom(st, r); err != nil {
		return false, err
	}
	return true, nil
}

func usedNames(r *models.Room) map[string]struct{} {
	used := map[string]struct{}{}
	if r == nil {
		return used
	}
	for _, p := range r.Players {
		if p != nil && p.Name != "" {
			used[p.Name] = struct{}{}
		}
	}
	return used
}

// resolveName admits a requested name only when it is an approved campaign
// word, otherwise draws a random one; either way the result is unique within
// the room.
func (s *Service) resolveName(r *models.Room, requestedName string) (string, error) {
	used := usedNames(r)
	requested := game.NormalizeWord(requestedName)
	if requested != "" {
		normalized, valid := s.pool.ValidateCampaignName(requested)
		if !valid {
			return "", errors.New("Name must be an approved campaign word (4-8 letters).")
		}
		return game.MakeUniqueName(normalized, used), nil
	}
	return s.pool.PickRandomCampaignName(used), nil
}

func newPlayer(name, role string, isHost bool) *models.Player {
	now := util.NowMs()
	return &models.Player{
		ID:           util.RandomToken(constants.TokenAlphabet, constants.PlayerIDLength),
		SessionToken: util.RandomToken(constants.TokenAlphabet, constants.SessionTokenLength),
		Name:         name,
		Role:         role,
		IsHost:       isHost,
		JoinedAt:     now,
		LastActionAt: now,
	}
}

// Init creates the room with its host player. Unique per actor instance:
// a second init against the same key conflicts.
func (s *Service) Init(req *InitRequest) (int, *Response) {
	roomID := game.SanitizeRoomID(req.RoomID)
	if roomID == "" {
		return http.StatusBadRequest, &Response{OK: false, Error: "Invalid room id."}
	}

	return s.invoke(roomID, func(st actorhost.Storage, r *models.Room) (int, *Response) {
		if r != nil {
			return http.StatusConflict, &Response{OK: false, Error: "Room already initialized."}
		}

		mode := constants.ModeRanked
		if req.Mode == constants.ModeCustom {
			mode = constants.ModeCustom
		}
		mutators := []string{}
		wordLength := 0
		if mode == constants.ModeCustom {
			mutators = game.SanitizeMutators(req.Mutators)
			wordLength = util.ClampInt(req.WordLength, constants.MinWordLength, constants.MaxWordLength, 0)
		}

		name, err := s.resolveName(nil, req.RequestedName)
		if err != nil {
			return http.StatusBadRequest, &Response{OK: false, Error: err.Error()}
		}

		role := constants.RolePlayer
		if req.HostSpectator {
			role = constants.RoleSpectator
		}
		host := newPlayer(name, role, true)

		now := util.NowMs()
		created := &models.Room{
			ID:           roomID,
			RoomName:     game.SanitizeRoomName(req.RoomName, roomID),
			Mode:         mode,
			MaxPlayers:   util.ClampInt(req.MaxPlayers, constants.MinPlayers, constants.MaxPlayers, constants.DefaultMaxPlayers),
			Mutators:     mutators,
			WordLength:   wordLength,
			Status:       constants.StatusWaiting,
			CreatedAt:    now,
			LastActionAt: now,
			Players:      []*models.Player{host},
		}
		if err := saveRoom(st, created); err != nil {
			return http.StatusInternalServerError, &Response{OK: false, Error: "Failed to persist room."}
		}
		util.LogInfo("Room %s created (mode=%s, maxPlayers=%d, host=%s)", roomID, mode, created.MaxPlayers, name)

		resp := okResponse(created, host.SessionToken)
		resp.SessionToken = host.SessionToken
		return http.StatusOK, resp
	})
}

// Join admits a new player, or treats a known session token as an idempotent
// re-join so reconnects after a dropped poll do not create a second player.
func (s *Service) Join(roomID string, req *JoinRequest) (int, *Response) {
	return s.invoke(roomID, func(st actorhost.Storage, r *models.Room) (int, *Response) {
		if r == nil {
			return notFound()
		}
		if gone, err := expireIfIdle(st, r); err != nil {
			return http.StatusInternalServerError, &Response{OK: false, Error: "Failed to persist room."}
		} else if gone {
			return expired(r)
		}

		if req.SessionToken != "" {
			if existing := game.FindPlayerBySession(r, req.SessionToken); existing != nil {
				resp := okResponse(r, req.SessionToken)
				resp.SessionToken = req.SessionToken
				return http.StatusOK, resp
			}
		}

		if game.ActivePlayerCount(r) >= r.MaxPlayers {
			return http.StatusConflict, &Response{OK: false, Error: "Room is full.", Code: constants.CodeRoomFull}
		}

		name, err := s.resolveName(r, req.RequestedName)
		if err != nil {
			return http.StatusBadRequest, &Response{OK: false, Error: err.Error()}
		}

		player := newPlayer(name, constants.RolePlayer, false)
		r.Players = append(r.Players, player)
		r.LastActionAt = util.NowMs()
		if err := saveRoom(st, r); err != nil {
			return http.StatusInternalServerError, &Response{OK: false, Error: "Failed to persist room."}
		}
		util.LogInfo("Room %s: player %s joined (%d active)", roomID, name, game.ActivePlayerCount(r))

		resp := okResponse(r, player.SessionToken)
		resp.SessionToken = player.SessionToken
		return http.StatusOK, resp
	})
}

// State is the poll read: idle check, then the token-scoped public view.
func (s *Service) State(roomID, sessionToken string) (int, *Response) {
	return s.invoke(roomID, func(st actorhost.Storage, r *models.Room) (int, *Response) {
		if r == nil {
			return notFound()
		}
		if gone, err := expireIfIdle(st, r); err != nil {
			return http.StatusInternalServerError, &Response{OK: false, Error: "Failed to persist room."}
		} else if gone {
			return expired(r)
		}
		return http.StatusOK, okResponse(r, sessionToken)
	})
}

// Action dispatches the mutation union: leave, heartbeat, start,
// host_spectate, guess.
func (s *Service) Action(roomID string, req *ActionRequest) (int, *Response) {
	return s.invoke(roomID, func(st actorhost.Storage, r *models.Room) (int, *Response) {
		if r == nil {
			return notFound()
		}
		if gone, err := expireIfIdle(st, r); err != nil {
			return http.StatusInternalServerError, &Response{OK: false, Error: "Failed to persist room."}
		} else if gone {
			return expired(r)
		}

		if req.Type == "" {
			return http.StatusBadRequest, &Response{OK: false, Error: "Missing action type."}
		}

		player := game.FindPlayerBySession(r, req.SessionToken)

		if req.Type == constants.ActionLeave {
			return s.handleLeave(st, r, player, req.SessionToken)
		}

		if player == nil {
			return http.StatusUnauthorized, &Response{OK: false, Error: "Join the room first."}
		}

		switch req.Type {
		case constants.ActionHeartbeat:
			return s.handleHeartbeat(st, r, player, req.SessionToken)
		case constants.ActionStart:
			return s.handleStart(st, r, player, req.SessionToken)
		case constants.ActionHostSpectate:
			return s.handleHostSpectate(st, r, player, req)
		case constants.ActionGuess:
			return s.handleGuess(st, r, player, req)
		default:
			return http.StatusBadRequest, &Response{OK: false, Error: "Unknown action type."}
		}
	})
}

func (s *Service) handleLeave(st actorhost.Storage, r *models.Room, player *models.Player, sessionToken string) (int, *Response) {
	if player == nil {
		return http.StatusOK, &Response{OK: true, RoomSummary: game.SummaryFromRoom(r)}
	}

	// The host leaving closes the room outright; there is no host handoff.
	if player.IsHost {
		r.Status = constants.StatusExpired
		r.LastActionAt = util.NowMs()
		if err := saveRoom(st, r); err != nil {
			return http.StatusInternalServerError, &Response{OK: false, Error: "Failed to persist room."}
		}
		util.LogInfo("Room %s closed: host left", r.ID)
		return http.StatusGone, &Response{
			OK:          false,
			Error:       "Host left. Room closed.",
			Code:        constants.CodeRoomExpired,
			RoomSummary: game.SummaryFromRoom(r),
		}
	}

	remaining := make([]*models.Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.SessionToken != sessionToken {
			remaining = append(remaining, p)
		}
	}
	r.Players = remaining

	if len(r.Players) == 0 {
		r.Status = constants.StatusExpired
		r.LastActionAt = util.NowMs()
		if err := saveRoom(st, r); err != nil {
			return http.StatusInternalServerError, &Response{OK: false, Error: "Failed to persist room."}
		}
		util.LogInfo("Room %s closed: empty", r.ID)
		return http.StatusGone, &Response{
			OK:          false,
			Error:       "Room closed.",
			Code:        constants.CodeRoomExpired,
			RoomSummary: game.SummaryFromRoom(r),
		}
	}

	r.LastActionAt = util.NowMs()
	if err := saveRoom(st, r); err != nil {
		return http.StatusInternalServerError, &Response{OK: false, Error: "Failed to persist room."}
	}
	return http.StatusOK, okResponse(r, "")
}

// handleHeartbeat only refreshes activity timestamps, keeping the room from
// idle-expiring while a player sits in the lobby.
func (s *Service) handleHeartbeat(st actorhost.Storage, r *models.Room, player *models.Player, sessionToken string) (int, *Response) {
	player.LastActionAt = util.NowMs()
	r.LastActionAt = util.NowMs()
	if err := saveRoom(st, r); err != nil {
		return http.StatusInternalServerError, &Response{OK: false, Error: "Failed to persist room."}
	}
	return http.StatusOK, okResponse(r, sessionToken)
}

func (s *Service) handleStart(st actorhost.Storage, r *models.Room, player *models.Player, sessionToken string) (int, *Response) {
	if !player.IsHost {
		return http.StatusForbidden, &Response{OK: false, Error: "Only host can start."}
	}
	if r.Status != constants.StatusWaiting {
		return http.StatusConflict, &Response{OK: false, Error: "Match already started."}
	}
	if game.ActivePlayerCount(r) == 0 {
		return http.StatusConflict, &Response{OK: false, Error: "Need at least one active player."}
	}

	targetWord := s.pool.PickTargetWord(r.WordLength)
	r.TargetWord = targetWord
	r.WordLength = len(targetWord)
	r.Status = constants.StatusLive
	r.StartedAt = util.NowMs()
	r.FinishedAt = 0
	r.WinnerPlayerID = ""
	for _, p := range r.Players {
		p.GuessCount = 0
		p.LastGuessMask = ""
		p.SolvedAt = 0
	}
	r.LastActionAt = util.NowMs()
	if err := saveRoom(st, r); err != nil {
		return http.StatusInternalServerError, &Response{OK: false, Error: "Failed to persist room."}
	}
	util.LogInfo("Room %s is live (%d letters)", r.ID, r.WordLength)
	return http.StatusOK, okResponse(r, sessionToken)
}

func (s *Service) handleHostSpectate(st actorhost.Storage, r *models.Room, player *models.Player, req *ActionRequest) (int, *Response) {
	if !player.IsHost {
		return http.StatusForbidden, &Response{OK: false, Error: "Only host can toggle this."}
	}
	if r.Status != constants.StatusWaiting {
		return http.StatusConflict, &Response{OK: false, Error: "Can only change host role before start."}
	}

	if req.Enabled && player.Role != constants.RoleSpectator {
		player.Role = constants.RoleSpectator
	} else if !req.Enabled && player.Role != constants.RolePlayer {
		// Switching back to player re-checks capacity.
		if game.ActivePlayerCount(r) >= r.MaxPlayers {
			return http.StatusConflict, &Response{OK: false, Error: "Room is full for active players."}
		}
		player.Role = constants.RolePlayer
	}

	r.LastActionAt = util.NowMs()
	if err := saveRoom(st, r); err != nil {
		return http.StatusInternalServerError, &Response{OK: false, Error: "Failed to persist room."}
	}
	return http.StatusOK, okResponse(r, req.SessionToken)
}

func (s *Service) handleGuess(st actorhost.Storage, r *models.Room, player *models.Player, req *ActionRequest) (int, *Response) {
	if player.Role != constants.RolePlayer {
		return http.StatusConflict, &Response{OK: false, Error: "Spectators cannot submit guesses."}
	}
	if r.Status != constants.StatusLive {
		return http.StatusConflict, &Response{OK: false, Error: "Match is not active."}
	}

	guess := game.NormalizeWord(req.Guess)
	if guess == "" || len(guess) != r.WordLength {
		return http.StatusBadRequest, &Response{
			OK:    false,
			Error: fmt.Sprintf("Guess must be %d letters.", r.WordLength),
		}
	}
	if !s.pool.Contains(guess) {
		return http.StatusBadRequest, &Response{OK: false, Error: "Guess must be an approved campaign word."}
	}

	mask := game.Score(guess, r.TargetWord)
	player.GuessCount++
	player.LastGuessMask = mask
	player.LastActionAt = util.NowMs()

	// First exact match wins; the status re-check keeps a guess from claiming
	// a room that has already transitioned.
	correct := false
	if guess == r.TargetWord && r.Status == constants.StatusLive {
		correct = true
		player.SolvedAt = util.NowMs()
		r.WinnerPlayerID = player.ID
		r.Status = constants.StatusFinished
		r.FinishedAt = util.NowMs()
		util.LogInfo("Room %s finished: %s solved in %d guesses", r.ID, player.Name, player.GuessCount)
	}

	r.LastActionAt = util.NowMs()
	if err := saveRoom(st, r); err != nil {
		return http.StatusInternalServerError, &Response{OK: false, Error: "Failed to persist room."}
	}

	resp := okResponse(r, req.SessionToken)
	resp.GuessResult = &models.GuessResult{Guess: guess, Mask: mask, Correct: correct}
	return http.StatusOK, resp
}
