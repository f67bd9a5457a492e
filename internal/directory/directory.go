// Package directory implements the single process-wide directory actor: the
// room registry used for listing, the anti-abuse gate in front of create and
// join, room id allocation, and proxying of per-room calls to the addressed
// room actor. The registry is a best-effort cache rebuilt from proxied
// responses; the room actors stay the source of truth.
package directory

import (
	"encoding/json"
	"net/http"
	"sort"

	actorhost "wordshift/internal/actorhost"
	constants "wordshift/internal/constants"
	game "wordshift/internal/game"
	models "wordshift/internal/models"
	room "wordshift/internal/room"
	util "wordshift/internal/util"
	words "wordshift/internal/words"
)

const registryRecord = "registry_v1"

type registry struct {
	Rooms      map[string]*models.RoomSummary    `json:"rooms"`
	Challenges map[string]*models.ChallengeEntry `json:"challenges"`
}

type Service struct {
	host     *actorhost.Host
	rooms    *room.Service
	pool     *words.Pool
	verifier Verifier
}

func NewService(host *actorhost.Host, rooms *room.Service, pool *words.Pool, verifier Verifier) *Service {
	return &Service{host: host, rooms: rooms, pool: pool, verifier: verifier}
}

type ListResponse struct {
	OK        bool                  `json:"ok"`
	Version   string                `json:"version"`
	TimeoutMs int64                 `json:"timeoutMs"`
	Rooms     []*models.RoomSummary `json:"rooms"`
	Now       int64                 `json:"now"`
}

type ChallengeResponse struct {
	OK bool `json:"ok"`
	*models.ChallengeInfo
}

type NameValidateResponse struct {
	OK         bool   `json:"ok"`
	Normalized string `json:"normalized"`
	Valid      bool   `json:"valid"`
}

type EnterResponse struct {
	OK           bool               `json:"ok"`
	RoomID       string             `json:"roomId"`
	SessionToken string             `json:"sessionToken"`
	Room         *models.PublicRoom `json:"room"`
}

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type CreateRequest struct {
	Name          string                `json:"name"`
	RoomName      string                `json:"roomName"`
	Mode          string                `json:"mode"`
	MaxPlayers    int                   `json:"maxPlayers"`
	Mutators      []string              `json:"mutators"`
	WordLength    int                   `json:"wordLength"`
	HostSpectator bool                  `json:"hostSpectator"`
	Proof         models.ChallengeProof `json:"-"`
}

type JoinRequest struct {
	RoomID       string                `json:"roomId"`
	Name         string                `json:"name"`
	SessionToken string                `json:"sessionToken"`
	Proof        models.ChallengeProof `json:"-"`
}

func loadRegistry(st actorhost.Storage) (*registry, error) {
	reg := &registry{
		Rooms:      map[string]*models.RoomSummary{},
		Challenges: map[string]*models.ChallengeEntry{},
	}
	raw, ok, err := st.Get(registryRecord)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := json.Unmarshal(raw, reg); err != nil {
			return nil, err
		}
		if reg.Rooms == nil {
			reg.Rooms = map[string]*models.RoomSummary{}
		}
		if reg.Challenges == nil {
			reg.Challenges = map[string]*models.ChallengeEntry{}
		}
	}
	return reg, nil
}

func saveRegistry(st actorhost.Storage, reg *registry) error {
	raw, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	return st.Put(registryRecord, raw)
}

// invoke runs fn as the directory actor's single in-flight invocation,
// pruning the registry first and persisting it afterwards.
func (s *Service) invoke(fn func(reg *registry) (int, any)) (int, any) {
	var status int
	var body any
	err := s.host.Do(constants.DirectoryKey, func(st actorhost.Storage) error {
		reg, err := loadRegistry(st)
		if err != nil {
			return err
		}
		cleanupRegistry(reg)
		status, body = fn(reg)
		return saveRegistry(st, reg)
	})
	if err != nil {
		util.LogError("Directory invocation failed: %v", err)
		return http.StatusInternalServerError, &ErrorResponse{Error: "Directory unavailable."}
	}
	return status, body
}

// cleanupRegistry is the lazy sweep run on every inbound call: expired or
// idle room summaries go away, the challenge table is TTL-expired and
// bounded oldest-first.
func cleanupRegistry(reg *registry) {
	now := util.NowMs()

	if len(reg.Challenges) > constants.ChallengeLimit {
		type aged struct {
			id        string
			createdAt int64
		}
		ordered := make([]aged, 0, len(reg.Challenges))
		for id, entry := range reg.Challenges {
			ordered = append(ordered, aged{id: id, createdAt: entry.CreatedAt})
		}
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].createdAt < ordered[j].createdAt })
		for i := 0; i < len(ordered)-constants.ChallengeLimit; i++ {
			delete(reg.Challenges, ordered[i].id)
		}
	}
	for id, entry := range reg.Challenges {
		if entry == nil || now > entry.ExpiresAt {
			delete(reg.Challenges, id)
		}
	}

	for roomID, meta := range reg.Rooms {
		if meta == nil || meta.Status == constants.StatusExpired || game.IsIdleExpired(meta.LastActionAt, now) {
			delete(reg.Rooms, roomID)
		}
	}
}

// updateRoomMeta refreshes or evicts the cached summary based on a proxied
// response: gone/expired signals evict, a fresh summary replaces.
func updateRoomMeta(reg *registry, roomID string, status int, resp *room.Response) {
	if status == http.StatusGone || status == http.StatusNotFound ||
		(resp != nil && (resp.Code == constants.CodeRoomExpired || resp.Code == constants.CodeRoomNotFound)) {
		delete(reg.Rooms, roomID)
		return
	}
	if resp != nil && resp.RoomSummary != nil {
		reg.Rooms[roomID] = resp.RoomSummary
	}
}

// allocateRoomID draws fresh ids until one is unused in the registry;
// exhausting the retry budget is a capacity condition, never a reuse.
func allocateRoomID(reg *registry) string {
	for i := 0; i < constants.RoomIDAllocRetries; i++ {
		id := util.RandomToken(constants.RoomIDAlphabet, constants.RoomIDLength)
		if _, taken := reg.Rooms[id]; !taken {
			return id
		}
	}
	return ""
}

// List returns up to the listing cap of live summaries, most recently active
// first.
func (s *Service) List() (int, any) {
	return s.invoke(func(reg *registry) (int, any) {
		summaries := make([]*models.RoomSummary, 0, len(reg.Rooms))
		for _, meta := range reg.Rooms {
			if meta != nil {
				summaries = append(summaries, meta)
			}
		}
		sort.Slice(summaries, func(i, j int) bool {
			return summaries[i].LastActionAt > summaries[j].LastActionAt
		})
		if len(summaries) > constants.ListLimit {
			summaries = summaries[:constants.ListLimit]
		}
		return http.StatusOK, &ListResponse{
			OK:        true,
			Version:   constants.Version,
			TimeoutMs: constants.RoomIdleTimeout.Milliseconds(),
			Rooms:     summaries,
			Now:       util.NowMs(),
		}
	})
}

// IssueChallenge mints a new gate challenge. With the externally-verified
// strategy there is nothing to issue and the response says so.
func (s *Service) IssueChallenge() (int, any) {
	return s.invoke(func(reg *registry) (int, any) {
		info := s.verifier.Issue(reg.Challenges)
		if info == nil {
			return http.StatusOK, &ChallengeResponse{OK: true}
		}
		return http.StatusOK, &ChallengeResponse{OK: true, ChallengeInfo: info}
	})
}

// ValidateName is a pure read against the approved pool; it never touches
// directory state.
func (s *Service) ValidateName(name string) (int, any) {
	normalized, valid := s.pool.ValidateCampaignName(name)
	return http.StatusOK, &NameValidateResponse{OK: true, Normalized: normalized, Valid: valid}
}

// Create consumes the gate, allocates a fresh room id and performs init
// against the new room actor, caching the returned summary on success.
func (s *Service) Create(req *CreateRequest) (int, any) {
	return s.invoke(func(reg *registry) (int, any) {
		if gateErr := s.verifier.Check(reg.Challenges, req.Proof); gateErr != nil {
			return gateErr.Status, &ErrorResponse{Error: gateErr.Message, Code: gateErr.Code}
		}

		roomID := allocateRoomID(reg)
		if roomID == "" {
			return http.StatusServiceUnavailable, &ErrorResponse{Error: "Unable to allocate room id. Retry shortly."}
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

		status, resp := s.rooms.Init(&room.InitRequest{
			RoomID:        roomID,
			RoomName:      game.SanitizeRoomName(req.RoomName, roomID),
			Mode:          mode,
			MaxPlayers:    util.ClampInt(req.MaxPlayers, constants.MinPlayers, constants.MaxPlayers, constants.DefaultMaxPlayers),
			Mutators:      mutators,
			WordLength:    wordLength,
			RequestedName: req.Name,
			HostSpectator: req.HostSpectator,
		})
		if status != http.StatusOK || resp == nil || !resp.OK {
			if resp == nil {
				return http.StatusInternalServerError, &ErrorResponse{Error: "Failed to create room."}
			}
			return status, resp
		}

		if resp.RoomSummary != nil {
			reg.Rooms[roomID] = resp.RoomSummary
		}
		return http.StatusOK, &EnterResponse{
			OK:           true,
			RoomID:       roomID,
			SessionToken: resp.SessionToken,
			Room:         resp.Room,
		}
	})
}

// Join consumes the gate and forwards to the addressed room actor, evicting
// or refreshing the cached summary based on the response.
func (s *Service) Join(req *JoinRequest) (int, any) {
	return s.invoke(func(reg *registry) (int, any) {
		if gateErr := s.verifier.Check(reg.Challenges, req.Proof); gateErr != nil {
			return gateErr.Status, &ErrorResponse{Error: gateErr.Message, Code: gateErr.Code}
		}

		roomID := game.SanitizeRoomID(req.RoomID)
		if roomID == "" {
			return http.StatusBadRequest, &ErrorResponse{Error: "Invalid room id."}
		}

		status, resp := s.rooms.Join(roomID, &room.JoinRequest{
			RequestedName: req.Name,
			SessionToken:  req.SessionToken,
		})
		updateRoomMeta(reg, roomID, status, resp)

		if status != http.StatusOK || resp == nil || !resp.OK {
			if resp == nil {
				return http.StatusInternalServerError, &ErrorResponse{Error: "Join failed."}
			}
			return status, resp
		}
		return http.StatusOK, &EnterResponse{
			OK:           true,
			RoomID:       roomID,
			SessionToken: resp.SessionToken,
			Room:         resp.Room,
		}
	})
}

// RoomState proxies the poll read, keeping the cached summary in sync.
func (s *Service) RoomState(rawRoomID, sessionToken string) (int, any) {
	roomID := game.SanitizeRoomID(rawRoomID)
	if roomID == "" {
		return http.StatusNotFound, &ErrorResponse{Error: "Unknown route"}
	}
	return s.invoke(func(reg *registry) (int, any) {
		status, resp := s.rooms.State(roomID, sessionToken)
		updateRoomMeta(reg, roomID, status, resp)
		if resp == nil {
			return http.StatusInternalServerError, &ErrorResponse{Error: "Room state unavailable."}
		}
		return status, resp
	})
}

// RoomAction proxies a session-scoped mutation, keeping the cached summary
// in sync.
func (s *Service) RoomAction(rawRoomID string, req *room.ActionRequest) (int, any) {
	roomID := game.SanitizeRoomID(rawRoomID)
	if roomID == "" {
		return http.StatusNotFound, &ErrorResponse{Error: "Unknown route"}
	}
	return s.invoke(func(reg *registry) (int, any) {
		status, resp := s.rooms.Action(roomID, req)
		updateRoomMeta(reg, roomID, status, resp)
		if resp == nil {
			return http.StatusInternalServerError, &ErrorResponse{Error: "Room action failed."}
		}
		return status, resp
	})
}
