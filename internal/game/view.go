package game

import (
	"github.com/samber/lo"
	constants "wordshift/internal/constants"
	models "wordshift/internal/models"
)

// ActivePlayerCount counts members holding the player role; spectators do
// not consume capacity.
func ActivePlayerCount(room *models.Room) int {
	return lo.CountBy(room.Players, func(p *models.Player) bool {
		return p.Role == constants.RolePlayer
	})
}

func findHost(room *models.Room) *models.Player {
	host, _ := lo.Find(room.Players, func(p *models.Player) bool { return p.IsHost })
	return host
}

// FindPlayerBySession resolves the member holding the presented bearer token.
func FindPlayerBySession(room *models.Room, sessionToken string) *models.Player {
	if room == nil || sessionToken == "" {
		return nil
	}
	p, _ := lo.Find(room.Players, func(p *models.Player) bool {
		return p.SessionToken == sessionToken
	})
	return p
}

// SummaryFromRoom builds the denormalized listing entry the directory caches.
func SummaryFromRoom(room *models.Room) *models.RoomSummary {
	if room == nil {
		return nil
	}
	host := findHost(room)
	mutators := room.Mutators
	if len(mutators) > constants.MaxMutators {
		mutators = mutators[:constants.MaxMutators]
	}
	return &models.RoomSummary{
		ID:             room.ID,
		RoomName:       room.RoomName,
		Mode:           room.Mode,
		Status:         room.Status,
		MaxPlayers:     room.MaxPlayers,
		PlayerCount:    ActivePlayerCount(room),
		SpectatorCount: len(room.Players) - ActivePlayerCount(room),
		HostSpectating: host != nil && host.Role == constants.RoleSpectator,
		MutatorCount:   len(room.Mutators),
		Mutators:       append([]string{}, mutators...),
		WordLength:     room.WordLength,
		CreatedAt:      room.CreatedAt,
		LastActionAt:   room.LastActionAt,
		TimeoutMs:      constants.RoomIdleTimeout.Milliseconds(),
	}
}

// PublicStateFromRoom builds the client view scoped to sessionToken. The
// target word only appears as Solution once the room has finished.
func PublicStateFromRoom(room *models.Room, sessionToken string) *models.PublicRoom {
	if room == nil {
		return nil
	}
	you := FindPlayerBySession(room, sessionToken)
	host := findHost(room)

	var winner *models.WinnerInfo
	if room.WinnerPlayerID != "" {
		if w, ok := lo.Find(room.Players, func(p *models.Player) bool { return p.ID == room.WinnerPlayerID }); ok {
			winner = &models.WinnerInfo{ID: w.ID, Name: w.Name, At: w.SolvedAt}
		}
	}

	var youInfo *models.YouInfo
	if you != nil {
		youInfo = &models.YouInfo{ID: you.ID, Name: you.Name, Role: you.Role, IsHost: you.IsHost}
	}

	solution := ""
	if room.Status == constants.StatusFinished {
		solution = room.TargetWord
	}

	return &models.PublicRoom{
		ID:            room.ID,
		RoomName:      room.RoomName,
		Mode:          room.Mode,
		Status:        room.Status,
		MaxPlayers:    room.MaxPlayers,
		Mutators:      append([]string{}, room.Mutators...),
		WordLength:    room.WordLength,
		CreatedAt:     room.CreatedAt,
		LastActionAt:  room.LastActionAt,
		StartedAt:     room.StartedAt,
		FinishedAt:    room.FinishedAt,
		IdleExpiresAt: room.LastActionAt + constants.RoomIdleTimeout.Milliseconds(),
		TimeoutMs:     constants.RoomIdleTimeout.Milliseconds(),
		PlayerCount:   ActivePlayerCount(room),
		Players: lo.Map(room.Players, func(p *models.Player, _ int) models.PublicPlayer {
			return models.PublicPlayer{
				ID:            p.ID,
				Name:          p.Name,
				Role:          p.Role,
				IsHost:        p.IsHost,
				GuessCount:    p.GuessCount,
				LastGuessMask: p.LastGuessMask,
				SolvedAt:      p.SolvedAt,
			}
		}),
		Winner: winner,
		CanStart: you != nil && you.IsHost && room.Status == constants.StatusWaiting &&
			ActivePlayerCount(room) > 0,
		You:            youInfo,
		HostSpectating: host != nil && host.Role == constants.RoleSpectator,
		Solution:       solution,
	}
}

// IsIdleExpired reports whether a room or registry entry has been untouched
// for longer than the idle timeout.
func IsIdleExpired(lastActionAt, nowMs int64) bool {
	return lastActionAt == 0 || nowMs-lastActionAt > constants.RoomIdleTimeout.Milliseconds()
}
