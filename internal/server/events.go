package server

// Broadcaster is the transport seam the game logic emits through. The
// websocket hub implements it in production; tests record through it.
type Broadcaster interface {
	ToRoom(roomID, event string, payload any)
	ToPlayer(playerID, event string, payload any)
	ToAll(event string, payload any)
}

// Server -> client event names.
const (
	eventConnected         = "connected"
	eventRoomCreated       = "room_created"
	eventJoinedRoom        = "joined_room"
	eventJoinError         = "join_error"
	eventRoomLeft          = "room_left"
	eventPlayersUpdated    = "players_updated"
	eventRoomListUpdated   = "room_list_updated"
	eventCountdownStarted  = "countdown_started"
	eventCountdownCanceled = "countdown_cancelled"
	eventGameStarted       = "game_started"
	eventPhaseChanged      = "phase_changed"
	eventPhaseTimer        = "phase_timer"
	eventBetPlaced         = "bet_placed"
	eventDrawingSubmitted  = "drawing_submitted"
	eventCopySubmitted     = "copy_submitted"
	eventCopyingPhase      = "copying_phase"
	eventVoteCast          = "vote_cast"
	eventEarlyAdvance      = "early_phase_advance"
	eventVotingRound       = "voting_round"
	eventVotingExcluded    = "voting_round_excluded"
	eventGameResults       = "game_results"
	eventGameEndedEarly    = "game_ended_early"
	eventActionError       = "action_error"
)

func rosterPayload(room *Room) map[string]any {
	players := make([]map[string]any, 0, len(room.Players))
	for _, player := range room.Players {
		players = append(players, map[string]any{
			"id":        player.ID,
			"username":  player.Username,
			"balance":   player.Balance,
			"connected": player.Connected,
		})
	}
	return map[string]any{
		"players": players,
		"count":   len(room.Players),
	}
}
