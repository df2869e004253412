package server

import (
	"time"

	"pixel-plagiarist/internal/db"
)

// updateRoom runs fn with the room's lock held. Every mutation of room
// state, including the decision to transition phase, happens inside one
// of these critical sections. Timer scheduling and cancellation also
// happen under the lock so a transition decision and its deadline are
// atomic.
func (s *Server) updateRoom(roomID string, fn func(room *Room) error) error {
	room, ok := s.registry.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	return fn(room)
}

// phaseExits maps each timed phase to its exit routine. Both triggers
// for an exit, timer expiry and early completion, funnel through this
// table with the room lock held and the current phase re-validated.
// Populated in init: the exit routines call back into earlyAdvance, so
// a var initializer would form an initialization cycle.
var phaseExits map[string]func(*Server, *Room)

func init() {
	phaseExits = map[string]func(*Server, *Room){
		phaseBetting: func(s *Server, room *Room) { s.enterDrawing(room) },
		phaseDrawing: func(s *Server, room *Room) { s.enterCopying(room) },
		phaseCopying: func(s *Server, room *Room) { s.enterVoting(room) },
		phaseVoting:  func(s *Server, room *Room) { s.advanceVotingSet(room) },
	}
}

// schedulePhase arms the room's deadline for the phase it is currently
// in. Called with the room lock held.
func (s *Server) schedulePhase(room *Room, expected string, d time.Duration) {
	now := s.now()
	room.PhaseStartedAt = now
	room.PhaseEndsAt = now.Add(d)
	room.timerEpoch++
	epoch := room.timerEpoch
	roomID := room.ID
	s.timers.Schedule(roomID, d, func() {
		s.phaseExpired(roomID, expected, epoch)
	})
	s.events.ToRoom(roomID, eventPhaseTimer, map[string]any{
		"phase":   expected,
		"seconds": int(d.Seconds()),
	})
}

// phaseExpired is the deadline trigger. The scheduler's generation
// token stops superseded timers, but a callback that claimed liveness
// just before Cancel can still arrive here late; the epoch comparison
// rejects it even when the phase string matches, which matters on the
// voting set -> set edge.
func (s *Server) phaseExpired(roomID, expected string, epoch uint64) {
	err := s.updateRoom(roomID, func(room *Room) error {
		if room.Phase != expected || room.timerEpoch != epoch {
			return nil
		}
		exit, ok := phaseExits[expected]
		if !ok {
			return nil
		}
		s.log.Info().Str("room_id", roomID).Str("phase", expected).Msg("phase deadline reached")
		exit(s, room)
		return nil
	})
	if err != nil {
		s.log.Warn().Str("room_id", roomID).Err(err).Msg("phase expiry on missing room")
	}
}

// earlyAdvance exits the current phase before its deadline. Called with
// the room lock held, after the caller verified the completion
// condition. The timer is cancelled before any exit side effect runs.
func (s *Server) earlyAdvance(room *Room, nextPhase, reason string) {
	exit, ok := phaseExits[room.Phase]
	if !ok {
		return
	}
	s.timers.Cancel(room.ID)
	s.events.ToRoom(room.ID, eventEarlyAdvance, map[string]any{
		"next_phase": nextPhase,
		"reason":     reason,
	})
	s.log.Info().Str("room_id", room.ID).Str("phase", room.Phase).Str("reason", reason).
		Msg("advancing phase early")
	exit(s, room)
}

// CreateRoom opens a new room at the given stake and joins the creator
// to it.
func (s *Server) CreateRoom(playerID, username string, minStake int) (string, error) {
	name, err := validateUsername(username)
	if err != nil {
		return "", err
	}
	if minStake <= 0 {
		minStake = s.cfg.StakeTiers[0]
	}
	room := s.registry.CreateRoom(minStake)
	if err := s.JoinRoom(room.ID, playerID, name); err != nil {
		s.registry.Remove(room.ID)
		return "", err
	}
	s.log.Info().Str("room_id", room.ID).Str("player_id", playerID).Int("min_stake", minStake).
		Msg("room created")
	return room.ID, nil
}

// JoinRoom adds a player to a waiting room. Reaching min_players starts
// the join countdown; reaching max_players starts the game immediately.
// A late joiner arriving mid-countdown is sent the remaining time, not
// a fresh countdown.
func (s *Server) JoinRoom(roomID, playerID, username string) error {
	name, err := validateUsername(username)
	if err != nil {
		return err
	}
	// One roster per player. Rejoining the same room (reconnect) is
	// fine; anything else must go through leave_room first.
	if tracked, ok := s.registry.RoomForPlayer(playerID); ok && tracked != roomID {
		return ErrAlreadyInRoom
	}

	balance := s.cfg.InitialBalance
	if record, err := db.GetOrCreatePlayer(s.db, playerID, name, s.cfg.InitialBalance); err != nil {
		s.log.Warn().Str("player_id", playerID).Err(err).Msg("player lookup failed")
	} else if record != nil {
		balance = record.Balance
	}

	started := false
	err = s.updateRoom(roomID, func(room *Room) error {
		if player, ok := room.findPlayer(playerID); ok {
			player.Connected = true
			s.events.ToRoom(room.ID, eventPlayersUpdated, rosterPayload(room))
			return nil
		}
		if room.Phase != phaseWaiting {
			return ErrWrongPhase
		}
		if len(room.Players) >= room.MaxPlayers {
			return ErrRoomFull
		}
		player := &Player{
			ID:        playerID,
			Username:  name,
			Balance:   balance,
			Connected: true,
			JoinedAt:  s.now(),
		}
		room.Players = append(room.Players, player)
		s.events.ToPlayer(playerID, eventJoinedRoom, map[string]any{
			"room_id":   room.ID,
			"player_id": playerID,
			"username":  name,
			"min_stake": room.MinStake,
			"phase":     room.Phase,
			"players":   rosterPayload(room)["players"],
		})
		s.events.ToRoom(room.ID, eventPlayersUpdated, rosterPayload(room))

		if len(room.Players) >= room.MaxPlayers {
			s.beginGame(room)
			started = true
			return nil
		}
		if len(room.Players) >= room.MinPlayers {
			if room.CountdownStartedAt.IsZero() {
				s.startCountdown(room)
			} else if remaining := room.CountdownEndsAt.Sub(s.now()); remaining > 0 {
				s.events.ToPlayer(playerID, eventCountdownStarted, map[string]any{
					"seconds": int(remaining.Seconds()),
				})
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.registry.TrackPlayer(playerID, roomID)
	if started {
		s.openRoomsChanged()
	}
	s.broadcastRoomList()
	return nil
}

// LeaveRoom removes a player voluntarily. Only honored while the room
// is waiting or showing results.
func (s *Server) LeaveRoom(playerID string) error {
	roomID, ok := s.registry.RoomForPlayer(playerID)
	if !ok {
		return ErrNotInRoom
	}
	empty := false
	err := s.updateRoom(roomID, func(room *Room) error {
		if room.Phase != phaseWaiting && room.Phase != phaseResults {
			return ErrCannotLeaveNow
		}
		player, found := room.removePlayerFromRoster(playerID)
		if !found {
			return ErrUnknownPlayer
		}
		s.log.Info().Str("room_id", roomID).Str("player_id", playerID).
			Str("username", player.Username).Msg("player left room")
		s.events.ToPlayer(playerID, eventRoomLeft, map[string]any{"room_id": roomID})
		if len(room.Players) == 0 {
			empty = true
			return nil
		}
		s.events.ToRoom(room.ID, eventPlayersUpdated, rosterPayload(room))
		if room.Phase == phaseWaiting && len(room.Players) < room.MinPlayers {
			s.cancelCountdown(room)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.registry.UntrackPlayer(playerID)
	if empty {
		s.timers.Cancel(roomID)
		s.registry.Remove(roomID)
		s.openRoomsChanged()
	}
	s.broadcastRoomList()
	return nil
}

// Disconnect handles a dropped connection. During waiting or terminal
// phases it behaves like leaving; mid-game it removes the player,
// discards their in-flight submission state for the current phase, and
// either ends the game early (roster below minimum) or re-checks the
// phase's completion condition against the shrunken roster.
func (s *Server) Disconnect(playerID string) {
	roomID, ok := s.registry.RoomForPlayer(playerID)
	if !ok {
		return
	}
	empty := false
	err := s.updateRoom(roomID, func(room *Room) error {
		if !room.inProgress() {
			player, found := room.removePlayerFromRoster(playerID)
			if !found {
				return nil
			}
			s.log.Info().Str("room_id", roomID).Str("player_id", playerID).
				Str("username", player.Username).Msg("player disconnected from idle room")
			if len(room.Players) == 0 {
				empty = true
				return nil
			}
			s.events.ToRoom(room.ID, eventPlayersUpdated, rosterPayload(room))
			if room.Phase == phaseWaiting && len(room.Players) < room.MinPlayers {
				s.cancelCountdown(room)
			}
			return nil
		}

		player, found := room.removePlayerFromRoster(playerID)
		if !found {
			return nil
		}
		s.discardInFlightState(room, playerID)
		s.log.Info().Str("room_id", roomID).Str("player_id", playerID).
			Str("username", player.Username).Str("phase", room.Phase).
			Msg("player disconnected mid-game")
		s.events.ToRoom(room.ID, eventPlayersUpdated, rosterPayload(room))

		if len(room.Players) < room.MinPlayers {
			s.endGameEarly(room, "insufficient players")
			return nil
		}
		s.checkEarlyAdvance(room)
		return nil
	})
	if err != nil {
		return
	}

	s.registry.UntrackPlayer(playerID)
	if empty {
		s.timers.Cancel(roomID)
		s.registry.Remove(roomID)
		s.openRoomsChanged()
	}
	s.broadcastRoomList()
}

// discardInFlightState drops submission state the departed player left
// in the current phase. Completed earlier phases are left alone: built
// drawing sets keep their entries so voting stays coherent.
func (s *Server) discardInFlightState(room *Room, playerID string) {
	switch room.Phase {
	case phaseBetting, phaseDrawing:
		delete(room.OriginalDrawings, playerID)
	case phaseCopying:
		delete(room.CopiedDrawings, playerID)
		delete(room.CopyAssignments, playerID)
	case phaseVoting:
		if set := room.currentSet(); set != nil {
			delete(set.Votes, playerID)
		}
	}
}

// checkEarlyAdvance re-evaluates the current phase's completion
// condition. Called with the room lock held after roster shrinkage.
func (s *Server) checkEarlyAdvance(room *Room) {
	switch room.Phase {
	case phaseBetting:
		s.maybeFinishBetting(room)
	case phaseDrawing:
		s.maybeFinishDrawing(room)
	case phaseCopying:
		s.maybeFinishCopying(room)
	case phaseVoting:
		s.maybeFinishVotingSet(room)
	}
}

func (s *Server) startCountdown(room *Room) {
	d := time.Duration(s.cfg.CountdownSeconds) * time.Second
	now := s.now()
	room.CountdownStartedAt = now
	room.CountdownEndsAt = now.Add(d)
	room.timerEpoch++
	epoch := room.timerEpoch
	roomID := room.ID
	s.timers.Schedule(roomID, d, func() {
		s.countdownExpired(roomID, epoch)
	})
	s.events.ToRoom(roomID, eventCountdownStarted, map[string]any{
		"seconds": s.cfg.CountdownSeconds,
	})
	s.log.Info().Str("room_id", roomID).Int("seconds", s.cfg.CountdownSeconds).
		Msg("join countdown started")
}

func (s *Server) cancelCountdown(room *Room) {
	if room.CountdownStartedAt.IsZero() {
		return
	}
	s.timers.Cancel(room.ID)
	room.timerEpoch++
	room.CountdownStartedAt = time.Time{}
	room.CountdownEndsAt = time.Time{}
	s.events.ToRoom(room.ID, eventCountdownCanceled, map[string]any{
		"message": "countdown cancelled, waiting for more players",
	})
	s.log.Info().Str("room_id", room.ID).Msg("join countdown cancelled")
}

func (s *Server) countdownExpired(roomID string, epoch uint64) {
	started := false
	err := s.updateRoom(roomID, func(room *Room) error {
		if room.Phase != phaseWaiting || room.timerEpoch != epoch {
			return nil
		}
		room.CountdownStartedAt = time.Time{}
		room.CountdownEndsAt = time.Time{}
		if len(room.Players) < room.MinPlayers {
			return nil
		}
		s.beginGame(room)
		started = true
		return nil
	})
	if err != nil {
		return
	}
	if started {
		s.openRoomsChanged()
		s.broadcastRoomList()
	}
}

// beginGame moves the room out of waiting. Called with the room lock
// held; idempotent against a racing countdown expiry.
func (s *Server) beginGame(room *Room) {
	if room.Phase != phaseWaiting {
		return
	}
	s.timers.Cancel(room.ID)
	room.CountdownStartedAt = time.Time{}
	room.CountdownEndsAt = time.Time{}
	for _, player := range room.Players {
		player.BalanceBefore = player.Balance
		player.Stake = 0
		player.HasBet = false
	}
	s.assignPrompts(room)
	s.log.Info().Str("room_id", room.ID).Int("player_count", len(room.Players)).
		Msg("game started")
	s.enterBetting(room)
}

// endGameEarly terminates a game whose roster fell below minimum. Each
// remaining player's escrowed stake is returned exactly once. Called
// with the room lock held.
func (s *Server) endGameEarly(room *Room, reason string) {
	if room.Phase == phaseEndedEarly {
		return
	}
	s.timers.Cancel(room.ID)
	room.Phase = phaseEndedEarly
	finalBalances := make(map[string]float64, len(room.Players))
	for _, player := range room.Players {
		player.Balance += player.Stake
		player.Stake = 0
		finalBalances[player.ID] = player.Balance
	}
	s.events.ToRoom(room.ID, eventGameEndedEarly, map[string]any{
		"reason":        reason,
		"final_balance": finalBalances,
	})
	s.log.Info().Str("room_id", room.ID).Str("reason", reason).
		Int("players_remaining", len(room.Players)).Msg("game ended early")
	go s.persistBalances(snapshotBalances(room))
}

// openRoomsChanged restores the open-room invariant after a room left
// the waiting phase or was removed.
func (s *Server) openRoomsChanged() {
	for _, room := range s.registry.EnsureOpenRooms() {
		s.log.Info().Str("room_id", room.ID).Int("min_stake", room.MinStake).
			Msg("opened replacement room")
	}
}

func (s *Server) broadcastRoomList() {
	s.events.ToAll(eventRoomListUpdated, map[string]any{
		"rooms": s.registry.ListWaitingRooms(),
	})
}
