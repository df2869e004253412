package server

import "time"

func (s *Server) enterBetting(room *Room) {
	room.Phase = phaseBetting
	d := time.Duration(s.cfg.BettingSeconds) * time.Second
	for _, player := range room.Players {
		s.events.ToPlayer(player.ID, eventGameStarted, map[string]any{
			"room_id":   room.ID,
			"phase":     phaseBetting,
			"prompt":    room.PlayerPrompts[player.ID],
			"min_stake": room.MinStake,
			"balance":   player.Balance,
			"seconds":   s.cfg.BettingSeconds,
		})
	}
	s.events.ToRoom(room.ID, eventPhaseChanged, map[string]any{
		"phase":   phaseBetting,
		"seconds": s.cfg.BettingSeconds,
	})
	s.schedulePhase(room, phaseBetting, d)
}

// PlaceBet escrows a player's stake for the current game. The stake is
// deducted from the balance immediately; a rejected bet leaves both the
// balance and the player's bet status untouched.
func (s *Server) PlaceBet(playerID string, amount float64) error {
	roomID, ok := s.registry.RoomForPlayer(playerID)
	if !ok {
		return ErrNotInRoom
	}
	return s.updateRoom(roomID, func(room *Room) error {
		if room.Phase != phaseBetting {
			return ErrWrongPhase
		}
		player, found := room.findPlayer(playerID)
		if !found {
			return ErrUnknownPlayer
		}
		if player.HasBet {
			return ErrDuplicateSubmission
		}
		if amount < float64(room.MinStake) {
			return ErrBelowMinimumStake
		}
		if amount > player.Balance {
			return ErrInsufficientBalance
		}
		player.Balance -= amount
		player.Stake = amount
		player.HasBet = true
		s.events.ToPlayer(playerID, eventBetPlaced, map[string]any{
			"stake":   player.Stake,
			"balance": player.Balance,
		})
		s.log.Info().Str("room_id", roomID).Str("player_id", playerID).
			Float64("stake", amount).Msg("bet placed")
		s.maybeFinishBetting(room)
		return nil
	})
}

func (s *Server) maybeFinishBetting(room *Room) {
	if room.Phase != phaseBetting {
		return
	}
	for _, player := range room.Players {
		if !player.HasBet {
			return
		}
	}
	s.earlyAdvance(room, phaseDrawing, "all players have bet")
}

// applyDefaultStakes escrows the minimum stake for everyone who never
// bet. A player who cannot cover the minimum goes all in with whatever
// balance remains, so balances never go negative.
func (s *Server) applyDefaultStakes(room *Room) {
	for _, player := range room.Players {
		if player.HasBet {
			continue
		}
		stake := float64(room.MinStake)
		if stake > player.Balance {
			stake = player.Balance
		}
		player.Balance -= stake
		player.Stake = stake
		player.HasBet = true
		s.events.ToPlayer(player.ID, eventBetPlaced, map[string]any{
			"stake":   player.Stake,
			"balance": player.Balance,
			"default": true,
		})
	}
}
