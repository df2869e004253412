package server

import (
	"pixel-plagiarist/internal/db"
)

// Persistence is best effort throughout: a nil or failing database
// never blocks game flow, it only costs history.

type balanceUpdate struct {
	playerID string
	balance  float64
}

// snapshotBalances copies the roster's balances while the room lock is
// held, so the write happens off the hot path on plain values.
func snapshotBalances(room *Room) []balanceUpdate {
	updates := make([]balanceUpdate, 0, len(room.Players))
	for _, player := range room.Players {
		updates = append(updates, balanceUpdate{playerID: player.ID, balance: player.Balance})
	}
	return updates
}

func (s *Server) persistBalances(updates []balanceUpdate) {
	for _, update := range updates {
		if err := db.UpdatePlayerBalance(s.db, update.playerID, update.balance); err != nil {
			s.log.Warn().Str("player_id", update.playerID).Err(err).
				Msg("balance persistence failed")
		}
	}
}

// snapshotOutcomes builds the per-player history rows for a settled
// game. Called with the room lock held, before stakes are cleared.
func snapshotOutcomes(room *Room) []db.GameOutcome {
	outcomes := make([]db.GameOutcome, 0, len(room.Players))
	for _, player := range room.Players {
		originals := 0
		if _, ok := room.OriginalDrawings[player.ID]; ok {
			originals = 1
		}
		points := 0.0
		if room.Settlement != nil {
			points = room.Settlement.Points[player.ID]
		}
		outcomes = append(outcomes, db.GameOutcome{
			RoomID:         room.ID,
			PlayerID:       player.ID,
			Username:       player.Username,
			BalanceBefore:  player.BalanceBefore,
			BalanceAfter:   player.Balance,
			Stake:          player.Stake,
			PointsEarned:   int(points),
			OriginalsDrawn: originals,
			CopiesMade:     player.CompletedCopies,
			VotesCast:      player.VotesCast,
			CorrectVotes:   player.CorrectVotes,
			Settlement:     room.Settlement,
		})
	}
	return outcomes
}

func (s *Server) persistResults(outcomes []db.GameOutcome) {
	for _, outcome := range outcomes {
		if err := db.RecordGameCompletion(s.db, outcome); err != nil {
			s.log.Warn().Str("player_id", outcome.PlayerID).Str("room_id", outcome.RoomID).
				Err(err).Msg("game history persistence failed")
		}
	}
}
