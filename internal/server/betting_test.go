package server

import (
	"errors"
	"testing"

	"pixel-plagiarist/internal/config"
)

func startBettingGame(t *testing.T, s *Server, minStake, players int) (string, []string) {
	t.Helper()
	roomID := waitingRoom(t, s, minStake)
	ids := joinPlayers(t, s, roomID, players)
	fireCountdown(t, s, roomID)
	if phase := roomPhase(t, s, roomID); phase != phaseBetting {
		t.Fatalf("phase = %q, want betting", phase)
	}
	return roomID, ids
}

func TestPlaceBetEscrowsStake(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	roomID, ids := startBettingGame(t, s, 10, 3)

	if err := s.PlaceBet(ids[0], 25); err != nil {
		t.Fatalf("bet: %v", err)
	}

	roomState(t, s, roomID, func(room *Room) {
		player, _ := room.findPlayer(ids[0])
		if player.Stake != 25 {
			t.Errorf("stake = %.2f, want 25", player.Stake)
		}
		if player.Balance != 75 {
			t.Errorf("balance = %.2f, want 75", player.Balance)
		}
		if !player.HasBet {
			t.Error("player not marked as having bet")
		}
	})
}

func TestPlaceBetRejectionsLeaveBalanceUntouched(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	roomID, ids := startBettingGame(t, s, 10, 3)

	cases := []struct {
		name   string
		amount float64
		want   error
	}{
		{"below minimum", 5, ErrBelowMinimumStake},
		{"over balance", 500, ErrInsufficientBalance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := s.PlaceBet(ids[0], tc.amount); !errors.Is(err, tc.want) {
				t.Fatalf("bet %.0f = %v, want %v", tc.amount, err, tc.want)
			}
			roomState(t, s, roomID, func(room *Room) {
				player, _ := room.findPlayer(ids[0])
				if player.Balance != 100 || player.Stake != 0 || player.HasBet {
					t.Fatalf("rejected bet mutated player: balance=%.2f stake=%.2f hasBet=%v",
						player.Balance, player.Stake, player.HasBet)
				}
			})
		})
	}
}

func TestPlaceBetDuplicateRejected(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	roomID, ids := startBettingGame(t, s, 10, 3)

	if err := s.PlaceBet(ids[0], 10); err != nil {
		t.Fatalf("first bet: %v", err)
	}
	if err := s.PlaceBet(ids[0], 20); !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("second bet = %v, want ErrDuplicateSubmission", err)
	}
	roomState(t, s, roomID, func(room *Room) {
		player, _ := room.findPlayer(ids[0])
		if player.Stake != 10 || player.Balance != 90 {
			t.Fatalf("second bet mutated escrow: stake=%.2f balance=%.2f", player.Stake, player.Balance)
		}
	})
}

func TestPlaceBetWrongPhase(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	roomID := waitingRoom(t, s, 10)
	ids := joinPlayers(t, s, roomID, 2)

	if err := s.PlaceBet(ids[0], 10); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("bet while waiting = %v, want ErrWrongPhase", err)
	}
}

func TestAllBetsAdvanceToDrawing(t *testing.T) {
	s, rec := newTestServer(t, config.Default())
	roomID, ids := startBettingGame(t, s, 10, 3)

	for _, id := range ids {
		if err := s.PlaceBet(id, 10); err != nil {
			t.Fatalf("bet %s: %v", id, err)
		}
	}

	if phase := roomPhase(t, s, roomID); phase != phaseDrawing {
		t.Fatalf("phase = %q, want drawing", phase)
	}
	if rec.count("room:"+roomID, eventEarlyAdvance) != 1 {
		t.Fatal("early advance not announced")
	}
}

func TestDefaultStakesAppliedOnTimeout(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	roomID, ids := startBettingGame(t, s, 10, 3)

	if err := s.PlaceBet(ids[0], 30); err != nil {
		t.Fatalf("bet: %v", err)
	}

	firePhaseDeadline(t, s, roomID, phaseBetting)

	if phase := roomPhase(t, s, roomID); phase != phaseDrawing {
		t.Fatalf("phase = %q, want drawing", phase)
	}
	roomState(t, s, roomID, func(room *Room) {
		for _, id := range ids[1:] {
			player, _ := room.findPlayer(id)
			if player.Stake != 10 {
				t.Errorf("player %s default stake = %.2f, want 10", id, player.Stake)
			}
			if player.Balance != 90 {
				t.Errorf("player %s balance = %.2f, want 90", id, player.Balance)
			}
		}
	})
}
