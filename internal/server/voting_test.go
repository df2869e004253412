package server

import (
	"bytes"
	"errors"
	"testing"

	"pixel-plagiarist/internal/config"
)

func startVotingGame(t *testing.T, s *Server, players int) (string, []string) {
	t.Helper()
	roomID, ids := startCopyingGame(t, s, players)
	for _, id := range ids {
		for _, target := range copyTargets(t, s, roomID, id) {
			if err := s.SubmitCopy(id, target, inkDrawing(t)); err != nil {
				t.Fatalf("copy %s -> %s: %v", id, target, err)
			}
		}
	}
	if phase := roomPhase(t, s, roomID); phase != phaseVoting {
		t.Fatalf("phase = %q, want voting", phase)
	}
	return roomID, ids
}

func currentVotingSet(t *testing.T, s *Server, roomID string) (int, *DrawingSet) {
	t.Helper()
	index := -1
	var set *DrawingSet
	roomState(t, s, roomID, func(room *Room) {
		index = room.CurrentSet
		set = room.currentSet()
	})
	if set == nil {
		t.Fatal("no active voting set")
	}
	return index, set
}

func eligibleVoterIDs(t *testing.T, s *Server, roomID string) []string {
	t.Helper()
	var ids []string
	roomState(t, s, roomID, func(room *Room) {
		set := room.currentSet()
		if set == nil {
			return
		}
		for _, voter := range room.eligibleVoters(set) {
			ids = append(ids, voter.ID)
		}
	})
	return ids
}

func TestAuthorsCannotVoteOnOwnSet(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	roomID, _ := startVotingGame(t, s, 3)

	_, set := currentVotingSet(t, s, roomID)
	var author string
	for id := range set.setAuthors() {
		author = id
		break
	}

	err := s.SubmitVote(author, set.OriginalID)
	if !errors.Is(err, ErrNotEligible) {
		t.Fatalf("author vote = %v, want ErrNotEligible", err)
	}
}

func TestVoteUnknownDrawingRejected(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	roomID, _ := startVotingGame(t, s, 3)

	voter := eligibleVoterIDs(t, s, roomID)[0]
	err := s.SubmitVote(voter, "original_nobody")
	if !errors.Is(err, ErrUnknownDrawing) {
		t.Fatalf("vote for unknown drawing = %v, want ErrUnknownDrawing", err)
	}
}

func TestVoteIsFinal(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	roomID, _ := startVotingGame(t, s, 5)

	_, set := currentVotingSet(t, s, roomID)
	voters := eligibleVoterIDs(t, s, roomID)
	if len(voters) < 2 {
		t.Fatalf("need 2 eligible voters, have %d", len(voters))
	}

	var copyID string
	for _, drawing := range set.Drawings {
		if drawing.Kind == drawingKindCopy {
			copyID = drawing.ID
			break
		}
	}

	if err := s.SubmitVote(voters[0], set.OriginalID); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	err := s.SubmitVote(voters[0], copyID)
	if !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("revote = %v, want ErrAlreadyVoted", err)
	}
	if recorded := set.Votes[voters[0]]; recorded != set.OriginalID {
		t.Fatalf("vote mutated to %q after rejected revote", recorded)
	}
}

func TestVoteWrongPhase(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	_, ids := startBettingGame(t, s, 10, 3)

	if err := s.SubmitVote(ids[0], "original_p1"); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("vote in betting = %v, want ErrWrongPhase", err)
	}
}

func TestAllVotesAdvanceToNextSet(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	roomID, _ := startVotingGame(t, s, 3)

	first, set := currentVotingSet(t, s, roomID)
	for _, voter := range eligibleVoterIDs(t, s, roomID) {
		if err := s.SubmitVote(voter, set.OriginalID); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}

	next, _ := currentVotingSet(t, s, roomID)
	if next != first+1 {
		t.Fatalf("set cursor = %d, want %d", next, first+1)
	}
	if phase := roomPhase(t, s, roomID); phase != phaseVoting {
		t.Fatalf("phase = %q, want voting with sets remaining", phase)
	}
}

func TestVotingTimeoutAdvancesSet(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	roomID, _ := startVotingGame(t, s, 3)

	first, _ := currentVotingSet(t, s, roomID)
	firePhaseDeadline(t, s, roomID, phaseVoting)

	next, _ := currentVotingSet(t, s, roomID)
	if next != first+1 {
		t.Fatalf("set cursor = %d after timeout, want %d", next, first+1)
	}
}

func TestStaleVotingExpiryDoesNotSkipSet(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	roomID, _ := startVotingGame(t, s, 3)

	first, set := currentVotingSet(t, s, roomID)
	staleEpoch := roomEpoch(t, s, roomID)
	for _, voter := range eligibleVoterIDs(t, s, roomID) {
		if err := s.SubmitVote(voter, set.OriginalID); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}
	next, nextSet := currentVotingSet(t, s, roomID)
	if next != first+1 {
		t.Fatalf("set cursor = %d after early advance, want %d", next, first+1)
	}

	// The first set's deadline firing after the early advance sees the
	// same phase string but a stale epoch; it must not advance again.
	s.phaseExpired(roomID, phaseVoting, staleEpoch)

	after, _ := currentVotingSet(t, s, roomID)
	if after != next {
		t.Fatalf("set cursor = %d after stale expiry, want %d", after, next)
	}
	if len(nextSet.Votes) != 0 {
		t.Fatalf("set %d has %d votes after stale expiry, want 0", next, len(nextSet.Votes))
	}
}

func TestMissingCopyBackfilledWithBlank(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	roomID, ids := startCopyingGame(t, s, 3)

	// Nobody copies; the deadline forces sets to be built from
	// placeholders.
	firePhaseDeadline(t, s, roomID, phaseCopying)

	if phase := roomPhase(t, s, roomID); phase != phaseVoting {
		t.Fatalf("phase = %q, want voting", phase)
	}
	roomState(t, s, roomID, func(room *Room) {
		if len(room.DrawingSets) != len(ids) {
			t.Fatalf("built %d sets, want %d", len(room.DrawingSets), len(ids))
		}
		for _, set := range room.DrawingSets {
			if len(set.Drawings) != 2 {
				t.Fatalf("set %s has %d drawings, want original plus placeholder", set.OriginalID, len(set.Drawings))
			}
			var placeholder *Drawing
			for _, drawing := range set.Drawings {
				if drawing.Kind == drawingKindCopy {
					placeholder = drawing
				}
			}
			if placeholder == nil {
				t.Fatalf("set %s has no backfilled copy", set.OriginalID)
			}
			if !bytes.Equal(placeholder.Payload, blankPNG) {
				t.Error("backfill payload is not the blank canvas")
			}
			if !s.blank.IsBlank(placeholder.Payload) {
				t.Error("blank canvas not detected as blank")
			}
		}
	})
}

func TestVotingRoundsEndInResults(t *testing.T) {
	s, rec := newTestServer(t, config.Default())
	roomID, _ := startVotingGame(t, s, 3)

	for roomPhase(t, s, roomID) == phaseVoting {
		_, set := currentVotingSet(t, s, roomID)
		for _, voter := range eligibleVoterIDs(t, s, roomID) {
			if err := s.SubmitVote(voter, set.OriginalID); err != nil {
				t.Fatalf("vote: %v", err)
			}
		}
	}

	if phase := roomPhase(t, s, roomID); phase != phaseResults {
		t.Fatalf("phase = %q, want results", phase)
	}
	if rec.count("room:"+roomID, eventGameResults) != 1 {
		t.Fatal("game_results not broadcast exactly once")
	}
	roomState(t, s, roomID, func(room *Room) {
		if room.Settlement == nil {
			t.Fatal("no settlement recorded")
		}
	})
}
