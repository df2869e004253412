package server

import (
	"sort"
	"time"
)

func (s *Server) enterVoting(room *Room) {
	room.Phase = phaseVoting
	if !room.setsBuilt {
		s.buildDrawingSets(room)
		room.setsBuilt = true
		room.CurrentSet = 0
	}
	s.startVotingSet(room)
}

// buildDrawingSets assembles one set per submitted original: the
// original plus every copy of it. A copier who never delivered an
// assigned copy is represented by a blank placeholder so the set size
// matches the assignment count. Originals are never substituted; a set
// only exists because its original was submitted. The stored order is
// shuffled so the original's position carries no signal; nothing may
// assume the original sits at a fixed index.
func (s *Server) buildDrawingSets(room *Room) {
	authorIDs := make([]string, 0, len(room.OriginalDrawings))
	seen := make(map[string]struct{}, len(room.OriginalDrawings))
	for _, player := range room.Players {
		if _, ok := room.OriginalDrawings[player.ID]; ok {
			authorIDs = append(authorIDs, player.ID)
			seen[player.ID] = struct{}{}
		}
	}
	departed := make([]string, 0)
	for authorID := range room.OriginalDrawings {
		if _, ok := seen[authorID]; !ok {
			departed = append(departed, authorID)
		}
	}
	sort.Strings(departed)
	authorIDs = append(authorIDs, departed...)

	for _, authorID := range authorIDs {
		original := room.OriginalDrawings[authorID]
		set := &DrawingSet{
			OriginalID: original.ID,
			Drawings:   []*Drawing{original},
			Votes:      make(map[string]string),
		}
		for _, copies := range room.CopiedDrawings {
			if copy, ok := copies[authorID]; ok {
				set.Drawings = append(set.Drawings, copy)
			}
		}
		for copierID, targets := range room.CopyAssignments {
			for _, targetID := range targets {
				if targetID != authorID {
					continue
				}
				if _, ok := room.CopiedDrawings[copierID][authorID]; ok {
					continue
				}
				set.Drawings = append(set.Drawings, &Drawing{
					ID:       "copy_" + copierID + "_" + authorID,
					AuthorID: copierID,
					Kind:     drawingKindCopy,
					TargetID: authorID,
					Payload:  blankPNG,
				})
			}
		}
		set.Drawings = shuffledDrawings(set.Drawings)
		room.DrawingSets = append(room.DrawingSets, set)
	}
}

// startVotingSet presents the set at the cursor, skipping any set with
// no eligible voters, and moves to results when the cursor runs off the
// end. Called with the room lock held.
func (s *Server) startVotingSet(room *Room) {
	for room.CurrentSet < len(room.DrawingSets) {
		set := room.DrawingSets[room.CurrentSet]
		eligible := room.eligibleVoters(set)
		if len(eligible) == 0 {
			s.events.ToRoom(room.ID, eventVotingExcluded, map[string]any{
				"set_index": room.CurrentSet,
				"reason":    "no eligible voters",
			})
			s.log.Info().Str("room_id", room.ID).Int("set_index", room.CurrentSet).
				Msg("skipping voting set with no eligible voters")
			room.CurrentSet++
			continue
		}

		eligibleIDs := make(map[string]struct{}, len(eligible))
		for _, voter := range eligible {
			eligibleIDs[voter.ID] = struct{}{}
		}
		for _, player := range room.Players {
			if _, ok := eligibleIDs[player.ID]; ok {
				drawings := make([]map[string]any, 0, len(set.Drawings))
				for _, drawing := range shuffledDrawings(set.Drawings) {
					drawings = append(drawings, map[string]any{
						"drawing_id": drawing.ID,
						"image":      encodeImageData(drawing.Payload),
					})
				}
				s.events.ToPlayer(player.ID, eventVotingRound, map[string]any{
					"set_index": room.CurrentSet,
					"set_count": len(room.DrawingSets),
					"drawings":  drawings,
					"seconds":   s.cfg.VotingSeconds,
				})
			} else {
				s.events.ToPlayer(player.ID, eventVotingExcluded, map[string]any{
					"set_index": room.CurrentSet,
					"reason":    "you have a drawing in this set",
				})
			}
		}
		s.schedulePhase(room, phaseVoting, time.Duration(s.cfg.VotingSeconds)*time.Second)
		return
	}
	s.enterResults(room)
}

func (s *Server) advanceVotingSet(room *Room) {
	room.CurrentSet++
	s.startVotingSet(room)
}

// SubmitVote records one vote on the current set. Votes are final; a
// second vote on the same set is rejected rather than overwriting the
// first.
func (s *Server) SubmitVote(playerID, drawingID string) error {
	roomID, ok := s.registry.RoomForPlayer(playerID)
	if !ok {
		return ErrNotInRoom
	}
	return s.updateRoom(roomID, func(room *Room) error {
		if room.Phase != phaseVoting {
			return ErrWrongPhase
		}
		player, found := room.findPlayer(playerID)
		if !found {
			return ErrUnknownPlayer
		}
		set := room.currentSet()
		if set == nil {
			return ErrSetExhausted
		}
		if _, authored := set.setAuthors()[playerID]; authored {
			return ErrNotEligible
		}
		if _, voted := set.Votes[playerID]; voted {
			return ErrAlreadyVoted
		}
		if !set.hasDrawing(drawingID) {
			return ErrUnknownDrawing
		}
		set.Votes[playerID] = drawingID
		player.VotesCast++
		s.events.ToRoom(room.ID, eventVoteCast, map[string]any{
			"set_index":      room.CurrentSet,
			"votes_received": len(set.Votes),
			"votes_expected": len(room.eligibleVoters(set)),
		})
		s.log.Info().Str("room_id", roomID).Str("player_id", playerID).
			Int("set_index", room.CurrentSet).Msg("vote recorded")
		s.maybeFinishVotingSet(room)
		return nil
	})
}

func (s *Server) maybeFinishVotingSet(room *Room) {
	if room.Phase != phaseVoting {
		return
	}
	set := room.currentSet()
	if set == nil {
		return
	}
	for _, voter := range room.eligibleVoters(set) {
		if _, voted := set.Votes[voter.ID]; !voted {
			return
		}
	}
	next := phaseVoting
	if room.CurrentSet+1 >= len(room.DrawingSets) {
		next = phaseResults
	}
	s.earlyAdvance(room, next, "all votes received")
}
