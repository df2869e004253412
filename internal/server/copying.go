package server

import (
	"time"
)

func (s *Server) enterCopying(room *Room) {
	room.Phase = phaseCopying
	if !room.assignmentsMade {
		s.assignCopyTargets(room)
		room.assignmentsMade = true
	}
	d := time.Duration(s.cfg.CopyingSeconds) * time.Second
	for _, player := range room.Players {
		targets := make([]map[string]any, 0, len(room.CopyAssignments[player.ID]))
		for _, targetID := range room.CopyAssignments[player.ID] {
			original := room.OriginalDrawings[targetID]
			entry := map[string]any{
				"target_id": targetID,
				"drawing":   encodeImageData(original.Payload),
			}
			if target, ok := room.findPlayer(targetID); ok {
				entry["username"] = target.Username
			}
			targets = append(targets, entry)
		}
		s.events.ToPlayer(player.ID, eventCopyingPhase, map[string]any{
			"phase":   phaseCopying,
			"targets": targets,
			"seconds": s.cfg.CopyingSeconds,
		})
	}
	s.schedulePhase(room, phaseCopying, d)
	s.maybeFinishCopying(room)
}

// assignCopyTargets hands each player the next one or two players in a
// shuffled ring. Targets without an original to copy are skipped, so a
// player's required copy count is exactly the assignments recorded
// here.
func (s *Server) assignCopyTargets(room *Room) {
	ids := shuffledPlayerIDs(room.Players)
	n := len(ids)
	if n == 0 {
		return
	}
	perPlayer := 2
	if n <= 3 {
		perPlayer = 1
	}
	for p, id := range ids {
		for i := 0; i < perPlayer; i++ {
			targetID := ids[(p+1+i)%n]
			if targetID == id {
				continue
			}
			if _, ok := room.OriginalDrawings[targetID]; !ok {
				continue
			}
			room.CopyAssignments[id] = append(room.CopyAssignments[id], targetID)
		}
	}
}

// SubmitCopy records a player's reproduction of one assigned target's
// original. Targets outside the player's assignment list are rejected
// outright.
func (s *Server) SubmitCopy(playerID, targetID, imageData string) error {
	roomID, ok := s.registry.RoomForPlayer(playerID)
	if !ok {
		return ErrNotInRoom
	}
	payload, err := decodeImageData(imageData)
	if err != nil {
		return err
	}
	if len(payload) > maxDrawingBytes {
		return ErrDrawingTooLarge
	}
	return s.updateRoom(roomID, func(room *Room) error {
		if room.Phase != phaseCopying {
			return ErrWrongPhase
		}
		player, found := room.findPlayer(playerID)
		if !found {
			return ErrUnknownPlayer
		}
		assigned := false
		for _, id := range room.CopyAssignments[playerID] {
			if id == targetID {
				assigned = true
				break
			}
		}
		if !assigned {
			return ErrTargetNotAssigned
		}
		if _, exists := room.CopiedDrawings[playerID][targetID]; exists {
			return ErrDuplicateSubmission
		}
		if room.CopiedDrawings[playerID] == nil {
			room.CopiedDrawings[playerID] = make(map[string]*Drawing)
		}
		room.CopiedDrawings[playerID][targetID] = &Drawing{
			ID:       "copy_" + playerID + "_" + targetID,
			AuthorID: playerID,
			Kind:     drawingKindCopy,
			TargetID: targetID,
			Payload:  payload,
		}
		player.CompletedCopies++
		s.events.ToPlayer(playerID, eventCopySubmitted, map[string]any{
			"drawing_id": "copy_" + playerID + "_" + targetID,
			"target_id":  targetID,
		})
		s.log.Info().Str("room_id", roomID).Str("player_id", playerID).
			Str("target_id", targetID).Msg("copy submitted")
		s.maybeFinishCopying(room)
		return nil
	})
}

func (s *Server) maybeFinishCopying(room *Room) {
	if room.Phase != phaseCopying {
		return
	}
	for _, player := range room.Players {
		if len(room.CopiedDrawings[player.ID]) < len(room.CopyAssignments[player.ID]) {
			return
		}
	}
	s.earlyAdvance(room, phaseVoting, "all copies submitted")
}
