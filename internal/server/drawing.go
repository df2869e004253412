package server

import (
	"time"
)

func (s *Server) enterDrawing(room *Room) {
	room.Phase = phaseDrawing
	s.applyDefaultStakes(room)
	d := time.Duration(s.cfg.DrawingSeconds) * time.Second
	for _, player := range room.Players {
		s.events.ToPlayer(player.ID, eventPhaseChanged, map[string]any{
			"phase":   phaseDrawing,
			"prompt":  room.PlayerPrompts[player.ID],
			"seconds": s.cfg.DrawingSeconds,
		})
	}
	s.schedulePhase(room, phaseDrawing, d)
}

// SubmitOriginal records a player's drawing of their assigned prompt.
// Each player may submit exactly one original per game.
func (s *Server) SubmitOriginal(playerID string, imageData string) error {
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
		if room.Phase != phaseDrawing {
			return ErrWrongPhase
		}
		player, found := room.findPlayer(playerID)
		if !found {
			return ErrUnknownPlayer
		}
		if _, exists := room.OriginalDrawings[playerID]; exists {
			return ErrDuplicateSubmission
		}
		room.OriginalDrawings[playerID] = &Drawing{
			ID:       "original_" + playerID,
			AuthorID: playerID,
			Kind:     drawingKindOriginal,
			Payload:  payload,
		}
		player.HasDrawnOriginal = true
		s.events.ToPlayer(playerID, eventDrawingSubmitted, map[string]any{
			"drawing_id": "original_" + playerID,
		})
		s.log.Info().Str("room_id", roomID).Str("player_id", playerID).
			Int("bytes", len(payload)).Msg("original submitted")
		s.maybeFinishDrawing(room)
		return nil
	})
}

func (s *Server) maybeFinishDrawing(room *Room) {
	if room.Phase != phaseDrawing {
		return
	}
	for _, player := range room.Players {
		if _, ok := room.OriginalDrawings[player.ID]; !ok {
			return
		}
	}
	s.earlyAdvance(room, phaseCopying, "all originals submitted")
}
