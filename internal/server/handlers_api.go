package server

import (
	"net/http"
	"strconv"

	"pixel-plagiarist/internal/db"
)

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms": s.registry.ListWaitingRooms(),
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}
	entries, err := db.Leaderboard(s.db, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("leaderboard query failed")
		writeError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	if entries == nil {
		entries = []db.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"leaderboard": entries,
	})
}

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	playerID := r.PathValue("id")
	record, err := db.GetPlayerStats(s.db, playerID)
	if err != nil {
		s.log.Error().Str("player_id", playerID).Err(err).Msg("player stats query failed")
		writeError(w, http.StatusInternalServerError, "player stats unavailable")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
