package server

import (
	"math/rand"

	"gorm.io/gorm"

	"pixel-plagiarist/internal/db"
)

// fallbackPrompts keep a game playable when the prompt library is empty
// or the database is absent.
var fallbackPrompts = []string{
	"Cat wearing a hat",
	"Flying book",
	"Sad rain cloud",
	"Robot making tea",
	"Dancing cactus",
	"Upside-down house",
}

// loadPrompts pulls the prompt library from the database, falling back
// to the built-in list.
func loadPrompts(conn *gorm.DB) []string {
	prompts, err := db.AllPrompts(conn)
	if err != nil || len(prompts) == 0 {
		return fallbackPrompts
	}
	return prompts
}

// assignPrompts gives each roster member a distinct prompt, cycling when
// there are more players than prompts. Called once at game start under
// the room lock.
func (s *Server) assignPrompts(room *Room) {
	available := make([]string, len(s.prompts))
	copy(available, s.prompts)
	rand.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})
	room.PlayerPrompts = make(map[string]string, len(room.Players))
	for i, player := range room.Players {
		room.PlayerPrompts[player.ID] = available[i%len(available)]
	}
}
