package server

import (
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// newRoomID returns a short uppercase room code.
func newRoomID() string {
	return strings.ToUpper(uuid.New().String()[:8])
}

func newPlayerID() string {
	return uuid.New().String()
}

func shuffledPlayerIDs(players []*Player) []string {
	ids := make([]string, len(players))
	for i, player := range players {
		ids[i] = player.ID
	}
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	return ids
}

func shuffledDrawings(drawings []*Drawing) []*Drawing {
	out := make([]*Drawing, len(drawings))
	copy(out, drawings)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
