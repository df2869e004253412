package server

import (
	"sync"
	"time"
)

const (
	phaseWaiting    = "waiting"
	phaseBetting    = "betting"
	phaseDrawing    = "drawing"
	phaseCopying    = "copying"
	phaseVoting     = "voting"
	phaseResults    = "results"
	phaseEndedEarly = "ended_early"
)

const (
	drawingKindOriginal = "original"
	drawingKindCopy     = "copy"
)

// Room is one independent play session. All mutable fields are guarded
// by mu; the registry hands out *Room but every mutation goes through
// Server.updateRoom.
type Room struct {
	mu sync.Mutex

	ID         string
	MinStake   int
	Phase      string
	CreatedAt  time.Time
	MinPlayers int
	MaxPlayers int

	PhaseStartedAt     time.Time
	PhaseEndsAt        time.Time
	CountdownStartedAt time.Time
	CountdownEndsAt    time.Time

	Players []*Player

	PlayerPrompts    map[string]string
	OriginalDrawings map[string]*Drawing
	CopyAssignments  map[string][]string
	CopiedDrawings   map[string]map[string]*Drawing

	DrawingSets []*DrawingSet
	CurrentSet  int

	PercentagePenalties map[string]float64

	// transition guards, one per idempotent step
	assignmentsMade bool
	setsBuilt       bool
	resultsComputed bool

	// timerEpoch invalidates in-flight deadline callbacks. It is bumped
	// every time a deadline is armed or its premise is cancelled, so a
	// callback that fired before a transition can never act on the state
	// that replaced it. The phase string alone is not enough: voting
	// spans one deadline per set under the same phase.
	timerEpoch uint64

	Settlement *Settlement
}

// Player is one participant in one room, not a global identity.
type Player struct {
	ID       string
	Username string

	Balance       float64
	BalanceBefore float64
	Stake         float64

	HasBet           bool
	HasDrawnOriginal bool
	CompletedCopies  int
	VotesCast        int
	CorrectVotes     int
	Connected        bool

	JoinedAt time.Time
}

// Drawing is one submitted (or placeholder) image.
type Drawing struct {
	ID       string
	AuthorID string
	Kind     string
	TargetID string
	Payload  []byte
}

// DrawingSet groups an original with all of its copies. It is the unit
// players vote on.
type DrawingSet struct {
	OriginalID string
	Drawings   []*Drawing
	Votes      map[string]string
}

// RoomSummary is the lobby-facing view of a waiting room.
type RoomSummary struct {
	ID          string    `json:"roomId"`
	MinStake    int       `json:"minStake"`
	Phase       string    `json:"phase"`
	PlayerCount int       `json:"playerCount"`
	MaxPlayers  int       `json:"maxPlayers"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (r *Room) findPlayer(playerID string) (*Player, bool) {
	for _, player := range r.Players {
		if player.ID == playerID {
			return player, true
		}
	}
	return nil, false
}

func (r *Room) removePlayerFromRoster(playerID string) (*Player, bool) {
	for i, player := range r.Players {
		if player.ID == playerID {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return player, true
		}
	}
	return nil, false
}

func (r *Room) inProgress() bool {
	switch r.Phase {
	case phaseWaiting, phaseResults, phaseEndedEarly:
		return false
	}
	return true
}

func (r *Room) currentSet() *DrawingSet {
	if r.CurrentSet < 0 || r.CurrentSet >= len(r.DrawingSets) {
		return nil
	}
	return r.DrawingSets[r.CurrentSet]
}

// setAuthors returns the ids of every player who authored an entry in
// the set. Authors are excluded from voting on it.
func (set *DrawingSet) setAuthors() map[string]struct{} {
	authors := make(map[string]struct{}, len(set.Drawings))
	for _, drawing := range set.Drawings {
		authors[drawing.AuthorID] = struct{}{}
	}
	return authors
}

func (set *DrawingSet) hasDrawing(drawingID string) bool {
	for _, drawing := range set.Drawings {
		if drawing.ID == drawingID {
			return true
		}
	}
	return false
}

// eligibleVoters returns roster members who authored nothing in the set.
func (r *Room) eligibleVoters(set *DrawingSet) []*Player {
	authors := set.setAuthors()
	voters := make([]*Player, 0, len(r.Players))
	for _, player := range r.Players {
		if _, authored := authors[player.ID]; !authored {
			voters = append(voters, player)
		}
	}
	return voters
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
