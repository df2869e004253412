package server

import (
	"sort"
	"sync"

	"pixel-plagiarist/internal/config"
)

// Registry maps room ids to rooms and player ids to the room they are
// in. It guards only its own maps; room state has its own lock.
type Registry struct {
	mu          sync.Mutex
	rooms       map[string]*Room
	playerRooms map[string]string
	cfg         config.Config
}

func NewRegistry(cfg config.Config) *Registry {
	return &Registry{
		rooms:       make(map[string]*Room),
		playerRooms: make(map[string]string),
		cfg:         cfg,
	}
}

func (reg *Registry) CreateRoom(minStake int) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.createRoomLocked(minStake)
}

func (reg *Registry) createRoomLocked(minStake int) *Room {
	room := &Room{
		ID:                  newRoomID(),
		MinStake:            minStake,
		Phase:               phaseWaiting,
		CreatedAt:           timeNowUTC(),
		MinPlayers:          reg.cfg.MinPlayers,
		MaxPlayers:          reg.cfg.MaxPlayers,
		PlayerPrompts:       make(map[string]string),
		OriginalDrawings:    make(map[string]*Drawing),
		CopyAssignments:     make(map[string][]string),
		CopiedDrawings:      make(map[string]map[string]*Drawing),
		PercentagePenalties: make(map[string]float64),
	}
	reg.rooms[room.ID] = room
	return room
}

func (reg *Registry) Get(roomID string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[roomID]
	return room, ok
}

func (reg *Registry) Remove(roomID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, roomID)
	for playerID, id := range reg.playerRooms {
		if id == roomID {
			delete(reg.playerRooms, playerID)
		}
	}
}

func (reg *Registry) TrackPlayer(playerID, roomID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.playerRooms[playerID] = roomID
}

func (reg *Registry) UntrackPlayer(playerID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.playerRooms, playerID)
}

// RoomForPlayer returns the id of the room the player is tracked in.
func (reg *Registry) RoomForPlayer(playerID string) (string, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	roomID, ok := reg.playerRooms[playerID]
	return roomID, ok
}

// EnsureOpenRooms guarantees at least one joinable waiting room per
// configured stake tier. It returns the rooms it had to create.
// Concurrent callers can briefly leave a tier with two open rooms;
// the invariant is at-least-one, never exactly-one.
func (reg *Registry) EnsureOpenRooms() []*Room {
	var missing []int
	for _, tier := range reg.cfg.StakeTiers {
		if !reg.hasOpenRoom(tier) {
			missing = append(missing, tier)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	created := make([]*Room, 0, len(missing))
	for _, tier := range missing {
		created = append(created, reg.createRoomLocked(tier))
	}
	return created
}

// hasOpenRoom snapshots the room list before touching any room lock,
// so the registry lock is never held while a room lock is taken.
func (reg *Registry) hasOpenRoom(minStake int) bool {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.mu.Unlock()

	for _, room := range rooms {
		room.mu.Lock()
		open := room.MinStake == minStake &&
			room.Phase == phaseWaiting &&
			len(room.Players) < room.MaxPlayers
		room.mu.Unlock()
		if open {
			return true
		}
	}
	return false
}

// ListWaitingRooms returns lobby summaries for rooms still accepting
// players, oldest first.
func (reg *Registry) ListWaitingRooms() []RoomSummary {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.mu.Unlock()

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		room.mu.Lock()
		if room.Phase == phaseWaiting {
			summaries = append(summaries, RoomSummary{
				ID:          room.ID,
				MinStake:    room.MinStake,
				Phase:       room.Phase,
				PlayerCount: len(room.Players),
				MaxPlayers:  room.MaxPlayers,
				CreatedAt:   room.CreatedAt,
			})
		}
		room.mu.Unlock()
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}
