package server

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"pixel-plagiarist/internal/config"
)

type recordedEvent struct {
	target  string
	event   string
	payload any
}

// recordingBroadcaster captures everything the game logic emits so
// tests can assert on event flow without a websocket in the loop.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingBroadcaster) ToRoom(roomID, event string, payload any) {
	r.record("room:"+roomID, event, payload)
}

func (r *recordingBroadcaster) ToPlayer(playerID, event string, payload any) {
	r.record("player:"+playerID, event, payload)
}

func (r *recordingBroadcaster) ToAll(event string, payload any) {
	r.record("all", event, payload)
}

func (r *recordingBroadcaster) record(target, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{target: target, event: event, payload: payload})
}

func (r *recordingBroadcaster) count(target, event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, recorded := range r.events {
		if recorded.target == target && recorded.event == event {
			n++
		}
	}
	return n
}

func (r *recordingBroadcaster) last(target, event string) (recordedEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].target == target && r.events[i].event == event {
			return r.events[i], true
		}
	}
	return recordedEvent{}, false
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, *recordingBroadcaster) {
	t.Helper()
	s := newServer(nil, cfg, clockwork.NewFakeClock(), zerolog.New(io.Discard))
	rec := &recordingBroadcaster{}
	s.events = rec
	return s, rec
}

// waitingRoom returns the id of an open room at the given stake tier.
func waitingRoom(t *testing.T, s *Server, minStake int) string {
	t.Helper()
	for _, summary := range s.registry.ListWaitingRooms() {
		if summary.MinStake == minStake {
			return summary.ID
		}
	}
	t.Fatalf("no waiting room at stake %d", minStake)
	return ""
}

// joinPlayers joins n players named p1..pn and returns their ids.
func joinPlayers(t *testing.T, s *Server, roomID string, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("p%d", i)
		if err := s.JoinRoom(roomID, id, "Player"+fmt.Sprint(i)); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
		ids = append(ids, id)
	}
	return ids
}

func roomPhase(t *testing.T, s *Server, roomID string) string {
	t.Helper()
	phase := ""
	err := s.updateRoom(roomID, func(room *Room) error {
		phase = room.Phase
		return nil
	})
	if err != nil {
		t.Fatalf("read phase: %v", err)
	}
	return phase
}

func roomState(t *testing.T, s *Server, roomID string, read func(room *Room)) {
	t.Helper()
	err := s.updateRoom(roomID, func(room *Room) error {
		read(room)
		return nil
	})
	if err != nil {
		t.Fatalf("read room: %v", err)
	}
}

// roomEpoch reads the room's current timer epoch, the token a deadline
// callback must present before it is allowed to act.
func roomEpoch(t *testing.T, s *Server, roomID string) uint64 {
	t.Helper()
	var epoch uint64
	roomState(t, s, roomID, func(room *Room) {
		epoch = room.timerEpoch
	})
	return epoch
}

// fireCountdown runs the waiting-room countdown expiry as if its
// deadline had just elapsed.
func fireCountdown(t *testing.T, s *Server, roomID string) {
	t.Helper()
	s.countdownExpired(roomID, roomEpoch(t, s, roomID))
}

// firePhaseDeadline runs the phase expiry for the given phase as if its
// deadline had just elapsed.
func firePhaseDeadline(t *testing.T, s *Server, roomID, phase string) {
	t.Helper()
	s.phaseExpired(roomID, phase, roomEpoch(t, s, roomID))
}

func pngDataURL(t *testing.T, fill color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	draw.Draw(img, img.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func inkDrawing(t *testing.T) string {
	t.Helper()
	return pngDataURL(t, color.RGBA{R: 20, G: 20, B: 200, A: 255})
}

func blankDrawing(t *testing.T) string {
	t.Helper()
	return pngDataURL(t, color.White)
}
