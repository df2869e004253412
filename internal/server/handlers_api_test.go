package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pixel-plagiarist/internal/config"
)

func doRequest(t *testing.T, handler http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	recorder := doRequest(t, s.Handler(), http.MethodGet, "/healthz")

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var body map[string]string
	decodeBody(t, recorder, &body)
	if body["status"] != "ok" {
		t.Fatalf("status field = %q, want ok", body["status"])
	}
}

func TestListRoomsReturnsOpenTiers(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	recorder := doRequest(t, s.Handler(), http.MethodGet, "/api/rooms")

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var body struct {
		Rooms []RoomSummary `json:"rooms"`
	}
	decodeBody(t, recorder, &body)
	if len(body.Rooms) != len(config.Default().StakeTiers) {
		t.Fatalf("listed %d rooms, want %d", len(body.Rooms), len(config.Default().StakeTiers))
	}
	for _, room := range body.Rooms {
		if room.Phase != phaseWaiting {
			t.Errorf("room %s phase = %q, want waiting", room.ID, room.Phase)
		}
		if room.PlayerCount != 0 {
			t.Errorf("room %s player count = %d, want 0", room.ID, room.PlayerCount)
		}
	}
}

func TestLeaderboardWithoutDatabase(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	recorder := doRequest(t, s.Handler(), http.MethodGet, "/api/leaderboard")

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var body struct {
		Leaderboard []json.RawMessage `json:"leaderboard"`
	}
	decodeBody(t, recorder, &body)
	if len(body.Leaderboard) != 0 {
		t.Fatalf("leaderboard has %d entries without a database", len(body.Leaderboard))
	}
}

func TestLeaderboardRejectsBadLimit(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	recorder := doRequest(t, s.Handler(), http.MethodGet, "/api/leaderboard?limit=banana")

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}

func TestPlayerStatsUnknownPlayer(t *testing.T) {
	s, _ := newTestServer(t, config.Default())
	recorder := doRequest(t, s.Handler(), http.MethodGet, "/api/players/nobody")

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", recorder.Code)
	}
}
