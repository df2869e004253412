package server

import (
	"encoding/json"
	"errors"
)

const (
	actionCreateRoom      = "create_room"
	actionJoinRoom        = "join_room"
	actionLeaveRoom       = "leave_room"
	actionPlaceBet        = "place_bet"
	actionSubmitOriginal  = "submit_original"
	actionSubmitCopy      = "submit_copy"
	actionSubmitVote      = "submit_vote"
	actionRequestRoomList = "request_room_list"
)

type createRoomRequest struct {
	Username string `json:"username"`
	MinStake int    `json:"min_stake"`
}

type joinRoomRequest struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
}

type placeBetRequest struct {
	Amount float64 `json:"amount"`
}

type submitOriginalRequest struct {
	ImageData string `json:"image_data"`
}

type submitCopyRequest struct {
	TargetID  string `json:"target_id"`
	ImageData string `json:"image_data"`
}

type submitVoteRequest struct {
	DrawingID string `json:"drawing_id"`
}

func decodeAction(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return errors.New("missing action data")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.New("malformed action data")
	}
	return nil
}

func (s *Server) dispatchAction(playerID, action string, data json.RawMessage) {
	var err error
	switch action {
	case actionCreateRoom:
		var req createRoomRequest
		if err = decodeAction(data, &req); err == nil {
			var roomID string
			roomID, err = s.CreateRoom(playerID, req.Username, req.MinStake)
			if err == nil {
				s.events.ToPlayer(playerID, eventRoomCreated, map[string]any{
					"room_id": roomID,
				})
			}
		}
	case actionJoinRoom:
		var req joinRoomRequest
		if err = decodeAction(data, &req); err == nil {
			if joinErr := s.JoinRoom(req.RoomID, playerID, req.Username); joinErr != nil {
				s.events.ToPlayer(playerID, eventJoinError, map[string]any{
					"room_id": req.RoomID,
					"error":   joinErr.Error(),
				})
			}
		}
	case actionLeaveRoom:
		err = s.LeaveRoom(playerID)
	case actionPlaceBet:
		var req placeBetRequest
		if err = decodeAction(data, &req); err == nil {
			err = s.PlaceBet(playerID, req.Amount)
		}
	case actionSubmitOriginal:
		var req submitOriginalRequest
		if err = decodeAction(data, &req); err == nil {
			err = s.SubmitOriginal(playerID, req.ImageData)
		}
	case actionSubmitCopy:
		var req submitCopyRequest
		if err = decodeAction(data, &req); err == nil {
			err = s.SubmitCopy(playerID, req.TargetID, req.ImageData)
		}
	case actionSubmitVote:
		var req submitVoteRequest
		if err = decodeAction(data, &req); err == nil {
			err = s.SubmitVote(playerID, req.DrawingID)
		}
	case actionRequestRoomList:
		s.events.ToPlayer(playerID, eventRoomListUpdated, map[string]any{
			"rooms": s.registry.ListWaitingRooms(),
		})
	default:
		err = errors.New("unknown action")
	}
	if err != nil {
		s.sendActionError(playerID, action, err)
	}
}
