package server

import "errors"

var (
	ErrRoomFull            = errors.New("room is full")
	ErrRoomNotFound        = errors.New("room not found")
	ErrWrongPhase          = errors.New("action not accepted in this phase")
	ErrUnknownPlayer       = errors.New("player not in room")
	ErrDuplicateSubmission = errors.New("submission already recorded")
	ErrNotEligible         = errors.New("not eligible to vote on this set")
	ErrAlreadyVoted        = errors.New("vote already recorded for this set")
	ErrUnknownDrawing      = errors.New("drawing not in current set")
	ErrSetExhausted        = errors.New("no voting set is active")
	ErrInsufficientBalance = errors.New("stake exceeds available balance")
	ErrBelowMinimumStake   = errors.New("stake is below the room minimum")
	ErrTargetNotAssigned   = errors.New("target is not among assigned copy targets")
	ErrNotInRoom           = errors.New("player is not in a room")
	ErrAlreadyInRoom       = errors.New("player is already in another room")
	ErrDrawingTooLarge     = errors.New("drawing exceeds maximum size")
	ErrCannotLeaveNow      = errors.New("cannot leave room after game has started")
)
