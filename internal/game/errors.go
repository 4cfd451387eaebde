package game

import "errors"

// User-facing, non-fatal errors surfaced to the originating connection only.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrInvalidRoomCode  = errors.New("room code must be 4 characters")
	ErrNotEnoughPlayers = errors.New("need at least 2 players to start")
)
